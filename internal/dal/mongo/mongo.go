package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client represents a MongoDB client bound to the storefront database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Database returns the storefront database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Collection returns a collection of the storefront database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Close disconnects the client for graceful shutdown.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// MustNewClient connects to MongoDB using CHECKOUT_MONGO_URI.
func MustNewClient() *Client {
	timeout := time.Duration(viper.GetInt("mongo.timeout_seconds")) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(os.Getenv("CHECKOUT_MONGO_URI")).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		panic(fmt.Sprintf("Failed to ping MongoDB: %v", err))
	}

	slog.Info("MongoDB connected", "database", viper.GetString("mongo.database"))

	return &Client{
		client: client,
		db:     client.Database(viper.GetString("mongo.database")),
	}
}

package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/corray333/backend-labs/checkout/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/checkout-svc")
	viper.AddConfigPath(".")
	SetDefaults()
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the value of every tunable the config file may omit.
func SetDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.read_header_timeout", "10s")
	viper.SetDefault("server.http.shutdown_timeout", "15s")
	viper.SetDefault("server.grpc.port", "9090")

	viper.SetDefault("postgres.migrations_path", "./migrations")

	viper.SetDefault("mongo.database", "storefront")
	viper.SetDefault("mongo.collection", "orders")
	viper.SetDefault("mongo.timeout_seconds", 5)

	viper.SetDefault("checkout.currency", "INR")
	viper.SetDefault("checkout.redirect_delay.online", "2s")
	viper.SetDefault("checkout.redirect_delay.cod", "3s")
	viper.SetDefault("checkout.order_number_attempts", 3)

	viper.SetDefault("gateway.script_url", "https://checkout.razorpay.com/v1/checkout.js")
	viper.SetDefault("gateway.script_timeout", "5s")
	viper.SetDefault("gateway.session_ttl", "30m")
	viper.SetDefault("gateway.merchant_name", "OREBI Shopping")
	viper.SetDefault("gateway.description", "Payment for your order")
	viper.SetDefault("gateway.theme_color", "#262626")
	viper.SetDefault("gateway.account_active", true)

	viper.SetDefault("events.broker", "rabbitmq")
	viper.SetDefault("events.publish_timeout_seconds", 30)
	viper.SetDefault("events.outbox.poll_interval_seconds", 10)
	viper.SetDefault("events.outbox.batch_size", 100)
	viper.SetDefault("events.outbox.retry_interval_seconds", 30)
	viper.SetDefault("events.outbox.max_retries", 8)

	viper.SetDefault("jaeger.endpoint", "http://jaeger:14268/api/traces")
	viper.SetDefault("jaeger.username", "")
	viper.SetDefault("jaeger.password", "")
}

func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("log.level")),
	})
	log := slog.New(handler).With("service", "checkout-svc")
	slog.SetDefault(log)
}

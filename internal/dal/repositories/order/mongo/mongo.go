package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	mongoclient "github.com/corray333/backend-labs/checkout/internal/dal/mongo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection is the part of *mongo.Collection the repository uses.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Server error codes that mean a sorted query could not be served by an index.
var indexErrorCodes = []int{
	2,   // BadValue
	27,  // IndexNotFound
	96,  // OperationFailed: sort exceeded memory limit
	292, // QueryExceededMemoryLimitNoDiskUseAllowed
}

type OrderRepository struct {
	coll collection
	now  func() time.Time
}

type option func(*OrderRepository)

// WithClock overrides the time source used to stamp orders.
func WithClock(now func() time.Time) option {
	return func(r *OrderRepository) {
		r.now = now
	}
}

// NewOrderRepository creates the repository and makes sure the orders indexes exist.
func NewOrderRepository(client *mongoclient.Client, opts ...option) *OrderRepository {
	coll := client.Collection(viper.GetString("mongo.collection"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := EnsureIndexes(ctx, coll); err != nil {
		panic(err)
	}

	return newOrderRepository(coll, opts...)
}

func newOrderRepository(coll collection, opts ...option) *OrderRepository {
	r := &OrderRepository{
		coll: coll,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// EnsureIndexes creates the unique order number index and the lookup indexes.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("orderNumber_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "userEmail", Value: 1}},
			Options: options.Index().SetName("userEmail"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create orders indexes: %w", err)
	}

	return nil
}

// Create stamps the order as pending and inserts it.
func (r *OrderRepository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	now := r.now()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Status = order.StatusPending

	if err := o.Validate(); err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", order.ErrPersistence, err)
	}

	dal, err := OrderDalFromModel(&o)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", order.ErrPersistence, err)
	}

	res, err := r.coll.InsertOne(ctx, dal)
	if mongo.IsDuplicateKeyError(err) {
		return order.Order{}, fmt.Errorf("%w: %w: %s", order.ErrPersistence, order.ErrDuplicateOrderNumber, o.OrderNumber)
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: failed to insert order: %w", order.ErrPersistence, err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id.Hex()
	}

	slog.Info("Order created", "order_id", o.ID, "order_number", o.OrderNumber)

	return o, nil
}

// FindByID returns the order with the given id.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return order.Order{}, order.ErrNotFound
	}

	dal, err := r.findOne(ctx, oid)
	if err != nil {
		return order.Order{}, err
	}

	return dal.ToModel()
}

// FindByUser returns the orders of userID newest first. When the sorted query cannot
// use an index it is retried unsorted; when that fails or finds nothing and
// emailFallback is set, the orders placed with that email are returned instead.
func (r *OrderRepository) FindByUser(
	ctx context.Context,
	userID string,
	emailFallback string,
) ([]order.Order, error) {
	filter := bson.D{{Key: "userId", Value: userID}}
	sorted := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	dals, err := r.find(ctx, filter, sorted)
	if err != nil && isIndexError(err) {
		slog.Warn("Sorted order query needs an index, retrying unsorted", "user_id", userID, "error", err)
		dals, err = r.find(ctx, filter)
	}

	if (err != nil || len(dals) == 0) && emailFallback != "" {
		if err != nil {
			slog.Warn("Order query by user failed, falling back to email", "user_id", userID, "error", err)
		}

		return r.FindByEmail(ctx, emailFallback)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find orders of user %s: %w", userID, err)
	}

	return toModels(dals)
}

// FindByEmail returns the orders placed with email newest first.
func (r *OrderRepository) FindByEmail(ctx context.Context, email string) ([]order.Order, error) {
	dals, err := r.find(ctx, bson.D{{Key: "userEmail", Value: email}})
	if err != nil {
		return nil, fmt.Errorf("failed to find orders by email: %w", err)
	}

	return toModels(dals)
}

// UpdateStatus moves the order to status. It returns false when the order was changed
// concurrently and the update did not apply.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: %q", order.ErrInvalidStatus, status)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, order.ErrNotFound
	}

	current, err := r.findOne(ctx, oid)
	if err != nil {
		return false, err
	}

	from := order.Status(current.Status)
	if !from.CanTransitionTo(status) {
		return false, fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, from, status)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "status", Value: current.Status}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: status.String()},
			{Key: "updatedAt", Value: order.FormatTimestamp(r.now())},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return res.ModifiedCount == 1, nil
}

func (r *OrderRepository) findOne(ctx context.Context, id primitive.ObjectID) (*OrderDal, error) {
	var dal OrderDal
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&dal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	return &dal, nil
}

func (r *OrderRepository) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]OrderDal, error) {
	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	var dals []OrderDal
	if err := cur.All(ctx, &dals); err != nil {
		return nil, err
	}

	return dals, nil
}

// toModels sorts the documents newest first and converts them. Timestamps share one
// fixed-width layout, so comparing the strings orders them chronologically.
func toModels(dals []OrderDal) ([]order.Order, error) {
	slices.SortStableFunc(dals, func(a, b OrderDal) int {
		return strings.Compare(b.CreatedAt, a.CreatedAt)
	})

	orders := make([]order.Order, 0, len(dals))
	for i := range dals {
		o, err := dals[i].ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order %s: %w", dals[i].OrderNumber, err)
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func isIndexError(err error) bool {
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		for _, code := range indexErrorCodes {
			if srvErr.HasErrorCode(code) {
				return true
			}
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "index")
}

package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	docs []OrderDal

	sortErr  error
	findErr  error
	finds    []bson.D
	sortUsed []bool
}

func (f *fakeCollection) InsertOne(_ context.Context, document any, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	dal := *document.(*OrderDal)
	for _, d := range f.docs {
		if d.OrderNumber == dal.OrderNumber {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
		}
	}
	dal.ID = primitive.NewObjectID()
	f.docs = append(f.docs, dal)

	return &mongo.InsertOneResult{InsertedID: dal.ID}, nil
}

func (f *fakeCollection) Find(_ context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	d := filter.(bson.D)
	sorted := len(opts) > 0 && opts[0].Sort != nil
	f.finds = append(f.finds, d)
	f.sortUsed = append(f.sortUsed, sorted)

	if sorted && f.sortErr != nil {
		return nil, f.sortErr
	}
	if f.findErr != nil {
		return nil, f.findErr
	}

	var matched []any
	for _, doc := range f.docs {
		switch d[0].Key {
		case "userId":
			if doc.UserID == d[0].Value {
				matched = append(matched, doc)
			}
		case "userEmail":
			if doc.UserEmail == d[0].Value {
				matched = append(matched, doc)
			}
		}
	}

	return mongo.NewCursorFromDocuments(matched, nil, nil)
}

func (f *fakeCollection) FindOne(_ context.Context, filter any, _ ...*options.FindOneOptions) *mongo.SingleResult {
	id := filter.(bson.D)[0].Value.(primitive.ObjectID)
	for _, doc := range f.docs {
		if doc.ID == id {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}

	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter any, update any, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	fd := filter.(bson.D)
	id := fd[0].Value.(primitive.ObjectID)
	status := fd[1].Value.(string)
	set := update.(bson.D)[0].Value.(bson.D)

	for i := range f.docs {
		if f.docs[i].ID == id && f.docs[i].Status == status {
			f.docs[i].Status = set[0].Value.(string)
			f.docs[i].UpdatedAt = set[1].Value.(string)

			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}

	return &mongo.UpdateResult{}, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func codOrder(number, userID, email string) order.Order {
	return order.Order{
		OrderNumber:    number,
		UserID:         userID,
		UserEmail:      email,
		UserName:       "Guest",
		Items:          []order.Item{{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("100.00"), Quantity: 1}},
		Subtotal:       decimal.RequireFromString("100.00"),
		ShippingCharge: decimal.NewFromInt(30),
		Total:          decimal.RequireFromString("130.00"),
		PaymentMethod:  order.PaymentMethodCashOnDelivery,
	}
}

func TestCreateStampsPendingOrder(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	coll := &fakeCollection{}
	repo := newOrderRepository(coll, WithClock(fixedClock(now)))

	in := codOrder("ORB1", "u1", "a@b.c")
	in.Status = order.StatusDelivered

	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.True(t, got.CreatedAt.Equal(now), "createdAt %v", got.CreatedAt)
	assert.True(t, got.UpdatedAt.Equal(now), "updatedAt %v", got.UpdatedAt)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", coll.docs[0].CreatedAt)
	assert.Nil(t, coll.docs[0].PaymentID, "cash on delivery order must store a null payment id")

	stored, err := repo.FindByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(130)), "total %s", stored.Total)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Lamp", stored.Items[0].Name)
}

func TestCreateDuplicateNumber(t *testing.T) {
	repo := newOrderRepository(&fakeCollection{})
	ctx := context.Background()

	_, err := repo.Create(ctx, codOrder("ORB1", "u1", "a@b.c"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, codOrder("ORB1", "u2", "x@y.z"))
	require.ErrorIs(t, err, order.ErrDuplicateOrderNumber)
	assert.ErrorIs(t, err, order.ErrPersistence, "duplicate must also be a persistence error")
}

func TestCreateRejectsInconsistentTotals(t *testing.T) {
	repo := newOrderRepository(&fakeCollection{})
	o := codOrder("ORB1", "u1", "a@b.c")
	o.Total = decimal.NewFromInt(1)

	_, err := repo.Create(context.Background(), o)
	assert.ErrorIs(t, err, order.ErrPersistence)
	assert.ErrorIs(t, err, order.ErrTotalsMismatch)
}

func TestFindByUserSortsNewestFirst(t *testing.T) {
	coll := &fakeCollection{}
	ctx := context.Background()
	for i, ts := range []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		repo := newOrderRepository(coll, WithClock(fixedClock(ts)))
		_, err := repo.Create(ctx, codOrder("ORB"+string(rune('A'+i)), "u1", "a@b.c"))
		require.NoError(t, err)
	}

	orders, err := newOrderRepository(coll).FindByUser(ctx, "u1", "")
	require.NoError(t, err)

	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		numbers = append(numbers, o.OrderNumber)
	}
	assert.Equal(t, []string{"ORBB", "ORBA", "ORBC"}, numbers)
}

func TestFindByUserRetriesUnsortedOnIndexError(t *testing.T) {
	coll := &fakeCollection{
		sortErr: mongo.CommandError{Code: 292, Message: "Sort exceeded memory limit"},
	}
	repo := newOrderRepository(coll)
	_, err := repo.Create(context.Background(), codOrder("ORB1", "u1", "a@b.c"))
	require.NoError(t, err)

	orders, err := repo.FindByUser(context.Background(), "u1", "a@b.c")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, []bool{true, false}, coll.sortUsed, "expected a sorted query then an unsorted one")
}

func TestFindByUserFallsBackToEmail(t *testing.T) {
	coll := &fakeCollection{}
	repo := newOrderRepository(coll)
	// Placed before the account had a uid.
	_, err := repo.Create(context.Background(), codOrder("ORB1", "legacy", "a@b.c"))
	require.NoError(t, err)

	orders, err := repo.FindByUser(context.Background(), "u1", "a@b.c")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORB1", orders[0].OrderNumber)

	require.NotEmpty(t, coll.finds)
	assert.Equal(t, "userEmail", coll.finds[len(coll.finds)-1][0].Key, "last query must be the email lookup")
}

func TestFindByUserErrorWithoutEmail(t *testing.T) {
	boom := errors.New("connection reset")
	repo := newOrderRepository(&fakeCollection{findErr: boom})

	_, err := repo.FindByUser(context.Background(), "u1", "")
	assert.ErrorIs(t, err, boom)
}

func TestFindByUserEmptyWithoutEmail(t *testing.T) {
	orders, err := newOrderRepository(&fakeCollection{}).FindByUser(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := newOrderRepository(&fakeCollection{})

	for _, id := range []string{"not-hex", primitive.NewObjectID().Hex()} {
		_, err := repo.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, order.ErrNotFound, "FindByID(%q)", id)
	}
}

func TestUpdateStatus(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coll := &fakeCollection{}
	repo := newOrderRepository(coll, WithClock(fixedClock(created)))
	ctx := context.Background()

	o, err := repo.Create(ctx, codOrder("ORB1", "u1", "a@b.c"))
	require.NoError(t, err)

	later := created.Add(time.Hour)
	repo = newOrderRepository(coll, WithClock(fixedClock(later)))

	ok, err := repo.UpdateStatus(ctx, o.ID, order.StatusConfirmed)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, got.Status)
	assert.True(t, got.UpdatedAt.Equal(later), "updatedAt %v", got.UpdatedAt)

	tests := []struct {
		name   string
		status order.Status
		want   error
	}{
		{"skipping steps", order.StatusDelivered, order.ErrInvalidTransition},
		{"same status", order.StatusConfirmed, order.ErrInvalidTransition},
		{"unknown status", order.Status("lost"), order.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := repo.UpdateStatus(ctx, o.ID, tt.status)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = repo.UpdateStatus(ctx, primitive.NewObjectID().Hex(), order.StatusConfirmed)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestIsIndexError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"memory limit", mongo.CommandError{Code: 292}, true},
		{"index not found", mongo.CommandError{Code: 27}, true},
		{"message mentions index", errors.New("planner returned error: no index"), true},
		{"network", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isIndexError(tt.err))
		})
	}
}

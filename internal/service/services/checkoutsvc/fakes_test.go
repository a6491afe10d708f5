package checkoutsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iprofilerepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// journal records the order of side effects across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.entries...)
}

type fakeOrders struct {
	mu        sync.Mutex
	log       *journal
	orders    []order.Order
	err       error
	dupFirstN int
	creates   int
	// afterCreate runs once an order has been stored.
	afterCreate func()
}

func (f *fakeOrders) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeOrders) saved() []order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]order.Order(nil), f.orders...)
}

func (f *fakeOrders) Create(_ context.Context, o order.Order) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", order.ErrPersistence, f.err)
	}
	if f.creates <= f.dupFirstN {
		return order.Order{}, fmt.Errorf("%w: %w", order.ErrPersistence, order.ErrDuplicateOrderNumber)
	}
	o.ID = fmt.Sprintf("id-%d", len(f.orders)+1)
	o.Status = order.StatusPending
	o.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o.UpdatedAt = o.CreatedAt
	f.orders = append(f.orders, o)
	if f.log != nil {
		f.log.add("create")
	}
	if f.afterCreate != nil {
		f.afterCreate()
	}

	return o, nil
}

func (f *fakeOrders) FindByID(context.Context, string) (order.Order, error) {
	return order.Order{}, order.ErrNotFound
}

func (f *fakeOrders) FindByUser(context.Context, string, string) ([]order.Order, error) {
	return nil, nil
}

func (f *fakeOrders) FindByEmail(context.Context, string) ([]order.Order, error) {
	return nil, nil
}

func (f *fakeOrders) UpdateStatus(context.Context, string, order.Status) (bool, error) {
	return false, nil
}

type fakeCart struct {
	mu       sync.Mutex
	log      *journal
	items    []cart.LineItem
	itemsErr error
	clears   int
}

func (c *fakeCart) set(items ...cart.LineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *fakeCart) cleared() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clears
}

func (c *fakeCart) Items(context.Context) ([]cart.LineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.itemsErr != nil {
		return nil, c.itemsErr
	}

	return append([]cart.LineItem(nil), c.items...), nil
}

func (c *fakeCart) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	c.items = nil
	if c.log != nil {
		c.log.add("clear")
	}

	return nil
}

type fakeCartRepo struct {
	carts map[string]*fakeCart
}

func (r *fakeCartRepo) Items(ctx context.Context, userID string) ([]cart.LineItem, error) {
	c, ok := r.carts[userID]
	if !ok {
		return nil, nil
	}

	return c.Items(ctx)
}

func (r *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	if c, ok := r.carts[userID]; ok {
		return c.Clear(ctx)
	}

	return nil
}

type fakeProfiles struct {
	profiles map[string]identity.Profile
}

func (f *fakeProfiles) Get(_ context.Context, uid string) (identity.Profile, error) {
	p, ok := f.profiles[uid]
	if !ok {
		return identity.Profile{}, iprofilerepo.ErrProfileNotFound
	}

	return p, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []event.OrderEvent
}

func (f *fakeEvents) Publish(_ context.Context, events ...event.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)

	return nil
}

func (f *fakeEvents) ofType(t event.Type) []event.OrderEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.OrderEvent
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}

	return out
}

// fakeGateway uses a real adapter for sessions and lets tests break script loading
// or session opening.
type fakeGateway struct {
	*paymentgw.Gateway

	mu       sync.Mutex
	scriptOK bool
	openErr  error
	opened   int
	// skew is added to the amount of every opened session.
	skew   int64
	lastID string
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	gw := paymentgw.New(paymentgw.WithScriptURL(srv.URL), paymentgw.WithKeyID("rzp_test_key"))
	require.True(t, gw.LoadScript(context.Background()), "script did not load")

	return &fakeGateway{Gateway: gw, scriptOK: true}
}

func (f *fakeGateway) LoadScript(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.scriptOK
}

func (f *fakeGateway) OpenCheckout(ctx context.Context, req paymentgw.SessionRequest) (*paymentgw.Session, error) {
	f.mu.Lock()
	err := f.openErr
	f.opened++
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	session, err := f.Gateway.OpenCheckout(ctx, req)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	session.Options.Amount += f.skew
	f.lastID = session.ID
	f.mu.Unlock()

	return session, nil
}

func (f *fakeGateway) lastSession() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastID
}

func (f *fakeGateway) sessionsOpened() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.opened
}

type env struct {
	svc     *CheckoutService
	orders  *fakeOrders
	cart    *fakeCart
	gateway *fakeGateway
	events  *fakeEvents
	log     *journal
	profile identity.Profile
}

func newEnv(t *testing.T, opts ...option) *env {
	t.Helper()
	log := &journal{}
	e := &env{
		orders:  &fakeOrders{log: log},
		cart:    &fakeCart{log: log},
		gateway: newFakeGateway(t),
		events:  &fakeEvents{},
		log:     log,
		profile: identity.Profile{
			UID:         "u1",
			Email:       "asha@example.com",
			DisplayName: "Asha",
			Phone:       "9999999999",
			Address:     "1 Main St",
			City:        "Pune",
			Country:     "IN",
			Zip:         "411001",
		},
	}
	n := 0
	base := []option{
		WithOrderRepository(e.orders),
		WithGateway(e.gateway),
		WithEventPublisher(e.events),
		WithOrderNumberGenerator(func(time.Time) string {
			n++

			return fmt.Sprintf("ORB%d", n)
		}),
	}
	e.svc = MustNewCheckoutService(append(base, opts...)...)
	t.Cleanup(e.svc.Close)

	e.cart.set(
		cart.LineItem{ID: "p1", Name: "Mug", Price: decimal.NewFromInt(50), Quantity: 2},
		cart.LineItem{ID: "p2", Name: "Tea", Price: decimal.NewFromInt(30), Quantity: 1},
	)

	return e
}

func (e *env) start(t *testing.T) Attempt {
	t.Helper()
	a, err := e.svc.Start(context.Background(), e.profile, e.cart)
	require.NoError(t, err)

	return a
}

func (e *env) payOnline(t *testing.T, a Attempt) OnlineCheckout {
	t.Helper()
	oc, err := e.svc.PayOnline(context.Background(), a.ID, a.Totals.Total)
	require.NoError(t, err)
	require.NotNil(t, oc.Session, "no payment session opened")

	return oc
}

func (e *env) resolve(t *testing.T, sessionID string, res paymentgw.Result) Attempt {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := e.svc.ResolvePayment(ctx, e.profile.UID, sessionID, res)
	require.NoError(t, err)

	return a
}

var total160 = decimal.NewFromInt(160)

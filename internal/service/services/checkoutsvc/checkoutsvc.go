package checkoutsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ieventrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iprofilerepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/totals"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Gateway is the payment gateway adapter as checkout uses it.
type Gateway interface {
	LoadScript(ctx context.Context) bool
	OpenCheckout(ctx context.Context, req paymentgw.SessionRequest) (*paymentgw.Session, error)
	Resolve(sessionID string, res paymentgw.Result) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...event.OrderEvent) error { return nil }

// CheckoutService runs checkout attempts: one active attempt per user.
type CheckoutService struct {
	orders   iorderrepo.IOrderRepository
	profiles iprofilerepo.IProfileRepository
	carts    icartrepo.ICartRepository
	gateway  Gateway
	events   ieventrepo.IEventPublisher
	metrics  *metrics.Registry

	currency       currency.Currency
	onlineDelay    time.Duration
	codDelay       time.Duration
	numberAttempts int
	persistTimeout time.Duration
	newNumber      func(time.Time) string
	now            func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	attempts  map[string]*attempt
	byUser    map[string]string
	bySession map[string]string
}

// option is a function that configures the CheckoutService.
type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService. The order repository and the
// gateway are required.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &CheckoutService{
		events:         noopPublisher{},
		metrics:        metrics.NewRegistry(),
		currency:       currency.CurrencyINR,
		onlineDelay:    2 * time.Second,
		codDelay:       3 * time.Second,
		numberAttempts: 3,
		persistTimeout: 30 * time.Second,
		newNumber:      order.NewOrderNumber,
		now:            time.Now,
		ctx:            ctx,
		cancel:         cancel,
		attempts:       make(map[string]*attempt),
		byUser:         make(map[string]string),
		bySession:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orders == nil {
		panic("checkoutsvc: order repository is required")
	}
	if s.gateway == nil {
		panic("checkoutsvc: payment gateway is required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *CheckoutService) {
		s.orders = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithProfileRepository(repo iprofilerepo.IProfileRepository) option {
	return func(s *CheckoutService) {
		s.profiles = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithCartRepository(repo icartrepo.ICartRepository) option {
	return func(s *CheckoutService) {
		s.carts = repo
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithGateway(g Gateway) option {
	return func(s *CheckoutService) {
		s.gateway = g
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(p ieventrepo.IEventPublisher) option {
	return func(s *CheckoutService) {
		s.events = p
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(reg *metrics.Registry) option {
	return func(s *CheckoutService) {
		s.metrics = reg
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithCurrency(cur currency.Currency) option {
	return func(s *CheckoutService) {
		s.currency = cur
	}
}

// WithRedirectDelays sets how long the confirmation stays on screen before leaving checkout.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRedirectDelays(online, cod time.Duration) option {
	return func(s *CheckoutService) {
		s.onlineDelay = max(online, 0)
		s.codDelay = max(cod, 0)
	}
}

// WithOrderNumberAttempts sets how many order numbers are tried when one collides.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderNumberAttempts(n int) option {
	return func(s *CheckoutService) {
		s.numberAttempts = max(n, 1)
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderNumberGenerator(gen func(time.Time) string) option {
	return func(s *CheckoutService) {
		s.newNumber = gen
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *CheckoutService) {
		s.now = now
	}
}

// Close stops waiting on open payment sessions and waits for orders being saved.
func (s *CheckoutService) Close() {
	s.cancel()
	s.wg.Wait()
}

// StartForUser loads the profile and cart of userID concurrently and starts checkout.
func (s *CheckoutService) StartForUser(ctx context.Context, userID string) (Attempt, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.StartForUser")
	defer span.End()

	if userID == "" {
		return Attempt{}, apperr.New(apperr.Unauthorized, msgSignIn, ErrNotSignedIn)
	}

	c := NewUserCart(s.carts, userID)
	var (
		profile identity.Profile
		items   []cart.LineItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.Get(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		profile = p

		return nil
	})
	g.Go(func() error {
		it, err := c.Items(gctx)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		items = it

		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, iprofilerepo.ErrProfileNotFound) {
			return Attempt{}, apperr.New(apperr.Unauthorized, msgSignIn, err)
		}

		return Attempt{}, apperr.Wrap(err)
	}

	return s.start(profile, c, items)
}

// Start snapshots the cart and its totals into a new attempt for profile. An attempt
// holding a captured payment that was not saved yet is returned instead of a new one.
func (s *CheckoutService) Start(ctx context.Context, profile identity.Profile, c Cart) (Attempt, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.Start")
	defer span.End()

	if profile.UID == "" {
		return Attempt{}, apperr.New(apperr.Unauthorized, msgSignIn, ErrNotSignedIn)
	}

	items, err := c.Items(ctx)
	if err != nil {
		return Attempt{}, apperr.Wrap(fmt.Errorf("failed to load cart: %w", err))
	}

	return s.start(profile, c, items)
}

func (s *CheckoutService) start(profile identity.Profile, c Cart, items []cart.LineItem) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byUser[profile.UID]; ok {
		prev := s.attempts[id]
		switch {
		case prev.State.busy():
			return Attempt{}, errInProgress()
		case prev.PaymentID != "" && prev.State != StateCompleted:
			prev.profile = profile
			prev.cart = c
			s.touch(prev)

			return prev.snapshot(), nil
		}
		s.drop(prev)
	}

	if len(items) == 0 {
		return Attempt{}, errEmptyCart()
	}

	now := s.now()
	a := &attempt{
		Attempt: Attempt{
			ID:        uuid.NewString(),
			UserID:    profile.UID,
			State:     StateCalculating,
			Currency:  s.currency,
			CreatedAt: now,
			UpdatedAt: now,
		},
		profile: profile,
		cart:    c,
		changed: make(chan struct{}),
	}
	a.Items = items
	a.Totals = totals.Calculate(items)
	a.State = StateIdle

	s.attempts[a.ID] = a
	s.byUser[a.UserID] = a.ID

	slog.Info("Checkout started", "attempt_id", a.ID, "user_id", a.UserID, "total", a.Totals.Total.String())

	return a.snapshot(), nil
}

// Get returns the current snapshot of an attempt.
func (s *CheckoutService) Get(_ context.Context, attemptID string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[attemptID]
	if !ok {
		return Attempt{}, errAttemptNotFound()
	}

	return a.snapshot(), nil
}

// Await blocks until the attempt is no longer waiting on the gateway or on the order
// being saved.
func (s *CheckoutService) Await(ctx context.Context, attemptID string) (Attempt, error) {
	for {
		s.mu.Lock()
		a, ok := s.attempts[attemptID]
		if !ok {
			s.mu.Unlock()

			return Attempt{}, errAttemptNotFound()
		}
		if !a.State.busy() {
			snap := a.snapshot()
			s.mu.Unlock()

			return snap, nil
		}
		changed := a.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return Attempt{}, ctx.Err()
		}
	}
}

// ResolvePayment relays the widget outcome of sessionID and waits for checkout to act on it.
func (s *CheckoutService) ResolvePayment(
	ctx context.Context,
	userID string,
	sessionID string,
	res paymentgw.Result,
) (Attempt, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.ResolvePayment")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID), attribute.String("result", res.Kind.String()))

	s.mu.Lock()
	attemptID, ok := s.bySession[sessionID]
	if ok {
		a := s.attempts[attemptID]
		ok = a != nil && a.UserID == userID
	}
	s.mu.Unlock()

	notFound := apperr.New(apperr.NotFound, msgSessionNotFound, paymentgw.ErrSessionNotFound)
	if !ok {
		return Attempt{}, notFound
	}
	if err := s.gateway.Resolve(sessionID, res); err != nil {
		return Attempt{}, notFound
	}

	return s.Await(ctx, attemptID)
}

// touch records a change of a and wakes its waiters. Callers hold s.mu.
func (s *CheckoutService) touch(a *attempt) {
	a.UpdatedAt = s.now()
	close(a.changed)
	a.changed = make(chan struct{})
}

// setState moves a to st. Callers hold s.mu.
func (s *CheckoutService) setState(a *attempt, st State) {
	a.State = st
	s.touch(a)
}

// drop forgets a. Callers hold s.mu.
func (s *CheckoutService) drop(a *attempt) {
	delete(s.attempts, a.ID)
	if s.byUser[a.UserID] == a.ID {
		delete(s.byUser, a.UserID)
	}
	if a.SessionID != "" {
		delete(s.bySession, a.SessionID)
	}
}

func (s *CheckoutService) snapshot(a *attempt) Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	return a.snapshot()
}

// settle leaves a in the resting state st with a notice for the shopper.
func (s *CheckoutService) settle(a *attempt, st State, level NoticeLevel, msg string, fallback bool) Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Notice = &Notice{Level: level, Message: msg}
	a.FallbackOffered = fallback
	s.setState(a, st)

	return a.snapshot()
}

func (s *CheckoutService) publish(ctx context.Context, events ...event.OrderEvent) {
	if err := s.events.Publish(ctx, events...); err != nil {
		slog.Error("Failed to publish order events", "count", len(events), "error", err)
	}
}

package checkoutsvc

import (
	"context"
	"slices"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/totals"
)

// State is the position of a checkout attempt in its lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateCalculating     State = "calculating"
	StateAwaitingGateway State = "awaiting_gateway"
	StateSucceeded       State = "succeeded"
	// StateFailed and StateCancelled accept a new payment choice like StateIdle.
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
	StatePersisting State = "persisting"
	StateCompleted  State = "completed"
	// StateBlocked means online payment is misconfigured. Terminal.
	StateBlocked State = "blocked"
)

// busy states reject a second payment submission.
func (s State) busy() bool {
	return slices.Contains([]State{StateCalculating, StateAwaitingGateway, StateSucceeded, StatePersisting}, s)
}

// Cart is the shopper's cart as checkout sees it. Checkout only clears it after the
// order is saved.
type Cart interface {
	Items(ctx context.Context) ([]cart.LineItem, error)
	Clear(ctx context.Context) error
}

type userCart struct {
	repo   icartrepo.ICartRepository
	userID string
}

// NewUserCart binds the cart repository to one user.
func NewUserCart(repo icartrepo.ICartRepository, userID string) Cart {
	return &userCart{repo: repo, userID: userID}
}

func (c *userCart) Items(ctx context.Context) ([]cart.LineItem, error) {
	return c.repo.Items(ctx, c.userID)
}

func (c *userCart) Clear(ctx context.Context) error {
	return c.repo.Clear(ctx, c.userID)
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

// Notice is the message shown to the shopper for the latest event of the attempt.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Navigation asks the client to leave checkout for Path once After has elapsed.
type Navigation struct {
	Path  string
	After time.Duration
}

// Attempt is a snapshot of one checkout attempt.
type Attempt struct {
	ID       string
	UserID   string
	State    State
	Items    []cart.LineItem
	Totals   totals.Totals
	Currency currency.Currency
	// PaymentID is kept once a payment is captured, so a failed save can be retried without charging again.
	PaymentID       string
	SessionID       string
	Order           *order.Order
	Notice          *Notice
	Navigation      *Navigation
	FallbackOffered bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OnlineCheckout is the result of choosing online payment. Session is nil when no
// widget needs to be opened.
type OnlineCheckout struct {
	Attempt Attempt
	Session *paymentgw.Session
}

type attempt struct {
	Attempt
	profile identity.Profile
	cart    Cart
	method  order.PaymentMethod
	// changed is closed and replaced on every state change.
	changed chan struct{}
}

func (a *attempt) snapshot() Attempt {
	s := a.Attempt
	s.Items = slices.Clone(a.Items)
	if a.Order != nil {
		o := *a.Order
		s.Order = &o
	}
	if a.Notice != nil {
		n := *a.Notice
		s.Notice = &n
	}
	if a.Navigation != nil {
		nav := *a.Navigation
		s.Navigation = &nav
	}

	return s
}

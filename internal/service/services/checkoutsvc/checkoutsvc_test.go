package checkoutsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CheckoutTestSuite struct {
	suite.Suite
	env *env
}

func TestCheckoutTestSuite(t *testing.T) {
	suite.Run(t, new(CheckoutTestSuite))
}

func (s *CheckoutTestSuite) SetupTest() {
	s.env = newEnv(s.T())
}

func (s *CheckoutTestSuite) publicError(err error) *apperr.AppError {
	ae, ok := apperr.As(err)
	s.Require().True(ok, "expected a public error, got %v", err)

	return ae
}

func (s *CheckoutTestSuite) TestStartSnapshotsTotals() {
	a := s.env.start(s.T())

	s.Equal(StateIdle, a.State)
	s.True(a.Totals.Subtotal.Equal(decimal.NewFromInt(130)), "subtotal %s", a.Totals.Subtotal)
	s.True(a.Totals.Total.Equal(total160), "total %s", a.Totals.Total)
	s.Len(a.Items, 2)
}

func (s *CheckoutTestSuite) TestStartEmptyCartRedirects() {
	s.env.cart.set()

	_, err := s.env.svc.Start(context.Background(), s.env.profile, s.env.cart)
	s.Require().ErrorIs(err, ErrEmptyCart)
	s.Equal("/cart", s.publicError(err).Redirect)
}

func (s *CheckoutTestSuite) TestStartRequiresIdentity() {
	_, err := s.env.svc.Start(context.Background(), identity.Profile{}, s.env.cart)
	s.ErrorIs(err, ErrNotSignedIn)
}

func (s *CheckoutTestSuite) TestOnlinePaymentPersistsOrder() {
	e := s.env
	a := e.start(s.T())

	oc := e.payOnline(s.T(), a)
	s.Require().Equal(StateAwaitingGateway, oc.Attempt.State)
	s.Equal(int64(16000), oc.Session.Options.Amount)
	s.Equal("asha@example.com", oc.Session.Options.Prefill.Email)

	done := e.resolve(s.T(), oc.Session.ID, paymentgw.Succeeded("pay_123"))
	s.Require().Equal(StateCompleted, done.State)

	saved := e.orders.saved()
	s.Require().Len(saved, 1)
	o := saved[0]
	s.Equal(order.PaymentMethodOnline, o.PaymentMethod)
	s.Require().NotNil(o.PaymentID)
	s.Equal("pay_123", *o.PaymentID)
	s.Equal(order.StatusPending, o.Status)
	s.True(o.Total.Equal(total160), "total %s, want the displayed 160", o.Total)

	s.Require().NotNil(done.Navigation)
	s.Equal("/", done.Navigation.Path)
	s.Equal(2*time.Second, done.Navigation.After)
	s.Require().NotNil(done.Notice)
	s.Equal("Payment successful! Order placed successfully.", done.Notice.Message)
	s.Equal([]string{"create", "clear"}, e.log.list())

	evs := e.events.ofType(event.TypeOrderCreated)
	s.Require().Len(evs, 1)
	s.Equal("pay_123", evs[0].PaymentID)
}

func (s *CheckoutTestSuite) TestCashOnDeliveryPersistsOrder() {
	e := s.env
	a := e.start(s.T())

	done, err := e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.Require().NoError(err)
	s.Require().Equal(StateCompleted, done.State)

	o := e.orders.saved()[0]
	s.True(o.Subtotal.Equal(decimal.NewFromInt(130)), "subtotal %s", o.Subtotal)
	s.True(o.ShippingCharge.Equal(decimal.NewFromInt(30)), "shipping %s", o.ShippingCharge)
	s.True(o.Total.Equal(total160), "total %s", o.Total)
	s.Equal(order.PaymentMethodCashOnDelivery, o.PaymentMethod)
	s.Nil(o.PaymentID)
	s.Equal("Asha", o.UserName)
	s.Equal("Pune", o.ShippingAddress.City)

	s.Require().NotNil(done.Navigation)
	s.Equal(3*time.Second, done.Navigation.After)
	s.Require().NotNil(done.Notice)
	s.Equal("Order confirmed for Cash on Delivery.", done.Notice.Message)
	s.Zero(e.gateway.sessionsOpened(), "cash on delivery must not touch the gateway")
	s.Equal(1, e.cart.cleared())
}

func (s *CheckoutTestSuite) TestCartClearedWhenCallerGoesAwayAfterSave() {
	e := s.env
	a := e.start(s.T())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.orders.afterCreate = cancel

	done, err := e.svc.PayCashOnDelivery(ctx, a.ID, total160)
	s.Require().NoError(err)
	s.Equal(StateCompleted, done.State)
	s.Len(e.orders.saved(), 1)
	s.Equal(1, e.cart.cleared())
	s.Equal([]string{"create", "clear"}, e.log.list())
	s.Len(e.events.ofType(event.TypeOrderCreated), 1)
}

func (s *CheckoutTestSuite) TestPersistFailureKeepsCartAndPayment() {
	e := s.env
	e.orders.setErr(errors.New("mongo down"))
	a := e.start(s.T())
	oc := e.payOnline(s.T(), a)

	failed := e.resolve(s.T(), oc.Session.ID, paymentgw.Succeeded("pay_9"))
	s.Require().Equal(StateFailed, failed.State)
	s.Require().NotNil(failed.Notice)
	s.Equal("Failed to save order details", failed.Notice.Message)
	s.Equal("pay_9", failed.PaymentID, "captured payment id lost")
	s.Require().Zero(e.cart.cleared(), "cart must stay when the order was not saved")

	alerts := e.events.ofType(event.TypeOrderPersistFailed)
	s.Require().Len(alerts, 1)
	s.Equal("pay_9", alerts[0].PaymentID)
	s.NotEmpty(alerts[0].Reason)

	// The shopper empties the cart in another tab; the captured payment is still saved.
	e.cart.set()
	e.orders.setErr(nil)

	retried, err := e.svc.PayOnline(context.Background(), a.ID, decimal.Zero)
	s.Require().NoError(err)
	s.Nil(retried.Session, "retry must not open a second payment session")
	s.Require().Equal(StateCompleted, retried.Attempt.State)

	o := e.orders.saved()[0]
	s.Require().NotNil(o.PaymentID)
	s.Equal("pay_9", *o.PaymentID)
	s.True(o.Total.Equal(total160), "total %s", o.Total)
	s.Equal(1, e.gateway.sessionsOpened())
	s.Equal(1, e.cart.cleared())
}

func (s *CheckoutTestSuite) TestStartReturnsAttemptWithCapturedPayment() {
	e := s.env
	e.orders.setErr(errors.New("mongo down"))
	a := e.start(s.T())
	oc := e.payOnline(s.T(), a)
	e.resolve(s.T(), oc.Session.ID, paymentgw.Succeeded("pay_9"))

	again := e.start(s.T())
	s.Equal(a.ID, again.ID)
	s.Equal("pay_9", again.PaymentID)
}

func (s *CheckoutTestSuite) TestCancellationCreatesNoOrder() {
	e := s.env
	a := e.start(s.T())
	oc := e.payOnline(s.T(), a)

	cancelled := e.resolve(s.T(), oc.Session.ID, paymentgw.Cancelled())
	s.Require().Equal(StateCancelled, cancelled.State)
	s.Require().NotNil(cancelled.Notice)
	s.Equal("Payment cancelled", cancelled.Notice.Message)
	s.Require().Empty(e.orders.saved())
	s.Require().Zero(e.cart.cleared())

	// A new payment can be started from the same attempt.
	next := e.payOnline(s.T(), cancelled)
	s.NotEqual(oc.Session.ID, next.Session.ID)
}

func (s *CheckoutTestSuite) TestFailureMessage() {
	e := s.env
	a := e.start(s.T())
	oc := e.payOnline(s.T(), a)

	failed := e.resolve(s.T(), oc.Session.ID, paymentgw.Failed(paymentgw.CodeNetworkError, "timeout"))
	s.Require().Equal(StateFailed, failed.State)
	s.Require().NotNil(failed.Notice)
	s.Equal("Network error. Please check your connection.", failed.Notice.Message)
	s.Empty(e.orders.saved())
}

func (s *CheckoutTestSuite) TestSessionAmountMismatchCancelsSession() {
	e := s.env
	e.gateway.skew = 1
	a := e.start(s.T())

	oc, err := e.svc.PayOnline(context.Background(), a.ID, total160)
	s.Require().ErrorIs(err, ErrAmountMismatch)
	s.Equal(apperr.Internal, s.publicError(err).Kind)
	s.Equal(StateIdle, oc.Attempt.State)
	s.Nil(oc.Session)

	sessionID := e.gateway.lastSession()
	s.Require().NotEmpty(sessionID)
	s.ErrorIs(e.gateway.Resolve(sessionID, paymentgw.Succeeded("pay_late")), paymentgw.ErrSessionNotFound,
		"mismatched session must already be closed")
	s.Empty(e.orders.saved())
}

func (s *CheckoutTestSuite) TestDuplicateSubmissionRejected() {
	e := s.env
	a := e.start(s.T())
	e.payOnline(s.T(), a)

	_, err := e.svc.PayOnline(context.Background(), a.ID, total160)
	s.ErrorIs(err, ErrCheckoutInProgress)
	_, err = e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.ErrorIs(err, ErrCheckoutInProgress)
	_, err = e.svc.Start(context.Background(), e.profile, e.cart)
	s.ErrorIs(err, ErrCheckoutInProgress)
}

func (s *CheckoutTestSuite) TestCompletedAttemptRefusesReuse() {
	e := s.env
	a := e.start(s.T())
	_, err := e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.Require().NoError(err)

	_, err = e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.Require().ErrorIs(err, ErrAttemptCompleted)
	s.Len(e.orders.saved(), 1)

	// A fresh attempt starts once the cart has items again.
	e.cart.set(cart.LineItem{ID: "p3", Name: "Pen", Price: decimal.NewFromInt(10), Quantity: 1})
	next := e.start(s.T())
	s.NotEqual(a.ID, next.ID)

	_, err = e.svc.Get(context.Background(), a.ID)
	s.ErrorIs(err, ErrAttemptNotFound, "old attempt should be forgotten")
}

func (s *CheckoutTestSuite) TestTotalsChangedSinceDisplay() {
	e := s.env
	a := e.start(s.T())
	e.cart.set(cart.LineItem{ID: "p1", Name: "Mug", Price: decimal.NewFromInt(50), Quantity: 5})

	_, err := e.svc.PayOnline(context.Background(), a.ID, a.Totals.Total)
	s.Require().ErrorIs(err, ErrTotalsChanged)

	got, err := e.svc.Get(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(StateIdle, got.State)
	s.True(got.Totals.Total.Equal(decimal.NewFromInt(275)), "total %s", got.Totals.Total)
	s.Zero(e.gateway.sessionsOpened(), "no session may be opened for a stale total")

	_, err = e.svc.PayCashOnDelivery(context.Background(), a.ID, got.Totals.Total)
	s.NoError(err)
}

func (s *CheckoutTestSuite) TestEmptyCartAtPayment() {
	e := s.env
	a := e.start(s.T())
	e.cart.set()

	_, err := e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.Require().ErrorIs(err, ErrEmptyCart)
	s.Empty(e.orders.saved())
}

func (s *CheckoutTestSuite) TestScriptFailureOffersFallback() {
	e := s.env
	e.gateway.scriptOK = false
	a := e.start(s.T())

	oc, err := e.svc.PayOnline(context.Background(), a.ID, total160)
	ae := s.publicError(err)
	s.True(ae.FallbackOffered)
	s.Equal(apperr.Unavailable, ae.Kind)
	s.Equal("Failed to load payment gateway. Please try again.", ae.PublicMsg)
	s.Equal(StateIdle, oc.Attempt.State)
	s.True(oc.Attempt.FallbackOffered)

	done, err := e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.Require().NoError(err)
	s.Equal(StateCompleted, done.State)
}

func (s *CheckoutTestSuite) TestGatewayNotReadyOffersFallback() {
	e := s.env
	e.gateway.openErr = paymentgw.ErrGatewayUnavailable
	a := e.start(s.T())

	_, err := e.svc.PayOnline(context.Background(), a.ID, total160)
	s.True(s.publicError(err).FallbackOffered)
	s.Empty(e.orders.saved(), "an offered fallback must not place an order by itself")
}

func (s *CheckoutTestSuite) TestAccountErrorFallsBackAutomatically() {
	e := s.env
	e.gateway.openErr = errors.New("Your account is not activated")
	a := e.start(s.T())

	oc, err := e.svc.PayOnline(context.Background(), a.ID, total160)
	s.Require().NoError(err)
	s.Nil(oc.Session)
	s.Require().Equal(StateCompleted, oc.Attempt.State)

	o := e.orders.saved()[0]
	s.Equal(order.PaymentMethodCashOnDelivery, o.PaymentMethod)
	s.Nil(o.PaymentID)
}

func (s *CheckoutTestSuite) TestKeyErrorBlocksOnlinePayment() {
	e := s.env
	e.gateway.openErr = paymentgw.ErrKeyConfig
	a := e.start(s.T())

	oc, err := e.svc.PayOnline(context.Background(), a.ID, total160)
	s.Equal("Payment configuration error. Please contact support.", s.publicError(err).PublicMsg)
	s.Require().Equal(StateBlocked, oc.Attempt.State)
	s.Require().Empty(e.orders.saved())

	_, err = e.svc.PayOnline(context.Background(), a.ID, total160)
	s.ErrorIs(err, ErrCheckoutBlocked)
	_, err = e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
	s.NoError(err, "cash on delivery should stay available")
}

func (s *CheckoutTestSuite) TestOrderNumberCollisionRegenerates() {
	tests := []struct {
		name      string
		dupFirstN int
		wantErr   bool
	}{
		{"second number free", 1, false},
		{"third number free", 2, false},
		{"all numbers taken", 3, true},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			e := newEnv(s.T(), WithOrderNumberAttempts(3))
			e.orders.dupFirstN = tt.dupFirstN
			a := e.start(s.T())

			_, err := e.svc.PayCashOnDelivery(context.Background(), a.ID, total160)
			if tt.wantErr {
				s.ErrorIs(err, order.ErrDuplicateOrderNumber)

				return
			}
			s.Require().NoError(err)
			s.Equal("ORB"+string(rune('1'+tt.dupFirstN)), e.orders.saved()[0].OrderNumber)
		})
	}
}

func (s *CheckoutTestSuite) TestResolvePaymentChecksOwner() {
	e := s.env
	a := e.start(s.T())
	oc := e.payOnline(s.T(), a)

	_, err := e.svc.ResolvePayment(context.Background(), "intruder", oc.Session.ID, paymentgw.Succeeded("pay_x"))
	s.Require().ErrorIs(err, paymentgw.ErrSessionNotFound)

	got, err := e.svc.Get(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(StateAwaitingGateway, got.State, "foreign resolution changed the attempt")
}

func (s *CheckoutTestSuite) TestResolvePaymentOnce() {
	e := s.env
	a := e.start(s.T())
	oc := e.payOnline(s.T(), a)
	e.resolve(s.T(), oc.Session.ID, paymentgw.Cancelled())

	_, err := e.svc.ResolvePayment(context.Background(), e.profile.UID, oc.Session.ID, paymentgw.Succeeded("pay_late"))
	s.Require().ErrorIs(err, paymentgw.ErrSessionNotFound)
	s.Empty(e.orders.saved(), "late success must not create an order")
}

func (s *CheckoutTestSuite) TestAwaitHonoursContext() {
	e := s.env
	a := e.start(s.T())
	e.payOnline(s.T(), a)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.svc.Await(ctx, a.ID)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *CheckoutTestSuite) TestStartForUserLoadsProfileAndCart() {
	c := &fakeCart{}
	c.set(cart.LineItem{ID: "p1", Name: "Mug", Price: decimal.NewFromInt(250), Quantity: 1})
	profiles := &fakeProfiles{profiles: map[string]identity.Profile{"u1": {UID: "u1", Email: "a@b.c"}}}

	svc := MustNewCheckoutService(
		WithOrderRepository(&fakeOrders{}),
		WithGateway(newFakeGateway(s.T())),
		WithProfileRepository(profiles),
		WithCartRepository(&fakeCartRepo{carts: map[string]*fakeCart{"u1": c}}),
	)
	s.T().Cleanup(svc.Close)

	a, err := svc.StartForUser(context.Background(), "u1")
	s.Require().NoError(err)
	s.Equal("u1", a.UserID)
	s.True(a.Totals.ShippingCharge.Equal(decimal.NewFromInt(25)), "shipping %s", a.Totals.ShippingCharge)

	_, err = svc.StartForUser(context.Background(), "ghost")
	s.Equal(apperr.Unauthorized, s.publicError(err).Kind)
}

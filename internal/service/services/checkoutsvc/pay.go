package checkoutsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/totals"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// PayOnline recalculates the totals, checks them against expectedTotal (the amount the
// shopper was shown) and opens a gateway session for them. The outcome arrives through
// ResolvePayment. If the attempt already holds a captured payment the order is saved
// again without a new session.
func (s *CheckoutService) PayOnline(
	ctx context.Context,
	attemptID string,
	expectedTotal decimal.Decimal,
) (OnlineCheckout, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.PayOnline")
	defer span.End()
	span.SetAttributes(attribute.String("attempt_id", attemptID))

	a, err := s.reserve(attemptID, false)
	if err != nil {
		return OnlineCheckout{}, err
	}

	if a.PaymentID != "" {
		slog.Info("Retrying order save for captured payment", "attempt_id", a.ID, "payment_id", a.PaymentID)
		snap, err := s.persist(ctx, a, order.PaymentMethodOnline)

		return OnlineCheckout{Attempt: snap}, err
	}

	if err := s.recalculate(ctx, a, expectedTotal); err != nil {
		return OnlineCheckout{Attempt: s.snapshot(a)}, err
	}

	if !s.gateway.LoadScript(ctx) {
		s.metrics.CheckoutAttempts.WithLabelValues("fallback_offered").Inc()
		snap := s.settle(a, StateIdle, NoticeError, msgScriptFailed, true)

		return OnlineCheckout{Attempt: snap},
			apperr.New(apperr.Unavailable, msgScriptFailed, paymentgw.ErrGatewayUnavailable).WithFallback()
	}

	s.mu.Lock()
	amount := a.Totals.MinorUnits(a.Currency)
	req := paymentgw.SessionRequest{
		Amount:   amount,
		Currency: a.Currency,
		Prefill: paymentgw.Prefill{
			Name:    a.profile.NameOrGuest(),
			Email:   a.profile.Email,
			Contact: a.profile.Phone,
		},
		Address: a.profile.Address,
	}
	s.mu.Unlock()

	session, err := s.gateway.OpenCheckout(ctx, req)
	if err != nil {
		return s.handleOpenError(ctx, a, err)
	}

	if session.Options.Amount != amount {
		if err := s.gateway.Resolve(session.ID, paymentgw.Cancelled()); err != nil {
			slog.Error("Failed to cancel payment session", "attempt_id", a.ID, "session_id", session.ID, "error", err)
		}
		slog.Error("Payment session amount differs from order total",
			"attempt_id", a.ID, "session_amount", session.Options.Amount, "amount", amount)
		snap := s.settle(a, StateIdle, NoticeError, msgPaymentFailed, false)

		return OnlineCheckout{Attempt: snap}, apperr.New(apperr.Internal, msgPaymentFailed,
			fmt.Errorf("%w: session %d, totals %d", ErrAmountMismatch, session.Options.Amount, amount))
	}

	s.mu.Lock()
	a.SessionID = session.ID
	a.method = order.PaymentMethodOnline
	s.bySession[session.ID] = a.ID
	s.setState(a, StateAwaitingGateway)
	snap := a.snapshot()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.awaitPayment(a, session)

	slog.Info("Awaiting payment", "attempt_id", a.ID, "session_id", session.ID, "amount", amount)

	return OnlineCheckout{Attempt: snap, Session: session}, nil
}

// PayCashOnDelivery saves the order without the gateway. It is accepted even when
// online payment is blocked.
func (s *CheckoutService) PayCashOnDelivery(
	ctx context.Context,
	attemptID string,
	expectedTotal decimal.Decimal,
) (Attempt, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.PayCashOnDelivery")
	defer span.End()
	span.SetAttributes(attribute.String("attempt_id", attemptID))

	a, err := s.reserve(attemptID, true)
	if err != nil {
		return Attempt{}, err
	}

	// A captured payment is never turned into a cash order.
	if a.PaymentID != "" {
		return s.persist(ctx, a, order.PaymentMethodOnline)
	}

	if err := s.recalculate(ctx, a, expectedTotal); err != nil {
		return s.snapshot(a), err
	}

	return s.persist(ctx, a, order.PaymentMethodCashOnDelivery)
}

// reserve marks the attempt as calculating so that a second submission is rejected.
func (s *CheckoutService) reserve(attemptID string, allowBlocked bool) (*attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[attemptID]
	if !ok {
		return nil, errAttemptNotFound()
	}

	switch {
	case a.State == StateCompleted:
		return nil, errCompleted()
	case a.State == StateBlocked && !allowBlocked:
		return nil, errBlocked()
	case a.State.busy():
		return nil, errInProgress()
	}

	a.Notice = nil
	a.Navigation = nil
	a.FallbackOffered = false
	s.setState(a, StateCalculating)

	return a, nil
}

// recalculate refreshes the totals from the current cart. The attempt goes back to
// idle when the cart is empty or its total is no longer expectedTotal.
func (s *CheckoutService) recalculate(ctx context.Context, a *attempt, expectedTotal decimal.Decimal) error {
	items, err := a.cart.Items(ctx)
	if err != nil {
		s.settle(a, StateIdle, NoticeError, msgPaymentFailed, false)

		return apperr.Wrap(fmt.Errorf("failed to load cart: %w", err))
	}
	t := totals.Calculate(items)

	s.mu.Lock()
	defer s.mu.Unlock()

	a.Items = items
	a.Totals = t
	switch {
	case len(items) == 0:
		a.Notice = &Notice{Level: NoticeError, Message: msgEmptyCart}
		s.setState(a, StateIdle)

		return errEmptyCart()
	case !t.Total.Equal(expectedTotal):
		a.Notice = &Notice{Level: NoticeInfo, Message: msgTotalsChanged}
		s.setState(a, StateIdle)

		return apperr.New(apperr.Conflict, msgTotalsChanged,
			fmt.Errorf("%w: shown %s, now %s", ErrTotalsChanged, expectedTotal, t.Total))
	}

	return nil
}

func (s *CheckoutService) handleOpenError(ctx context.Context, a *attempt, err error) (OnlineCheckout, error) {
	switch paymentgw.Classify(err) {
	case paymentgw.ClassUnavailable:
		slog.Warn("Payment gateway unavailable", "attempt_id", a.ID, "error", err)
		s.metrics.CheckoutAttempts.WithLabelValues("fallback_offered").Inc()
		snap := s.settle(a, StateIdle, NoticeError, msgGatewayNotLoaded, true)

		return OnlineCheckout{Attempt: snap},
			apperr.New(apperr.Unavailable, msgGatewayNotLoaded, err).WithFallback()

	case paymentgw.ClassAccount:
		slog.Warn("Payment gateway account issue, switching to cash on delivery", "attempt_id", a.ID, "error", err)
		s.metrics.CheckoutAttempts.WithLabelValues("fallback_auto").Inc()
		snap, perr := s.persist(ctx, a, order.PaymentMethodCashOnDelivery)

		return OnlineCheckout{Attempt: snap}, perr

	case paymentgw.ClassKey:
		slog.Error("Payment gateway key is misconfigured", "attempt_id", a.ID, "error", err)
		s.metrics.CheckoutAttempts.WithLabelValues("blocked").Inc()
		snap := s.settle(a, StateBlocked, NoticeError, msgKeyConfig, false)

		return OnlineCheckout{Attempt: snap}, apperr.New(apperr.Unavailable, msgKeyConfig, err)

	default:
		slog.Error("Failed to open payment session", "attempt_id", a.ID, "error", err)
		snap := s.settle(a, StateIdle, NoticeError, msgPaymentFailed, false)

		return OnlineCheckout{Attempt: snap}, apperr.New(apperr.Internal, msgPaymentFailed, err)
	}
}

// awaitPayment waits for the single outcome of session and acts on it.
func (s *CheckoutService) awaitPayment(a *attempt, session *paymentgw.Session) {
	defer s.wg.Done()

	res, err := session.Await(s.ctx)
	if err != nil {
		slog.Warn("Stopped waiting for payment session", "attempt_id", a.ID, "session_id", session.ID, "error", err)

		return
	}

	s.mu.Lock()
	delete(s.bySession, session.ID)
	s.mu.Unlock()

	s.metrics.PaymentResults.WithLabelValues(res.Kind.String()).Inc()

	switch {
	case res.Kind == paymentgw.ResultSuccess && res.PaymentID != "":
		s.mu.Lock()
		a.PaymentID = res.PaymentID
		s.setState(a, StateSucceeded)
		s.mu.Unlock()

		slog.Info("Payment captured", "attempt_id", a.ID, "payment_id", res.PaymentID)

		_, _ = s.persist(context.Background(), a, order.PaymentMethodOnline)

	case res.Kind == paymentgw.ResultSuccess:
		slog.Error("Gateway reported success without a payment id", "attempt_id", a.ID, "session_id", session.ID)
		s.metrics.CheckoutAttempts.WithLabelValues("failed").Inc()
		s.settle(a, StateFailed, NoticeError, msgPaymentFailed, false)

	case res.Kind == paymentgw.ResultFailure:
		slog.Warn("Payment failed", "attempt_id", a.ID, "code", res.Code, "description", res.Description)
		s.metrics.CheckoutAttempts.WithLabelValues("failed").Inc()
		s.settle(a, StateFailed, NoticeError, res.Message(), false)

	default:
		slog.Info("Payment cancelled", "attempt_id", a.ID, "session_id", session.ID)
		s.metrics.CheckoutAttempts.WithLabelValues("cancelled").Inc()
		s.settle(a, StateCancelled, NoticeInfo, res.Message(), false)
	}
}

// persist saves the order of a, then clears the cart and schedules navigation.
// A failed save keeps the captured payment id and leaves the cart untouched.
// The save and the cart clear outlive the caller's context: once the order is
// written the cart must be cleared even if the shopper went away.
func (s *CheckoutService) persist(ctx context.Context, a *attempt, method order.PaymentMethod) (Attempt, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.persist")
	defer span.End()

	s.mu.Lock()
	a.method = method
	s.setState(a, StatePersisting)
	profile, items, t, paymentID := a.profile, slices.Clone(a.Items), a.Totals, a.PaymentID
	s.mu.Unlock()

	started := s.now()
	var (
		draft   order.Order
		created order.Order
		err     error
	)
	for range s.numberAttempts {
		draft = order.Draft(s.newNumber(s.now()), profile, items, t, method, paymentID)
		if err = draft.Validate(); err != nil {
			break
		}
		created, err = s.orders.Create(ctx, draft)
		if !errors.Is(err, order.ErrDuplicateOrderNumber) {
			break
		}
		slog.Warn("Order number collision, regenerating", "order_number", draft.OrderNumber)
	}
	s.metrics.CheckoutLatency.Observe(s.now().Sub(started).Seconds())

	if err != nil {
		slog.Error("Failed to save order",
			"attempt_id", a.ID,
			"order_number", draft.OrderNumber,
			"payment_id", paymentID,
			"error", err,
		)
		s.metrics.CheckoutAttempts.WithLabelValues("failed").Inc()
		if paymentID != "" {
			s.metrics.PersistFailures.Inc()
			ev := event.FromOrder(event.TypeOrderPersistFailed, draft, s.now())
			ev.Reason = err.Error()
			s.publish(ctx, ev)
		}
		snap := s.settle(a, StateFailed, NoticeError, msgSaveFailed, false)

		return snap, apperr.New(apperr.Internal, msgSaveFailed, err)
	}

	if err := a.cart.Clear(ctx); err != nil {
		slog.Warn("Order saved but cart was not cleared", "attempt_id", a.ID, "order_id", created.ID, "error", err)
	}

	s.metrics.OrdersCreated.WithLabelValues(method.String()).Inc()
	s.metrics.CheckoutAttempts.WithLabelValues("completed").Inc()
	s.publish(ctx, event.FromOrder(event.TypeOrderCreated, created, s.now()))

	msg, delay := msgCashOnDelivery, s.codDelay
	if method == order.PaymentMethodOnline {
		msg, delay = msgOnlineCompleted, s.onlineDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a.Order = &created
	a.Notice = &Notice{Level: NoticeSuccess, Message: msg}
	a.Navigation = &Navigation{Path: homePath, After: delay}
	s.setState(a, StateCompleted)

	slog.Info("Checkout completed",
		"attempt_id", a.ID,
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"payment_method", method,
	)

	return a.snapshot(), nil
}

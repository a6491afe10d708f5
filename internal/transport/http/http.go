package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	_ "github.com/corray333/backend-labs/checkout/docs"
	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/tracking"
	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	getattempt "github.com/corray333/backend-labs/checkout/internal/transport/http/get_attempt"
	identitymw "github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	listorders "github.com/corray333/backend-labs/checkout/internal/transport/http/list_orders"
	ordertracking "github.com/corray333/backend-labs/checkout/internal/transport/http/order_tracking"
	paycod "github.com/corray333/backend-labs/checkout/internal/transport/http/pay_cod"
	payonline "github.com/corray333/backend-labs/checkout/internal/transport/http/pay_online"
	paymentevents "github.com/corray333/backend-labs/checkout/internal/transport/http/payment_events"
	startcheckout "github.com/corray333/backend-labs/checkout/internal/transport/http/start_checkout"
	"github.com/corray333/backend-labs/checkout/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/checkout/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type checkoutService interface {
	StartForUser(ctx context.Context, userID string) (checkoutsvc.Attempt, error)
	Get(ctx context.Context, attemptID string) (checkoutsvc.Attempt, error)
	PayOnline(ctx context.Context, attemptID string, expectedTotal decimal.Decimal) (checkoutsvc.OnlineCheckout, error)
	PayCashOnDelivery(ctx context.Context, attemptID string, expectedTotal decimal.Decimal) (checkoutsvc.Attempt, error)
	ResolvePayment(ctx context.Context, userID, sessionID string, res paymentgw.Result) (checkoutsvc.Attempt, error)
}

type orderService interface {
	History(ctx context.Context, profile identity.Profile) ([]order.Order, error)
	Tracking(ctx context.Context, profile identity.Profile, orderID string) (tracking.View, error)
}

type profileRepository interface {
	Get(ctx context.Context, uid string) (identity.Profile, error)
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	checkout checkoutService
	orders   orderService
	profiles profileRepository
	metrics  http.Handler
}

func NewHTTPTransport(
	checkout checkoutService,
	orders orderService,
	profiles profileRepository,
	metrics http.Handler,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		checkout: checkout,
		orders:   orders,
		profiles: profiles,
		metrics:  metrics,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for the in-flight ones until ctx is done.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	if h.metrics != nil {
		h.router.Handle("/metrics", h.metrics)
	}
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	h.router.Route("/api", func(r chi.Router) {
		r.Use(trace.NewTraceMiddleware(trace.WithUserHeader(identitymw.Header)))
		r.Use(identitymw.NewIdentityMiddleware)

		r.Route("/checkout/attempts", func(r chi.Router) {
			r.Post("/", h.startCheckout)
			r.Get("/{attemptID}", h.getAttempt)
			r.Post("/{attemptID}/online", h.payOnline)
			r.Post("/{attemptID}/cod", h.payCashOnDelivery)
		})
		r.Post("/payments/sessions/{sessionID}/events", h.paymentEvent)

		r.Group(func(r chi.Router) {
			r.Use(identitymw.NewProfileMiddleware(h.profiles))
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderID}/tracking", h.orderTracking)
		})
	})
}

func (h *HTTPTransport) startCheckout(w http.ResponseWriter, r *http.Request) {
	startcheckout.StartCheckout(w, r, h.checkout)
}

func (h *HTTPTransport) getAttempt(w http.ResponseWriter, r *http.Request) {
	getattempt.GetAttempt(w, r, h.checkout)
}

func (h *HTTPTransport) payOnline(w http.ResponseWriter, r *http.Request) {
	payonline.PayOnline(w, r, h.checkout)
}

func (h *HTTPTransport) payCashOnDelivery(w http.ResponseWriter, r *http.Request) {
	paycod.PayCashOnDelivery(w, r, h.checkout)
}

func (h *HTTPTransport) paymentEvent(w http.ResponseWriter, r *http.Request) {
	paymentevents.PaymentEvent(w, r, h.checkout)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) orderTracking(w http.ResponseWriter, r *http.Request) {
	ordertracking.OrderTracking(w, r, h.orders)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(middleware.Recoverer)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: viper.GetDuration("server.http.read_header_timeout"),
	}
}

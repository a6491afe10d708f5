package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/kafka"
	mongoclient "github.com/corray333/backend-labs/checkout/internal/dal/mongo"
	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/dal/rabbitmq"
	cartrepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/cart/postgres"
	"github.com/corray333/backend-labs/checkout/internal/dal/repositories/events"
	orderrepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/order/mongo"
	outboxrepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/outbox/postgres"
	profilerepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/profile/postgres"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/otel"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/ordersvc"
	grpctransport "github.com/corray333/backend-labs/checkout/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/checkout/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/checkout/internal/worker/outbox"
	"github.com/spf13/viper"
)

// broker is the message broker order events go to.
type broker interface {
	events.Sender
	Close() error
}

// App represents the application.
type App struct {
	checkoutSvc    *checkoutsvc.CheckoutService
	orderSvc       *ordersvc.OrderService
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	outboxWorker   *outboxworker.Worker
	broker         broker
	postgresClient *postgres.Client
	mongoClient    *mongoclient.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	mongoClient := mongoclient.MustNewClient()
	broker := mustNewBroker()
	registry := metrics.NewRegistry()

	cartRepository := cartrepo.NewCartRepository(postgresClient)
	profileRepository := profilerepo.NewProfileRepository(postgresClient)
	outboxRepository := outboxrepo.NewOutboxRepository(postgresClient)
	orderRepository := orderrepo.NewOrderRepository(mongoClient)

	publisher := events.NewPublisher(broker, outboxRepository,
		events.WithTimeout(time.Duration(viper.GetInt("events.publish_timeout_seconds"))*time.Second),
		events.WithMaxRetries(viper.GetInt("events.outbox.max_retries")),
		events.WithMetrics(registry),
	)

	cur, err := currency.ParseCurrency(viper.GetString("checkout.currency"))
	if err != nil {
		panic(err)
	}

	checkoutSvc := checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithOrderRepository(orderRepository),
		checkoutsvc.WithProfileRepository(profileRepository),
		checkoutsvc.WithCartRepository(cartRepository),
		checkoutsvc.WithGateway(paymentgw.NewFromConfig()),
		checkoutsvc.WithEventPublisher(publisher),
		checkoutsvc.WithMetrics(registry),
		checkoutsvc.WithCurrency(cur),
		checkoutsvc.WithRedirectDelays(
			viper.GetDuration("checkout.redirect_delay.online"),
			viper.GetDuration("checkout.redirect_delay.cod"),
		),
		checkoutsvc.WithOrderNumberAttempts(viper.GetInt("checkout.order_number_attempts")),
	)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(orderRepository),
		ordersvc.WithEventPublisher(publisher),
		ordersvc.WithMetrics(registry),
	)

	httpTransport := httptransport.NewHTTPTransport(checkoutSvc, orderSvc, profileRepository, registry.Handler())
	httpTransport.RegisterRoutes()

	grpcTransport := grpctransport.NewGRPCTransport(orderSvc)

	outboxWorker := outboxworker.NewWorker(outboxRepository, broker, registry)

	return &App{
		checkoutSvc:    checkoutSvc,
		orderSvc:       orderSvc,
		httpTransport:  httpTransport,
		grpcTransport:  grpcTransport,
		outboxWorker:   outboxWorker,
		broker:         broker,
		postgresClient: postgresClient,
		mongoClient:    mongoClient,
		otelController: otelController,
	}
}

// mustNewBroker connects to the broker named by events.broker.
func mustNewBroker() broker {
	switch viper.GetString("events.broker") {
	case "kafka":
		return kafka.MustNewClient()
	case "rabbitmq":
		return rabbitmq.MustNewClient(events.Topics()...)
	default:
		panic("unknown events.broker " + viper.GetString("events.broker"))
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server", "port", viper.GetString("server.http.port"))
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		if err := a.grpcTransport.Run(); err != nil {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the servers first, then the checkout attempts still waiting
// on the gateway, the outbox worker, the broker, the stores and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("server.http.shutdown_timeout"))
	defer cancel()

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	a.checkoutSvc.Close()
	slog.Info("Checkout attempts closed")

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.broker.Close(); err != nil {
		slog.Error("Broker connection close error", "error", err)
	} else {
		slog.Info("Broker connection closed gracefully")
	}

	if err := a.mongoClient.Close(ctx); err != nil {
		slog.Error("MongoDB connection close error", "error", err)
	} else {
		slog.Info("MongoDB connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}

package paymentgw

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

var keyPrefixes = []string{"rzp_test_", "rzp_live_"}

// Prefill is the shopper data the widget shows pre-filled.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// SessionRequest describes the payment to collect. Amount is in minor units.
type SessionRequest struct {
	Amount   int64
	Currency currency.Currency
	Prefill  Prefill
	Address  string
}

type Theme struct {
	Color string `json:"color"`
}

type Modal struct {
	Escape      bool `json:"escape"`
	Backdrop    bool `json:"backdropclose"`
	ConfirmExit bool `json:"confirm_close"`
}

// Options is the configuration object the browser passes to the checkout widget.
type Options struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    currency.Currency `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Prefill     Prefill           `json:"prefill"`
	Notes       map[string]string `json:"notes"`
	Theme       Theme             `json:"theme"`
	Modal       Modal             `json:"modal"`
}

// Session is one open payment. It ends with exactly one Result.
type Session struct {
	ID        string    `json:"id"`
	Options   Options   `json:"options"`
	ExpiresAt time.Time `json:"expiresAt"`

	done   chan struct{}
	result Result
	timer  *time.Timer
}

// Await blocks until the session is resolved or ctx is done.
func (s *Session) Await(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Gateway opens widget sessions and collects their outcomes.
type Gateway struct {
	httpClient    *http.Client
	scriptURL     string
	keyID         string
	accountActive bool
	ttl           time.Duration
	merchantName  string
	description   string
	themeColor    string
	now           func() time.Time

	mu           sync.Mutex
	scriptLoaded bool
	sessions     map[string]*Session
}

type option func(*Gateway)

func WithHTTPClient(c *http.Client) option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

func WithScriptURL(url string) option {
	return func(g *Gateway) {
		g.scriptURL = url
	}
}

func WithKeyID(key string) option {
	return func(g *Gateway) {
		g.keyID = key
	}
}

// WithAccountActive marks whether the merchant account can take payments.
func WithAccountActive(active bool) option {
	return func(g *Gateway) {
		g.accountActive = active
	}
}

// WithSessionTTL sets how long a session waits for the widget before it is cancelled.
func WithSessionTTL(ttl time.Duration) option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithMerchant(name, description, themeColor string) option {
	return func(g *Gateway) {
		g.merchantName = name
		g.description = description
		g.themeColor = themeColor
	}
}

func New(opts ...option) *Gateway {
	g := &Gateway{
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		scriptURL:     "https://checkout.razorpay.com/v1/checkout.js",
		accountActive: true,
		ttl:           30 * time.Minute,
		merchantName:  "OREBI Shopping",
		description:   "Payment for your order",
		themeColor:    "#262626",
		now:           time.Now,
		sessions:      make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// NewFromConfig builds a gateway from the gateway.* config keys and RAZORPAY_KEY_ID.
func NewFromConfig() *Gateway {
	return New(
		WithHTTPClient(&http.Client{Timeout: viper.GetDuration("gateway.script_timeout")}),
		WithScriptURL(viper.GetString("gateway.script_url")),
		WithKeyID(os.Getenv("RAZORPAY_KEY_ID")),
		WithAccountActive(viper.GetBool("gateway.account_active")),
		WithSessionTTL(viper.GetDuration("gateway.session_ttl")),
		WithMerchant(
			viper.GetString("gateway.merchant_name"),
			viper.GetString("gateway.description"),
			viper.GetString("gateway.theme_color"),
		),
	)
}

// LoadScript checks that the checkout script can be served. Success is remembered;
// a failure is retried on the next call. It never returns an error.
func (g *Gateway) LoadScript(ctx context.Context) bool {
	g.mu.Lock()
	loaded := g.scriptLoaded
	g.mu.Unlock()
	if loaded {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.scriptURL, nil)
	if err != nil {
		slog.Error("Failed to build checkout script request", "url", g.scriptURL, "error", err)

		return false
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Warn("Failed to load checkout script", "url", g.scriptURL, "error", err)

		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("Checkout script responded with an error", "url", g.scriptURL, "status", resp.StatusCode)

		return false
	}

	g.mu.Lock()
	g.scriptLoaded = true
	g.mu.Unlock()

	return true
}

func (g *Gateway) validateKey() error {
	if g.keyID == "" {
		return fmt.Errorf("%w: key is not set", ErrKeyConfig)
	}
	for _, p := range keyPrefixes {
		if strings.HasPrefix(g.keyID, p) && len(g.keyID) > len(p) {
			return nil
		}
	}

	return fmt.Errorf("%w: malformed key", ErrKeyConfig)
}

// OpenCheckout registers a session for req and returns the widget options. The
// session is cancelled if nobody resolves it before its TTL.
func (g *Gateway) OpenCheckout(_ context.Context, req SessionRequest) (*Session, error) {
	g.mu.Lock()
	loaded := g.scriptLoaded
	g.mu.Unlock()
	if !loaded {
		return nil, fmt.Errorf("%w: checkout script is not loaded", ErrGatewayUnavailable)
	}
	if err := g.validateKey(); err != nil {
		return nil, err
	}
	if !g.accountActive {
		return nil, fmt.Errorf("%w: account is not activated", ErrAccount)
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s := &Session{
		ID: uuid.NewString(),
		Options: Options{
			Key:         g.keyID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Name:        g.merchantName,
			Description: g.description,
			Prefill:     req.Prefill,
			Notes:       map[string]string{"address": req.Address},
			Theme:       Theme{Color: g.themeColor},
			Modal:       Modal{Escape: true, ConfirmExit: true},
		},
		ExpiresAt: g.now().Add(g.ttl),
		done:      make(chan struct{}),
	}

	g.mu.Lock()
	g.sessions[s.ID] = s
	s.timer = time.AfterFunc(g.ttl, func() {
		if err := g.Resolve(s.ID, Result{Kind: ResultCancelled, Description: "session expired"}); err == nil {
			slog.Info("Payment session expired", "session_id", s.ID)
		}
	})
	g.mu.Unlock()

	slog.Info("Payment session opened", "session_id", s.ID, "amount", req.Amount, "currency", req.Currency)

	return s, nil
}

// Resolve delivers the outcome of a session. Only the first call for a session succeeds.
func (g *Gateway) Resolve(sessionID string, res Result) error {
	g.mu.Lock()
	s, ok := g.sessions[sessionID]
	if ok {
		delete(g.sessions, sessionID)
	}
	g.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.result = res
	close(s.done)

	slog.Info("Payment session resolved", "session_id", sessionID, "result", res.Kind.String())

	return nil
}

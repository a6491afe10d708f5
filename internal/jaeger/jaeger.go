package jaeger

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

var ErrInvalidEndpoint = errors.New("invalid jaeger collector endpoint")

// Config locates the collector that receives checkout spans.
type Config struct {
	Endpoint string
	Username string
	Password string
}

// ConfigFromViper reads the jaeger.* keys.
func ConfigFromViper() Config {
	return Config{
		Endpoint: viper.GetString("jaeger.endpoint"),
		Username: viper.GetString("jaeger.username"),
		Password: viper.GetString("jaeger.password"),
	}
}

// NewExporter builds a collector exporter. The endpoint must be an absolute http(s) URL.
func NewExporter(cfg Config) (*jaeger.Exporter, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.Endpoint)
	}

	opts := []jaeger.CollectorEndpointOption{jaeger.WithEndpoint(cfg.Endpoint)}
	if cfg.Username != "" {
		opts = append(opts, jaeger.WithUsername(cfg.Username), jaeger.WithPassword(cfg.Password))
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
	}

	return exp, nil
}

func MustNewJaeger() *jaeger.Exporter {
	exp, err := NewExporter(ConfigFromViper())
	if err != nil {
		panic(err)
	}

	return exp
}

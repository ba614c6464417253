// Package runctx carries a batch run's services through context.
// This package is separate from batch to avoid import cycles between
// drivers and the command layer.
package runctx

import (
	"context"
	"log/slog"

	"github.com/inkwellhq/inkwell/internal/config"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// Services holds the services a batch run flows through context.
type Services struct {
	Client *trp.Client
	Logger *slog.Logger
	Config *config.Manager
	RunID  string
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ClientFrom extracts the platform client from context.
func ClientFrom(ctx context.Context) *trp.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Client
	}
	return nil
}

// LoggerFrom extracts the logger from context. Callers that run before
// setup get the process default logger rather than nil.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// RunIDFrom extracts the run identifier from context.
func RunIDFrom(ctx context.Context) string {
	if s := ServicesFrom(ctx); s != nil {
		return s.RunID
	}
	return ""
}

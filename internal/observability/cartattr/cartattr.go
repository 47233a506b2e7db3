package cartattr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/smallbiznis/cartsync/internal/observability/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zapcore"
)

// Identifier modes. Cart identifiers are often user or session ids.
const (
	ModePlain  = "plain"
	ModeHashed = "hashed"
	ModeOmit   = "omit"
)

type Config struct {
	// IdentifierMode decides how cart identifiers reach span attributes and
	// log fields.
	IdentifierMode string
	// Salt is mixed into hashed identifiers.
	Salt string
	// EventLogLevel is the level cart event publishing is logged at.
	EventLogLevel string
}

// Annotator tags spans and log contexts with the cart being handled.
// A nil Annotator writes identifiers as-is.
type Annotator struct {
	mode       string
	salt       string
	eventLevel zapcore.Level
}

func New(cfg Config) *Annotator {
	mode := strings.ToLower(strings.TrimSpace(cfg.IdentifierMode))
	switch mode {
	case ModeHashed, ModeOmit:
	default:
		mode = ModePlain
	}
	level := zapcore.DebugLevel
	if raw := strings.TrimSpace(cfg.EventLogLevel); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			level = zapcore.DebugLevel
		}
	}
	return &Annotator{mode: mode, salt: cfg.Salt, eventLevel: level}
}

func (a *Annotator) EventLevel() zapcore.Level {
	if a == nil {
		return zapcore.DebugLevel
	}
	return a.eventLevel
}

func (a *Annotator) Mode() string {
	if a == nil {
		return ModePlain
	}
	return a.mode
}

// Identifier returns the form of identifier safe to export, and false when
// it must be left out.
func (a *Annotator) Identifier(identifier string) (string, bool) {
	switch a.Mode() {
	case ModeOmit:
		return "", false
	case ModeHashed:
		sum := sha256.Sum256([]byte(a.salt + identifier))
		return hex.EncodeToString(sum[:8]), true
	default:
		return identifier, true
	}
}

// Attributes returns the span attributes for a cart key.
func (a *Annotator) Attributes(instance, identifier string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("cart.instance", instance)}
	if id, ok := a.Identifier(identifier); ok {
		attrs = append(attrs, attribute.String("cart.identifier", id))
	}
	return attrs
}

// Context annotates ctx so loggers built from it carry the cart fields.
func (a *Annotator) Context(ctx context.Context, instance, identifier string) context.Context {
	id, ok := a.Identifier(identifier)
	if !ok {
		id = ""
	}
	return logger.ContextWithCart(ctx, instance, id)
}

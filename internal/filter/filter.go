// Package filter evaluates Tengo expressions against bus messages.
//
// An expression sees these variables:
//
//	topic   the concrete topic (string)
//	payload the decoded JSON payload, or undefined for binary payloads
//	size    the payload length in bytes (int)
//	params  path parameters of the catalog topic, e.g. params.siteId
//
// For example: `payload.siteId == "kitchen" && size < 1024`.
package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// DefaultTimeout bounds the evaluation of one message.
const DefaultTimeout = 100 * time.Millisecond

const maxAllocs = 10000

// ErrNotBool is returned when an expression does not evaluate to a boolean.
var ErrNotBool = errors.New("filter expression must evaluate to a bool")

// Filter is a compiled expression. It is safe for concurrent use.
type Filter struct {
	expr     string
	compiled *tengo.Compiled
	topics   *topicmgr.Manager
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithTopics resolves path parameters through m.
func WithTopics(m *topicmgr.Manager) Option {
	return func(f *Filter) {
		f.topics = m
	}
}

// WithLogger sets the logger used for evaluation errors in Predicate.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithTimeout bounds each evaluation.
func WithTimeout(d time.Duration) Option {
	return func(f *Filter) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// Compile parses expr once; each Match runs a clone of the compiled program.
func Compile(expr string, opts ...Option) (*Filter, error) {
	f := &Filter{expr: expr, timeout: DefaultTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}

	script := tengo.NewScript([]byte("__result := (" + expr + ")"))
	script.SetImports(stdlib.GetModuleMap("strings", "text", "math"))
	script.SetMaxAllocs(maxAllocs)
	for _, name := range []string{"topic", "payload", "size", "params"} {
		if err := script.Add(name, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, err)
	}
	f.compiled = compiled
	return f, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the expression for msg.
func (f *Filter) Match(ctx context.Context, msg pubsub.Message) (bool, error) {
	c := f.compiled.Clone()

	var payload any
	if json.Valid(msg.Payload) {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			payload = nil
		}
	}

	params := map[string]any{}
	if f.topics != nil {
		if _, p, ok := f.topics.Resolve(msg.Topic); ok {
			for k, v := range p {
				params[k] = v
			}
		}
	}

	vars := map[string]any{
		"topic":   msg.Topic,
		"payload": payload,
		"size":    len(msg.Payload),
		"params":  params,
	}
	for name, value := range vars {
		if err := c.Set(name, value); err != nil {
			return false, fmt.Errorf("set %s: %w", name, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := c.RunContext(ctx); err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.expr, err)
	}

	result := c.Get("__result")
	if _, ok := result.Value().(bool); !ok {
		return false, fmt.Errorf("%w: got %s", ErrNotBool, result.ValueType())
	}
	return result.Bool(), nil
}

// Predicate adapts the filter for engine waits. Evaluation errors are logged
// and reject the message.
func (f *Filter) Predicate() pubsub.Predicate {
	return func(msg pubsub.Message) bool {
		ok, err := f.Match(context.Background(), msg)
		if err != nil {
			f.logger.Warn("filter evaluation failed", "filter", f.expr, "topic", msg.Topic, "error", err)
			return false
		}
		return ok
	}
}

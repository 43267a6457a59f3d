package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nfrund/hermes/internal/topicmgr"
)

var (
	// ErrPatternExists is returned when adding a pattern already in the whitelist.
	ErrPatternExists = errors.New("pattern already exists in whitelist")
	// ErrEmptyPattern is returned when an empty pattern is provided.
	ErrEmptyPattern = errors.New("pattern cannot be empty")
)

// Whitelist holds the topic patterns clients are allowed to publish on.
type Whitelist struct {
	mu       sync.RWMutex
	matchers []*topicmgr.Matcher
}

// NewWhitelist compiles the given patterns. Empty patterns are skipped.
func NewWhitelist(patterns ...string) (*Whitelist, error) {
	w := &Whitelist{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		m, err := topicmgr.CompilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("whitelist: %w", err)
		}
		w.matchers = append(w.matchers, m)
	}
	return w, nil
}

// IsAllowed reports whether topic matches any whitelisted pattern.
func (w *Whitelist) IsAllowed(topic string) bool {
	if topic == "" {
		return false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, m := range w.matchers {
		if m.Match(topic) {
			return true
		}
	}
	return false
}

// Add appends a pattern to the whitelist.
func (w *Whitelist) Add(pattern string) error {
	if pattern == "" {
		slog.Warn("attempted to add empty pattern to whitelist")
		return ErrEmptyPattern
	}
	m, err := topicmgr.CompilePattern(pattern)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, existing := range w.matchers {
		if existing.Pattern() == pattern {
			return ErrPatternExists
		}
	}
	w.matchers = append(w.matchers, m)
	slog.Debug("added pattern to whitelist", "pattern", pattern)
	return nil
}

// Patterns returns the whitelisted patterns in insertion order.
func (w *Whitelist) Patterns() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.matchers))
	for i, m := range w.matchers {
		out[i] = m.Pattern()
	}
	return out
}

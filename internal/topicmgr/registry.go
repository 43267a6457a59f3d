package topicmgr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry manages the collection of registered topics with metadata
type Registry struct {
	entries map[string]*RegistryEntry
	mu      sync.RWMutex
}

// NewRegistry creates a new topic registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a topic to the registry
func (r *Registry) Register(topic Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if topic == nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Message: "cannot register nil topic",
		}
	}

	name := topic.Name()
	if _, exists := r.entries[name]; exists {
		return &TopicError{
			Type:      ErrorDuplicateRegistration,
			Topic:     name,
			Component: topic.Component(),
			Message:   fmt.Sprintf("topic already registered: %s", name),
		}
	}

	r.entries[name] = &RegistryEntry{
		Topic:        topic,
		RegisteredAt: time.Now(),
		Component:    topic.Component(),
	}
	return nil
}

// Get retrieves a topic by template name
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return entry.Topic, true
}

// List returns all registered topics sorted by name
func (r *Registry) List() []Topic {
	return r.filter(func(Topic) bool { return true })
}

// ListByComponent returns topics for a specific component
func (r *Registry) ListByComponent(component string) []Topic {
	return r.filter(func(t Topic) bool { return t.Component() == component })
}

// ListByKind returns topics with a specific payload encoding
func (r *Registry) ListByKind(kind PayloadKind) []Topic {
	return r.filter(func(t Topic) bool { return t.Kind() == kind })
}

func (r *Registry) filter(keep func(Topic) bool) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		if keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
	return topics
}

// Count returns the number of registered topics
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Reset removes all registered topics (primarily for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*RegistryEntry)
}

// GetStats returns registry statistics
func (r *Registry) GetStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalTopics:        len(r.entries),
		ComponentBreakdown: make(map[string]int),
		KindBreakdown:      make(map[PayloadKind]int),
	}
	for _, entry := range r.entries {
		stats.ComponentBreakdown[entry.Component]++
		stats.KindBreakdown[entry.Topic.Kind()]++
	}
	return stats
}

// RegistryStats provides statistics about the registry
type RegistryStats struct {
	TotalTopics        int                 `json:"total_topics"`
	ComponentBreakdown map[string]int      `json:"component_breakdown"`
	KindBreakdown      map[PayloadKind]int `json:"kind_breakdown"`
}

package topicmgr

import (
	"fmt"
	"sort"
	"sync"
)

// Manager provides the main API for the topic catalog
type Manager struct {
	registry  *Registry
	validator *Validator
	mu        sync.RWMutex
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates a topic and adds it to the catalog
func (m *Manager) Register(topic Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validator.ValidateDefinition(topic); err != nil {
		var name, component string
		if topic != nil {
			name, component = topic.Name(), topic.Component()
		}
		return &TopicError{
			Type:      ErrorValidationFailed,
			Topic:     name,
			Component: component,
			Message:   "topic validation failed",
			Cause:     err,
		}
	}

	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topics ...Topic) {
	for _, topic := range topics {
		if err := m.Register(topic); err != nil {
			panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
		}
	}
}

// Get retrieves a topic by template name
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Get(name)
}

// List returns all registered topics
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.List()
}

// ListByComponent returns topics for a specific component
func (m *Manager) ListByComponent(component string) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.ListByComponent(component)
}

// ListByKind returns topics with the given payload encoding
func (m *Manager) ListByKind(kind PayloadKind) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.ListByKind(kind)
}

// ListComponents returns all component names that have registered topics
func (m *Manager) ListComponents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[string]bool)
	for _, topic := range m.registry.List() {
		set[topic.Component()] = true
	}

	components := make([]string, 0, len(set))
	for component := range set {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// FindTopics returns the catalog topics whose subscription pattern overlaps a
// wildcard filter such as "hermes/audioServer/#".
func (m *Manager) FindTopics(filter string) ([]Topic, error) {
	matcher, err := CompilePattern(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Topic
	for _, topic := range m.registry.List() {
		if matcher.Match(topic.Name()) || matcher.Match(topic.Pattern()) {
			matches = append(matches, topic)
		}
	}
	return matches, nil
}

// Resolve finds the catalog topic a concrete topic belongs to and returns its
// path parameters.
func (m *Manager) Resolve(topic string) (Topic, Params, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Static topics win over templates: "hermes/hotword/load" must not resolve
	// to "hermes/hotword/{modelId}/detected"-like neighbours.
	if t, ok := m.registry.Get(topic); ok {
		return t, Params{}, true
	}
	for _, t := range m.registry.List() {
		if params, ok := t.Template().Extract(topic); ok {
			return t, params, true
		}
	}
	return nil, nil, false
}

// ValidateTopicName checks if a topic name is valid without creating a topic
func (m *Manager) ValidateTopicName(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.validator.ValidateName(name)
}

// ValidatePattern checks a subscription pattern
func (m *Manager) ValidatePattern(pattern string) error {
	return m.validator.ValidatePattern(pattern)
}

// Count returns the total number of registered topics
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Count()
}

// GetStats returns registry statistics
func (m *Manager) GetStats() RegistryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.GetStats()
}

// Reset removes all registered topics (primarily for testing)
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry.Reset()
}

// Global manager instance
var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the default global manager
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

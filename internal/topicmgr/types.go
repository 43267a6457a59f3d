package topicmgr

import (
	"time"
)

// Topic describes one entry of the Hermes topic catalog.
type Topic interface {
	// Name returns the topic template, e.g. "hermes/hotword/{modelId}/detected"
	Name() string

	// Component returns the pipeline component owning this topic (dialogue, asr, ...)
	Component() string

	// Description returns human-readable documentation
	Description() string

	// Pattern returns the subscription pattern covering every concrete topic
	Pattern() string

	// Example returns a usage example
	Example() string

	// Metadata returns additional topic information
	Metadata() map[string]interface{}

	// Kind returns how the payload is encoded
	Kind() PayloadKind

	// Template returns the parsed topic template
	Template() *Template
}

// TypedTopic is the default Topic implementation.
type TypedTopic struct {
	template    *Template
	component   string
	description string
	example     string
	metadata    map[string]interface{}
	kind        PayloadKind
}

// Compile-time interface compliance check
var _ Topic = (*TypedTopic)(nil)

// TopicConfig holds configuration for creating a new topic
type TopicConfig struct {
	Name        string                 `json:"name"`        // Topic template
	Component   string                 `json:"component"`   // Owning component
	Kind        PayloadKind            `json:"kind"`        // Payload encoding
	Description string                 `json:"description"` // Human-readable description
	Example     string                 `json:"example"`     // Usage example
	Metadata    map[string]interface{} `json:"metadata"`    // Additional data
}

// PayloadKind describes how a topic's payload is encoded on the wire.
type PayloadKind string

const (
	KindJSON  PayloadKind = "json"  // Self-describing JSON object
	KindAudio PayloadKind = "audio" // Audio envelope (extended WAV framing)
	KindRaw   PayloadKind = "raw"   // Opaque bytes passed through unchanged
)

// RegistryEntry represents a topic entry in the registry with metadata
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
	Component    string    `json:"component"`
}

// TopicError represents structured errors in the topic management system
type TopicError struct {
	Type      ErrorType `json:"type"`
	Topic     string    `json:"topic"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorInvalidPattern        ErrorType = "invalid_pattern"
	ErrorInvalidTemplate       ErrorType = "invalid_template"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// Error implements the error interface
func (e *TopicError) Error() string {
	msg := e.Message
	if e.Topic != "" {
		msg = e.Topic + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Define creates a catalog topic. It panics when the template is malformed,
// since topics are declared as package-level variables.
func Define(config TopicConfig) *TypedTopic {
	kind := config.Kind
	if kind == "" {
		kind = KindJSON
	}
	return &TypedTopic{
		template:    MustParseTemplate(config.Name),
		component:   config.Component,
		description: config.Description,
		example:     config.Example,
		metadata:    config.Metadata,
		kind:        kind,
	}
}

// Name returns the topic template
func (t *TypedTopic) Name() string {
	return t.template.String()
}

// Component returns the component that owns this topic
func (t *TypedTopic) Component() string {
	return t.component
}

// Description returns human-readable documentation
func (t *TypedTopic) Description() string {
	return t.description
}

// Pattern returns the subscription pattern
func (t *TypedTopic) Pattern() string {
	return t.template.Pattern()
}

// Example returns a usage example
func (t *TypedTopic) Example() string {
	return t.example
}

// Metadata returns additional topic information
func (t *TypedTopic) Metadata() map[string]interface{} {
	// Return a copy to prevent external modification
	result := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

// Kind returns the payload encoding
func (t *TypedTopic) Kind() PayloadKind {
	return t.kind
}

// Template returns the parsed template
func (t *TypedTopic) Template() *Template {
	return t.template
}

// Format builds a concrete topic from the template
func (t *TypedTopic) Format(params Params) (string, error) {
	return t.template.Format(params)
}

// String returns the topic name for easy debugging
func (t *TypedTopic) String() string {
	return t.template.String()
}

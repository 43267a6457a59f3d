package handlers

import (
	"github.com/nfrund/hermes/internal/topicmgr"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TopicResponse is the DTO for a catalog entry.
type TopicResponse struct {
	Name        string   `json:"name"`
	Component   string   `json:"component"`
	Kind        string   `json:"kind"`
	Pattern     string   `json:"pattern"`
	Params      []string `json:"params,omitempty"`
	Description string   `json:"description"`
	Example     string   `json:"example,omitempty"`
}

// NewTopicResponse maps a catalog topic to its DTO.
func NewTopicResponse(t topicmgr.Topic) TopicResponse {
	return TopicResponse{
		Name:        t.Name(),
		Component:   t.Component(),
		Kind:        string(t.Kind()),
		Pattern:     t.Pattern(),
		Params:      t.Template().Params(),
		Description: t.Description(),
		Example:     t.Example(),
	}
}

// ResolveResponse names the catalog topic a concrete topic belongs to.
type ResolveResponse struct {
	Topic  string          `json:"topic"`
	Match  TopicResponse   `json:"match"`
	Params topicmgr.Params `json:"params,omitempty"`
}

// PublishResponse acknowledges a message handed to the engine.
type PublishResponse struct {
	Topic string `json:"topic"`
	Size  int    `json:"size"`
}

// RequestResponse carries the id of a request published on behalf of a client.
type RequestResponse struct {
	ID       string `json:"id"`
	Finished bool   `json:"finished"`
}

// HealthResponse reports the gateway's view of the bus.
type HealthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Queued    int    `json:"queued"`
	Patterns  int    `json:"patterns"`
	Clients   int    `json:"clients"`
}

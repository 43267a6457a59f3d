package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator provides validation for topic definitions
type Validator struct {
	// segmentPattern defines valid literal segments of a catalog topic
	segmentPattern   *regexp.Regexp
	componentPattern *regexp.Regexp
}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	// Catalog topics are camelCase paths: hermes/audioServer/{siteId}/playBytes/{id}
	return &Validator{
		segmentPattern:   regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`),
		componentPattern: regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
	}
}

// ValidateDefinition validates a topic definition
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	if err := v.validateComponentName(topic.Component()); err != nil {
		return fmt.Errorf("invalid component name: %w", err)
	}

	switch topic.Kind() {
	case KindJSON, KindAudio, KindRaw:
	default:
		return fmt.Errorf("invalid payload kind: %q", topic.Kind())
	}

	return nil
}

// ValidateName checks that a catalog topic is a well-formed template whose
// literal segments follow the naming convention.
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 200 {
		return fmt.Errorf("name too long (max 200 characters)")
	}

	tmpl, err := ParseTemplate(name)
	if err != nil {
		return err
	}

	for _, seg := range tmpl.segments {
		label := seg.literal
		if seg.isParam() {
			label = seg.param
		}
		if !v.segmentPattern.MatchString(label) {
			return fmt.Errorf("segment %q must be alphanumeric camelCase", label)
		}
	}

	return nil
}

// ValidatePattern checks a subscription pattern
func (v *Validator) ValidatePattern(pattern string) error {
	return ValidatePattern(pattern)
}

func (v *Validator) validateComponentName(component string) error {
	if component == "" {
		return fmt.Errorf("component name cannot be empty")
	}

	if len(component) > 50 {
		return fmt.Errorf("component name too long (max 50 characters)")
	}

	if !v.componentPattern.MatchString(component) {
		return fmt.Errorf("component name must be lowercase alphanumeric with underscores")
	}

	return nil
}

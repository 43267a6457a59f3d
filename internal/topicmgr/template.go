package topicmgr

import (
	"fmt"
	"strings"
)

// Params maps template placeholder names to concrete segment values.
type Params map[string]string

// Template is a topic with named placeholder segments, e.g.
// "hermes/audioServer/{siteId}/playBytes/{id}". It is parsed once and used
// both to build concrete topics for publishing and wildcard patterns for
// subscribing, so the two can never drift apart.
type Template struct {
	raw      string
	segments []templateSegment
	params   []string
}

type templateSegment struct {
	literal string
	param   string
}

func (s templateSegment) isParam() bool { return s.param != "" }

// ParseTemplate parses a topic template. Placeholders must span a whole segment.
func ParseTemplate(raw string) (*Template, error) {
	if raw == "" {
		return nil, &TopicError{Type: ErrorValidationFailed, Message: "template cannot be empty"}
	}

	parts := strings.Split(raw, Separator)
	t := &Template{raw: raw, segments: make([]templateSegment, 0, len(parts))}
	seen := make(map[string]bool)

	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") && len(part) > 2 {
			name := part[1 : len(part)-1]
			if strings.ContainsAny(name, "{}") {
				return nil, templateError(raw, fmt.Sprintf("invalid placeholder %q", part))
			}
			if seen[name] {
				return nil, templateError(raw, fmt.Sprintf("duplicate placeholder %q", name))
			}
			seen[name] = true
			t.segments = append(t.segments, templateSegment{param: name})
			t.params = append(t.params, name)
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return nil, templateError(raw, fmt.Sprintf("placeholder must span the whole segment: %q", part))
		}
		if strings.ContainsAny(part, SingleWildcard+MultiWildcard) {
			return nil, templateError(raw, fmt.Sprintf("wildcard not allowed in template segment %q", part))
		}
		t.segments = append(t.segments, templateSegment{literal: part})
	}

	return t, nil
}

// MustParseTemplate is like ParseTemplate but panics on error. Intended for
// package-level topic definitions.
func MustParseTemplate(raw string) *Template {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the raw template.
func (t *Template) String() string {
	return t.raw
}

// Params returns the placeholder names in order of appearance.
func (t *Template) Params() []string {
	out := make([]string, len(t.params))
	copy(out, t.params)
	return out
}

// IsStatic reports whether the template has no placeholders.
func (t *Template) IsStatic() bool {
	return len(t.params) == 0
}

// Format substitutes every placeholder and returns a concrete topic.
func (t *Template) Format(params Params) (string, error) {
	var b strings.Builder
	for i, seg := range t.segments {
		if i > 0 {
			b.WriteString(Separator)
		}
		if !seg.isParam() {
			b.WriteString(seg.literal)
			continue
		}
		value, ok := params[seg.param]
		if !ok || value == "" {
			return "", templateError(t.raw, fmt.Sprintf("missing value for placeholder %q", seg.param))
		}
		if err := checkSegmentValue(seg.param, value); err != nil {
			return "", templateError(t.raw, err.Error())
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

// Wildcard returns a subscription pattern: placeholders present in params are
// substituted, the others become "+".
func (t *Template) Wildcard(params Params) (string, error) {
	var b strings.Builder
	for i, seg := range t.segments {
		if i > 0 {
			b.WriteString(Separator)
		}
		if !seg.isParam() {
			b.WriteString(seg.literal)
			continue
		}
		value := params[seg.param]
		if value == "" {
			b.WriteString(SingleWildcard)
			continue
		}
		if err := checkSegmentValue(seg.param, value); err != nil {
			return "", templateError(t.raw, err.Error())
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

// Pattern returns the template with every placeholder replaced by "+".
func (t *Template) Pattern() string {
	p, _ := t.Wildcard(nil)
	return p
}

// Extract returns the placeholder values of a concrete topic, or false when
// the topic does not fit the template.
func (t *Template) Extract(topic string) (Params, bool) {
	parts := strings.Split(topic, Separator)
	if len(parts) != len(t.segments) {
		return nil, false
	}

	params := make(Params, len(t.params))
	for i, seg := range t.segments {
		if seg.isParam() {
			if parts[i] == "" {
				return nil, false
			}
			params[seg.param] = parts[i]
			continue
		}
		if parts[i] != seg.literal {
			return nil, false
		}
	}
	return params, true
}

func checkSegmentValue(name, value string) error {
	if strings.ContainsAny(value, Separator+SingleWildcard+MultiWildcard) {
		return fmt.Errorf("value %q for placeholder %q contains a separator or wildcard", value, name)
	}
	return nil
}

func templateError(raw, reason string) error {
	return &TopicError{
		Type:    ErrorInvalidTemplate,
		Topic:   raw,
		Message: reason,
	}
}

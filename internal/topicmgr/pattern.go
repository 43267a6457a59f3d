package topicmgr

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Separator splits a topic into segments.
	Separator = "/"
	// SingleWildcard matches exactly one non-empty segment.
	SingleWildcard = "+"
	// MultiWildcard matches zero or more trailing segments. Only valid as the last segment.
	MultiWildcard = "#"
)

// ErrMalformedPattern is returned when a subscription pattern misuses wildcards.
var ErrMalformedPattern = errors.New("malformed topic pattern")

type segmentKind uint8

const (
	segLiteral segmentKind = iota
	segSingle
	segMulti
)

type segment struct {
	kind  segmentKind
	value string
}

// Matcher is a compiled subscription pattern. It is safe for concurrent use.
type Matcher struct {
	pattern  string
	segments []segment
	wildcard bool
}

// CompilePattern parses a subscription pattern into a Matcher.
//
// A "+" segment matches exactly one non-empty segment and a trailing "#"
// matches zero or more remaining segments, so "a/#" matches "a", "a/b" and
// "a/b/c". Literal segments are compared verbatim. Wildcards fused with other
// characters ("a+", "#b") and a "#" that is not the final segment are rejected.
func CompilePattern(pattern string) (*Matcher, error) {
	if pattern == "" {
		return nil, patternError(pattern, "pattern cannot be empty")
	}

	parts := strings.Split(pattern, Separator)
	m := &Matcher{
		pattern:  pattern,
		segments: make([]segment, 0, len(parts)),
	}

	for i, part := range parts {
		switch {
		case part == SingleWildcard:
			m.segments = append(m.segments, segment{kind: segSingle})
			m.wildcard = true
		case part == MultiWildcard:
			if i != len(parts)-1 {
				return nil, patternError(pattern, fmt.Sprintf("%q must be the last segment", MultiWildcard))
			}
			m.segments = append(m.segments, segment{kind: segMulti})
			m.wildcard = true
		case strings.ContainsAny(part, SingleWildcard+MultiWildcard):
			return nil, patternError(pattern, fmt.Sprintf("wildcard fused with literal text in segment %q", part))
		default:
			m.segments = append(m.segments, segment{kind: segLiteral, value: part})
		}
	}

	return m, nil
}

// MustCompilePattern is like CompilePattern but panics on a malformed pattern.
func MustCompilePattern(pattern string) *Matcher {
	m, err := CompilePattern(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// ValidatePattern reports whether pattern is a well-formed subscription pattern.
func ValidatePattern(pattern string) error {
	_, err := CompilePattern(pattern)
	return err
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// HasWildcard reports whether the pattern contains "+" or "#".
func (m *Matcher) HasWildcard() bool {
	return m.wildcard
}

// Match reports whether topic is fully matched by the pattern.
func (m *Matcher) Match(topic string) bool {
	if !m.wildcard {
		return topic == m.pattern
	}

	parts := strings.Split(topic, Separator)
	for i, seg := range m.segments {
		// "a/#" also matches "a": the multi wildcard may consume nothing.
		if seg.kind == segMulti {
			return true
		}
		if i >= len(parts) {
			return false
		}
		switch seg.kind {
		case segSingle:
			if parts[i] == "" {
				return false
			}
		case segLiteral:
			if parts[i] != seg.value {
				return false
			}
		}
	}

	return len(parts) == len(m.segments)
}

func patternError(pattern, reason string) error {
	return &TopicError{
		Type:    ErrorInvalidPattern,
		Topic:   pattern,
		Message: reason,
		Cause:   ErrMalformedPattern,
	}
}

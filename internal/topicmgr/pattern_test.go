package topicmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"a/+/c", "a/x/c", true},
		{"a/+/c", "a/x/y/c", false},
		{"a/+/c", "a//c", false},
		{"a/#", "a", true},
		{"a/#", "a/b", true},
		{"a/#", "a/b/c", true},
		{"a/#", "b/a", false},
		{"a/#", "ab", false},
		{"#", "anything/at/all", true},
		{"+", "single", true},
		{"+", "two/levels", false},
		{"hermes/intent/+", "hermes/intent/turnOn", true},
		{"hermes/intent/turnOff", "hermes/intent/turnOn", false},
		{"hermes/tts/say", "hermes/tts/say", true},
		{"hermes/tts/say", "hermes/tts/sayFinished", false},
		{"hermes/tts/say", "prefix/hermes/tts/say", false},
		{"hermes/audioServer/+/playBytes/+", "hermes/audioServer/kitchen/playBytes/42", true},
		{"hermes/audioServer/+/playBytes/+", "hermes/audioServer/kitchen/playFinished", false},
		{"site.1/x", "siteA1/x", false},
		{"a/b/", "a/b/", true},
		{"a/b/", "a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.topic, func(t *testing.T) {
			m, err := CompilePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.topic))
		})
	}
}

func TestCompilePattern_Malformed(t *testing.T) {
	for _, pattern := range []string{
		"",
		"a/#/b",
		"#/a",
		"a/b#",
		"a/+b/c",
		"a/x+",
		"a/##",
	} {
		t.Run(pattern, func(t *testing.T) {
			_, err := CompilePattern(pattern)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPattern))

			var topicErr *TopicError
			require.True(t, errors.As(err, &topicErr))
			assert.Equal(t, ErrorInvalidPattern, topicErr.Type)
		})
	}
}

func TestMatcher_HasWildcard(t *testing.T) {
	assert.False(t, MustCompilePattern("hermes/tts/say").HasWildcard())
	assert.True(t, MustCompilePattern("hermes/+/say").HasWildcard())
	assert.True(t, MustCompilePattern("hermes/#").HasWildcard())
	assert.Equal(t, "hermes/#", MustCompilePattern("hermes/#").Pattern())
}

func TestMustCompilePattern_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompilePattern("a/#/b") })
}

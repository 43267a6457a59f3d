package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitelist_IsAllowed(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		topic    string
		expected bool
	}{
		{
			name:     "empty whitelist",
			patterns: []string{},
			topic:    "hermes/tts/say",
			expected: false,
		},
		{
			name:     "exact topic",
			patterns: []string{"hermes/tts/say", "hermes/nlu/query"},
			topic:    "hermes/tts/say",
			expected: true,
		},
		{
			name:     "single level wildcard",
			patterns: []string{"hermes/hotword/+/detected"},
			topic:    "hermes/hotword/default/detected",
			expected: true,
		},
		{
			name:     "multi level wildcard",
			patterns: []string{"hermes/dialogueManager/#"},
			topic:    "hermes/dialogueManager/startSession",
			expected: true,
		},
		{
			name:     "no match",
			patterns: []string{"hermes/tts/#"},
			topic:    "hermes/asr/toggleOn",
			expected: false,
		},
		{
			name:     "empty topic",
			patterns: []string{"#"},
			topic:    "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wl, err := NewWhitelist(tt.patterns...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, wl.IsAllowed(tt.topic))
		})
	}
}

func TestWhitelist_InvalidPattern(t *testing.T) {
	_, err := NewWhitelist("hermes/#/tts")
	assert.Error(t, err)
}

func TestWhitelist_Add(t *testing.T) {
	wl, err := NewWhitelist("hermes/tts/say")
	require.NoError(t, err)

	assert.ErrorIs(t, wl.Add(""), ErrEmptyPattern)
	assert.ErrorIs(t, wl.Add("hermes/tts/say"), ErrPatternExists)
	require.NoError(t, wl.Add("hermes/nlu/+"))

	assert.Equal(t, []string{"hermes/tts/say", "hermes/nlu/+"}, wl.Patterns())
	assert.True(t, wl.IsAllowed("hermes/nlu/query"))
}

func TestWhitelist_Concurrent(t *testing.T) {
	wl, err := NewWhitelist()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = wl.Add("hermes/tts/#")
			wl.IsAllowed("hermes/tts/say")
		}()
	}
	wg.Wait()

	assert.Len(t, wl.Patterns(), 1)
}

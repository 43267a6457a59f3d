package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hermes/internal/audio"
)

// run executes the root command with args against an in-memory filesystem.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	prevFs := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = prevFs })

	return runWithFs(t, args...)
}

func runWithFs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	listOutputFormat, listComponent, listKind, listFilter, listSummaryOnly = "table", "", "", "", false
	getOutputFormat = "table"
	pubFile, pubSet = "", nil
	sayNoWait, sayLang, saySession = false, "", ""
	injectEntities, injectKind, injectReset, injectNoWait = nil, "add", false, false
	wrapOutput, wrapStamp, wrapStreaming, wrapReplayID = "", false, false, ""
	flagTransport, flagBroker, flagSite, flagTimeout = "", "", "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hermes-cli v")
}

func TestMatch(t *testing.T) {
	out, err := run(t, "match", "hermes/intent/#", "hermes/intent/lights", "hermes/intent", "hermes/tts/say")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ hermes/intent/lights")
	assert.Contains(t, out, "✓ hermes/intent\n")
	assert.Contains(t, out, "✗ hermes/tts/say")

	_, err = run(t, "match", "hermes/+/load", "hermes/tts/say")
	assert.ErrorIs(t, err, errNoMatch)

	_, err = run(t, "match", "hermes/#/load", "hermes/tts/load")
	assert.Error(t, err)
}

func TestTopicsList(t *testing.T) {
	out, err := run(t, "topics", "list", "--format", "json", "--component", "tts")
	require.NoError(t, err)

	var listed struct {
		Count  int `json:"count"`
		Topics []struct {
			Name      string `json:"name"`
			Component string `json:"component"`
		} `json:"topics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, 4, listed.Count)
	for _, topic := range listed.Topics {
		assert.Equal(t, "tts", topic.Component)
	}

	out, err = run(t, "topics", "list", "--kind", "audio")
	require.NoError(t, err)
	assert.Contains(t, out, "hermes/audioServer/{siteId}/audioFrame")
	assert.NotContains(t, out, "hermes/tts/say")

	out, err = run(t, "topics", "list", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Audio Server")

	_, err = run(t, "topics", "list", "--format", "yaml")
	assert.Error(t, err)
}

func TestTopicsGetAndResolve(t *testing.T) {
	out, err := run(t, "topics", "get", "hermes/hotword/{modelId}/detected")
	require.NoError(t, err)
	assert.Contains(t, out, "Pattern:     hermes/hotword/+/detected")

	_, err = run(t, "topics", "get", "hermes/nothing")
	assert.Error(t, err)

	out, err = run(t, "topics", "resolve", "hermes/audioServer/kitchen/playBytes/42")
	require.NoError(t, err)
	assert.Contains(t, out, "hermes/audioServer/{siteId}/playBytes/{id}")
	assert.Contains(t, out, "siteId = kitchen")
	assert.Contains(t, out, "id = 42")
}

func TestTopicsValidate(t *testing.T) {
	out, err := run(t, "topics", "validate", "hermes/tts/say")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	out, err = run(t, "topics", "validate", "hermes/tts/{bad id}")
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "validation failed")
}

func TestAudioWrapAndInspect(t *testing.T) {
	prevFs := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = prevFs })

	require.NoError(t, afero.WriteFile(fs, "capture.raw", make([]byte, 32000), 0644))

	out, err := runWithFs(t, "audio", "wrap", "capture.raw", "-o", "capture.wav", "--replay-id", "r1")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote capture.wav")

	b, err := afero.ReadFile(fs, "capture.wav")
	require.NoError(t, err)
	env, err := audio.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), env.SampleRate)
	assert.Equal(t, "r1", env.ReplayID)

	out, err = runWithFs(t, "audio", "inspect", "capture.wav")
	require.NoError(t, err)
	assert.Contains(t, out, "Sample rate: 16000 Hz")
	assert.Contains(t, out, "Data:        32000 bytes (1s)")
	assert.Contains(t, out, "Replay id:   r1")

	require.NoError(t, afero.WriteFile(fs, "junk.wav", []byte("junk"), 0644))
	_, err = runWithFs(t, "audio", "inspect", "junk.wav")
	assert.ErrorIs(t, err, audio.ErrFormat)
}

func TestPubRejectsInvalidJSON(t *testing.T) {
	_, err := run(t, "pub", "hermes/tts/say", "not json")
	assert.ErrorContains(t, err, "expects a JSON payload")
}

func TestSayNoWaitOverLoopback(t *testing.T) {
	t.Setenv("HERMES_TRANSPORT", "loopback")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "say", "hello", "world", "--no-wait")
	require.NoError(t, err)
	assert.Contains(t, out, "say request")
}

func TestParseEntities(t *testing.T) {
	values, err := parseEntities([]string{"room=kitchen, attic", "color=teal"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"room":  {"kitchen", "attic"},
		"color": {"teal"},
	}, values)

	_, err = parseEntities(nil)
	assert.Error(t, err)
	_, err = parseEntities([]string{"room"})
	assert.Error(t, err)
	_, err = parseEntities([]string{"=kitchen"})
	assert.Error(t, err)
}

func TestDescribePayload(t *testing.T) {
	assert.Equal(t, `{"a":1}`, describePayload([]byte(`{"a":1}`)))
	assert.Equal(t, "<empty>", describePayload(nil))
	assert.Equal(t, "<3 bytes>", describePayload([]byte{0, 1, 2}))

	wav, err := audio.Encode(make([]byte, 3200), audio.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, describePayload(wav), "16000 Hz, 1 ch, 16 bit, 100ms")
}

func TestApplySets(t *testing.T) {
	b, err := applySets(nil, []string{"id=1", "text=Hello there", "init.type=notification", "canBeQueued=false"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"text":"Hello there","init":{"type":"notification"},"canBeQueued":false}`, string(b))

	b, err = applySets([]byte(`{"siteId":"kitchen"}`), []string{"sessionId=s1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"siteId":"kitchen","sessionId":"s1"}`, string(b))

	_, err = applySets([]byte("RIFF"), []string{"a=b"})
	assert.Error(t, err)
	_, err = applySets(nil, []string{"novalue"})
	assert.Error(t, err)
}

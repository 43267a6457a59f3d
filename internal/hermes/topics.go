package hermes

import (
	"fmt"

	"github.com/nfrund/hermes/internal/topicmgr"
)

// Components owning the catalog topics.
const (
	ComponentDialogue    = "dialogue"
	ComponentFeedback    = "feedback"
	ComponentHotword     = "hotword"
	ComponentASR         = "asr"
	ComponentNLU         = "nlu"
	ComponentTTS         = "tts"
	ComponentAudioServer = "audio_server"
	ComponentInjection   = "injection"
)

// Dialogue manager topics.
var (
	TopicDialogueLoad = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/load",
		Component:   ComponentDialogue,
		Description: "Dialogue manager finished loading",
		Example:     `{}`,
	})
	TopicDialogueStartSession = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/startSession",
		Component:   ComponentDialogue,
		Description: "Request a new action or notification session",
		Example:     `{"siteId":"kitchen","init":{"type":"notification","text":"Timer done"}}`,
	})
	TopicDialogueSessionStarted = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/sessionStarted",
		Component:   ComponentDialogue,
		Description: "A session was started",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicDialogueContinueSession = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/continueSession",
		Component:   ComponentDialogue,
		Description: "Continue a session with a new prompt",
		Example:     `{"sessionId":"a1b2","text":"Which room?","intentFilter":["setRoom"]}`,
	})
	TopicDialogueSessionContinued = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/sessionContinued",
		Component:   ComponentDialogue,
		Description: "A session was continued",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicDialogueEndSession = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/endSession",
		Component:   ComponentDialogue,
		Description: "End a session, optionally speaking a last sentence",
		Example:     `{"sessionId":"a1b2","text":"Done"}`,
	})
	TopicDialogueSessionEnded = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/sessionEnded",
		Component:   ComponentDialogue,
		Description: "A session ended",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2","termination":{"reason":"nominal"}}`,
	})
	TopicDialogueSessionQueued = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/sessionQueued",
		Component:   ComponentDialogue,
		Description: "A session request was queued behind a running session",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicDialogueIntentNotRecognized = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/intentNotRecognized",
		Component:   ComponentDialogue,
		Description: "No intent matched the user input",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2","input":"blah"}`,
	})
	TopicDialogueError = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/dialogueManager/error",
		Component:   ComponentDialogue,
		Description: "Dialogue manager error",
		Example:     `{"error":"session not found","context":"endSession"}`,
	})
	TopicIntent = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/intent/{intentName}",
		Component:   ComponentDialogue,
		Description: "An intent was recognized in a session",
		Example:     `{"sessionId":"a1b2","input":"turn on the lights","intent":{"intentName":"lightsOn","confidenceScore":0.93}}`,
	})
)

// Feedback topics.
var (
	TopicFeedbackSoundToggleOn = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/feedback/sound/toggleOn",
		Component:   ComponentFeedback,
		Description: "Enable feedback sounds on a site",
		Example:     `{"siteId":"kitchen"}`,
	})
	TopicFeedbackSoundToggleOff = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/feedback/sound/toggleOff",
		Component:   ComponentFeedback,
		Description: "Disable feedback sounds on a site",
		Example:     `{"siteId":"kitchen"}`,
	})
)

// Hotword topics.
var (
	TopicHotwordLoad = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/hotword/load",
		Component:   ComponentHotword,
		Description: "Hotword detector finished loading",
		Example:     `{"siteId":"kitchen"}`,
	})
	TopicHotwordToggleOn = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/hotword/toggleOn",
		Component:   ComponentHotword,
		Description: "Enable hotword detection",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicHotwordToggleOff = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/hotword/toggleOff",
		Component:   ComponentHotword,
		Description: "Disable hotword detection",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicHotwordDetected = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/hotword/{modelId}/detected",
		Component:   ComponentHotword,
		Description: "A hotword model triggered",
		Example:     `{"siteId":"kitchen","modelId":"hey_snips","currentSensitivity":0.5}`,
	})
	TopicHotwordError = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/hotword/error",
		Component:   ComponentHotword,
		Description: "Hotword detector error",
		Example:     `{"siteId":"kitchen","error":"model not loaded"}`,
	})
)

// ASR topics.
var (
	TopicASRLoad = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/load",
		Component:   ComponentASR,
		Description: "Speech recognizer finished loading",
		Example:     `{}`,
	})
	TopicASRToggleOn = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/toggleOn",
		Component:   ComponentASR,
		Description: "Enable speech recognition",
		Example:     `{}`,
	})
	TopicASRToggleOff = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/toggleOff",
		Component:   ComponentASR,
		Description: "Disable speech recognition",
		Example:     `{}`,
	})
	TopicASRStartListening = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/startListening",
		Component:   ComponentASR,
		Description: "Start capturing speech for a session",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicASRStopListening = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/stopListening",
		Component:   ComponentASR,
		Description: "Stop capturing speech for a session",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2"}`,
	})
	TopicASRTextCaptured = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/textCaptured",
		Component:   ComponentASR,
		Description: "Speech was transcribed",
		Example:     `{"siteId":"kitchen","sessionId":"a1b2","text":"turn on the lights","likelihood":0.9,"seconds":1.2}`,
	})
	TopicASRError = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/asr/error",
		Component:   ComponentASR,
		Description: "Speech recognizer error",
		Example:     `{"error":"decoder crashed"}`,
	})
)

// NLU topics.
var (
	TopicNLULoad = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/nlu/load",
		Component:   ComponentNLU,
		Description: "Intent parser finished loading",
		Example:     `{}`,
	})
	TopicNLUQuery = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/nlu/query",
		Component:   ComponentNLU,
		Description: "Parse an input into an intent",
		Example:     `{"id":"q1","input":"turn on the lights","sessionId":"a1b2"}`,
	})
	TopicNLUIntentParsed = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/nlu/intentParsed",
		Component:   ComponentNLU,
		Description: "A query was parsed into an intent",
		Example:     `{"id":"q1","input":"turn on the lights","intent":{"intentName":"lightsOn","confidenceScore":0.93}}`,
	})
	TopicNLUIntentNotRecognized = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/nlu/intentNotRecognized",
		Component:   ComponentNLU,
		Description: "A query matched no intent",
		Example:     `{"id":"q1","input":"blah"}`,
	})
	TopicNLUError = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/nlu/error",
		Component:   ComponentNLU,
		Description: "Intent parser error",
		Example:     `{"error":"model missing"}`,
	})
)

// TTS topics.
var (
	TopicTTSLoad = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/tts/load",
		Component:   ComponentTTS,
		Description: "Speech synthesizer finished loading",
		Example:     `{}`,
	})
	TopicTTSSay = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/tts/say",
		Component:   ComponentTTS,
		Description: "Speak a sentence on a site",
		Example:     `{"id":"s1","siteId":"kitchen","text":"Hello","lang":"en"}`,
	})
	TopicTTSSayFinished = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/tts/sayFinished",
		Component:   ComponentTTS,
		Description: "A say request finished playing",
		Example:     `{"id":"s1","sessionId":"a1b2"}`,
	})
	TopicTTSError = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/tts/error",
		Component:   ComponentTTS,
		Description: "Speech synthesizer error",
		Example:     `{"error":"voice not installed"}`,
	})
)

// Audio server topics.
var (
	TopicAudioServerLoad = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/load",
		Component:   ComponentAudioServer,
		Description: "Audio server finished loading",
		Example:     `{"siteId":"kitchen"}`,
	})
	TopicAudioFrame = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/{siteId}/audioFrame",
		Component:   ComponentAudioServer,
		Kind:        topicmgr.KindAudio,
		Description: "Captured microphone audio frame",
		Example:     "RIFF envelope with 16 kHz mono PCM",
	})
	TopicPlayBytes = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/{siteId}/playBytes/{id}",
		Component:   ComponentAudioServer,
		Kind:        topicmgr.KindAudio,
		Description: "Play a complete WAV file",
		Example:     "hermes/audioServer/kitchen/playBytes/p1 with a WAV payload",
	})
	TopicPlayFinished = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/{siteId}/playFinished",
		Component:   ComponentAudioServer,
		Description: "A playBytes request finished",
		Example:     `{"id":"p1","siteId":"kitchen"}`,
	})
	TopicPlayBytesStreaming = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/{siteId}/playBytesStreaming/{id}/{index}/{isLastChunk}",
		Component:   ComponentAudioServer,
		Kind:        topicmgr.KindAudio,
		Description: "One chunk of a streamed playback",
		Example:     "hermes/audioServer/kitchen/playBytesStreaming/p1/0/0 with a WAV chunk",
	})
	TopicStreamFinished = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/{siteId}/streamFinished",
		Component:   ComponentAudioServer,
		Description: "A streamed playback finished",
		Example:     `{"id":"p1","siteId":"kitchen"}`,
	})
	TopicReplayRequest = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/{siteId}/replayRequest",
		Component:   ComponentAudioServer,
		Description: "Replay captured audio frames starting at a timestamp",
		Example:     `{"requestId":"r1","siteId":"kitchen","startAtMs":1700000000000}`,
	})
	TopicAudioServerError = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/audioServer/error",
		Component:   ComponentAudioServer,
		Description: "Audio server error",
		Example:     `{"siteId":"kitchen","error":"device busy"}`,
	})
)

// Injection topics.
var (
	TopicInjectionPerform = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/injection/perform",
		Component:   ComponentInjection,
		Description: "Inject entity values into the recognizer vocabulary",
		Example:     `{"id":"i1","operations":[["add",{"room":["attic"]}]]}`,
	})
	TopicInjectionStatus = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/injection/status",
		Component:   ComponentInjection,
		Description: "Injection status report",
		Example:     `{"lastInjectionDate":"2026-01-01T00:00:00Z"}`,
	})
	TopicInjectionComplete = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/injection/complete",
		Component:   ComponentInjection,
		Description: "An injection request completed",
		Example:     `{"requestId":"i1"}`,
	})
	TopicInjectionFailure = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/injection/failure",
		Component:   ComponentInjection,
		Description: "An injection request failed",
		Example:     `{"requestId":"i1","error":"vocabulary locked"}`,
	})
	TopicInjectionResetPerform = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/injection/reset/perform",
		Component:   ComponentInjection,
		Description: "Drop all injected values",
		Example:     `{"id":"r1"}`,
	})
	TopicInjectionResetComplete = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "hermes/injection/reset/complete",
		Component:   ComponentInjection,
		Description: "An injection reset completed",
		Example:     `{"requestId":"r1"}`,
	})
)

// Catalog returns every protocol topic.
func Catalog() []topicmgr.Topic {
	return []topicmgr.Topic{
		TopicDialogueLoad,
		TopicDialogueStartSession,
		TopicDialogueSessionStarted,
		TopicDialogueContinueSession,
		TopicDialogueSessionContinued,
		TopicDialogueEndSession,
		TopicDialogueSessionEnded,
		TopicDialogueSessionQueued,
		TopicDialogueIntentNotRecognized,
		TopicDialogueError,
		TopicIntent,

		TopicFeedbackSoundToggleOn,
		TopicFeedbackSoundToggleOff,

		TopicHotwordLoad,
		TopicHotwordToggleOn,
		TopicHotwordToggleOff,
		TopicHotwordDetected,
		TopicHotwordError,

		TopicASRLoad,
		TopicASRToggleOn,
		TopicASRToggleOff,
		TopicASRStartListening,
		TopicASRStopListening,
		TopicASRTextCaptured,
		TopicASRError,

		TopicNLULoad,
		TopicNLUQuery,
		TopicNLUIntentParsed,
		TopicNLUIntentNotRecognized,
		TopicNLUError,

		TopicTTSLoad,
		TopicTTSSay,
		TopicTTSSayFinished,
		TopicTTSError,

		TopicAudioServerLoad,
		TopicAudioFrame,
		TopicPlayBytes,
		TopicPlayFinished,
		TopicPlayBytesStreaming,
		TopicStreamFinished,
		TopicReplayRequest,
		TopicAudioServerError,

		TopicInjectionPerform,
		TopicInjectionStatus,
		TopicInjectionComplete,
		TopicInjectionFailure,
		TopicInjectionResetPerform,
		TopicInjectionResetComplete,
	}
}

// RegisterTopics adds the catalog to m, skipping topics already registered.
func RegisterTopics(m *topicmgr.Manager) error {
	for _, topic := range Catalog() {
		if _, exists := m.Get(topic.Name()); exists {
			continue
		}
		if err := m.Register(topic); err != nil {
			return fmt.Errorf("register %s: %w", topic.Name(), err)
		}
	}
	return nil
}

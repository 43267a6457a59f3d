package hermes

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nfrund/hermes/internal/audio"
)

// Empty is the payload of messages that carry no fields.
type Empty struct{}

// SiteMessage carries only a site id (load and feedback toggles).
type SiteMessage struct {
	SiteID string `json:"siteId,omitempty"`
}

// ComponentError is the payload of every component's error topic.
type ComponentError struct {
	SiteID  string `json:"siteId,omitempty"`
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

// InitType selects the kind of session started by startSession.
type InitType string

const (
	InitAction       InitType = "action"
	InitNotification InitType = "notification"
)

// SessionInit describes how a session starts.
type SessionInit struct {
	Type                    InitType `json:"type"`
	Text                    string   `json:"text,omitempty"`
	CanBeQueued             *bool    `json:"canBeQueued,omitempty"`
	IntentFilter            []string `json:"intentFilter,omitempty"`
	SendIntentNotRecognized bool     `json:"sendIntentNotRecognized,omitempty"`
}

type StartSession struct {
	SiteID     string      `json:"siteId,omitempty"`
	Init       SessionInit `json:"init"`
	CustomData string      `json:"customData,omitempty"`
}

// SessionEvent is the payload of sessionStarted and sessionContinued.
type SessionEvent struct {
	SiteID     string `json:"siteId,omitempty"`
	SessionID  string `json:"sessionId"`
	CustomData string `json:"customData,omitempty"`
}

type ContinueSession struct {
	SiteID                  string   `json:"siteId,omitempty"`
	SessionID               string   `json:"sessionId"`
	Text                    string   `json:"text,omitempty"`
	CustomData              string   `json:"customData,omitempty"`
	IntentFilter            []string `json:"intentFilter,omitempty"`
	SendIntentNotRecognized bool     `json:"sendIntentNotRecognized,omitempty"`
	Slot                    string   `json:"slot,omitempty"`
}

// EndSession is also the payload of sessionQueued.
type EndSession struct {
	SiteID     string `json:"siteId,omitempty"`
	SessionID  string `json:"sessionId"`
	Text       string `json:"text,omitempty"`
	CustomData string `json:"customData,omitempty"`
}

type SessionTermination struct {
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

type SessionEnded struct {
	SiteID      string             `json:"siteId,omitempty"`
	SessionID   string             `json:"sessionId"`
	CustomData  string             `json:"customData,omitempty"`
	Termination SessionTermination `json:"termination"`
}

// IntentClassification names a recognized intent.
type IntentClassification struct {
	IntentName      string  `json:"intentName"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

type SlotRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Slot is one extracted entity value.
type Slot struct {
	SlotName        string          `json:"slotName"`
	Entity          string          `json:"entity"`
	RawValue        string          `json:"rawValue"`
	Value           json.RawMessage `json:"value,omitempty"`
	Range           *SlotRange      `json:"range,omitempty"`
	ConfidenceScore float64         `json:"confidenceScore,omitempty"`
}

// ASRToken is one transcribed word.
type ASRToken struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	RangeStart int     `json:"rangeStart"`
	RangeEnd   int     `json:"rangeEnd"`
}

// Intent is published on hermes/intent/{intentName}.
type Intent struct {
	SiteID        string                 `json:"siteId,omitempty"`
	SessionID     string                 `json:"sessionId"`
	Input         string                 `json:"input"`
	Intent        IntentClassification   `json:"intent"`
	Slots         []Slot                 `json:"slots,omitempty"`
	ASRTokens     [][]ASRToken           `json:"asrTokens,omitempty"`
	ASRConfidence float64                `json:"asrConfidence,omitempty"`
	Alternatives  []IntentClassification `json:"alternatives,omitempty"`
	CustomData    string                 `json:"customData,omitempty"`
}

type IntentNotRecognized struct {
	SiteID     string `json:"siteId,omitempty"`
	SessionID  string `json:"sessionId"`
	Input      string `json:"input,omitempty"`
	CustomData string `json:"customData,omitempty"`
}

// SessionTarget addresses a site and, optionally, a session.
type SessionTarget struct {
	SiteID    string `json:"siteId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type HotwordDetected struct {
	SiteID             string  `json:"siteId,omitempty"`
	ModelID            string  `json:"modelId"`
	ModelVersion       string  `json:"modelVersion,omitempty"`
	ModelType          string  `json:"modelType,omitempty"`
	CurrentSensitivity float64 `json:"currentSensitivity,omitempty"`
}

type TextCaptured struct {
	SiteID     string     `json:"siteId,omitempty"`
	SessionID  string     `json:"sessionId,omitempty"`
	Text       string     `json:"text"`
	Likelihood float64    `json:"likelihood"`
	Seconds    float64    `json:"seconds"`
	Tokens     []ASRToken `json:"tokens,omitempty"`
}

type NLUQuery struct {
	ID           string   `json:"id"`
	Input        string   `json:"input"`
	IntentFilter []string `json:"intentFilter,omitempty"`
	SessionID    string   `json:"sessionId,omitempty"`
}

type IntentParsed struct {
	ID        string               `json:"id"`
	Input     string               `json:"input"`
	Intent    IntentClassification `json:"intent"`
	Slots     []Slot               `json:"slots,omitempty"`
	SessionID string               `json:"sessionId,omitempty"`
}

type NLUIntentNotRecognized struct {
	ID        string `json:"id"`
	Input     string `json:"input"`
	SessionID string `json:"sessionId,omitempty"`
}

type Say struct {
	ID        string `json:"id"`
	SiteID    string `json:"siteId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text"`
	Lang      string `json:"lang,omitempty"`
}

type SayFinished struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId,omitempty"`
}

// PlayFinished is also the payload of streamFinished.
type PlayFinished struct {
	ID     string `json:"id"`
	SiteID string `json:"siteId"`
}

type ReplayRequest struct {
	RequestID string `json:"requestId"`
	SiteID    string `json:"siteId"`
	StartAtMS int64  `json:"startAtMs"`
}

// AudioFrame is a captured frame; Audio holds the raw envelope bytes.
type AudioFrame struct {
	SiteID string
	Audio  []byte
}

// Envelope decodes the frame's audio envelope.
func (f AudioFrame) Envelope() (*audio.Envelope, error) {
	return audio.Decode(f.Audio)
}

// PlayBytes is a complete WAV file to play on a site.
type PlayBytes struct {
	SiteID string
	ID     string
	Audio  []byte
}

// PlayBytesChunk is one chunk of a streamed playback.
type PlayBytesChunk struct {
	SiteID      string
	ID          string
	Index       int
	IsLastChunk bool
	Audio       []byte
}

// InjectionKind is the operation applied to the injected values.
type InjectionKind string

const (
	InjectionAdd            InjectionKind = "add"
	InjectionAddFromVanilla InjectionKind = "addFromVanilla"
)

// InjectionOperation adds values per entity. On the wire it is a two
// element array: [kind, {entity: [values...]}].
type InjectionOperation struct {
	Kind   InjectionKind
	Values map[string][]string
}

func (op InjectionOperation) MarshalJSON() ([]byte, error) {
	values := op.Values
	if values == nil {
		values = map[string][]string{}
	}
	return json.Marshal([]any{op.Kind, values})
}

func (op *InjectionOperation) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("injection operation: %w", err)
	}
	if len(raw) != 2 {
		return errors.New("injection operation: expected [kind, values]")
	}
	if err := json.Unmarshal(raw[0], &op.Kind); err != nil {
		return fmt.Errorf("injection operation kind: %w", err)
	}
	if err := json.Unmarshal(raw[1], &op.Values); err != nil {
		return fmt.Errorf("injection operation values: %w", err)
	}
	return nil
}

type InjectionRequest struct {
	ID            string               `json:"id"`
	CrossLanguage string               `json:"crossLanguage,omitempty"`
	Lexicon       map[string][]string  `json:"lexicon,omitempty"`
	Operations    []InjectionOperation `json:"operations"`
}

type InjectionStatus struct {
	LastInjectionDate string `json:"lastInjectionDate,omitempty"`
}

// InjectionResult is the payload of complete, failure and reset/complete.
type InjectionResult struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
}

type InjectionReset struct {
	ID string `json:"id"`
}

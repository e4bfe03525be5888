package upstream

import (
	"encoding/json"
	"fmt"
)

// Model contract constants. These mirror the external service's event
// schema and are not choices this relay makes.
const (
	MediaTypeText = "text/plain"
	MediaTypeLPCM = "audio/lpcm"

	ContentTypeText  = "TEXT"
	ContentTypeAudio = "AUDIO"

	RoleSystem    = "SYSTEM"
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"

	AudioTypeSpeech = "SPEECH"
	EncodingBase64  = "base64"

	InputSampleRate  = 16000
	OutputSampleRate = 24000
	SampleSizeBits   = 16
	ChannelCount     = 1
)

// Event is the framed JSON envelope every upstream message is wrapped in.
// Exactly one member of Body is set per event.
type Event struct {
	Body EventBody `json:"event"`
}

// EventBody is the tagged union of event kinds. Outbound events are built
// by the New* constructors; inbound events are decoded by ParseEvent.
type EventBody struct {
	SessionStart *SessionStartEvent `json:"sessionStart,omitempty"`
	PromptStart  *PromptStartEvent  `json:"promptStart,omitempty"`
	ContentStart *ContentStartEvent `json:"contentStart,omitempty"`
	TextInput    *TextIOEvent       `json:"textInput,omitempty"`
	AudioInput   *AudioIOEvent      `json:"audioInput,omitempty"`
	ContentEnd   *ContentEndEvent   `json:"contentEnd,omitempty"`
	PromptEnd    *PromptEndEvent    `json:"promptEnd,omitempty"`
	SessionEnd   *SessionEndEvent   `json:"sessionEnd,omitempty"`

	// Inbound-only kinds.
	AudioOutput *AudioIOEvent `json:"audioOutput,omitempty"`
	TextOutput  *TextIOEvent  `json:"textOutput,omitempty"`
}

// InferenceConfiguration carries the fixed sampling parameters for a session.
type InferenceConfiguration struct {
	MaxTokens   int     `json:"maxTokens"`
	TopP        float64 `json:"topP"`
	Temperature float64 `json:"temperature"`
}

// SessionStartEvent opens the model session.
type SessionStartEvent struct {
	InferenceConfiguration InferenceConfiguration `json:"inferenceConfiguration"`
}

// TextOutputConfiguration declares the text output format for a prompt.
type TextOutputConfiguration struct {
	MediaType string `json:"mediaType"`
}

// AudioOutputConfiguration declares the synthesized audio format for a prompt.
type AudioOutputConfiguration struct {
	MediaType       string `json:"mediaType"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	SampleSizeBits  int    `json:"sampleSizeBits"`
	ChannelCount    int    `json:"channelCount"`
	VoiceID         string `json:"voiceId"`
	Encoding        string `json:"encoding"`
	AudioType       string `json:"audioType"`
}

// PromptStartEvent opens the prompt and fixes its output formats.
type PromptStartEvent struct {
	PromptName               string                   `json:"promptName"`
	TextOutputConfiguration  TextOutputConfiguration  `json:"textOutputConfiguration"`
	AudioOutputConfiguration AudioOutputConfiguration `json:"audioOutputConfiguration"`
}

// TextInputConfiguration declares the format of a text content turn.
type TextInputConfiguration struct {
	MediaType string `json:"mediaType"`
}

// AudioInputConfiguration declares the format of an audio content turn.
type AudioInputConfiguration struct {
	MediaType       string `json:"mediaType"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	SampleSizeBits  int    `json:"sampleSizeBits"`
	ChannelCount    int    `json:"channelCount"`
	AudioType       string `json:"audioType"`
	Encoding        string `json:"encoding"`
}

// ContentStartEvent opens a content turn within the prompt. Role is set on
// outbound turns and may be present on inbound events, where it signals
// whose output follows.
type ContentStartEvent struct {
	PromptName              string                   `json:"promptName"`
	ContentName             string                   `json:"contentName"`
	Type                    string                   `json:"type,omitempty"`
	Interactive             bool                     `json:"interactive,omitempty"`
	Role                    string                   `json:"role,omitempty"`
	TextInputConfiguration  *TextInputConfiguration  `json:"textInputConfiguration,omitempty"`
	AudioInputConfiguration *AudioInputConfiguration `json:"audioInputConfiguration,omitempty"`
}

// TextIOEvent carries text content in either direction.
type TextIOEvent struct {
	PromptName  string `json:"promptName,omitempty"`
	ContentName string `json:"contentName,omitempty"`
	Content     string `json:"content"`
	Role        string `json:"role,omitempty"`
}

// AudioIOEvent carries base64-encoded PCM content in either direction.
type AudioIOEvent struct {
	PromptName  string `json:"promptName,omitempty"`
	ContentName string `json:"contentName,omitempty"`
	Content     string `json:"content"`
}

// ContentEndEvent closes a content turn.
type ContentEndEvent struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
}

// PromptEndEvent closes the prompt.
type PromptEndEvent struct {
	PromptName string `json:"promptName"`
}

// SessionEndEvent closes the model session.
type SessionEndEvent struct{}

// NewSessionStart builds the session-start event with inference parameters.
func NewSessionStart(inference InferenceConfiguration) *Event {
	return &Event{Body: EventBody{SessionStart: &SessionStartEvent{
		InferenceConfiguration: inference,
	}}}
}

// NewPromptStart builds the prompt-start event declaring text output and
// 24kHz/16-bit/mono base64-framed audio output with the given voice.
func NewPromptStart(promptName, voiceID string) *Event {
	return &Event{Body: EventBody{PromptStart: &PromptStartEvent{
		PromptName: promptName,
		TextOutputConfiguration: TextOutputConfiguration{
			MediaType: MediaTypeText,
		},
		AudioOutputConfiguration: AudioOutputConfiguration{
			MediaType:       MediaTypeLPCM,
			SampleRateHertz: OutputSampleRate,
			SampleSizeBits:  SampleSizeBits,
			ChannelCount:    ChannelCount,
			VoiceID:         voiceID,
			Encoding:        EncodingBase64,
			AudioType:       AudioTypeSpeech,
		},
	}}}
}

// NewSystemContentStart builds the content-start event opening the
// system-role instruction turn.
func NewSystemContentStart(promptName, contentName string) *Event {
	return &Event{Body: EventBody{ContentStart: &ContentStartEvent{
		PromptName:  promptName,
		ContentName: contentName,
		Type:        ContentTypeText,
		Interactive: true,
		Role:        RoleSystem,
		TextInputConfiguration: &TextInputConfiguration{
			MediaType: MediaTypeText,
		},
	}}}
}

// NewTextInput builds a text-input event carrying instruction text.
func NewTextInput(promptName, contentName, content string) *Event {
	return &Event{Body: EventBody{TextInput: &TextIOEvent{
		PromptName:  promptName,
		ContentName: contentName,
		Content:     content,
	}}}
}

// NewAudioContentStart builds the content-start event opening the user-role
// audio turn (16kHz/16-bit/mono, base64 framing), left open for the session.
func NewAudioContentStart(promptName, contentName string) *Event {
	return &Event{Body: EventBody{ContentStart: &ContentStartEvent{
		PromptName:  promptName,
		ContentName: contentName,
		Type:        ContentTypeAudio,
		Interactive: true,
		Role:        RoleUser,
		AudioInputConfiguration: &AudioInputConfiguration{
			MediaType:       MediaTypeLPCM,
			SampleRateHertz: InputSampleRate,
			SampleSizeBits:  SampleSizeBits,
			ChannelCount:    ChannelCount,
			AudioType:       AudioTypeSpeech,
			Encoding:        EncodingBase64,
		},
	}}}
}

// NewAudioInput builds an audio-input event wrapping one base64 PCM chunk.
func NewAudioInput(promptName, contentName, base64Content string) *Event {
	return &Event{Body: EventBody{AudioInput: &AudioIOEvent{
		PromptName:  promptName,
		ContentName: contentName,
		Content:     base64Content,
	}}}
}

// NewContentEnd builds the content-end event closing a content turn.
func NewContentEnd(promptName, contentName string) *Event {
	return &Event{Body: EventBody{ContentEnd: &ContentEndEvent{
		PromptName:  promptName,
		ContentName: contentName,
	}}}
}

// NewPromptEnd builds the prompt-end event.
func NewPromptEnd(promptName string) *Event {
	return &Event{Body: EventBody{PromptEnd: &PromptEndEvent{
		PromptName: promptName,
	}}}
}

// NewSessionEnd builds the session-end event.
func NewSessionEnd() *Event {
	return &Event{Body: EventBody{SessionEnd: &SessionEndEvent{}}}
}

// Encode serializes the event to its framed JSON wire form.
func (e *Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", e.Kind(), err)
	}
	return data, nil
}

// ParseEvent decodes one framed inbound event. Unrecognized members decode
// into an Event with no known kind; callers skip those.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode upstream event: %w", err)
	}
	return &ev, nil
}

// Kind returns the name of the event member that is set, for logging.
func (e *Event) Kind() string {
	switch b := e.Body; {
	case b.SessionStart != nil:
		return "sessionStart"
	case b.PromptStart != nil:
		return "promptStart"
	case b.ContentStart != nil:
		return "contentStart"
	case b.TextInput != nil:
		return "textInput"
	case b.AudioInput != nil:
		return "audioInput"
	case b.ContentEnd != nil:
		return "contentEnd"
	case b.PromptEnd != nil:
		return "promptEnd"
	case b.SessionEnd != nil:
		return "sessionEnd"
	case b.AudioOutput != nil:
		return "audioOutput"
	case b.TextOutput != nil:
		return "textOutput"
	default:
		return "unknown"
	}
}

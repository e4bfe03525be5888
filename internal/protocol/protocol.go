package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types sent by the client as WebSocket text frames.
// Raw audio may also arrive as binary frames with no JSON wrapper.
const (
	TypeStartSession = "start-session"
	TypeAudioChunk   = "audio-chunk"
	TypeEndSession   = "end-session"
	TypePing         = "ping"
)

// Message types sent by the relay to the client.
const (
	TypeSessionReady = "session-ready"
	TypeAudioOutput  = "audio-output"
	TypeTextOutput   = "text-output"
	TypeRoleChanged  = "role-changed"
	TypeError        = "error"
	TypePong         = "pong"
)

// Conversation roles reported in role-changed messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ClientMessage represents a JSON control frame received from the client.
type ClientMessage struct {
	Type       string `json:"type"`
	SourceLang string `json:"source_lang,omitempty"` // start-session only
	TargetLang string `json:"target_lang,omitempty"` // start-session only
	Audio      string `json:"audio,omitempty"`       // audio-chunk only, base64 PCM
}

// ServerMessage represents a JSON frame sent from the relay to the client.
type ServerMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
	Audio      string `json:"audio,omitempty"` // base64 24kHz/16-bit/mono PCM
	Text       string `json:"text,omitempty"`
	Role       string `json:"role,omitempty"`
	Message    string `json:"message,omitempty"` // error detail
}

// ParseClientMessage parses and validates a client control frame.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return &msg, nil
}

// Validate checks that the message carries the fields its type requires.
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case TypeStartSession:
		if m.SourceLang == "" {
			return fmt.Errorf("start-session requires source_lang")
		}
		if m.TargetLang == "" {
			return fmt.Errorf("start-session requires target_lang")
		}
	case TypeAudioChunk:
		if m.Audio == "" {
			return fmt.Errorf("audio-chunk requires audio payload")
		}
	case TypeEndSession, TypePing:
		// No payload.
	case "":
		return fmt.Errorf("message type missing")
	default:
		return fmt.Errorf("unknown message type: %q", m.Type)
	}

	return nil
}

// NewSessionReady builds the ready signal sent once session setup completes.
func NewSessionReady(sessionID, sourceLang, targetLang string) *ServerMessage {
	return &ServerMessage{
		Type:       TypeSessionReady,
		SessionID:  sessionID,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}
}

// NewAudioOutput builds an audio-output message carrying base64 PCM samples.
func NewAudioOutput(audio string) *ServerMessage {
	return &ServerMessage{Type: TypeAudioOutput, Audio: audio}
}

// NewTextOutput builds a text-output message carrying a partial transcript.
func NewTextOutput(text string) *ServerMessage {
	return &ServerMessage{Type: TypeTextOutput, Text: text}
}

// NewRoleChanged builds a role-changed notification.
func NewRoleChanged(role string) *ServerMessage {
	return &ServerMessage{Type: TypeRoleChanged, Role: role}
}

// NewError builds an error message with a human-readable description.
func NewError(message string) *ServerMessage {
	return &ServerMessage{Type: TypeError, Message: message}
}

// NewPong builds the reply to a client ping.
func NewPong() *ServerMessage {
	return &ServerMessage{Type: TypePong}
}

// Encode serializes the message to its JSON wire form.
func (m *ServerMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", m.Type, err)
	}
	return data, nil
}

// String returns a human-readable representation of the client message.
func (m *ClientMessage) String() string {
	switch m.Type {
	case TypeStartSession:
		return fmt.Sprintf("ClientMessage{Type:%s, Source:%s, Target:%s}", m.Type, m.SourceLang, m.TargetLang)
	case TypeAudioChunk:
		return fmt.Sprintf("ClientMessage{Type:%s, AudioLen:%d}", m.Type, len(m.Audio))
	default:
		return fmt.Sprintf("ClientMessage{Type:%s}", m.Type)
	}
}

package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expected    *ClientMessage
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid start-session",
			data: `{"type":"start-session","source_lang":"en-US","target_lang":"es-US"}`,
			expected: &ClientMessage{
				Type:       TypeStartSession,
				SourceLang: "en-US",
				TargetLang: "es-US",
			},
		},
		{
			name: "valid audio-chunk",
			data: `{"type":"audio-chunk","audio":"AAAA"}`,
			expected: &ClientMessage{
				Type:  TypeAudioChunk,
				Audio: "AAAA",
			},
		},
		{
			name:     "valid end-session",
			data:     `{"type":"end-session"}`,
			expected: &ClientMessage{Type: TypeEndSession},
		},
		{
			name:     "valid ping",
			data:     `{"type":"ping"}`,
			expected: &ClientMessage{Type: TypePing},
		},
		{
			name:        "start-session missing source language",
			data:        `{"type":"start-session","target_lang":"es-US"}`,
			expectError: true,
			errorMsg:    "requires source_lang",
		},
		{
			name:        "start-session missing target language",
			data:        `{"type":"start-session","source_lang":"en-US"}`,
			expectError: true,
			errorMsg:    "requires target_lang",
		},
		{
			name:        "audio-chunk without payload",
			data:        `{"type":"audio-chunk"}`,
			expectError: true,
			errorMsg:    "requires audio payload",
		},
		{
			name:        "missing type",
			data:        `{"source_lang":"en-US"}`,
			expectError: true,
			errorMsg:    "message type missing",
		},
		{
			name:        "unknown type",
			data:        `{"type":"restart"}`,
			expectError: true,
			errorMsg:    "unknown message type",
		},
		{
			name:        "malformed JSON",
			data:        `{"type":`,
			expectError: true,
			errorMsg:    "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseClientMessage([]byte(tt.data))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}

			if *result != *tt.expected {
				t.Errorf("Expected message %+v, got %+v", tt.expected, result)
			}
		})
	}
}

func TestServerMessageEncode(t *testing.T) {
	tests := []struct {
		name     string
		msg      *ServerMessage
		wantKeys []string
		omitKeys []string
	}{
		{
			name:     "session-ready carries identifiers",
			msg:      NewSessionReady("abc-123", "en-US", "es-US"),
			wantKeys: []string{"type", "session_id", "source_lang", "target_lang"},
			omitKeys: []string{"audio", "text", "role", "message"},
		},
		{
			name:     "audio-output carries only audio",
			msg:      NewAudioOutput("UENN"),
			wantKeys: []string{"type", "audio"},
			omitKeys: []string{"session_id", "text", "role", "message"},
		},
		{
			name:     "text-output carries only text",
			msg:      NewTextOutput("hola"),
			wantKeys: []string{"type", "text"},
			omitKeys: []string{"audio", "role"},
		},
		{
			name:     "role-changed carries role",
			msg:      NewRoleChanged(RoleAssistant),
			wantKeys: []string{"type", "role"},
			omitKeys: []string{"audio", "text"},
		},
		{
			name:     "error carries message",
			msg:      NewError("upstream stream closed"),
			wantKeys: []string{"type", "message"},
			omitKeys: []string{"audio", "text", "role"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.msg.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Encoded message is not valid JSON: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := decoded[key]; !ok {
					t.Errorf("Expected key %q in %s", key, string(data))
				}
			}

			for _, key := range tt.omitKeys {
				if _, ok := decoded[key]; ok {
					t.Errorf("Expected key %q to be omitted in %s", key, string(data))
				}
			}
		})
	}
}

func TestClientMessageString(t *testing.T) {
	msg := &ClientMessage{Type: TypeStartSession, SourceLang: "en-US", TargetLang: "ja-JP"}
	s := msg.String()
	if !strings.Contains(s, "en-US") || !strings.Contains(s, "ja-JP") {
		t.Errorf("Expected String() to include language tags, got %q", s)
	}

	audio := &ClientMessage{Type: TypeAudioChunk, Audio: "AAAAAAAA"}
	if !strings.Contains(audio.String(), "AudioLen:8") {
		t.Errorf("Expected audio String() to report payload length, got %q", audio.String())
	}
}

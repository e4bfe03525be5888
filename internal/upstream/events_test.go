package upstream

import (
	"encoding/json"
	"testing"
)

// marshalToMap round-trips an event through JSON for field inspection
func marshalToMap(t *testing.T, ev *Event) map[string]any {
	t.Helper()

	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Encoded event is not valid JSON: %v", err)
	}

	body, ok := decoded["event"].(map[string]any)
	if !ok {
		t.Fatalf("Expected top-level \"event\" envelope, got %s", string(data))
	}

	return body
}

func TestNewSessionStart(t *testing.T) {
	ev := NewSessionStart(InferenceConfiguration{MaxTokens: 1024, TopP: 0.9, Temperature: 0.7})

	if ev.Kind() != "sessionStart" {
		t.Fatalf("Expected kind sessionStart, got %s", ev.Kind())
	}

	body := marshalToMap(t, ev)
	inference, ok := body["sessionStart"].(map[string]any)["inferenceConfiguration"].(map[string]any)
	if !ok {
		t.Fatal("Missing inferenceConfiguration")
	}

	if inference["maxTokens"] != float64(1024) {
		t.Errorf("Expected maxTokens 1024, got %v", inference["maxTokens"])
	}
	if inference["topP"] != 0.9 {
		t.Errorf("Expected topP 0.9, got %v", inference["topP"])
	}
	if inference["temperature"] != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", inference["temperature"])
	}
}

func TestNewPromptStart(t *testing.T) {
	ev := NewPromptStart("prompt-1", "matthew")

	body := marshalToMap(t, ev)
	ps, ok := body["promptStart"].(map[string]any)
	if !ok {
		t.Fatal("Missing promptStart member")
	}

	if ps["promptName"] != "prompt-1" {
		t.Errorf("Expected promptName prompt-1, got %v", ps["promptName"])
	}

	audioCfg, ok := ps["audioOutputConfiguration"].(map[string]any)
	if !ok {
		t.Fatal("Missing audioOutputConfiguration")
	}

	if audioCfg["sampleRateHertz"] != float64(24000) {
		t.Errorf("Expected 24000 Hz output, got %v", audioCfg["sampleRateHertz"])
	}
	if audioCfg["voiceId"] != "matthew" {
		t.Errorf("Expected voiceId matthew, got %v", audioCfg["voiceId"])
	}
	if audioCfg["encoding"] != "base64" {
		t.Errorf("Expected base64 encoding, got %v", audioCfg["encoding"])
	}

	textCfg, ok := ps["textOutputConfiguration"].(map[string]any)
	if !ok || textCfg["mediaType"] != "text/plain" {
		t.Errorf("Expected text/plain text output configuration, got %v", ps["textOutputConfiguration"])
	}
}

func TestNewAudioContentStart(t *testing.T) {
	ev := NewAudioContentStart("prompt-1", "audio-content-1")

	body := marshalToMap(t, ev)
	cs := body["contentStart"].(map[string]any)

	if cs["type"] != "AUDIO" {
		t.Errorf("Expected type AUDIO, got %v", cs["type"])
	}
	if cs["role"] != "USER" {
		t.Errorf("Expected role USER, got %v", cs["role"])
	}
	if cs["interactive"] != true {
		t.Errorf("Expected interactive turn")
	}

	audioCfg := cs["audioInputConfiguration"].(map[string]any)
	if audioCfg["sampleRateHertz"] != float64(16000) {
		t.Errorf("Expected 16000 Hz input, got %v", audioCfg["sampleRateHertz"])
	}
	if audioCfg["sampleSizeBits"] != float64(16) {
		t.Errorf("Expected 16-bit samples, got %v", audioCfg["sampleSizeBits"])
	}
	if audioCfg["channelCount"] != float64(1) {
		t.Errorf("Expected mono input, got %v", audioCfg["channelCount"])
	}
}

func TestNewSystemContentTurn(t *testing.T) {
	start := NewSystemContentStart("prompt-1", "system-content-1")
	body := marshalToMap(t, start)
	cs := body["contentStart"].(map[string]any)

	if cs["role"] != "SYSTEM" {
		t.Errorf("Expected role SYSTEM, got %v", cs["role"])
	}
	if cs["type"] != "TEXT" {
		t.Errorf("Expected type TEXT, got %v", cs["type"])
	}
	if _, ok := cs["audioInputConfiguration"]; ok {
		t.Error("Text turn must not carry audioInputConfiguration")
	}

	text := NewTextInput("prompt-1", "system-content-1", "You are an interpreter.")
	tb := marshalToMap(t, text)
	ti := tb["textInput"].(map[string]any)
	if ti["content"] != "You are an interpreter." {
		t.Errorf("Unexpected textInput content: %v", ti["content"])
	}
	if ti["promptName"] != "prompt-1" || ti["contentName"] != "system-content-1" {
		t.Errorf("textInput missing correlation ids: %v", ti)
	}
}

func TestNewAudioInput(t *testing.T) {
	ev := NewAudioInput("prompt-1", "audio-content-1", "UENNREFUQQ==")

	body := marshalToMap(t, ev)
	ai := body["audioInput"].(map[string]any)

	if ai["content"] != "UENNREFUQQ==" {
		t.Errorf("Expected base64 content to pass through verbatim, got %v", ai["content"])
	}
	if ai["promptName"] != "prompt-1" {
		t.Errorf("Expected promptName prompt-1, got %v", ai["promptName"])
	}
	if ai["contentName"] != "audio-content-1" {
		t.Errorf("Expected contentName audio-content-1, got %v", ai["contentName"])
	}
}

func TestTeardownEvents(t *testing.T) {
	end := marshalToMap(t, NewContentEnd("prompt-1", "audio-content-1"))
	ce := end["contentEnd"].(map[string]any)
	if ce["promptName"] != "prompt-1" || ce["contentName"] != "audio-content-1" {
		t.Errorf("contentEnd missing correlation ids: %v", ce)
	}

	pe := marshalToMap(t, NewPromptEnd("prompt-1"))
	if pe["promptEnd"].(map[string]any)["promptName"] != "prompt-1" {
		t.Errorf("promptEnd missing promptName: %v", pe)
	}

	se := marshalToMap(t, NewSessionEnd())
	if _, ok := se["sessionEnd"]; !ok {
		t.Errorf("Expected sessionEnd member, got %v", se)
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectKind  string
		expectError bool
	}{
		{
			name:       "audio output",
			data:       `{"event":{"audioOutput":{"content":"UENN"}}}`,
			expectKind: "audioOutput",
		},
		{
			name:       "text output",
			data:       `{"event":{"textOutput":{"content":"hola","role":"ASSISTANT"}}}`,
			expectKind: "textOutput",
		},
		{
			name:       "content start with role",
			data:       `{"event":{"contentStart":{"promptName":"p","contentName":"c","role":"USER"}}}`,
			expectKind: "contentStart",
		},
		{
			name:       "unrecognized member",
			data:       `{"event":{"usageEvent":{"totalTokens":12}}}`,
			expectKind: "unknown",
		},
		{
			name:        "malformed payload",
			data:        `{"event":`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.data))

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}

			if ev.Kind() != tt.expectKind {
				t.Errorf("Expected kind %s, got %s", tt.expectKind, ev.Kind())
			}
		})
	}
}

func TestParseEventContent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":{"audioOutput":{"content":"QUJD"}}}`))
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}

	if ev.Body.AudioOutput == nil {
		t.Fatal("Expected AudioOutput to be set")
	}

	if ev.Body.AudioOutput.Content != "QUJD" {
		t.Errorf("Expected content QUJD, got %q", ev.Body.AudioOutput.Content)
	}
}

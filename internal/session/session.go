package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marceloacosta/un-translator/internal/audio"
	"github.com/marceloacosta/un-translator/internal/language"
	"github.com/marceloacosta/un-translator/internal/metrics"
	"github.com/marceloacosta/un-translator/internal/protocol"
	"github.com/marceloacosta/un-translator/internal/upstream"
)

// Sink delivers relay output to the client connection that owns a session.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(msg *protocol.ServerMessage) error
}

// Options carries the fixed per-session parameters taken from configuration.
type Options struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Inference   upstream.InferenceConfiguration
	VoiceID     string
	SendTimeout time.Duration

	// CaptureDir enables WAV debug capture of both audio directions
	// when non-empty.
	CaptureDir       string
	InputSampleRate  int
	OutputSampleRate int
}

// Session relays one client conversation through one upstream model stream.
type Session struct {
	ID         string
	SourceLang string
	TargetLang string

	// One correlation id ties every prompt-scoped event of the session
	// together. Content turns get their own ids.
	promptID        string
	systemContentID string
	audioContentID  string

	stream upstream.Stream
	sink   Sink
	opts   Options
	logger *slog.Logger

	createdAt time.Time

	relayCancel context.CancelFunc
	relayWG     sync.WaitGroup

	inputRec  *audio.Recorder
	outputRec *audio.Recorder

	mu           sync.Mutex
	started      bool
	ended        bool
	lastActivity time.Time
}

// New creates a session over an already-opened upstream stream.
// The session is inert until Start succeeds.
func New(sourceLang, targetLang string, stream upstream.Stream, sink Sink, opts Options) *Session {
	id := uuid.NewString()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		ID:              id,
		SourceLang:      sourceLang,
		TargetLang:      targetLang,
		promptID:        uuid.NewString(),
		systemContentID: uuid.NewString(),
		audioContentID:  uuid.NewString(),
		stream:          stream,
		sink:            sink,
		opts:            opts,
		logger:          logger.With("session_id", id),
		createdAt:       time.Now(),
		lastActivity:    time.Now(),
	}
}

// systemPrompt builds the interpreter instruction for the session's
// language pair.
func (s *Session) systemPrompt() string {
	return fmt.Sprintf(`You are a professional UN-style simultaneous interpreter.
Your task is to translate speech from %s to %s.

Translation guidelines:
- Translate naturally and fluently, maintaining the speaker's intent and tone
- Use professional, diplomatic language appropriate for international settings
- Preserve meaning over literal word-for-word translation
- Speak clearly and at a natural pace
- Handle pauses and incomplete sentences gracefully
- If unsure about a term, use the most contextually appropriate translation

Begin translating the incoming speech immediately.`,
		language.DisplayName(s.SourceLang), language.DisplayName(s.TargetLang))
}

// send writes one event upstream, bounded by the configured send timeout.
func (s *Session) send(ctx context.Context, ev *upstream.Event) error {
	if s.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SendTimeout)
		defer cancel()
	}
	return s.stream.Send(ctx, ev)
}

// Start runs the upstream setup sequence and, once every step succeeds,
// starts the response relay and signals readiness to the client. A setup
// failure leaves the session unusable; there are no retries.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.ended {
		s.mu.Unlock()
		return fmt.Errorf("session %s already started", s.ID)
	}
	s.mu.Unlock()

	setup := []*upstream.Event{
		upstream.NewSessionStart(s.opts.Inference),
		upstream.NewPromptStart(s.promptID, s.opts.VoiceID),
		upstream.NewSystemContentStart(s.promptID, s.systemContentID),
		upstream.NewTextInput(s.promptID, s.systemContentID, s.systemPrompt()),
		upstream.NewContentEnd(s.promptID, s.systemContentID),
		upstream.NewAudioContentStart(s.promptID, s.audioContentID),
	}

	for _, ev := range setup {
		if err := s.send(ctx, ev); err != nil {
			s.fail()
			return fmt.Errorf("session setup failed at %s: %w", ev.Kind(), err)
		}
	}

	if s.opts.CaptureDir != "" {
		s.openRecorders()
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	s.relayCancel = cancel
	s.relayWG.Add(1)
	go s.relayLoop(relayCtx)

	s.mu.Lock()
	s.started = true
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if err := s.sink.Send(protocol.NewSessionReady(s.ID, s.SourceLang, s.TargetLang)); err != nil {
		s.logger.Warn("Failed to deliver ready signal", "error", err)
	}

	s.logger.Info("Session started",
		"source_lang", s.SourceLang,
		"target_lang", s.TargetLang)

	return nil
}

// fail marks a session dead after a setup error so later calls no-op.
func (s *Session) fail() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordSetupFailure()
	}

	if err := s.stream.Close(); err != nil {
		s.logger.Debug("Stream close after setup failure", "error", err)
	}
}

// openRecorders sets up WAV debug capture for both audio directions.
// Capture failures are logged and disable capture, never the session.
func (s *Session) openRecorders() {
	var err error
	s.inputRec, err = audio.NewRecorder(s.opts.CaptureDir, s.ID, "input", s.opts.InputSampleRate)
	if err != nil {
		s.logger.Warn("Input capture disabled", "error", err)
		s.inputRec = nil
	}

	s.outputRec, err = audio.NewRecorder(s.opts.CaptureDir, s.ID, "output", s.opts.OutputSampleRate)
	if err != nil {
		s.logger.Warn("Output capture disabled", "error", err)
		s.outputRec = nil
	}
}

// Active reports whether the session has started and not yet ended.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.ended
}

// ForwardAudio sends one raw PCM chunk upstream as a base64 audio-input
// event. Audio received while no session is active is dropped silently.
func (s *Session) ForwardAudio(ctx context.Context, pcm []byte) error {
	if !s.Active() {
		return nil
	}

	if len(pcm) == 0 {
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(pcm)
	if err := s.send(ctx, upstream.NewAudioInput(s.promptID, s.audioContentID, encoded)); err != nil {
		s.abandon("failed to forward audio to translator", err)
		return fmt.Errorf("failed to forward audio chunk: %w", err)
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordAudioForwarded(len(pcm))
	}

	if s.inputRec != nil {
		s.inputRec.Append(pcm)
	}

	s.Touch()
	return nil
}

// relayLoop pumps upstream responses to the client until the stream ends
// or teardown cancels the context.
func (s *Session) relayLoop(ctx context.Context) {
	defer s.relayWG.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.stream.Events():
			if !ok {
				s.handleStreamEnd(ctx)
				return
			}
			s.handleEvent(ev)
		}
	}
}

// handleStreamEnd finalizes the session when the upstream stream ends
// without teardown having been requested. An unrequested end is a relay
// failure whether or not the stream reports an error; a stream that ends
// during teardown is expected and stays quiet.
func (s *Session) handleStreamEnd(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.abandon("translation stream ended unexpectedly", s.stream.Err())
}

// abandon finalizes a live session after a relay failure: exactly one
// error message goes to the client, then the stream is released. Further
// audio is dropped and End becomes a no-op. Safe to call from the relay
// goroutine.
func (s *Session) abandon(message string, cause error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()

	if cause != nil {
		s.logger.Error("Abandoning session", "error", cause)
	} else {
		s.logger.Error("Abandoning session", "reason", message)
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRelayFailure()
	}

	if err := s.sink.Send(protocol.NewError(message)); err != nil {
		s.logger.Debug("Failed to deliver relay error", "error", err)
	}

	if s.relayCancel != nil {
		s.relayCancel()
	}

	// The stream is already broken; no teardown events can be sent.
	if err := s.stream.Close(); err != nil {
		s.logger.Debug("Stream close after failure", "error", err)
	}
	s.closeRecorders()

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordSessionEnded(time.Since(s.createdAt).Seconds())
	}
}

// handleEvent maps one inbound upstream event onto the client protocol.
// Unrecognized kinds are skipped.
func (s *Session) handleEvent(ev *upstream.Event) {
	switch body := ev.Body; {
	case body.AudioOutput != nil:
		s.deliverAudio(body.AudioOutput.Content)

	case body.TextOutput != nil:
		if body.TextOutput.Content == "" {
			return
		}
		if err := s.sink.Send(protocol.NewTextOutput(body.TextOutput.Content)); err != nil {
			s.logger.Debug("Failed to deliver text output", "error", err)
			return
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordResponseText()
		}

	case body.ContentStart != nil:
		role := clientRole(body.ContentStart.Role)
		if role == "" {
			return
		}
		if err := s.sink.Send(protocol.NewRoleChanged(role)); err != nil {
			s.logger.Debug("Failed to deliver role change", "error", err)
			return
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordResponseRole()
		}

	default:
		s.logger.Debug("Skipping upstream event", "kind", ev.Kind())
	}
}

// deliverAudio relays one synthesized audio chunk to the client.
func (s *Session) deliverAudio(content string) {
	if content == "" {
		return
	}

	if err := s.sink.Send(protocol.NewAudioOutput(content)); err != nil {
		s.logger.Debug("Failed to deliver audio output", "error", err)
		return
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordResponseAudio()
	}

	if s.outputRec != nil {
		if pcm, err := base64.StdEncoding.DecodeString(content); err == nil {
			s.outputRec.Append(pcm)
		}
	}
}

// clientRole maps an upstream role onto the client protocol's role names.
// Roles the client has no use for map to the empty string.
func clientRole(role string) string {
	switch role {
	case upstream.RoleUser:
		return protocol.RoleUser
	case upstream.RoleAssistant:
		return protocol.RoleAssistant
	default:
		return ""
	}
}

// End tears the session down: the relay stops first so a closing stream is
// not mistaken for a failure, then the close sequence goes upstream, then
// the stream handle is released. Calling End more than once is a no-op.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	wasStarted := s.started
	s.ended = true
	s.mu.Unlock()

	if !wasStarted {
		return s.stream.Close()
	}

	if s.relayCancel != nil {
		s.relayCancel()
	}
	s.relayWG.Wait()

	teardown := []*upstream.Event{
		upstream.NewContentEnd(s.promptID, s.audioContentID),
		upstream.NewPromptEnd(s.promptID),
		upstream.NewSessionEnd(),
	}

	var firstErr error
	for _, ev := range teardown {
		if err := s.send(ctx, ev); err != nil {
			s.logger.Warn("Teardown event failed", "kind", ev.Kind(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			break
		}
	}

	if err := s.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.closeRecorders()

	duration := time.Since(s.createdAt)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordSessionEnded(duration.Seconds())
	}

	s.logger.Info("Session ended", "duration", duration)
	return firstErr
}

func (s *Session) closeRecorders() {
	if s.inputRec != nil {
		if err := s.inputRec.Close(); err != nil {
			s.logger.Warn("Failed to finalize input capture", "error", err)
		}
	}
	if s.outputRec != nil {
		if err := s.outputRec.Close(); err != nil {
			s.logger.Warn("Failed to finalize output capture", "error", err)
		}
	}
}

// Touch records client activity for idle-timeout accounting.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// IdleFor returns how long the session has gone without client activity.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// Info is the read-only session view exposed by the HTTP API.
type Info struct {
	ID           string    `json:"session_id"`
	SourceLang   string    `json:"source_lang"`
	TargetLang   string    `json:"target_lang"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Active       bool      `json:"active"`
}

// Snapshot returns the session's current state for the HTTP API.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:           s.ID,
		SourceLang:   s.SourceLang,
		TargetLang:   s.TargetLang,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		Active:       s.started && !s.ended,
	}
}

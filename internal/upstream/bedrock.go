package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// Config contains the Bedrock runtime endpoint configuration.
type Config struct {
	Region  string
	ModelID string
}

// Client opens bidirectional streams to the translation model through the
// Amazon Bedrock runtime.
type Client struct {
	config  Config
	runtime *bedrockruntime.Client
	logger  *slog.Logger
}

// NewClient creates a Bedrock-backed stream opener. Credentials come from
// the ambient AWS environment (env vars, shared config, instance role).
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region cannot be empty")
	}

	if cfg.ModelID == "" {
		return nil, fmt.Errorf("model ID cannot be empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &Client{
		config:  cfg,
		runtime: bedrockruntime.NewFromConfig(awsCfg),
		logger:  logger,
	}, nil
}

// Open starts one bidirectional stream against the configured model and
// begins decoding inbound payload chunks into events.
func (c *Client) Open(ctx context.Context) (Stream, error) {
	out, err := c.runtime.InvokeModelWithBidirectionalStream(ctx, &bedrockruntime.InvokeModelWithBidirectionalStreamInput{
		ModelId: aws.String(c.config.ModelID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bidirectional stream to %s: %w", c.config.ModelID, err)
	}

	s := &bedrockStream{
		eventStream: out.GetStream(),
		events:      make(chan *Event, 32),
		logger:      c.logger,
	}

	go s.readLoop()

	return s, nil
}

// bedrockStream adapts the SDK event stream to the Stream interface.
type bedrockStream struct {
	eventStream *bedrockruntime.InvokeModelWithBidirectionalStreamEventStream
	events      chan *Event
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Send writes one framed event as an input payload chunk.
func (s *bedrockStream) Send(ctx context.Context, ev *Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}

	err = s.eventStream.Send(ctx, &types.InvokeModelWithBidirectionalStreamInputMemberChunk{
		Value: types.BidirectionalInputPayloadPart{Bytes: payload},
	})
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", ev.Kind(), err)
	}

	return nil
}

// Events returns the decoded inbound event sequence.
func (s *bedrockStream) Events() <-chan *Event {
	return s.events
}

// Err reports the terminal stream error once Events is closed.
func (s *bedrockStream) Err() error {
	return s.eventStream.Err()
}

// Close releases the underlying SDK stream.
func (s *bedrockStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.eventStream.Close()
	})
	return s.closeErr
}

// readLoop drains the SDK event channel, decoding payload chunks.
// Undecodable chunks are logged and skipped rather than killing the stream.
func (s *bedrockStream) readLoop() {
	defer close(s.events)

	for raw := range s.eventStream.Events() {
		chunk, ok := raw.(*types.InvokeModelWithBidirectionalStreamOutputMemberChunk)
		if !ok {
			continue
		}

		ev, err := ParseEvent(chunk.Value.Bytes)
		if err != nil {
			s.logger.Warn("Skipping undecodable upstream event",
				slog.String("error", err.Error()),
				slog.Int("payload_size", len(chunk.Value.Bytes)),
			)
			continue
		}

		s.events <- ev
	}
}

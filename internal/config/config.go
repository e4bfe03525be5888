package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Audio     AudioConfig     `yaml:"audio"`
	Inference InferenceConfig `yaml:"inference"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP/WebSocket server configuration
type ServerConfig struct {
	Port                  int    `yaml:"port"`
	Address               string `yaml:"address"`
	MaxConcurrentSessions int    `yaml:"max_concurrent_sessions"`
	ReadBufferSize        int    `yaml:"read_buffer_size"`
	WriteBufferSize       int    `yaml:"write_buffer_size"`
}

// UpstreamConfig contains the translation model endpoint configuration
type UpstreamConfig struct {
	Region      string `yaml:"region"`
	ModelID     string `yaml:"model_id"`
	OpenTimeout int    `yaml:"open_timeout"` // seconds
	SendTimeout int    `yaml:"send_timeout"` // seconds
}

// AudioConfig contains the audio format contract and session housekeeping
type AudioConfig struct {
	InputSampleRate  int    `yaml:"input_sample_rate"`  // client → model
	OutputSampleRate int    `yaml:"output_sample_rate"` // model → client
	Channels         int    `yaml:"channels"`
	BitDepth         int    `yaml:"bit_depth"`
	SessionTimeout   int    `yaml:"session_timeout"` // seconds of client inactivity
	CaptureDir       string `yaml:"capture_dir"`     // optional WAV debug capture
}

// InferenceConfig contains the fixed inference parameters sent at session start
type InferenceConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
	Temperature float64 `yaml:"temperature"`
	VoiceID     string  `yaml:"voice_id"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Inference.Validate(); err != nil {
		return fmt.Errorf("inference config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.MaxConcurrentSessions < 1 {
		return fmt.Errorf("max_concurrent_sessions must be at least 1, got %d", s.MaxConcurrentSessions)
	}

	if s.ReadBufferSize < 1024 {
		return fmt.Errorf("read_buffer_size must be at least 1024 bytes, got %d", s.ReadBufferSize)
	}

	if s.WriteBufferSize < 1024 {
		return fmt.Errorf("write_buffer_size must be at least 1024 bytes, got %d", s.WriteBufferSize)
	}

	return nil
}

// Validate validates upstream endpoint configuration
func (u *UpstreamConfig) Validate() error {
	if u.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}

	if u.ModelID == "" {
		return fmt.Errorf("model_id cannot be empty")
	}

	if u.OpenTimeout < 1 {
		return fmt.Errorf("open_timeout must be at least 1 second, got %d", u.OpenTimeout)
	}

	if u.SendTimeout < 1 {
		return fmt.Errorf("send_timeout must be at least 1 second, got %d", u.SendTimeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.InputSampleRate != 16000 {
		return fmt.Errorf("input_sample_rate must be 16000 Hz for the model contract, got %d", a.InputSampleRate)
	}

	if a.OutputSampleRate != 24000 {
		return fmt.Errorf("output_sample_rate must be 24000 Hz for the model contract, got %d", a.OutputSampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono) for the model contract, got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16 for the model contract, got %d", a.BitDepth)
	}

	if a.SessionTimeout < 1 {
		return fmt.Errorf("session_timeout must be at least 1 second, got %d", a.SessionTimeout)
	}

	return nil
}

// Validate validates inference parameters
func (i *InferenceConfig) Validate() error {
	if i.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", i.MaxTokens)
	}

	if i.TopP <= 0 || i.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %f", i.TopP)
	}

	if i.Temperature < 0 || i.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", i.Temperature)
	}

	if i.VoiceID == "" {
		return fmt.Errorf("voice_id cannot be empty")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output accepts stdout, stderr, or a file path.
	return nil
}

// GetOpenTimeoutDuration returns the upstream open timeout as a time.Duration
func (u *UpstreamConfig) GetOpenTimeoutDuration() time.Duration {
	return time.Duration(u.OpenTimeout) * time.Second
}

// GetSendTimeoutDuration returns the upstream send timeout as a time.Duration
func (u *UpstreamConfig) GetSendTimeoutDuration() time.Duration {
	return time.Duration(u.SendTimeout) * time.Second
}

// GetSessionTimeoutDuration returns the session idle timeout as a time.Duration
func (a *AudioConfig) GetSessionTimeoutDuration() time.Duration {
	return time.Duration(a.SessionTimeout) * time.Second
}

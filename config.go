package mmsclient

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort            = 102
	DefaultReconnectDelay  = 5 * time.Second
	DefaultPollInterval    = time.Second
	DefaultSettleTimeout   = 1000 * time.Millisecond
	DefaultShutdownTimeout = 10 * time.Second
	DefaultEventQueueSize  = 1024
	DefaultEmitTimeout     = 5 * time.Second
	DefaultOriginCategory  = 3 // remote-control
	maxOriginCategory      = 8

	// maxRetries is the number of consecutive failures on one address before
	// the loop switches to the other one.
	maxRetries = 3
)

// ConnectParams are the arguments of Client.Connect.
type ConnectParams struct {
	Host           string        `yaml:"host" validate:"nonzero"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	ClientID       string        `yaml:"clientID" validate:"nonzero"`
	ReserveHost    string        `yaml:"reserveHost"`
	ReconnectDelay time.Duration `yaml:"reconnectDelay" validate:"min=0"`
}

func (p ConnectParams) Validate() error {
	if err := validator.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (p ConnectParams) withDefaults() ConnectParams {
	if p.ReconnectDelay == 0 {
		p.ReconnectDelay = DefaultReconnectDelay
	}
	return p
}

// ClientSettings tune the client's timing and queueing. Zero values take the
// package defaults. OriginCategory is a pointer so that 0 (not-supported) can
// be configured; nil means DefaultOriginCategory.
type ClientSettings struct {
	PollInterval    time.Duration `yaml:"pollInterval" validate:"min=0"`
	SettleTimeout   time.Duration `yaml:"settleTimeout" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"min=0"`
	EventQueueSize  int           `yaml:"eventQueueSize" validate:"min=0"`
	EmitTimeout     time.Duration `yaml:"emitTimeout" validate:"min=0"`
	OriginIdent     string        `yaml:"originIdent"`
	OriginCategory  *int          `yaml:"originCategory"`
}

func (s ClientSettings) withDefaults() ClientSettings {
	if s.PollInterval == 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.SettleTimeout == 0 {
		s.SettleTimeout = DefaultSettleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.EventQueueSize == 0 {
		s.EventQueueSize = DefaultEventQueueSize
	}
	if s.EmitTimeout == 0 {
		s.EmitTimeout = DefaultEmitTimeout
	}
	if s.OriginCategory == nil {
		cat := DefaultOriginCategory
		s.OriginCategory = &cat
	}
	return s
}

func (s ClientSettings) originCategory() int {
	if s.OriginCategory == nil {
		return DefaultOriginCategory
	}
	return *s.OriginCategory
}

func (s ClientSettings) validate() error {
	if cat := s.originCategory(); cat < 0 || cat > maxOriginCategory {
		return fmt.Errorf("%w: OriginCategory: %d out of range 0..%d", ErrInvalidParams, cat, maxOriginCategory)
	}
	return nil
}

// Settings is the file form of the configuration.
type Settings struct {
	Connect  ConnectParams  `yaml:"connect"`
	Client   ClientSettings `yaml:"client"`
	LogLevel string         `yaml:"logLevel"`
}

// Validate checks the loaded settings including the connect parameters.
func (s Settings) Validate() error {
	if err := validator.Validate(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return s.Client.validate()
}

// LoadSettings reads settings from the YAML file at path (skipped when empty),
// loads the given .env files and then applies MMSCLIENT_* environment
// overrides. The result is not validated.
func LoadSettings(path string, envFiles ...string) (Settings, error) {
	s := Settings{Connect: ConnectParams{Port: DefaultPort}}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read settings %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &s); err != nil {
			return s, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return s, fmt.Errorf("load env files: %w", err)
		}
	}

	if err := applyEnv(&s); err != nil {
		return s, err
	}
	return s, nil
}

func applyEnv(s *Settings) error {
	if v, ok := os.LookupEnv("MMSCLIENT_HOST"); ok {
		s.Connect.Host = v
	}
	if v, ok := os.LookupEnv("MMSCLIENT_RESERVE_HOST"); ok {
		s.Connect.ReserveHost = v
	}
	if v, ok := os.LookupEnv("MMSCLIENT_CLIENT_ID"); ok {
		s.Connect.ClientID = v
	}
	if v, ok := os.LookupEnv("MMSCLIENT_LOG_LEVEL"); ok {
		s.LogLevel = v
	}
	if v, ok := os.LookupEnv("MMSCLIENT_PORT"); ok {
		port, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("MMSCLIENT_PORT=%q: %w", v, err)
		}
		s.Connect.Port = port
	}
	if v, ok := os.LookupEnv("MMSCLIENT_ORIGIN_CATEGORY"); ok {
		cat, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("MMSCLIENT_ORIGIN_CATEGORY=%q: %w", v, err)
		}
		s.Client.OriginCategory = &cat
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"MMSCLIENT_RECONNECT_DELAY", &s.Connect.ReconnectDelay},
		{"MMSCLIENT_POLL_INTERVAL", &s.Client.PollInterval},
		{"MMSCLIENT_SETTLE_TIMEOUT", &s.Client.SettleTimeout},
		{"MMSCLIENT_SHUTDOWN_TIMEOUT", &s.Client.ShutdownTimeout},
	}
	for _, d := range durations {
		v, ok := os.LookupEnv(d.key)
		if !ok {
			continue
		}
		dur, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", d.key, v, err)
		}
		*d.dst = dur
	}
	return nil
}

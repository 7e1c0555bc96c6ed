package meetchat

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config controls one meeting's chat session.
type Config struct {
	MeetingID      string        `env:"MEETCHAT_MEETING_ID" validate:"required"`
	PublishTimeout time.Duration `env:"MEETCHAT_PUBLISH_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	DedupWindow    time.Duration `env:"MEETCHAT_DEDUP_WINDOW" envDefault:"1s" validate:"gt=0"`
	MaxTextLength  int           `env:"MEETCHAT_MAX_TEXT_LENGTH" envDefault:"500" validate:"gt=0"`
	StartVisible   bool          `env:"MEETCHAT_START_VISIBLE"`
}

// DefaultConfig returns sensible defaults. MeetingID must still be set.
func DefaultConfig() Config {
	return Config{
		PublishTimeout: 5 * time.Second,
		DedupWindow:    time.Second,
		MaxTextLength:  500,
	}
}

// LoadConfig reads MEETCHAT_* environment variables on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, WrapError(ErrorInvalidConfig, "parse env", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config and returns an ErrInvalidConfig-coded error.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return WrapError(ErrorInvalidConfig, "validate config", err)
	}
	return nil
}

// validateText enforces the input-boundary cap on a trimmed message.
func validateText(text string, maxLen int) error {
	if text == "" {
		return ErrEmptyMessage
	}
	if err := validate.Var(text, fmt.Sprintf("max=%d", maxLen)); err != nil {
		return WrapError(ErrorTextTooLong, fmt.Sprintf("text exceeds %d characters", maxLen), err)
	}
	return nil
}

// Package config assembles the viewer configuration from defaults, an
// optional TOML file, IMAGEPACK_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	OnErrorExit = "exit"
	OnErrorSkip = "skip"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type AppConfig struct {
	Endpoint      string        `env:"ENDPOINT"`
	RequestToken  string        `env:"REQUEST_TOKEN"`
	TargetHeight  int           `env:"TARGET_HEIGHT"`
	Delay         time.Duration `env:"DELAY"`
	RecvTimeout   time.Duration `env:"RECV_TIMEOUT"`
	OnError       string        `env:"ON_ERROR"`
	Port          int           `env:"PORT"`
	Debug         bool          `env:"DEBUG"`
	SimWidth      int           `env:"SIM_WIDTH"`
	SimHeight     int           `env:"SIM_HEIGHT"`
	RawLogEnabled bool          `env:"RAW_LOG"`
	RawLogDir     string        `env:"RAW_LOG_DIR"`
	SnapshotDir   string        `env:"SNAPSHOT_DIR"`
	SnapshotCBOR  bool          `env:"SNAPSHOT_CBOR"`
	LogLevel      string        `env:"LOG_LEVEL"`
	LogFormat     string        `env:"LOG_FORMAT"`
	ConfigFile    string        `env:"CONFIG"`
}

// Defaults mirrors the reference client: localhost:5555, 400 px, ~20 fps.
func Defaults() AppConfig {
	return AppConfig{
		Endpoint:     "tcp://localhost:5555",
		RequestToken: "imageRequest",
		TargetHeight: 400,
		Delay:        50 * time.Millisecond,
		RecvTimeout:  5 * time.Second,
		OnError:      OnErrorExit,
		Port:         8888,
		SimWidth:     320,
		SimHeight:    240,
		RawLogDir:    "rawlog",
		SnapshotDir:  "snapshots",
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

func (c AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("endpoint is empty"))
	}
	if c.RequestToken == "" {
		errs = append(errs, errors.New("request token is empty"))
	}
	if c.TargetHeight <= 0 {
		errs = append(errs, fmt.Errorf("target height %d is not positive", c.TargetHeight))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay %s is negative", c.Delay))
	}
	if c.RecvTimeout < 0 {
		errs = append(errs, fmt.Errorf("receive timeout %s is negative", c.RecvTimeout))
	}
	if c.OnError != OnErrorExit && c.OnError != OnErrorSkip {
		errs = append(errs, fmt.Errorf("on-error %q is not %q or %q", c.OnError, OnErrorExit, OnErrorSkip))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Debug && (c.SimWidth < 1 || c.SimHeight < 1) {
		errs = append(errs, fmt.Errorf("simulator size %dx%d is not positive", c.SimWidth, c.SimHeight))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

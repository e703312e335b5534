package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const EnvPrefix = "IMAGEPACK_"

// Load builds the configuration for args (without the program name).
// environ supplies the environment; nil means the process environment.
func Load(args []string, environ map[string]string) (AppConfig, error) {
	flagCfg, flagSet, err := parseFlags(args, io.Discard)
	if err != nil {
		return AppConfig{}, err
	}
	envCfg, err := parseEnv(environ)
	if err != nil {
		return AppConfig{}, err
	}
	envSet := envKeys(environ)

	layers := make([]layer, 0, 3)
	path := flagCfg.ConfigFile
	if path == "" {
		path = envCfg.ConfigFile
	}
	if path != "" {
		fileCfg, fileSet, err := loadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		layers = append(layers, layer{cfg: fileCfg, set: fileSet})
	}
	layers = append(layers, layer{cfg: envCfg, set: envSet}, layer{cfg: flagCfg, set: flagSet})

	cfg := Defaults()
	for _, l := range layers {
		if err := mergo.Merge(&cfg, l.cfg, mergo.WithOverride); err != nil {
			return AppConfig{}, fmt.Errorf("merge config: %w", err)
		}
		for _, z := range zeroable {
			if l.set[z.flag] {
				z.apply(&cfg, l.cfg)
			}
		}
	}
	cfg.ConfigFile = path
	cfg.OnError = strings.ToLower(strings.TrimSpace(cfg.OnError))
	return cfg, cfg.Validate()
}

type layer struct {
	cfg AppConfig
	set map[string]bool
}

// zeroable settings have a meaningful zero value (0s timeout blocks forever,
// 0s delay runs flat out, false switches a feature off). mergo skips zero
// values, so a layer that sets one explicitly is copied after the merge.
// Keys are flag names.
var zeroable = []struct {
	flag, env, toml string
	apply           func(dst *AppConfig, src AppConfig)
}{
	{"delay", "DELAY", "delay", func(d *AppConfig, s AppConfig) { d.Delay = s.Delay }},
	{"recv-timeout", "RECV_TIMEOUT", "recv_timeout", func(d *AppConfig, s AppConfig) { d.RecvTimeout = s.RecvTimeout }},
	{"debug", "DEBUG", "debug", func(d *AppConfig, s AppConfig) { d.Debug = s.Debug }},
	{"raw-log", "RAW_LOG", "raw_log", func(d *AppConfig, s AppConfig) { d.RawLogEnabled = s.RawLogEnabled }},
	{"snapshot-cbor", "SNAPSHOT_CBOR", "snapshot_cbor", func(d *AppConfig, s AppConfig) { d.SnapshotCBOR = s.SnapshotCBOR }},
}

func envKeys(environ map[string]string) map[string]bool {
	set := make(map[string]bool)
	for _, z := range zeroable {
		var ok bool
		if environ != nil {
			_, ok = environ[EnvPrefix+z.env]
		} else {
			_, ok = os.LookupEnv(EnvPrefix + z.env)
		}
		if ok {
			set[z.flag] = true
		}
	}
	return set
}

// parseFlags leaves unset flags at their zero value so they do not override
// lower layers during the merge. The returned set names the flags given.
func parseFlags(args []string, usageOut io.Writer) (AppConfig, map[string]bool, error) {
	var cfg AppConfig
	def := Defaults()
	fs := flag.NewFlagSet("imagepack-viewer", flag.ContinueOnError)
	fs.SetOutput(usageOut)

	fs.StringVar(&cfg.Endpoint, "endpoint", "", fmt.Sprintf("ZMQ endpoint of the image server (default %s)", def.Endpoint))
	fs.StringVar(&cfg.RequestToken, "token", "", fmt.Sprintf("Request token (default %s)", def.RequestToken))
	fs.IntVar(&cfg.TargetHeight, "target-height", 0, fmt.Sprintf("Display height in pixels (default %d)", def.TargetHeight))
	fs.DurationVar(&cfg.Delay, "delay", 0, fmt.Sprintf("Pause between frames (default %s)", def.Delay))
	fs.DurationVar(&cfg.RecvTimeout, "recv-timeout", 0, fmt.Sprintf("Reply timeout (default %s)", def.RecvTimeout))
	fs.StringVar(&cfg.OnError, "on-error", "", "exit or skip when an iteration fails (default exit)")
	fs.IntVar(&cfg.Port, "port", 0, fmt.Sprintf("HTTP port for the viewer (default %d)", def.Port))
	fs.BoolVar(&cfg.Debug, "debug", false, "Serve simulated image packs in-process")
	fs.IntVar(&cfg.SimWidth, "sim-width", 0, fmt.Sprintf("Simulated image width (default %d)", def.SimWidth))
	fs.IntVar(&cfg.SimHeight, "sim-height", 0, fmt.Sprintf("Simulated image height (default %d)", def.SimHeight))
	fs.BoolVar(&cfg.RawLogEnabled, "raw-log", false, "Record raw replies to disk")
	fs.StringVar(&cfg.RawLogDir, "raw-log-dir", "", fmt.Sprintf("Directory for raw reply logs (default %s)", def.RawLogDir))
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", "", fmt.Sprintf("Directory for snapshots (default %s)", def.SnapshotDir))
	fs.BoolVar(&cfg.SnapshotCBOR, "snapshot-cbor", false, "Also export snapshot packs as CBOR")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "trace, debug, info, warn or error (default info)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "json or console (default json)")
	fs.StringVar(&cfg.ConfigFile, "config", "", "TOML config file")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, nil, err
	}
	if fs.NArg() > 0 && fs.Arg(0) != "run" {
		return AppConfig{}, nil, fmt.Errorf("%w: unknown command %q", ErrInvalidConfig, fs.Arg(0))
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return cfg, set, nil
}

func parseEnv(environ map[string]string) (AppConfig, error) {
	var cfg AppConfig
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return AppConfig{}, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}

type fileConfig struct {
	Endpoint      string `toml:"endpoint"`
	RequestToken  string `toml:"token"`
	TargetHeight  int    `toml:"target_height"`
	Delay         string `toml:"delay"`
	RecvTimeout   string `toml:"recv_timeout"`
	OnError       string `toml:"on_error"`
	Port          int    `toml:"port"`
	Debug         bool   `toml:"debug"`
	SimWidth      int    `toml:"sim_width"`
	SimHeight     int    `toml:"sim_height"`
	RawLogEnabled bool   `toml:"raw_log"`
	RawLogDir     string `toml:"raw_log_dir"`
	SnapshotDir   string `toml:"snapshot_dir"`
	SnapshotCBOR  bool   `toml:"snapshot_cbor"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
}

func loadFile(path string) (AppConfig, map[string]bool, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return AppConfig{}, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return AppConfig{}, nil, fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidConfig, path, undecoded)
	}

	cfg := AppConfig{
		Endpoint:      strings.TrimSpace(raw.Endpoint),
		RequestToken:  raw.RequestToken,
		TargetHeight:  raw.TargetHeight,
		OnError:       raw.OnError,
		Port:          raw.Port,
		Debug:         raw.Debug,
		SimWidth:      raw.SimWidth,
		SimHeight:     raw.SimHeight,
		RawLogEnabled: raw.RawLogEnabled,
		RawLogDir:     raw.RawLogDir,
		SnapshotDir:   raw.SnapshotDir,
		SnapshotCBOR:  raw.SnapshotCBOR,
		LogLevel:      raw.LogLevel,
		LogFormat:     raw.LogFormat,
	}
	var errs []error
	if meta.IsDefined("delay") {
		if cfg.Delay, err = time.ParseDuration(strings.TrimSpace(raw.Delay)); err != nil {
			errs = append(errs, fmt.Errorf("parse delay: %w", err))
		}
	}
	if meta.IsDefined("recv_timeout") {
		if cfg.RecvTimeout, err = time.ParseDuration(strings.TrimSpace(raw.RecvTimeout)); err != nil {
			errs = append(errs, fmt.Errorf("parse recv_timeout: %w", err))
		}
	}
	if len(errs) > 0 {
		return AppConfig{}, nil, fmt.Errorf("load config %s: %w", path, errors.Join(errs...))
	}
	set := make(map[string]bool)
	for _, z := range zeroable {
		if meta.IsDefined(z.toml) {
			set[z.flag] = true
		}
	}
	return cfg, set, nil
}

// Usage writes the flag help to w.
func Usage(w io.Writer) {
	_, _, _ = parseFlags([]string{"-h"}, w)
}

// Package settings loads the configuration of the combi command from
// a YAML file and COMBI_* environment variables.
package settings

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/clarete/combi"
)

const (
	configName = ".combi"
	configType = "yaml"
	envPrefix  = "COMBI"
)

const (
	DefaultTraceLimit = 16
	DefaultLogLevel   = "warn"
	DefaultGrammar    = "arith"
	DefaultNamespace  = "combi"
)

// Settings is the configuration of the command line tool.  Field tags
// use mapstructure for viper and yaml for printing.
type Settings struct {
	Engine  EngineSettings  `mapstructure:"engine" yaml:"engine"`
	Parse   ParseSettings   `mapstructure:"parse" yaml:"parse"`
	Tree    TreeSettings    `mapstructure:"tree" yaml:"tree"`
	Log     LogSettings     `mapstructure:"log" yaml:"log"`
	Metrics MetricsSettings `mapstructure:"metrics" yaml:"metrics"`
}

type EngineSettings struct {
	Cache      bool `mapstructure:"cache" yaml:"cache"`
	Debug      bool `mapstructure:"debug" yaml:"debug"`
	TraceLimit int  `mapstructure:"trace_limit" yaml:"trace_limit"`
}

type ParseSettings struct {
	// Grammar is the built-in grammar used when commands aren't
	// given one.
	Grammar     string `mapstructure:"grammar" yaml:"grammar"`
	RequireFull bool   `mapstructure:"require_full" yaml:"require_full"`
}

type TreeSettings struct {
	ElideTransient bool `mapstructure:"elide_transient" yaml:"elide_transient"`
	Color          bool `mapstructure:"color" yaml:"color"`
}

type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type MetricsSettings struct {
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

var (
	ErrInvalidTraceLimit = errors.New("engine.trace_limit must be non-negative")
	ErrInvalidLogLevel   = errors.New("log.level must be one of trace, debug, info, warn, error or off")
	ErrMissingGrammar    = errors.New("parse.grammar must not be empty")
	ErrMissingNamespace  = errors.New("metrics.namespace must not be empty")
)

// Load reads the settings from `path`, or from `.combi.yaml` in the
// working or home directory when `path` is empty.  A missing file is
// only an error when its path was given.
func Load(path string) (*Settings, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading settings")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "decoding settings")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating settings")
	}
	return &s, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("engine.cache", true)
	v.SetDefault("engine.debug", false)
	v.SetDefault("engine.trace_limit", DefaultTraceLimit)
	v.SetDefault("parse.grammar", DefaultGrammar)
	v.SetDefault("parse.require_full", true)
	v.SetDefault("tree.elide_transient", true)
	v.SetDefault("tree.color", false)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("metrics.namespace", DefaultNamespace)
}

// Validate returns the first setting out of its range.
func (s *Settings) Validate() error {
	if s.Engine.TraceLimit < 0 {
		return ErrInvalidTraceLimit
	}
	if hclog.LevelFromString(s.Log.Level) == hclog.NoLevel {
		return ErrInvalidLogLevel
	}
	if s.Parse.Grammar == "" {
		return ErrMissingGrammar
	}
	if s.Metrics.Namespace == "" {
		return ErrMissingNamespace
	}
	return nil
}

// Config converts the settings engines understand.
func (s *Settings) Config() *combi.Config {
	cfg := combi.NewConfig()
	cfg.SetBool("engine.cache", s.Engine.Cache)
	cfg.SetBool("engine.debug", s.Engine.Debug)
	cfg.SetInt("engine.trace_limit", s.Engine.TraceLimit)
	cfg.SetBool("parse.require_full", s.Parse.RequireFull)
	cfg.SetBool("tree.elide_transient", s.Tree.ElideTransient)
	return cfg
}

func (s *Settings) LogLevel() hclog.Level { return hclog.LevelFromString(s.Log.Level) }

// YAML renders the settings in the format Load reads.
func (s *Settings) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "encoding settings")
	}
	return out, nil
}

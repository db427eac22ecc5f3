package recapture

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/coregx/recapture/recode"
	"github.com/coregx/recapture/vm"
)

// Config controls compilation and matching.
//
// The tunable fields can be loaded from YAML with ParseConfig or LoadConfig.
// Logger and Transforms are runtime-only and must be set in code.
//
// Example:
//
//	config := recapture.DefaultConfig()
//	config.Transforms = map[string]recode.Transform{
//	    "n": func(s string) any { n, _ := strconv.Atoi(s); return n },
//	}
//	re, err := recapture.CompileWithConfig(`(?P<n>\d+)`, config)
type Config struct {
	// MaxRecursionDepth limits nesting during compilation.
	// Default: 100
	MaxRecursionDepth int `yaml:"max_recursion_depth"`

	// EnablePrefilter enables literal-prefix filtering of start positions
	// for Find, FindAll and MatchString.
	// Default: true
	EnablePrefilter bool `yaml:"enable_prefilter"`

	// MaxPrefixes limits the number of literal prefixes extracted for the
	// prefilter. Patterns with more alternatives get no prefilter.
	// Default: 64
	MaxPrefixes int `yaml:"max_prefixes"`

	// MaxPrefixLen limits the byte length of extracted prefixes.
	// Default: 16
	MaxPrefixLen int `yaml:"max_prefix_len"`

	// MaxVisitedBits caps the memoization bit set of one execution.
	// Default: 2M bits (256KB)
	MaxVisitedBits int `yaml:"max_visited_bits"`

	// TraceSteps logs every executed instruction at debug level.
	// Has no effect without a Logger.
	// Default: false
	TraceSteps bool `yaml:"trace_steps"`

	// Logger receives debug diagnostics about compilation and execution.
	// Default: nil (no logging)
	Logger *zap.Logger `yaml:"-"`

	// Transforms maps named capture groups to value transforms.
	Transforms map[string]recode.Transform `yaml:"-"`
}

// DefaultConfig returns the default configuration for compilation.
//
// Example:
//
//	config := recapture.DefaultConfig()
//	config.EnablePrefilter = false
//	re, _ := recapture.CompileWithConfig("pattern", config)
func DefaultConfig() Config {
	return Config{
		MaxRecursionDepth: 100,
		EnablePrefilter:   true,
		MaxPrefixes:       recode.DefaultMaxPrefixes,
		MaxPrefixLen:      recode.DefaultMaxPrefixLen,
		MaxVisitedBits:    vm.DefaultMaxVisitedBits,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxRecursionDepth: 10 to 1000
//   - MaxPrefixes: 1 to 4096 (if prefilter enabled)
//   - MaxPrefixLen: 1 to 256 (if prefilter enabled)
//   - MaxVisitedBits: 64 to 1<<30
func (c Config) Validate() error {
	if c.MaxRecursionDepth < 10 || c.MaxRecursionDepth > 1000 {
		return &ConfigError{
			Field:   "MaxRecursionDepth",
			Message: "must be between 10 and 1,000",
		}
	}

	if c.EnablePrefilter {
		if c.MaxPrefixes < 1 || c.MaxPrefixes > 4096 {
			return &ConfigError{
				Field:   "MaxPrefixes",
				Message: "must be between 1 and 4,096",
			}
		}
		if c.MaxPrefixLen < 1 || c.MaxPrefixLen > 256 {
			return &ConfigError{
				Field:   "MaxPrefixLen",
				Message: "must be between 1 and 256",
			}
		}
	}

	if err := c.vmConfig().Validate(); err != nil {
		var vmErr *vm.ConfigError
		if errors.As(err, &vmErr) {
			return &ConfigError{Field: vmErr.Field, Message: vmErr.Message}
		}
		return err
	}
	return nil
}

func (c Config) compilerConfig() recode.CompilerConfig {
	cc := recode.DefaultCompilerConfig()
	cc.MaxRecursionDepth = c.MaxRecursionDepth
	cc.Transforms = c.Transforms
	if c.EnablePrefilter {
		cc.MaxPrefixes = c.MaxPrefixes
		cc.MaxPrefixLen = c.MaxPrefixLen
	} else {
		cc.MaxPrefixes = 0
	}
	return cc
}

func (c Config) vmConfig() vm.Config {
	return vm.Config{
		MaxVisitedBits: c.MaxVisitedBits,
		TraceSteps:     c.TraceSteps,
		Logger:         c.Logger,
	}
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "recapture: invalid config: " + e.Field + ": " + e.Message
}

// ParseConfig decodes a YAML document into a Config.
// Fields absent from the document keep their DefaultConfig values, unknown
// fields are rejected and the result is validated.
//
// Example:
//
//	config, err := recapture.ParseConfig([]byte("enable_prefilter: false\n"))
func ParseConfig(data []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(data))
}

// LoadConfig reads a YAML document from r into a Config.
// An empty document yields DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	config := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("recapture: decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

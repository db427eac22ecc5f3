package vm

import "go.uber.org/zap"

// DefaultMaxVisitedBits bounds the visited bit set of one execution to 256KB.
const DefaultMaxVisitedBits = 256 * 1024 * 8

// Config controls interpreter behavior.
//
// Example:
//
//	config := vm.DefaultConfig()
//	config.Logger = logger
//	config.TraceSteps = true // log every instruction at debug level
//	bt := vm.NewBacktracker(prog, config)
type Config struct {
	// MaxVisitedBits caps the memoization bit set of one execution
	// (instructions * (range length + 1)). Larger searches memoize in a map.
	// Default: 2M bits (256KB)
	MaxVisitedBits int

	// TraceSteps logs every executed instruction at debug level.
	// Default: false
	TraceSteps bool

	// Logger receives debug diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxVisitedBits: DefaultMaxVisitedBits,
		Logger:         zap.NewNop(),
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxVisitedBits: 64 to 1<<30
func (c Config) Validate() error {
	if c.MaxVisitedBits < 64 || c.MaxVisitedBits > 1<<30 {
		return &ConfigError{
			Field:   "MaxVisitedBits",
			Message: "must be between 64 and 1,073,741,824",
		}
	}
	return nil
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "vm: invalid config: " + e.Field + ": " + e.Message
}

package recapture

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"default", func(*Config) {}, ""},
		{"depth too small", func(c *Config) { c.MaxRecursionDepth = 9 }, "MaxRecursionDepth"},
		{"depth too large", func(c *Config) { c.MaxRecursionDepth = 1001 }, "MaxRecursionDepth"},
		{"no prefixes", func(c *Config) { c.MaxPrefixes = 0 }, "MaxPrefixes"},
		{"too many prefixes", func(c *Config) { c.MaxPrefixes = 5000 }, "MaxPrefixes"},
		{"prefix length zero", func(c *Config) { c.MaxPrefixLen = 0 }, "MaxPrefixLen"},
		{"prefix limits ignored when disabled", func(c *Config) {
			c.EnablePrefilter = false
			c.MaxPrefixes = 0
			c.MaxPrefixLen = 0
		}, ""},
		{"visited bits too small", func(c *Config) { c.MaxVisitedBits = 63 }, "MaxVisitedBits"},
		{"visited bits too large", func(c *Config) { c.MaxVisitedBits = 1<<30 + 1 }, "MaxVisitedBits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)

			err := config.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
			if !strings.HasPrefix(err.Error(), "recapture: invalid config: "+tt.field+": ") {
				t.Errorf("Error() = %q", err.Error())
			}

			if _, err := CompileWithConfig("a", config); err == nil {
				t.Error("CompileWithConfig accepted an invalid config")
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		config, err := ParseConfig(nil)
		if err != nil {
			t.Fatal(err)
		}
		if config.MaxRecursionDepth != DefaultConfig().MaxRecursionDepth || !config.EnablePrefilter {
			t.Errorf("ParseConfig(nil) = %+v, want defaults", config)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		doc := `
max_recursion_depth: 50
enable_prefilter: false
max_visited_bits: 4096
trace_steps: true
`
		config, err := ParseConfig([]byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		if config.MaxRecursionDepth != 50 || config.EnablePrefilter ||
			config.MaxVisitedBits != 4096 || !config.TraceSteps {
			t.Errorf("ParseConfig() = %+v", config)
		}
		if config.MaxPrefixes != DefaultConfig().MaxPrefixes {
			t.Errorf("MaxPrefixes = %d, want default", config.MaxPrefixes)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseConfig([]byte("max_depth: 5\n"))
		if err == nil || !strings.HasPrefix(err.Error(), "recapture: decoding config: ") {
			t.Errorf("ParseConfig() error = %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		if _, err := ParseConfig([]byte("max_prefixes: many\n")); err == nil {
			t.Error("ParseConfig() accepted a string for an int field")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("max_recursion_depth: 1\n"))
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "MaxRecursionDepth" {
			t.Errorf("LoadConfig() error = %v, want MaxRecursionDepth ConfigError", err)
		}
	})
}

func TestConfig_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	config := DefaultConfig()
	config.Logger = zap.New(core)

	re, err := CompileWithConfig(`(\d+)`, config)
	if err != nil {
		t.Fatal(err)
	}

	compiled := logs.FilterMessage("compiled").All()
	if len(compiled) != 1 {
		t.Fatalf("got %d compiled entries, want 1", len(compiled))
	}
	fields := compiled[0].ContextMap()
	if fields["pattern"] != `(\d+)` || fields["captures"] != int64(1) || fields["anchored"] != false {
		t.Errorf("compiled fields = %v", fields)
	}

	re.Execute("42", WholeString)
	executed := logs.FilterMessage("execute").All()
	if len(executed) != 1 {
		t.Fatalf("got %d execute entries, want 1", len(executed))
	}
	if got := executed[0].ContextMap()["matched"]; got != true {
		t.Errorf("matched = %v, want true", got)
	}
}

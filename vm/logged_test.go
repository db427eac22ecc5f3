package vm

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bt := newBacktrackerForTest(t, "(ab)")
	m := WithLogger(bt, zap.New(core))

	if m.Motto() != bt.Motto() {
		t.Errorf("Motto() = %q, want %q", m.Motto(), bt.Motto())
	}

	res := m.Execute("abc", Range{0, 3}, WholeString)
	if res == nil || res.Range != (Range{0, 2}) {
		t.Fatalf("Execute() = %+v, want [0, 2)", res)
	}
	if m.Execute("xyz", Range{0, 3}, PartialFromFront) != nil {
		t.Fatal("Execute(xyz) matched")
	}

	entries := logs.FilterMessage("execute").AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d execute entries, want 2", len(entries))
	}

	first := entries[0].ContextMap()
	if first["matched"] != true || first["match"] != "[0, 2)" || first["mode"] != "wholeString" {
		t.Errorf("first entry fields = %v", first)
	}
	if first["vm"] != bt.Motto() {
		t.Errorf("vm field = %v", first["vm"])
	}

	second := entries[1].ContextMap()
	if second["matched"] != false || second["mode"] != "partialFromFront" {
		t.Errorf("second entry fields = %v", second)
	}
	if _, ok := second["match"]; ok {
		t.Error("failed execution should not log a match range")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	bt := newBacktrackerForTest(t, "a")
	if m := WithLogger(bt, nil); m != VirtualMachine(bt) {
		t.Error("WithLogger(m, nil) should return m")
	}
}

func TestWithLogger_LevelDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := WithLogger(newBacktrackerForTest(t, "a"), zap.New(core))
	ExecuteString(m, "a")
	if logs.Len() != 0 {
		t.Errorf("got %d entries above debug level, want 0", logs.Len())
	}
}

func TestTraceSteps(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	config := DefaultConfig()
	config.Logger = zap.New(core)
	config.TraceSteps = true

	bt := NewBacktracker(compileForTest(t, "ab"), config)
	if ExecuteString(bt, "ab") == nil {
		t.Fatal("no match")
	}

	steps := logs.FilterMessage("step").AllUntimed()
	// rune a, rune b, match
	if len(steps) != 3 {
		t.Fatalf("got %d step entries, want 3", len(steps))
	}
	last := steps[len(steps)-1].ContextMap()
	if last["inst"] != "match" || last["pos"] != int64(2) {
		t.Errorf("last step = %v", last)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		bits    int
		wantErr bool
	}{
		{"default", DefaultMaxVisitedBits, false},
		{"minimum", 64, false},
		{"too small", 63, true},
		{"too large", 1<<30 + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.MaxVisitedBits = tt.bits
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				cerr, ok := err.(*ConfigError)
				if !ok || cerr.Field != "MaxVisitedBits" {
					t.Errorf("error = %#v, want *ConfigError for MaxVisitedBits", err)
				}
			}
		})
	}
}

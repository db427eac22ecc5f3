package vm

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestScan_AgreesWithExecute(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
	}{
		{"(a|ab)(c|bcd)", "xabcd abc"},
		{`\bcat`, "concat cat"},
		{"(a*)*b", "aaab ab b"},
		{"x*", "axxb"},
		{"[0-9]+-[0-9]+", "1- 12-34"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			bt := newBacktrackerForTest(t, tt.pattern)
			scan := bt.NewScan(tt.input, RangeOf(tt.input))
			defer scan.Close()

			for start := 0; start <= len(tt.input); start++ {
				want := bt.Execute(tt.input, Range{start, len(tt.input)}, WholeString)
				got := scan.ExecuteAt(start)
				if (got == nil) != (want == nil) {
					t.Fatalf("start %d: scan = %v, execute = %v", start, got, want)
				}
				if got == nil {
					continue
				}
				if got.Range != want.Range || !got.Captures.Equal(want.Captures) {
					t.Errorf("start %d: scan = %v %v, execute = %v %v",
						start, got.Range, got.Captures, want.Range, want.Captures)
				}
				// Continue where a FindAll would.
				if got.Range.End > start {
					start = got.Range.End - 1
				}
			}
		})
	}
}

func TestScan_StartAtMatchEnd(t *testing.T) {
	// The accepted path of the first match runs through position 2, where the
	// second execution starts.
	bt := newBacktrackerForTest(t, "a*")
	scan := bt.NewScan("aab", RangeOf("aab"))
	defer scan.Close()

	if res := scan.ExecuteAt(0); res == nil || res.Range != (Range{0, 2}) {
		t.Fatalf("first = %+v, want [0, 2)", res)
	}
	if res := scan.ExecuteAt(2); res == nil || res.Range != (Range{2, 2}) {
		t.Fatalf("second = %+v, want [2, 2)", res)
	}
	if res := scan.ExecuteAt(3); res == nil || res.Range != (Range{3, 3}) {
		t.Fatalf("third = %+v, want [3, 3)", res)
	}
}

func TestScan_SharesMemoAcrossStarts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prog := compileForTest(t, "(a|aa)*c")
	bt := NewBacktracker(prog, Config{
		MaxVisitedBits: DefaultMaxVisitedBits,
		TraceSteps:     true,
		Logger:         zap.New(core),
	})

	input := strings.Repeat("a", 300)
	scan := bt.NewScan(input, RangeOf(input))
	defer scan.Close()

	for start := 0; start <= len(input); start++ {
		if res := scan.ExecuteAt(start); res != nil {
			t.Fatalf("matched %v at start %d", res.Range, start)
		}
	}

	steps := logs.FilterMessage("step").Len()
	if bound := prog.Len() * (len(input) + 1); steps > bound {
		t.Errorf("scan took %d steps, want at most %d", steps, bound)
	}
}

func TestScan_Panics(t *testing.T) {
	bt := newBacktrackerForTest(t, "a")

	mustPanic(t, "vm: range [0, 5) out of bounds for input of length 3", func() {
		bt.NewScan("abc", Range{0, 5})
	})

	scan := bt.NewScan("abc", RangeOf("abc"))
	defer scan.Close()
	scan.ExecuteAt(2)
	mustPanic(t, "vm: scan start 1 outside [2, 3]", func() {
		scan.ExecuteAt(1)
	})
	mustPanic(t, "vm: scan start 4 outside [2, 3]", func() {
		scan.ExecuteAt(4)
	})
}

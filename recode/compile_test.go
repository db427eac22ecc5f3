package recode

import (
	"errors"
	"reflect"
	"regexp"
	"regexp/syntax"
	"strings"
	"testing"
)

func compileForTest(t *testing.T, pattern string) *Program {
	t.Helper()
	prog, err := NewDefaultCompiler().Compile(pattern)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	return prog
}

func opcodes(prog *Program) []Opcode {
	ops := make([]Opcode, prog.Len())
	for pc := range ops {
		ops[pc] = prog.Inst(InstAddr(pc)).Op
	}
	return ops
}

func TestCompile_CaptureShapes(t *testing.T) {
	tests := []struct {
		pattern string
		want    []Opcode
	}{
		{
			pattern: "a",
			want:    []Opcode{OpRune, OpMatch},
		},
		{
			pattern: "(a)",
			want: []Opcode{
				OpBeginGroup, OpBeginCapture, OpRune, OpEndCapture, OpEndGroup,
				OpMatch,
			},
		},
		{
			pattern: "a*",
			want:    []Opcode{OpSplit, OpRune, OpJump, OpMatch},
		},
		{
			pattern: "(a)*",
			want: []Opcode{
				OpBeginGroup,
				OpSplit,
				OpBeginGroup, OpBeginCapture, OpRune, OpEndCapture, OpEndGroup,
				OpJump,
				OpCaptureArray, OpEndGroup,
				OpMatch,
			},
		},
		{
			pattern: "(?:(a)b)*",
			want: []Opcode{
				OpBeginGroup,
				OpSplit,
				OpBeginGroup,
				OpBeginGroup, OpBeginCapture, OpRune, OpEndCapture, OpEndGroup,
				OpRune,
				OpEndGroup,
				OpJump,
				OpCaptureArray, OpEndGroup,
				OpMatch,
			},
		},
		{
			pattern: "(a*)*",
			want: []Opcode{
				OpBeginGroup,
				OpSplit,
				OpBeginGroup, OpBeginCapture,
				OpSplit, OpRune, OpJump,
				OpEndCapture, OpEndGroup,
				OpSplit,
				OpCaptureArray, OpEndGroup,
				OpMatch,
			},
		},
		{
			pattern: "(a)?",
			want: []Opcode{
				OpBeginGroup,
				OpSplit,
				OpBeginGroup, OpBeginCapture, OpRune, OpEndCapture, OpEndGroup,
				OpCaptureSome, OpJump,
				OpCaptureNil,
				OpEndGroup,
				OpMatch,
			},
		},
		{
			pattern: "a?",
			want:    []Opcode{OpSplit, OpRune, OpMatch},
		},
		{
			pattern: "x|(a)",
			want: []Opcode{
				OpSplit,
				OpRune, OpBeginGroup, OpCaptureNil, OpEndGroup,
				OpJump,
				OpBeginGroup,
				OpBeginGroup, OpBeginCapture, OpRune, OpEndCapture, OpEndGroup,
				OpCaptureSome, OpEndGroup,
				OpMatch,
			},
		},
		{
			pattern: "^a$",
			want:    []Opcode{OpAssert, OpRune, OpAssert, OpMatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			prog := compileForTest(t, tt.pattern)
			if got := opcodes(prog); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("opcodes = %v, want %v\n%s", got, tt.want, prog)
			}
		})
	}
}

func TestCompile_LazySwapsPreference(t *testing.T) {
	greedy := compileForTest(t, "a*")
	lazy := compileForTest(t, "a*?")

	g := greedy.Inst(0)
	l := lazy.Inst(0)
	if g.Op != OpSplit || l.Op != OpSplit {
		t.Fatalf("expected splits at 0, got %v and %v", g.Op, l.Op)
	}
	if g.X != l.Y || g.Y != l.X {
		t.Errorf("greedy split %v, lazy split %v: branches not swapped", g, l)
	}
	if g.X != 1 {
		t.Errorf("greedy split prefers %d, want the loop body at 1", g.X)
	}
}

func TestCompile_CaseFold(t *testing.T) {
	prog := compileForTest(t, "(?i)k")
	inst := prog.Inst(prog.Start())
	for _, r := range []rune{'k', 'K', '\u212A'} {
		if !inst.MatchRune(r) {
			t.Errorf("(?i)k does not accept %q", r)
		}
	}
	if inst.MatchRune('j') {
		t.Error("(?i)k accepts 'j'")
	}
}

func TestCompile_Repeat(t *testing.T) {
	tests := []struct {
		pattern string
		splits  int
		runes   int
	}{
		{"a{3}", 0, 3},
		{"a{2,4}", 2, 4},
		{"a{2,}", 1, 3},
		{"a{0,2}", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			prog := compileForTest(t, tt.pattern)
			var splits, runes int
			for _, op := range opcodes(prog) {
				switch op {
				case OpSplit:
					splits++
				case OpRune:
					runes++
				}
			}
			if splits != tt.splits || runes != tt.runes {
				t.Errorf("splits = %d, runes = %d; want %d, %d\n%s", splits, runes, tt.splits, tt.runes, prog)
			}
		})
	}
}

func TestCompile_Names(t *testing.T) {
	prog := compileForTest(t, `(?P<year>\d+)-(\d+)-(?P<day>\d+)`)
	want := []string{"", "year", "", "day"}
	if got := prog.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if prog.NumCaptures() != 3 {
		t.Errorf("NumCaptures() = %d, want 3", prog.NumCaptures())
	}
}

func TestCompile_AnchorStart(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"^abc", true},
		{`\Aabc`, true},
		{"(^a)b", true},
		{"^a|^b", true},
		{"abc", false},
		{"^a|b", false},
		{"(?m)^a", false},
		{"a^", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := compileForTest(t, tt.pattern).AnchorStart(); got != tt.want {
				t.Errorf("AnchorStart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Transforms(t *testing.T) {
	upper := func(s string) any { return strings.ToUpper(s) }

	t.Run("bound to named group", func(t *testing.T) {
		config := DefaultCompilerConfig()
		config.Transforms = map[string]Transform{"w": upper}
		prog, err := NewCompiler(config).Compile(`(a)(?P<w>b)`)
		if err != nil {
			t.Fatal(err)
		}

		var bound []int
		for pc := 0; pc < prog.Len(); pc++ {
			inst := prog.Inst(InstAddr(pc))
			if inst.Op == OpEndCapture && inst.Transform != NoTransform {
				bound = append(bound, inst.Group)
				if got := prog.Transform(inst.Transform)("b"); got != "B" {
					t.Errorf("transform(b) = %v, want B", got)
				}
			}
		}
		if !reflect.DeepEqual(bound, []int{2}) {
			t.Errorf("transforms bound to groups %v, want [2]", bound)
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		config := DefaultCompilerConfig()
		config.Transforms = map[string]Transform{"missing": upper}
		_, err := NewCompiler(config).Compile(`(?P<w>b)`)
		if !errors.Is(err, ErrUnknownTransform) {
			t.Fatalf("error = %v, want ErrUnknownTransform", err)
		}
	})
}

func TestCompile_Errors(t *testing.T) {
	t.Run("syntax error matches stdlib", func(t *testing.T) {
		for _, pattern := range []string{"a(", "[z-a]", "*", `\8`} {
			_, err := NewDefaultCompiler().Compile(pattern)
			_, stdErr := regexp.Compile(pattern)
			if err == nil || stdErr == nil {
				t.Fatalf("%q: err = %v, stdlib err = %v", pattern, err, stdErr)
			}
			if err.Error() != stdErr.Error() {
				t.Errorf("%q: error = %q, stdlib = %q", pattern, err, stdErr)
			}

			var compileErr *CompileError
			var syntaxErr *syntax.Error
			if !errors.As(err, &compileErr) || !errors.As(err, &syntaxErr) {
				t.Errorf("%q: error %T does not unwrap to *syntax.Error", pattern, err)
			}
		}
	})

	t.Run("too complex", func(t *testing.T) {
		compiler := NewCompiler(CompilerConfig{Flags: syntax.Perl, MaxRecursionDepth: 3})
		_, err := compiler.Compile("((((a))))")
		if !errors.Is(err, ErrTooComplex) {
			t.Fatalf("error = %v, want ErrTooComplex", err)
		}
		if !strings.Contains(err.Error(), "((((a))))") {
			t.Errorf("error %q does not name the pattern", err)
		}
	})
}

func TestCompile_Reusable(t *testing.T) {
	c := NewDefaultCompiler()
	first, err := c.Compile("(a)")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile("b")
	if err != nil {
		t.Fatal(err)
	}
	if first.Len() != 6 || second.Len() != 2 {
		t.Errorf("Len() = %d, %d; want 6, 2", first.Len(), second.Len())
	}
}

func TestProgram_String(t *testing.T) {
	prog := compileForTest(t, "(ab|cd)")
	dis := prog.String()
	for _, want := range []string{"> ", "begingroup", "begincap 1", "split", "rune [a]", "endcap 1", "match"} {
		if !strings.Contains(dis, want) {
			t.Errorf("disassembly missing %q:\n%s", want, dis)
		}
	}
	if lines := strings.Count(dis, "\n"); lines != prog.Len() {
		t.Errorf("disassembly has %d lines, want %d", lines, prog.Len())
	}
}

func TestNullable(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"", true},
		{"a*", true},
		{"(a*)", true},
		{"a?b?", true},
		{"a|", true},
		{`^\b$`, true},
		{"(?:a*)+", true},
		{"a{0,3}", true},
		{"a", false},
		{"a+", false},
		{"a*b", false},
		{"[ab]", false},
		{"a{2}", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re, err := syntax.Parse(tt.pattern, syntax.Perl)
			if err != nil {
				t.Fatal(err)
			}
			if got := nullable(re); got != tt.want {
				t.Errorf("nullable(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestCompile_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CompilerConfig)
	}{
		{"negative depth", func(c *CompilerConfig) { c.MaxRecursionDepth = -1 }},
		{"negative prefixes", func(c *CompilerConfig) { c.MaxPrefixes = -1 }},
		{"negative prefix length", func(c *CompilerConfig) { c.MaxPrefixLen = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCompilerConfig()
			tt.modify(&config)
			_, err := NewCompiler(config).Compile("a")
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error = %v, want ErrInvalidConfig", err)
			}
			var compileErr *CompileError
			if !errors.As(err, &compileErr) || compileErr.Pattern != "a" {
				t.Errorf("error %v is not a CompileError for the pattern", err)
			}
		})
	}
}

package recode

import (
	"fmt"
	"regexp/syntax"
	"sort"
	"unicode"
)

// CompilerConfig configures program compilation
type CompilerConfig struct {
	// Flags are the regexp/syntax parse flags.
	// Default: syntax.Perl
	Flags syntax.Flags

	// MaxRecursionDepth limits recursion during compilation to prevent stack overflow.
	// Default: 100
	MaxRecursionDepth int

	// Transforms binds value transforms to named capture groups.
	// The transform is applied to the group's text when the group closes.
	Transforms map[string]Transform

	// MaxPrefixes bounds the number of literal prefixes extracted for
	// prefiltering. Zero disables extraction.
	// Default: 64
	MaxPrefixes int

	// MaxPrefixLen bounds the byte length of extracted prefixes.
	// Default: 16
	MaxPrefixLen int
}

// DefaultCompilerConfig returns a compiler configuration with sensible defaults
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		Flags:             syntax.Perl,
		MaxRecursionDepth: 100,
		MaxPrefixes:       DefaultMaxPrefixes,
		MaxPrefixLen:      DefaultMaxPrefixLen,
	}
}

func (c CompilerConfig) validate() error {
	switch {
	case c.MaxRecursionDepth < 0:
		return fmt.Errorf("%w: MaxRecursionDepth %d is negative", ErrInvalidConfig, c.MaxRecursionDepth)
	case c.MaxPrefixes < 0:
		return fmt.Errorf("%w: MaxPrefixes %d is negative", ErrInvalidConfig, c.MaxPrefixes)
	case c.MaxPrefixLen < 0:
		return fmt.Errorf("%w: MaxPrefixLen %d is negative", ErrInvalidConfig, c.MaxPrefixLen)
	}
	return nil
}

// Compiler compiles regexp/syntax patterns into programs.
//
// Besides matching structure, the compiler decides the shape of the captures:
//   - (e) opens a scope, captures its text and closes the scope, so a group
//     with nested groups yields a tuple of the nested values followed by its
//     own text;
//   - a quantified expression containing groups collects one value per
//     iteration into an array;
//   - e? containing groups yields a present or absent optional;
//   - in an alternation every branch containing groups owns one optional
//     slot, so the value layout does not depend on the branch taken.
type Compiler struct {
	config     CompilerConfig
	builder    *Builder
	depth      int
	transforms map[int]int // group index -> transform index
}

// NewCompiler creates a new compiler with the given configuration
func NewCompiler(config CompilerConfig) *Compiler {
	if config.MaxRecursionDepth == 0 {
		config.MaxRecursionDepth = 100
	}
	return &Compiler{
		config:  config,
		builder: NewBuilder(),
	}
}

// NewDefaultCompiler creates a new compiler with default configuration
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// Compile parses pattern and compiles it into a program.
// Parse failures are returned as a *CompileError wrapping the *syntax.Error.
func (c *Compiler) Compile(pattern string) (*Program, error) {
	re, err := syntax.Parse(pattern, c.config.Flags)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	prog, err := c.CompileRegexp(re)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	return prog, nil
}

// CompileRegexp compiles a parsed syntax.Regexp into a program
func (c *Compiler) CompileRegexp(re *syntax.Regexp) (*Program, error) {
	if err := c.config.validate(); err != nil {
		return nil, err
	}

	c.builder = NewBuilder()
	c.builder.SetPrefixLimits(c.config.MaxPrefixes, c.config.MaxPrefixLen)
	c.depth = 0

	names := re.CapNames()
	if err := c.bindTransforms(names); err != nil {
		return nil, err
	}

	start := c.builder.Next()
	if err := c.compile(re); err != nil {
		return nil, err
	}
	c.builder.Match()

	c.builder.SetStart(start)
	c.builder.SetNames(names)
	c.builder.SetAnchorStart(isAnchoredStart(re))

	return c.builder.Build()
}

func (c *Compiler) bindTransforms(names []string) error {
	c.transforms = make(map[int]int, len(c.config.Transforms))
	if len(c.config.Transforms) == 0 {
		return nil
	}

	// Register in name order so programs compile identically every time.
	keys := make([]string, 0, len(c.config.Transforms))
	for name := range c.config.Transforms {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		group := -1
		for i, n := range names {
			if i > 0 && n == name {
				group = i
				break
			}
		}
		if group < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownTransform, name)
		}
		c.transforms[group] = c.builder.AddTransform(c.config.Transforms[name])
	}
	return nil
}

func (c *Compiler) transformFor(group int) int {
	if idx, ok := c.transforms[group]; ok {
		return idx
	}
	return NoTransform
}

// compile recursively emits code for a syntax.Regexp node.
func (c *Compiler) compile(re *syntax.Regexp) error {
	c.depth++
	if c.depth > c.config.MaxRecursionDepth {
		return ErrTooComplex
	}
	defer func() { c.depth-- }()

	greedy := re.Flags&syntax.NonGreedy == 0

	switch re.Op {
	case syntax.OpNoMatch:
		c.builder.Fail()
	case syntax.OpEmptyMatch:
		// nothing to emit
	case syntax.OpLiteral:
		fold := re.Flags&syntax.FoldCase != 0
		for _, r := range re.Rune {
			if fold {
				c.builder.Rune(foldRanges(r)...)
			} else {
				c.builder.Rune(r, r)
			}
		}
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			c.builder.Fail()
			return nil
		}
		c.builder.Rune(re.Rune...)
	case syntax.OpAnyCharNotNL:
		c.builder.AnyNotNL()
	case syntax.OpAnyChar:
		c.builder.Any()
	case syntax.OpBeginLine:
		c.builder.Assert(LookBeginLine)
	case syntax.OpEndLine:
		c.builder.Assert(LookEndLine)
	case syntax.OpBeginText:
		c.builder.Assert(LookBeginText)
	case syntax.OpEndText:
		c.builder.Assert(LookEndText)
	case syntax.OpWordBoundary:
		c.builder.Assert(LookWordBoundary)
	case syntax.OpNoWordBoundary:
		c.builder.Assert(LookNoWordBoundary)
	case syntax.OpCapture:
		return c.compileCapture(re)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if err := c.compile(sub); err != nil {
				return err
			}
		}
	case syntax.OpAlternate:
		return c.compileAlternate(re.Sub)
	case syntax.OpStar:
		return c.compileRepeat(re.Sub[0], 0, -1, greedy)
	case syntax.OpPlus:
		return c.compileRepeat(re.Sub[0], 1, -1, greedy)
	case syntax.OpQuest:
		return c.compileQuest(re.Sub[0], greedy)
	case syntax.OpRepeat:
		if re.Max != -1 && re.Min > re.Max {
			return fmt.Errorf("invalid repeat range {%d,%d}", re.Min, re.Max)
		}
		return c.compileRepeat(re.Sub[0], re.Min, re.Max, greedy)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupported, re.Op)
	}
	return nil
}

// compileCapture compiles (e):
//
//	begingroup; begincap n; e; endcap n; endgroup
func (c *Compiler) compileCapture(re *syntax.Regexp) error {
	c.builder.BeginGroup()
	c.builder.BeginCapture(re.Cap)
	if err := c.compile(re.Sub[0]); err != nil {
		return err
	}
	c.builder.EndCapture(re.Cap, c.transformFor(re.Cap))
	c.builder.EndGroup()
	return nil
}

// compileIteration compiles one iteration of a repeated expression. When the
// body can contribute several values they are grouped into one.
func (c *Compiler) compileIteration(sub *syntax.Regexp, withCaptures bool) error {
	if !withCaptures || sub.Op == syntax.OpCapture {
		return c.compile(sub)
	}
	c.builder.BeginGroup()
	if err := c.compile(sub); err != nil {
		return err
	}
	c.builder.EndGroup()
	return nil
}

// compileRepeat compiles e{min,max}; max == -1 means unbounded.
//
//	e{2,}  = e e L: split B, X; B: e; jmp L; X:
//	e{1,3} = e split B1, X; B1: e split B2, X; B2: e X:
//	e*     = split B, X; B: e; split B, X; X:   (e nullable)
//
// When e contains captures the whole construct is wrapped in an array scope.
func (c *Compiler) compileRepeat(sub *syntax.Regexp, minCount, maxCount int, greedy bool) error {
	withCaptures := hasCapture(sub)
	if withCaptures {
		c.builder.BeginGroup()
	}

	for i := 0; i < minCount; i++ {
		if err := c.compileIteration(sub, withCaptures); err != nil {
			return err
		}
	}

	switch {
	case maxCount == -1 && minCount == 0 && nullable(sub):
		// e* over a nullable e runs as (e+)?, so an empty iteration is
		// recorded before the loop test sees the same position again.
		entry := c.builder.Split(InvalidAddr, InvalidAddr)
		body := c.builder.Next()
		if err := c.compileIteration(sub, withCaptures); err != nil {
			return err
		}
		loop := c.builder.Split(InvalidAddr, InvalidAddr)
		exit := c.builder.Next()
		if err := c.patchBranch(loop, body, exit, greedy); err != nil {
			return err
		}
		if err := c.patchBranch(entry, body, exit, greedy); err != nil {
			return err
		}
	case maxCount == -1:
		loop := c.builder.Split(InvalidAddr, InvalidAddr)
		body := c.builder.Next()
		if err := c.compileIteration(sub, withCaptures); err != nil {
			return err
		}
		c.builder.Jump(loop)
		if err := c.patchBranch(loop, body, c.builder.Next(), greedy); err != nil {
			return err
		}
	default:
		splits := make([]InstAddr, 0, maxCount-minCount)
		for i := minCount; i < maxCount; i++ {
			splits = append(splits, c.builder.Split(InvalidAddr, InvalidAddr))
			if err := c.compileIteration(sub, withCaptures); err != nil {
				return err
			}
		}
		exit := c.builder.Next()
		for _, split := range splits {
			if err := c.patchBranch(split, split+1, exit, greedy); err != nil {
				return err
			}
		}
	}

	if withCaptures {
		c.builder.CaptureArray()
		c.builder.EndGroup()
	}
	return nil
}

// compileQuest compiles e?. With captures:
//
//	begingroup; split B, N; B: e; capsome; jmp E; N: capnil; E: endgroup
func (c *Compiler) compileQuest(sub *syntax.Regexp, greedy bool) error {
	if !hasCapture(sub) {
		return c.compileRepeat(sub, 0, 1, greedy)
	}

	c.builder.BeginGroup()
	split := c.builder.Split(InvalidAddr, InvalidAddr)
	body := c.builder.Next()
	if err := c.compile(sub); err != nil {
		return err
	}
	c.builder.CaptureSome()
	jump := c.builder.Jump(InvalidAddr)
	none := c.builder.CaptureNil()
	end := c.builder.EndGroup()

	if err := c.patchBranch(split, body, none, greedy); err != nil {
		return err
	}
	return c.builder.PatchX(jump, end)
}

// compileAlternate compiles e1|e2|...|en as a chain of splits:
//
//	split B1, S2; B1: e1; jmp E; S2: split B2, S3; ... Sn: en; E:
func (c *Compiler) compileAlternate(subs []*syntax.Regexp) error {
	var slots []int
	for i, sub := range subs {
		if hasCapture(sub) {
			slots = append(slots, i)
		}
	}

	var jumps []InstAddr
	for i, sub := range subs {
		var split InstAddr
		last := i == len(subs)-1
		if !last {
			split = c.builder.Split(InvalidAddr, InvalidAddr)
		}
		body := c.builder.Next()

		if err := c.compileBranch(sub, i, slots); err != nil {
			return err
		}

		if !last {
			jumps = append(jumps, c.builder.Jump(InvalidAddr))
			if err := c.patchBranch(split, body, c.builder.Next(), true); err != nil {
				return err
			}
		}
	}

	end := c.builder.Next()
	for _, j := range jumps {
		if err := c.builder.PatchX(j, end); err != nil {
			return err
		}
	}
	return nil
}

// compileBranch emits alternative i followed or surrounded by the optional
// slots of the other capture-bearing alternatives.
func (c *Compiler) compileBranch(sub *syntax.Regexp, i int, slots []int) error {
	if len(slots) == 0 {
		return c.compile(sub)
	}

	own := false
	for _, j := range slots {
		if j == i {
			own = true
			break
		}
	}
	if !own {
		if err := c.compile(sub); err != nil {
			return err
		}
	}

	for _, j := range slots {
		c.builder.BeginGroup()
		if j == i {
			if err := c.compile(sub); err != nil {
				return err
			}
			c.builder.CaptureSome()
		} else {
			c.builder.CaptureNil()
		}
		c.builder.EndGroup()
	}
	return nil
}

// patchBranch points a split at body and exit, preferring body when greedy.
func (c *Compiler) patchBranch(split, body, exit InstAddr, greedy bool) error {
	x, y := body, exit
	if !greedy {
		x, y = exit, body
	}
	if err := c.builder.PatchX(split, x); err != nil {
		return err
	}
	return c.builder.PatchY(split, y)
}

// nullable reports whether re can match the empty string.
func nullable(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpStar, syntax.OpQuest,
		syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	case syntax.OpCapture, syntax.OpPlus:
		return nullable(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min == 0 || nullable(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !nullable(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if nullable(sub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// hasCapture reports whether re contains a capturing group.
func hasCapture(re *syntax.Regexp) bool {
	if re.Op == syntax.OpCapture {
		return true
	}
	for _, sub := range re.Sub {
		if hasCapture(sub) {
			return true
		}
	}
	return false
}

// isAnchoredStart reports whether every match of re must begin at \A.
func isAnchoredStart(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginText:
		return true
	case syntax.OpConcat:
		return len(re.Sub) > 0 && isAnchoredStart(re.Sub[0])
	case syntax.OpCapture:
		return isAnchoredStart(re.Sub[0])
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if !isAnchoredStart(sub) {
				return false
			}
		}
		return len(re.Sub) > 0
	default:
		return false
	}
}

// foldRanges returns [r, r] pairs for every rune in the simple case folding
// orbit of r.
func foldRanges(r rune) []rune {
	ranges := []rune{r, r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		ranges = append(ranges, f, f)
	}
	return ranges
}

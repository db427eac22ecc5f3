package recapture_test

import (
	"fmt"
	"strconv"

	"github.com/coregx/recapture"
	"github.com/coregx/recapture/recode"
)

// ExampleCompile demonstrates basic pattern compilation and matching.
func ExampleCompile() {
	re, err := recapture.Compile(`\d+`)
	if err != nil {
		panic(err)
	}

	fmt.Println(re.MatchString("hello 123"))
	// Output: true
}

// ExampleRegex_Find demonstrates reading the capture tree of a match.
func ExampleRegex_Find() {
	re := recapture.MustCompile(`(\w+)@(\w+)\.com`)
	res := re.Find("mail bob@example.com now")

	fmt.Println(res.Range)
	fmt.Println(res.Captures.Collapse())
	// Output:
	// [5, 20)
	// ("bob", "example")
}

// ExampleRegex_Find_repeated shows that a repeated group yields an array.
func ExampleRegex_Find_repeated() {
	re := recapture.MustCompile(`(?:(\w+)=(\d+);)+`)
	res := re.Find("a=1;bb=22;")

	fmt.Println(res.Captures.Collapse())
	// Output: [("a", "1"), ("bb", "22")]
}

// ExampleRegex_Find_optional shows optional groups.
func ExampleRegex_Find_optional() {
	re := recapture.MustCompile(`(\d+)(?:\.(\d+))?`)

	fmt.Println(re.Find("v3").Captures.Collapse())
	fmt.Println(re.Find("v3.14").Captures.Collapse())
	// Output:
	// ("3", nil)
	// ("3", some("14"))
}

// ExampleRegex_FindAllString demonstrates finding all matches.
func ExampleRegex_FindAllString() {
	re := recapture.MustCompile(`\d`)
	fmt.Println(re.FindAllString("a1b2c3", -1))
	// Output: [1 2 3]
}

// ExampleRegex_Execute demonstrates partial matching at the end of input.
func ExampleRegex_Execute() {
	re := recapture.MustCompile(`(\d+)-(\d+)`)

	res := re.Execute("12-", recapture.PartialFromFront)
	fmt.Println(res.Range, res.Partial)
	fmt.Println(re.Execute("12-", recapture.WholeString) == nil)
	// Output:
	// [0, 3) true
	// true
}

// ExampleCompileWithConfig demonstrates transforms bound to named groups.
func ExampleCompileWithConfig() {
	config := recapture.DefaultConfig()
	config.Transforms = map[string]recode.Transform{
		"n": func(s string) any {
			n, _ := strconv.Atoi(s)
			return n * 2
		},
	}

	re, err := recapture.CompileWithConfig(`(?:(?P<n>\d+),?)+`, config)
	if err != nil {
		panic(err)
	}
	fmt.Println(re.Find("1,2,3").Captures.Collapse())
	// Output: [2, 4, 6]
}

// ExampleQuoteMeta demonstrates escaping metacharacters.
func ExampleQuoteMeta() {
	fmt.Println(recapture.QuoteMeta("1+1=2?"))
	// Output: 1\+1=2\?
}

// ExampleRegex_SubexpNames demonstrates group names.
func ExampleRegex_SubexpNames() {
	re := recapture.MustCompile(`(?P<year>\d+)-(?P<month>\d+)`)
	fmt.Printf("%q\n", re.SubexpNames())
	// Output: ["" "year" "month"]
}

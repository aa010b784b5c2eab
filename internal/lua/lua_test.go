package lua

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type findTest struct {
	pat  string
	src  string
	at   int
	want []int
}

var findTests = []findTest{
	{pat: `%a+`, src: "baad! bad! argh", want: []int{0, 4}},
	{pat: `%a+`, src: "baad! bad! argh", at: 4, want: []int{6, 9}},
	{pat: `%d+`, src: "no digits"},
	{pat: `x*`, src: "", want: []int{0, 0}},
	{pat: `.`, src: ""},
	{pat: `%W+`, src: "ab, cd", want: []int{2, 4}},
	{pat: `%U`, src: "Ab", want: []int{1, 2}},
	{pat: `%x+`, src: "zz0fF9g", want: []int{2, 6}},
	{pat: `%p+`, src: "ab!?c", want: []int{2, 4}},
	{pat: `%c`, src: "a\tb", want: []int{1, 2}},
	{pat: `%g+`, src: "  ab ", want: []int{2, 4}},
	{pat: `%l%u`, src: "ABcDe", want: []int{2, 4}},
	{pat: `%s+`, src: "a \t\n b", want: []int{1, 5}},

	// Sets.
	{pat: `[a-c]+`, src: "xxabcd", want: []int{2, 5}},
	{pat: `[^%s]+`, src: "  word  ", want: []int{2, 6}},
	{pat: `[%d%.]+`, src: "v1.25 ", want: []int{1, 5}},
	{pat: `[]]`, src: "x]", want: []int{1, 2}},
	{pat: `[^]]`, src: "]x", want: []int{1, 2}},
	{pat: `[a-]`, src: "x-", want: []int{1, 2}},
	{pat: `[%a-]+`, src: "!up-to!", want: []int{1, 6}},

	// Repetition.
	{pat: `a-b`, src: "aaab", want: []int{0, 4}},
	{pat: `a-`, src: "aaa", want: []int{0, 0}},
	{pat: `<.->`, src: "<a><b>", want: []int{0, 3}},
	{pat: `<.*>`, src: "<a><b>", want: []int{0, 6}},
	{pat: `%d?%d`, src: "5", want: []int{0, 1}},
	{pat: `a+b`, src: "caab", want: []int{1, 4}},
	{pat: `ab*c`, src: "ac", want: []int{0, 2}},

	// Anchors.
	{pat: `^a`, src: "ab", want: []int{0, 1}},
	{pat: `^a`, src: "ba"},
	{pat: `^a`, src: "aa", at: 1},
	{pat: `a$`, src: "aa", want: []int{1, 2}},
	{pat: `a$b`, src: "a$b", want: []int{0, 3}},
	{pat: `^$`, src: "", want: []int{0, 0}},
	{pat: `b^`, src: "ab^", want: []int{1, 3}},

	// Captures.
	{pat: `(%a+)=(%a+)`, src: "k=v", want: []int{0, 3, 0, 1, 2, 3}},
	{pat: `()ab()`, src: "xab", want: []int{1, 3, 1, 1, 3, 3}},
	{pat: `((a)(b))`, src: "ab", want: []int{0, 2, 0, 2, 0, 1, 1, 2}},
	{pat: `(%a+)%s+%1`, src: "hello hello world", want: []int{0, 11, 0, 5}},
	{pat: `(%a)%1`, src: "abccd", want: []int{2, 4, 2, 3}},
	{pat: `(a*(.)%w(%s*))`, src: "aaab  x", want: []int{0, 6, 0, 6, 2, 3, 4, 6}},

	// Balance and frontier.
	{pat: `%b()`, src: "f(a(b)c) d", want: []int{1, 8}},
	{pat: `%b()`, src: "f(a(b c"},
	{pat: `%bxy`, src: "x1y", want: []int{0, 3}},
	{pat: `%f[%w]%w+`, src: "THE (quick) fox", want: []int{0, 3}},
	{pat: `%f[%w]%w+`, src: "THE (quick) fox", at: 3, want: []int{5, 10}},
	{pat: `%f[%W]`, src: "ab", want: []int{2, 2}},
	{pat: `%f[%a]%a+%f[%A]`, src: "1ab2", want: []int{1, 3}},
}

func TestFindAt(t *testing.T) {
	for _, tc := range findTests {
		tt := tc
		t.Run(tt.pat, func(t *testing.T) {
			p, err := Compile(tt.pat)
			require.NoError(t, err)
			got := p.FindAt(tt.src, tt.at, nil)
			if tt.want == nil {
				require.Nil(t, got, "%q in %q", tt.pat, tt.src)
				return
			}
			require.Equal(t, tt.want, got, "%q in %q", tt.pat, tt.src)
			require.Len(t, got, 2*(p.NumGroups()+1))
		})
	}
}

func TestFindAtAppends(t *testing.T) {
	p, err := Compile(`(b)`)
	require.NoError(t, err)

	dst := []int{7}
	require.Equal(t, []int{7, 1, 2, 1, 2}, p.FindAt("ab", 0, dst))
	require.Nil(t, p.FindAt("aa", 0, dst))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		pat string
		msg string
		pos int
	}{
		{pat: `%`, msg: "malformed pattern (ends with '%')", pos: 0},
		{pat: `^ab%`, msg: "malformed pattern (ends with '%')", pos: 3},
		{pat: `[a`, msg: "malformed pattern (missing ']')", pos: 0},
		{pat: `[%`, msg: "malformed pattern (missing ']')", pos: 0},
		{pat: `x[^]`, msg: "malformed pattern (missing ']')", pos: 1},
		{pat: `(a`, msg: "unfinished capture", pos: 2},
		{pat: `((a)`, msg: "unfinished capture", pos: 4},
		{pat: `a)`, msg: "invalid pattern capture", pos: 1},
		{pat: `%1`, msg: "invalid capture index %1", pos: 0},
		{pat: `(a%1)`, msg: "invalid capture index %1", pos: 2},
		{pat: `(a)%0`, msg: "invalid capture index %0", pos: 3},
		{pat: `%ba`, msg: "malformed pattern (missing arguments to '%b')", pos: 0},
		{pat: `%fa`, msg: "missing '[' after '%f' in pattern", pos: 0},
		{pat: `%f[a`, msg: "malformed pattern (missing ']')", pos: 2},
		{pat: strings.Repeat("(", 33) + "a" + strings.Repeat(")", 33), msg: "too many captures", pos: 32},
	}
	for _, tc := range tests {
		tt := tc
		t.Run(tt.msg, func(t *testing.T) {
			p, err := Compile(tt.pat)
			require.Nil(t, p)
			var e *Error
			require.ErrorAs(t, err, &e)
			require.Equal(t, tt.msg, e.Msg)
			require.Equal(t, tt.pos, e.Pos)
		})
	}
}

func TestNumGroups(t *testing.T) {
	tests := []struct {
		pat  string
		want int
	}{
		{pat: `%a+`, want: 0},
		{pat: `(%a+)=(%a+)`, want: 2},
		{pat: `()`, want: 1},
		{pat: `%(x%)`, want: 0},
		{pat: `[(]`, want: 0},
		{pat: `((a)(b))`, want: 3},
	}
	for _, tt := range tests {
		p, err := Compile(tt.pat)
		require.NoError(t, err, tt.pat)
		require.Equal(t, tt.want, p.NumGroups(), tt.pat)
		require.Equal(t, tt.pat, p.String())
	}
}

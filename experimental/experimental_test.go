package experimental

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasilibs/go-rx"
)

type SetTest struct {
	backend rx.Backend
	opts    []rx.Option
	exprs   []string
	matches string
	matched [4][]int
}

var setTests = []SetTest{
	{
		backend: rx.POSIX,
		exprs:   []string{`(d)(e){0}(f)`, `[a-c]+`, `abc`, `[0-9]+`},
		matches: "x",
		matched: [4][]int{nil, nil, nil, nil},
	},
	{
		backend: rx.POSIX,
		exprs:   []string{`(d)(e){0}(f)`, `[a-c]+`, `abc`, `[0-9]+`},
		matches: "123",
		matched: [4][]int{nil, {3}, {3}, {3}},
	},
	{
		backend: rx.POSIX,
		exprs:   []string{`(d)(e){0}(f)`, `[a-c]+`, `abc`, `[0-9]+`},
		matches: "df123abc",
		matched: [4][]int{nil, {0}, {0, 1}, {0, 1, 2, 3}},
	},
	{
		backend: rx.POSIX,
		opts:    []rx.Option{rx.WithEngine("coregex")},
		exprs:   []string{`(d)(e){0}(f)`, `[a-c]+`, `abc`, `[0-9]+`},
		matches: "df123abc",
		matched: [4][]int{nil, {0}, {0, 1}, {0, 1, 2, 3}},
	},
	{
		backend: rx.Lua,
		exprs:   []string{`%d+`, `^%a+$`, `%bxy`, `[%a_][%w_]*`},
		matches: "x1y",
		matched: [4][]int{nil, {0}, {0, 2}, {0, 2, 3}},
	},
	{
		backend: rx.POSIX,
		opts:    []rx.Option{rx.WithSyntax(rx.LuaSyntax)},
		exprs:   []string{`%d+`, `^%a+$`, `<(%a+)>`, `[%a_][%w_]*`},
		matches: "<hello>",
		matched: [4][]int{nil, {2}, {2, 3}, {2, 3}},
	},
}

func TestSetFindAllString(t *testing.T) {
	for _, tc := range setTests {
		tt := tc
		t.Run(fmt.Sprintf("%v/%s", tt.backend, tt.matches), func(t *testing.T) {
			set, err := CompileSet(tt.exprs, tt.backend, tt.opts...)
			require.NoError(t, err)
			require.Equal(t, len(tt.exprs), set.Len())

			require.Equal(t, tt.matched[0], set.FindAllString(tt.matches, 0))
			require.Equal(t, tt.matched[1], set.FindAllString(tt.matches, 1))
			require.Equal(t, tt.matched[2], set.FindAllString(tt.matches, 2))
			require.Equal(t, tt.matched[3], set.FindAllString(tt.matches, -1))
			require.Equal(t, tt.matched[3], set.FindAll([]byte(tt.matches), 20))
		})
	}
}

func TestBadCompileSet(t *testing.T) {
	tests := []struct {
		backend rx.Backend
		exprs   []string
		err     string
	}{
		{backend: rx.POSIX, exprs: []string{`abc`, `(abc`}, err: "pattern 1: error parsing posix pattern: missing closing ): `(abc`"},
		{backend: rx.POSIX, exprs: []string{`x[a-z`}, err: "pattern 0: error parsing posix pattern: missing closing ]: `x[a-z`"},
		{backend: rx.Lua, exprs: []string{`%a`, `%`}, err: "pattern 1: error parsing lua pattern: malformed pattern (ends with '%'): `%`"},
		{backend: rx.Lua, exprs: []string{`[a`}, err: "pattern 0: error parsing lua pattern: malformed pattern (missing ']'): `[a`"},
	}
	for _, tc := range tests {
		tt := tc
		t.Run(tt.err, func(t *testing.T) {
			set, err := CompileSet(tt.exprs, tt.backend)
			require.Nil(t, set)
			require.EqualError(t, err, tt.err)
			var ce *rx.CompileError
			require.True(t, errors.As(err, &ce))
		})
	}
}

func BenchmarkSet(b *testing.B) {
	const text = "abcdef123</html><!-- test -->13988889181demo@gmail.com"
	configs := []struct {
		name    string
		backend rx.Backend
		exprs   []string
	}{
		{name: "lua", backend: rx.Lua, exprs: []string{`%d+`, `%a+@%a+%.%a+`, `<!%-%-.-%-%->`, `%.%w+$`}},
		{name: "posix", backend: rx.POSIX, exprs: []string{`[0-9]+`, `[a-z]+@[a-z]+\.[a-z]+`, `<!--[^>]*-->`, `\.[a-z0-9]+$`}},
	}
	for _, c := range configs {
		set, err := CompileSet(c.exprs, c.backend)
		if err != nil {
			panic(err)
		}
		b.Run("config="+c.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				set.FindAllString(text, -1)
			}
		})
	}
}

func ExampleCompileSet() {
	exprs := []string{"abc", "[0-9]+"}
	set, err := CompileSet(exprs, rx.POSIX)
	if err != nil {
		panic(err)
	}
	fmt.Println(set.FindAllString("abcd", len(exprs)))
	fmt.Println(set.FindAllString("123", len(exprs)))
	fmt.Println(set.FindAllString("abc123", len(exprs)))
	fmt.Println(set.FindAllString("def", len(exprs)))
	// Output:
	// [0]
	// [1]
	// [0 1]
	// []
}

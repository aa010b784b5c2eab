package internal

import (
	"regexp/syntax"

	"github.com/wasilibs/go-re2"
)

// re2Engine runs POSIX patterns on RE2 with leftmost-longest matching.
//
// RE2 cannot resume a search in the middle of a text, so searches from an offset run on
// the suffix. A second program with start-of-text assertions removed is kept for that,
// otherwise ^ would match wherever the suffix begins.
type re2Engine struct {
	re        *re2.Regexp
	suffixRE  *re2.Regexp
	numGroups int
}

func init() {
	if err := Register("re2", newRE2Engine); err != nil {
		panic(err)
	}
}

func newRE2Engine(tree *syntax.Regexp) (Engine, error) {
	re, err := compileLongest(tree)
	if err != nil {
		return nil, err
	}
	e := &re2Engine{
		re:        re,
		suffixRE:  re,
		numGroups: tree.MaxCap(),
	}
	if alt, ok := withoutBeginText(tree); ok {
		if e.suffixRE, err = compileLongest(alt); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// compileLongest hands the parsed tree to RE2 in its Perl-compatible form, which
// keeps the group numbering of the original expression.
func compileLongest(tree *syntax.Regexp) (*re2.Regexp, error) {
	re, err := re2.Compile(tree.String())
	if err != nil {
		return nil, &Error{Msg: err.Error(), Pos: -1}
	}
	re.Longest()
	return re, nil
}

func (e *re2Engine) NumGroups() int {
	return e.numGroups
}

func (e *re2Engine) FindAt(src string, at int, dst []int) []int {
	re := e.re
	if at > 0 {
		re = e.suffixRE
	}
	loc := re.FindStringSubmatchIndex(src[at:])
	if loc == nil {
		return nil
	}
	for _, v := range loc {
		if v >= 0 {
			v += at
		}
		dst = append(dst, v)
	}
	return dst
}

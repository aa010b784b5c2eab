package internal

import (
	"regexp/syntax"
	"unsafe"

	"github.com/coregx/coregex/meta"
)

// coregexEngine runs POSIX patterns on the pure Go coregex meta engine. It searches
// from an offset natively, so no suffix program is needed.
//
// coregex's leftmost-longest mode finds the right overall match but not always the
// right submatches, so only group 0 is taken from it. Groups are then filled in by a
// leftmost-first program that must end exactly where the match ends, run from the
// match start. The first way through the pattern that spans the whole match is what
// the re2 engine reports too.
type coregexEngine struct {
	engine    *meta.Engine
	numGroups int

	// groups must end at the end of the searched text. groupsMid has every $
	// removed, for matches that end before the end of the text.
	groups    *meta.Engine
	groupsMid *meta.Engine
}

func init() {
	if err := Register("coregex", newCoregexEngine); err != nil {
		panic(err)
	}
}

func newCoregexEngine(tree *syntax.Regexp) (Engine, error) {
	engine, err := compileCoregex(tree)
	if err != nil {
		return nil, err
	}
	engine.SetLongest(true)
	e := &coregexEngine{
		engine:    engine,
		numGroups: tree.MaxCap(),
	}
	if e.numGroups == 0 {
		return e, nil
	}

	if e.groups, err = compileCoregex(endsAtEndText(tree)); err != nil {
		return nil, err
	}
	e.groupsMid = e.groups
	if mid, ok := withoutEndText(tree); ok {
		if e.groupsMid, err = compileCoregex(endsAtEndText(mid)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func compileCoregex(tree *syntax.Regexp) (*meta.Engine, error) {
	engine, err := meta.CompileRegexp(tree.Simplify(), meta.DefaultConfig())
	if err != nil {
		return nil, &Error{Msg: err.Error(), Pos: -1}
	}
	return engine, nil
}

func endsAtEndText(re *syntax.Regexp) *syntax.Regexp {
	return &syntax.Regexp{
		Op:  syntax.OpConcat,
		Sub: []*syntax.Regexp{re, {Op: syntax.OpEndText}},
	}
}

func (e *coregexEngine) NumGroups() int {
	return e.numGroups
}

func (e *coregexEngine) FindAt(src string, at int, dst []int) []int {
	b := bytesOf(src)
	m := e.engine.FindSubmatchAt(b, at)
	if m == nil {
		return nil
	}
	idx := m.GroupIndex(0)
	if len(idx) < 2 {
		return nil
	}
	start, end := idx[0], idx[1]
	dst = append(dst, start, end)
	if e.numGroups == 0 {
		return dst
	}

	groups := e.groups
	if end < len(src) {
		groups = e.groupsMid
	}
	// The text is cut at the match end and the search starts at the match start, so the
	// leftmost match is one spanning exactly [start, end].
	gm := groups.FindSubmatchAt(b[:end], start)
	n := 0
	if gm != nil {
		n = gm.NumCaptures()
	}
	for i := 1; i <= e.numGroups; i++ {
		var idx []int
		if i < n {
			idx = gm.GroupIndex(i)
		}
		if len(idx) >= 2 {
			dst = append(dst, idx[0], idx[1])
		} else {
			dst = append(dst, -1, -1)
		}
	}
	return dst
}

// bytesOf views src as bytes without copying. coregex only reads the haystack, and a
// copy per call would make scanning a text with k matches cost O(n*k).
func bytesOf(src string) []byte {
	return unsafe.Slice(unsafe.StringData(src), len(src))
}

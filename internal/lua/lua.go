// Package lua implements Lua 5.4 string patterns.
//
// Matching is byte oriented and classifies characters as ASCII, as Lua does in the C
// locale. Patterns are validated when compiled so that matching itself cannot fail.
package lua

import (
	"fmt"
	"strings"
)

const maxCaptures = 32

const (
	capUnfinished = -1
	capPosition   = -2
)

// Error describes a malformed pattern. Messages are the ones Lua reports.
type Error struct {
	Msg string
	Pos int
}

func (e *Error) Error() string {
	return e.Msg
}

// Pattern is a validated Lua pattern. It holds no match state and may be used from
// multiple goroutines.
type Pattern struct {
	expr      string
	anchored  bool
	numGroups int
}

// Compile validates expr and counts its captures.
func Compile(expr string) (*Pattern, error) {
	p := &Pattern{expr: expr}
	body := expr
	if strings.HasPrefix(body, "^") {
		p.anchored = true
		body = body[1:]
	}
	n, err := validate(body)
	if err != nil {
		if p.anchored {
			err.Pos++
		}
		return nil, err
	}
	p.numGroups = n
	return p, nil
}

func (p *Pattern) NumGroups() int {
	return p.numGroups
}

func (p *Pattern) String() string {
	return p.expr
}

// FindAt appends to dst the index pairs of the first match at or after at. A position
// capture is reported as an empty range at the captured position. An anchored pattern
// only matches at the start of src.
func (p *Pattern) FindAt(src string, at int, dst []int) []int {
	pat := p.expr
	if p.anchored {
		if at > 0 {
			return nil
		}
		pat = pat[1:]
	}

	ms := matchState{src: src, pat: pat}
	for s := at; s <= len(src); s++ {
		ms.level = 0
		if e := ms.match(s, 0); e != -1 {
			dst = append(dst, s, e)
			for i := 0; i < ms.level; i++ {
				c := ms.capture[i]
				if c.len == capPosition {
					dst = append(dst, c.init, c.init)
				} else {
					dst = append(dst, c.init, c.init+c.len)
				}
			}
			return dst
		}
		if p.anchored {
			break
		}
	}
	return nil
}

// validate walks a pattern the way the matcher does and reports the first problem
// the matcher would run into. It returns the number of captures.
func validate(pat string) (int, *Error) {
	var (
		ncap   int
		open   []int
		closed [maxCaptures]bool
	)
	for i := 0; i < len(pat); {
		switch pat[i] {
		case '(':
			if ncap == maxCaptures {
				return 0, &Error{Msg: "too many captures", Pos: i}
			}
			if i+1 < len(pat) && pat[i+1] == ')' {
				closed[ncap] = true
				ncap++
				i += 2
				continue
			}
			open = append(open, ncap)
			ncap++
			i++
			continue
		case ')':
			if len(open) == 0 {
				return 0, &Error{Msg: "invalid pattern capture", Pos: i}
			}
			closed[open[len(open)-1]] = true
			open = open[:len(open)-1]
			i++
			continue
		case '%':
			if i+1 == len(pat) {
				return 0, &Error{Msg: "malformed pattern (ends with '%')", Pos: i}
			}
			switch c := pat[i+1]; {
			case c == 'b':
				if i+3 >= len(pat) {
					return 0, &Error{Msg: "malformed pattern (missing arguments to '%b')", Pos: i}
				}
				i += 4
				continue
			case c == 'f':
				if i+2 >= len(pat) || pat[i+2] != '[' {
					return 0, &Error{Msg: "missing '[' after '%f' in pattern", Pos: i}
				}
				ep := classEnd(pat, i+2)
				if ep < 0 {
					return 0, &Error{Msg: "malformed pattern (missing ']')", Pos: i + 2}
				}
				i = ep
				continue
			case '0' <= c && c <= '9':
				l := int(c) - '1'
				if l < 0 || l >= ncap || !closed[l] {
					return 0, &Error{Msg: fmt.Sprintf("invalid capture index %%%d", l+1), Pos: i}
				}
				i += 2
				continue
			}
		}

		ep := classEnd(pat, i)
		if ep < 0 {
			return 0, &Error{Msg: "malformed pattern (missing ']')", Pos: i}
		}
		i = ep
		if i < len(pat) && strings.IndexByte("*+-?", pat[i]) >= 0 {
			i++
		}
	}
	if len(open) > 0 {
		return 0, &Error{Msg: "unfinished capture", Pos: len(pat)}
	}
	return ncap, nil
}

// classEnd returns the offset just past the single character class at pat[p], or -1
// if a set is not terminated.
func classEnd(pat string, p int) int {
	c := pat[p]
	p++
	switch c {
	case '%':
		return p + 1
	case '[':
		if p < len(pat) && pat[p] == '^' {
			p++
		}
		// The first character of a set is never its terminator, so "[]]" is a set of ']'.
		for {
			if p >= len(pat) {
				return -1
			}
			c := pat[p]
			p++
			if c == '%' {
				p++
			}
			if p >= len(pat) {
				return -1
			}
			if pat[p] == ']' {
				return p + 1
			}
		}
	}
	return p
}

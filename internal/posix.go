package internal

import (
	"errors"
	"regexp/syntax"
	"strings"
)

// POSIX regcomp without REG_NEWLINE: ^ and $ only anchor at the ends of the text and
// newline is an ordinary character. Leaving out PerlX and UnicodeGroups keeps Perl-only
// constructs such as \d, (?:...) and lazy repetition out of the accepted syntax.
const posixFlags = syntax.OneLine | syntax.DotNL | syntax.ClassNL

// ParseERE parses a POSIX extended regular expression.
func ParseERE(expr string) (*syntax.Regexp, error) {
	re, err := syntax.Parse(expr, posixFlags)
	if err != nil {
		var se *syntax.Error
		if errors.As(err, &se) {
			pos := -1
			if se.Expr != "" {
				pos = strings.Index(expr, se.Expr)
			}
			return nil, &Error{Msg: string(se.Code), Pos: pos}
		}
		return nil, &Error{Msg: err.Error(), Pos: -1}
	}
	return re, nil
}

// withoutBeginText returns re with every start-of-text assertion replaced by an
// assertion that never matches, for searching a suffix of the original text. ok is
// false if re has no such assertion, in which case re is returned as is.
func withoutBeginText(re *syntax.Regexp) (*syntax.Regexp, bool) {
	return withoutOp(re, syntax.OpBeginText)
}

// withoutEndText is withoutBeginText for end-of-text assertions, for matching a prefix
// of the original text.
func withoutEndText(re *syntax.Regexp) (*syntax.Regexp, bool) {
	return withoutOp(re, syntax.OpEndText)
}

func withoutOp(re *syntax.Regexp, op syntax.Op) (*syntax.Regexp, bool) {
	if re.Op == op {
		return &syntax.Regexp{Op: syntax.OpNoMatch}, true
	}

	var subs []*syntax.Regexp
	for i, sub := range re.Sub {
		nsub, ok := withoutOp(sub, op)
		if !ok {
			continue
		}
		if subs == nil {
			subs = append([]*syntax.Regexp(nil), re.Sub...)
		}
		subs[i] = nsub
	}
	if subs == nil {
		return re, false
	}

	cp := *re
	cp.Sub = subs
	return &cp, true
}

// TranslateBRE rewrites a POSIX basic regular expression as an extended one.
//
// \( \) \{ \} are grouping and intervals, \+ \? \| are accepted as in GNU grep, and the
// bare characters ( ) { } + ? | are literals. A * at the start of the expression or of a
// group is literal, and ^ and $ only anchor at the ends of the expression or a group.
func TranslateBRE(expr string) (string, error) {
	var b strings.Builder
	b.Grow(len(expr) + 8)

	atStart := true
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		start := false
		switch c {
		case '\\':
			if i+1 == len(expr) {
				return "", &Error{Msg: string(syntax.ErrTrailingBackslash), Pos: i}
			}
			i++
			n := expr[i]
			switch n {
			case '(', '|':
				b.WriteByte(n)
				start = true
			case ')', '{', '}', '+', '?':
				b.WriteByte(n)
			case '1', '2', '3', '4', '5', '6', '7', '8', '9':
				return "", &Error{Msg: "back-references are not supported", Pos: i - 1}
			default:
				b.WriteByte('\\')
				b.WriteByte(n)
			}
		case '(', ')', '{', '}', '+', '?', '|':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '*':
			if atStart {
				b.WriteString(`\*`)
			} else {
				b.WriteByte('*')
			}
		case '^':
			if atStart {
				b.WriteByte('^')
				start = true
			} else {
				b.WriteString(`\^`)
			}
		case '$':
			rest := expr[i+1:]
			if rest == "" || strings.HasPrefix(rest, `\)`) || strings.HasPrefix(rest, `\|`) {
				b.WriteByte('$')
			} else {
				b.WriteString(`\$`)
			}
		case '[':
			end := bracketEnd(expr, i)
			if end < 0 {
				// Let the ERE parser report the unterminated class.
				b.WriteString(expr[i:])
				return b.String(), nil
			}
			b.WriteString(expr[i:end])
			i = end - 1
		default:
			b.WriteByte(c)
		}
		atStart = start
	}
	return b.String(), nil
}

// bracketEnd returns the offset just past the bracket expression starting at expr[i],
// or -1 if it is not terminated.
func bracketEnd(expr string, i int) int {
	j := i + 1
	if j < len(expr) && expr[j] == '^' {
		j++
	}
	if j < len(expr) && expr[j] == ']' {
		j++
	}
	for j < len(expr) {
		switch expr[j] {
		case ']':
			return j + 1
		case '[':
			if j+1 < len(expr) && (expr[j+1] == ':' || expr[j+1] == '.' || expr[j+1] == '=') {
				delim := expr[j+1]
				k := strings.Index(expr[j+2:], string([]byte{delim, ']'}))
				if k < 0 {
					return -1
				}
				j += 2 + k + 2
				continue
			}
		}
		j++
	}
	return -1
}

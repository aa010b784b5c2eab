package internal

import (
	"fmt"
	"strings"
)

// TranslateLua rewrites a Lua string pattern as a POSIX extended regular expression.
//
// Character classes, sets, anchors, greedy repetition and captures carry over. The
// constructs that need a backtracking matcher (lazy '-', %b, %f, back-references and
// position captures) have no ERE equivalent and are rejected.
func TranslateLua(expr string) (string, error) {
	var b strings.Builder
	b.Grow(len(expr) * 2)

	i := 0
	if strings.HasPrefix(expr, "^") {
		b.WriteByte('^')
		i++
	}

	// single is true when the last item written can take a repetition suffix.
	single := false
	depth := 0
	for i < len(expr) {
		c := expr[i]
		switch c {
		case '%':
			if i+1 == len(expr) {
				return "", &Error{Msg: "malformed pattern (ends with '%')", Pos: i}
			}
			n := expr[i+1]
			switch {
			case n == 'b', n == 'f':
				return "", &Error{Msg: fmt.Sprintf("%%%c has no POSIX equivalent", n), Pos: i}
			case '0' <= n && n <= '9':
				return "", &Error{Msg: "back-references have no POSIX equivalent", Pos: i}
			}
			if cls, ok := luaClass(n); ok {
				b.WriteByte('[')
				if isUpper(n) {
					b.WriteByte('^')
				}
				b.WriteString(cls)
				b.WriteByte(']')
			} else {
				writeLiteral(&b, n)
			}
			i += 2
			single = true
		case '[':
			end, err := translateSet(&b, expr, i)
			if err != nil {
				return "", err
			}
			i = end
			single = true
		case '(':
			if i+1 < len(expr) && expr[i+1] == ')' {
				return "", &Error{Msg: "position captures have no POSIX equivalent", Pos: i}
			}
			b.WriteByte('(')
			depth++
			i++
			single = false
		case ')':
			if depth == 0 {
				return "", &Error{Msg: "invalid pattern capture", Pos: i}
			}
			b.WriteByte(')')
			depth--
			i++
			single = false
		case '*', '+', '?':
			if single {
				b.WriteByte(c)
				single = false
			} else {
				writeLiteral(&b, c)
				single = true
			}
			i++
		case '-':
			if single {
				return "", &Error{Msg: "lazy repetition '-' has no POSIX equivalent", Pos: i}
			}
			b.WriteByte('-')
			i++
			single = true
		case '$':
			if i+1 == len(expr) {
				b.WriteByte('$')
				single = false
			} else {
				writeLiteral(&b, c)
				single = true
			}
			i++
		case '.':
			b.WriteByte('.')
			i++
			single = true
		default:
			writeLiteral(&b, c)
			i++
			single = true
		}
	}
	if depth > 0 {
		return "", &Error{Msg: "unfinished capture", Pos: len(expr)}
	}
	return b.String(), nil
}

// translateSet writes the Lua set starting at expr[i] as a bracket expression and
// returns the offset just past it.
func translateSet(b *strings.Builder, expr string, i int) (int, error) {
	start := i
	i++
	b.WriteByte('[')
	if i < len(expr) && expr[i] == '^' {
		b.WriteByte('^')
		i++
	}
	first := true
	for {
		if i >= len(expr) {
			return 0, &Error{Msg: "malformed pattern (missing ']')", Pos: start}
		}
		c := expr[i]
		if c == ']' && !first {
			b.WriteByte(']')
			return i + 1, nil
		}
		first = false
		switch {
		case c == '%':
			if i+1 == len(expr) {
				return 0, &Error{Msg: "malformed pattern (missing ']')", Pos: start}
			}
			n := expr[i+1]
			if cls, ok := luaClass(n); ok {
				b.WriteString("[:")
				if isUpper(n) {
					b.WriteByte('^')
				}
				b.WriteString(cls[2:])
			} else {
				writeSetLiteral(b, n)
			}
			i += 2
		case i+2 < len(expr) && expr[i+1] == '-' && expr[i+2] != ']':
			writeSetLiteral(b, c)
			b.WriteByte('-')
			writeSetLiteral(b, expr[i+2])
			i += 3
		default:
			writeSetLiteral(b, c)
			i++
		}
	}
}

// luaClass maps a Lua class letter to the POSIX bracket class it stands for, written
// as "[:name:]".
func luaClass(c byte) (string, bool) {
	switch c | 0x20 {
	case 'a':
		return "[:alpha:]", true
	case 'c':
		return "[:cntrl:]", true
	case 'd':
		return "[:digit:]", true
	case 'g':
		return "[:graph:]", true
	case 'l':
		return "[:lower:]", true
	case 'p':
		return "[:punct:]", true
	case 's':
		return "[:space:]", true
	case 'u':
		return "[:upper:]", true
	case 'w':
		return "[:alnum:]", true
	case 'x':
		return "[:xdigit:]", true
	}
	return "", false
}

func isUpper(c byte) bool {
	return 'A' <= c && c <= 'Z'
}

func writeLiteral(b *strings.Builder, c byte) {
	if strings.IndexByte(`\.+*?()|[]{}^$`, c) >= 0 {
		b.WriteByte('\\')
	}
	b.WriteByte(c)
}

func writeSetLiteral(b *strings.Builder, c byte) {
	if strings.IndexByte(`\]-^[`, c) >= 0 {
		b.WriteByte('\\')
	}
	b.WriteByte(c)
}

package rx

import (
	"slices"
)

// Match is a cursor over the successive matches of a pattern in a text. It is
// positioned on the first match when created and moves forward with Next.
//
// A Match is not safe for concurrent use. It keeps a reference to the text it searches.
type Match struct {
	p    *Pattern
	text string

	// loc holds the index pairs of the current match, group 0 first.
	loc     []int
	pos     int
	lastEnd int
	matched bool
}

// Match returns a cursor positioned on the first match of the pattern in text. If
// there is none, or the pattern is invalid, the cursor is not matched.
func (p *Pattern) Match(text string) *Match {
	m := &Match{p: p, text: text, lastEnd: -1}
	if p.impl != nil {
		m.loc = make([]int, 0, 2*(p.impl.NumGroups()+1))
		m.search()
	}
	return m
}

func (m *Match) search() {
	for m.pos <= len(m.text) {
		loc := m.p.impl.FindAt(m.text, m.pos, m.loc[:0])
		if loc == nil {
			break
		}
		if loc[0] == loc[1] && loc[0] == m.lastEnd {
			// We don't allow an empty match right
			// after a previous match, so ignore it.
			m.pos = m.p.nextPos(m.text, loc[0])
			continue
		}
		m.loc = loc
		m.lastEnd = loc[1]
		if loc[1] > loc[0] {
			m.pos = loc[1]
		} else {
			m.pos = m.p.nextPos(m.text, loc[1])
		}
		m.matched = true
		return
	}
	m.matched = false
	m.loc = m.loc[:0]
	m.pos = len(m.text) + 1
}

// Pattern returns the pattern the cursor matches.
func (m *Match) Pattern() *Pattern {
	return m.p
}

// Text returns the text the cursor searches.
func (m *Match) Text() string {
	return m.text
}

// Matches reports whether the cursor is positioned on a match.
func (m *Match) Matches() bool {
	return m.matched
}

// Err returns the compile error of the pattern if it is invalid.
func (m *Match) Err() error {
	return m.p.Err()
}

// Next moves the cursor to the next match, which starts at or after the end of the
// current one, and reports whether there is one. Once the cursor is not matched Next
// does nothing.
func (m *Match) Next() bool {
	if !m.matched {
		return false
	}
	m.search()
	return m.matched
}

// Range returns the byte offsets of group i of the current match, where group 0 is the
// whole match. A group that did not participate in the match reports -1, -1.
func (m *Match) Range(i int) (start, end int, err error) {
	if !m.matched {
		return -1, -1, ErrNoActiveMatch
	}
	if i < 0 || 2*i+1 >= len(m.loc) {
		return -1, -1, &IndexError{Index: i, NumGroups: len(m.loc)/2 - 1}
	}
	return m.loc[2*i], m.loc[2*i+1], nil
}

// Group returns the text of group i of the current match, where group 0 is the whole
// match. A group that did not participate in the match is empty.
func (m *Match) Group(i int) (string, error) {
	start, end, err := m.Range(i)
	if err != nil || start < 0 {
		return "", err
	}
	return m.text[start:end], nil
}

// MustGroup is like Group but panics on error.
func (m *Match) MustGroup(i int) string {
	s, err := m.Group(i)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the text of the current match, or "" if the cursor is not matched.
func (m *Match) String() string {
	if !m.matched {
		return ""
	}
	return m.text[m.loc[0]:m.loc[1]]
}

// Groups returns the text of every group of the current match, group 0 first, or nil
// if the cursor is not matched.
func (m *Match) Groups() []string {
	if !m.matched {
		return nil
	}
	groups := make([]string, len(m.loc)/2)
	for i := range groups {
		if m.loc[2*i] >= 0 {
			groups[i] = m.text[m.loc[2*i]:m.loc[2*i+1]]
		}
	}
	return groups
}

// Ranges returns the index pairs of the current match in the layout of
// regexp.Regexp.FindStringSubmatchIndex, or nil if the cursor is not matched.
func (m *Match) Ranges() []int {
	if !m.matched {
		return nil
	}
	return slices.Clone(m.loc)
}

func (m *Match) clone() *Match {
	c := *m
	c.loc = slices.Clone(m.loc)
	return &c
}

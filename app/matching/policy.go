package matching

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mvillarin/campus-lostfound/app/categories"
	"github.com/mvillarin/campus-lostfound/app/database"
)

// Confidence scores recorded on match rows. Structured matches pair a lost
// report with its found counterpart on hard attributes; the fallback score
// marks a best-effort pairing that only fired because nothing stronger did.
const (
	ConfidenceStructured = 100.0
	ConfidenceFallback   = 75.0
)

// Filter carries the normalized search terms a pairing decision runs
// against. Zero-value fields mean the searcher did not provide that term.
type Filter struct {
	StudentID string
	Name      string
}

// NewFilter derives the effective student and name terms the way the search
// endpoint interprets its inputs: explicit fields win, and a bare query
// string is treated as a student ID when it looks like one, otherwise as a
// name.
func NewFilter(query, itemName, studentID string) Filter {
	f := Filter{
		StudentID: normalize(studentID),
		Name:      normalize(itemName),
	}
	q := normalize(query)
	if q == "" {
		return f
	}
	if f.StudentID == "" && database.IsStudentIDPattern(q) {
		f.StudentID = q
	} else if f.Name == "" && f.StudentID == "" {
		f.Name = q
	}
	return f
}

func normalize(s string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(s))
}

// compactDigits strips everything but digits, so "221-00734" and "22100734"
// compare equal.
func compactDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func studentIDsEqual(a, b string) bool {
	a, b = compactDigits(a), compactDigits(b)
	return a != "" && a == b
}

// studentMatches reports whether the candidate lost item agrees on a student
// ID with the search filter or with the found item. The filter only ever
// speaks for the lost side.
func studentMatches(f Filter, lost, found *database.Item) bool {
	if studentIDsEqual(lost.StudentID, found.StudentID) {
		return true
	}
	return f.StudentID != "" && studentIDsEqual(f.StudentID, lost.StudentID)
}

// nameMatches is the analogous case-insensitive equality check on name.
func nameMatches(f Filter, lost, found *database.Item) bool {
	ln, fn := normalize(lost.Name), normalize(found.Name)
	if ln == "" {
		return false
	}
	if ln == fn {
		return true
	}
	return f.Name != "" && ln == f.Name
}

// categoryConflict reports whether both items declare categories that
// normalize to different canonical names. A missing category on either side
// never blocks a pairing.
func categoryConflict(reg *categories.Registry, lost, found *database.Item) bool {
	if lost.Category == "" || found.Category == "" {
		return false
	}
	return !reg.Equal(lost.Category, found.Category)
}

// pairs is the pairing predicate for search-triggered matching: the items
// must agree on a student ID or a name, and must not sit in conflicting
// categories.
func pairs(reg *categories.Registry, f Filter, lost, found *database.Item) bool {
	if lost.ID == found.ID {
		return false
	}
	if categoryConflict(reg, lost, found) {
		return false
	}
	return studentMatches(f, lost, found) || nameMatches(f, lost, found)
}

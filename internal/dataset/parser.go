package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-moments-mcp/internal/logger"
	"github.com/ironsheep/shape-moments-mcp/internal/moments"
)

// Entry is one labeled reference shape.
type Entry struct {
	// Label names the shape class. Never empty.
	Label string `json:"label"`

	// Raw holds the seven Hu invariants exactly as read from the dataset.
	Raw moments.Vector `json:"raw"`

	// Vector is Raw after the log transform and normalization, ready for
	// distance comparison.
	Vector moments.Vector `json:"vector"`
}

// NewEntry builds an entry from raw Hu invariants.
func NewEntry(label string, raw moments.Vector) Entry {
	return Entry{
		Label:  label,
		Raw:    raw,
		Vector: moments.Prepare(raw),
	}
}

// Reasons a row is left out of the dataset.
const (
	SkipBlank      = "blank line"
	SkipNoLabel    = "empty label"
	SkipWrongCount = "wrong number of values"
)

// Row is the outcome of parsing one dataset line: either an entry or the
// reason the line was skipped.
type Row struct {
	// Line is the 1-based line number.
	Line int `json:"line"`

	// Text is the line as read, without its line terminator.
	Text string `json:"text"`

	// Entry is valid only when Skip is empty.
	Entry Entry `json:"-"`

	// Skip explains why the row was dropped; empty for kept rows.
	Skip string `json:"reason,omitempty"`

	// Values is the number of tokens after the label that parsed as finite
	// numbers.
	Values int `json:"values"`
}

// Kept reports whether the row produced an entry.
func (r Row) Kept() bool {
	return r.Skip == ""
}

// ParseRow parses a single line of the form "label,v1,...,v7".
//
// The label is the whitespace-trimmed first field. Every other field is
// trimmed and its longest leading number is parsed as a float64, so "0.5abc"
// reads as 0.5 and "1e-3;" as 0.001. Fields with no leading number, or whose
// number is NaN, an infinity or out of range, are ignored. The row is kept only when exactly seven
// values remain and the label is not empty.
func ParseRow(line string) Row {
	row := Row{Text: line}

	if strings.TrimSpace(line) == "" {
		row.Skip = SkipBlank
		return row
	}

	fields := strings.Split(line, ",")
	label := strings.TrimSpace(fields[0])

	values := make([]float64, 0, moments.Size)
	for _, f := range fields[1:] {
		v, err := parseValue(f)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	row.Values = len(values)

	switch {
	case label == "":
		row.Skip = SkipNoLabel
	case len(values) != moments.Size:
		row.Skip = SkipWrongCount
	default:
		var raw moments.Vector
		copy(raw[:], values)
		row.Entry = NewEntry(label, raw)
	}
	return row
}

// parseValue parses the number at the start of field, ignoring anything
// after it.
func parseValue(field string) (float64, error) {
	s := strings.TrimSpace(field)
	return strconv.ParseFloat(numericPrefix(s), 64)
}

// numericPrefix returns the longest prefix of s that forms a decimal or
// hexadecimal floating-point literal, or "" when s does not start with one.
// A hexadecimal literal without a binary exponent gets "p0" appended so
// strconv accepts it.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	if i+1 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') {
		if end, ok := mantissa(s, i+2, isHexDigit); ok {
			if exp := exponent(s, end, 'p', 'P'); exp > end {
				return s[:exp]
			}
			return s[:end] + "p0"
		}
	}

	end, ok := mantissa(s, i, isDigit)
	if !ok {
		return ""
	}
	return s[:exponent(s, end, 'e', 'E')]
}

// mantissa scans digits with an optional fraction starting at i and reports
// where it ends and whether any digit was seen.
func mantissa(s string, i int, digit func(byte) bool) (int, bool) {
	n := 0
	for i < len(s) && digit(s[i]) {
		i++
		n++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && digit(s[i]) {
			i++
			n++
		}
	}
	return i, n > 0
}

// exponent extends a literal ending at i with an exponent part, which counts
// only when at least one digit follows the marker and optional sign.
func exponent(s string, i int, lower, upper byte) int {
	if i >= len(s) || (s[i] != lower && s[i] != upper) {
		return i
	}
	j := i + 1
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	k := j
	for k < len(s) && isDigit(s[k]) {
		k++
	}
	if k == j {
		return i
	}
	return k
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Dataset is an ordered set of reference entries. Order is the order rows
// appear in the source and decides ties during classification.
type Dataset struct {
	Entries []Entry `json:"entries"`

	// Skipped lists the rows that did not produce an entry.
	Skipped []Row `json:"skipped"`

	// Lines is the number of lines read.
	Lines int `json:"lines"`
}

// Len returns the number of entries.
func (d *Dataset) Len() int {
	return len(d.Entries)
}

// Empty reports whether the dataset holds no entries.
func (d *Dataset) Empty() bool {
	return len(d.Entries) == 0
}

// Labels returns the distinct labels in first-seen order.
func (d *Dataset) Labels() []string {
	seen := make(map[string]bool, len(d.Entries))
	labels := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if !seen[e.Label] {
			seen[e.Label] = true
			labels = append(labels, e.Label)
		}
	}
	return labels
}

// Parse reads a reference dataset, one row per line.
//
// Malformed rows are never errors: they are recorded in Skipped and logged
// at debug level. Input with no valid rows yields an empty dataset.
func Parse(data []byte) *Dataset {
	text := strings.TrimSuffix(string(data), "\n")

	ds := &Dataset{
		Entries: make([]Entry, 0),
		Skipped: make([]Row, 0),
	}
	if text == "" {
		return ds
	}

	for i, line := range strings.Split(text, "\n") {
		row := ParseRow(strings.TrimSuffix(line, "\r"))
		row.Line = i + 1
		ds.Lines++

		if row.Kept() {
			ds.Entries = append(ds.Entries, row.Entry)
			continue
		}
		ds.Skipped = append(ds.Skipped, row)
		logger.WithFields(logrus.Fields{
			"line":   row.Line,
			"reason": row.Skip,
			"values": row.Values,
		}).Debug("skipped dataset row")
	}

	return ds
}

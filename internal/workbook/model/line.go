package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PendingLabel is the wire form of a result not yet assigned to a worksheet line.
const PendingLabel = "PENDING"

// LineNumber is either an assigned worksheet line number or Pending.
// The zero value is Pending.
type LineNumber struct {
	n        int
	assigned bool
}

// Pending marks a result that still waits for a worksheet line.
var Pending = LineNumber{}

// Assigned returns the line number n. Non-positive numbers yield Pending.
func Assigned(n int) LineNumber {
	if n <= 0 {
		return Pending
	}
	return LineNumber{n: n, assigned: true}
}

func (l LineNumber) IsPending() bool { return !l.assigned }

// Number returns the assigned number and true, or 0 and false for Pending.
func (l LineNumber) Number() (int, bool) { return l.n, l.assigned }

func (l LineNumber) String() string {
	if !l.assigned {
		return PendingLabel
	}
	return strconv.Itoa(l.n)
}

// Compare orders assigned lines ascending; Pending sorts after every assigned line.
func (l LineNumber) Compare(o LineNumber) int {
	switch {
	case l.assigned && o.assigned:
		switch {
		case l.n < o.n:
			return -1
		case l.n > o.n:
			return 1
		}
		return 0
	case l.assigned:
		return -1
	case o.assigned:
		return 1
	}
	return 0
}

// ParseLineNumber accepts "PENDING" (any case), an empty string (Pending) or a positive integer.
func ParseLineNumber(s string) (LineNumber, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, PendingLabel) {
		return Pending, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "."))
	if err != nil || n <= 0 {
		return Pending, fmt.Errorf("invalid line number %q", s)
	}
	return Assigned(n), nil
}

func (l LineNumber) MarshalJSON() ([]byte, error) {
	if !l.assigned {
		return []byte(`"` + PendingLabel + `"`), nil
	}
	return []byte(strconv.Itoa(l.n)), nil
}

func (l *LineNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = Pending
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseLineNumber(s)
		if err != nil {
			return err
		}
		*l = v
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("line number: %w", err)
	}
	*l = Assigned(n)
	return nil
}

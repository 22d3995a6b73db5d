package service

import (
	"regexp"
	"strconv"
	"strings"
)

// Segment is one "*"-separated part of a search query.
type Segment struct {
	LineNumber   *int     `json:"lineNumber"`
	Tokens       []string `json:"tokens"`
	RangeMin     *int     `json:"rangeMin"` // grams
	RangeMax     *int     `json:"rangeMax"` // grams
	DirectCode   string   `json:"directCode,omitempty"`
	OriginalText string   `json:"originalText"`
}

// HasRange reports whether a weight range in grams was given.
func (s Segment) HasRange() bool { return s.RangeMin != nil && s.RangeMax != nil }

// IsDirect reports whether the segment is a bracketed code lookup.
func (s Segment) IsDirect() bool { return s.DirectCode != "" }

// ParsedQuery is the parser output.
type ParsedQuery struct {
	Segments []Segment `json:"segments"`
}

// HasTokens reports whether any segment carries free text.
func (q ParsedQuery) HasTokens() bool {
	for _, s := range q.Segments {
		if len(s.Tokens) > 0 {
			return true
		}
	}
	return false
}

var (
	reLineCode   = regexp.MustCompile(`^(\d+)\.\s*\(([A-Za-z0-9]+)\)$`) // "12. (A45)"
	reCodeOnly   = regexp.MustCompile(`^\(([A-Za-z0-9]+)\)$`)           // "(A45)"
	reLinePrefix = regexp.MustCompile(`^(\d+)\.\s*`)                    // "5. ajvar"
	reRange      = regexp.MustCompile(`^(\d+)-(\d+)$`)                  // "300-1000"
)

// ParseQuery splits a raw query on "*" and parses every non-empty segment.
func ParseQuery(query string) ParsedQuery {
	var out ParsedQuery
	for _, raw := range strings.Split(query, "*") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		out.Segments = append(out.Segments, parseSegment(raw))
	}
	return out
}

func parseSegment(raw string) Segment {
	seg := Segment{OriginalText: raw, Tokens: []string{}}

	if m := reLineCode.FindStringSubmatch(raw); m != nil {
		seg.LineNumber = intPtr(m[1])
		seg.DirectCode = m[2]
		return seg
	}
	if m := reCodeOnly.FindStringSubmatch(raw); m != nil {
		seg.DirectCode = m[1]
		return seg
	}

	text := raw
	if loc := reLinePrefix.FindStringSubmatchIndex(raw); loc != nil {
		seg.LineNumber = intPtr(raw[loc[2]:loc[3]])
		text = raw[loc[1]:]
	}

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if m := reRange.FindStringSubmatch(tok); m != nil {
			// later ranges overwrite earlier ones
			seg.RangeMin = intPtr(m[1])
			seg.RangeMax = intPtr(m[2])
			continue
		}
		seg.Tokens = append(seg.Tokens, tok)
	}
	return seg
}

func intPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

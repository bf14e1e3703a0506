// Package jsonrepair recovers JSON payloads from free-form model output.
//
// Models asked for JSON routinely wrap it in markdown fences, prefix it with
// chatter, or emit near-JSON (trailing commas, single quotes, Python literals).
// Repair peels those layers off and only returns text that encoding/json accepts.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON is returned when the input contains no object or array at all.
	ErrNoJSON = errors.New("no JSON value found in text")
	// ErrUnrecoverable is returned when a candidate was found but could not be repaired.
	ErrUnrecoverable = errors.New("JSON could not be repaired")
)

// maxCandidates bounds how many opening brackets Repair will try.
const maxCandidates = 64

// StripCodeFences removes a markdown code fence around the payload, keeping
// only the fenced body. Text without a fence is returned trimmed.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	open := strings.Index(trimmed, "```")
	if open == -1 {
		return trimmed
	}

	body := trimmed[open+3:]
	// Drop the language tag on the opening fence line ("json", "JSON", ...).
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		tag := strings.TrimSpace(body[:nl])
		if !strings.ContainsAny(tag, "{[") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// Extract returns the first balanced JSON object or array in s. Outermost
// candidates that already parse are preferred; otherwise the first balanced
// (or unterminated) candidate is returned so that Sanitize can work on it.
func Extract(s string) string {
	cands := candidates(s)
	if len(cands) == 0 {
		return ""
	}
	for _, c := range cands {
		if !c.nested && json.Valid([]byte(c.text)) {
			return c.text
		}
	}
	return cands[0].text
}

// Repair turns model output into valid JSON text. Outermost candidates are
// tried first, as-is and then sanitized, so a fixable document is never
// shadowed by one of its own valid members.
func Repair(s string) (string, error) {
	body := StripCodeFences(s)
	cands := candidates(body)
	if len(cands) == 0 {
		return "", ErrNoJSON
	}

	for _, nested := range []bool{false, true} {
		for _, c := range cands {
			if c.nested != nested {
				continue
			}
			if json.Valid([]byte(c.text)) {
				return c.text, nil
			}
			if fixed := Sanitize(c.text); json.Valid([]byte(fixed)) {
				return fixed, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %.80q", ErrUnrecoverable, cands[0].text)
}

// Decode repairs s and unmarshals the result into v.
func Decode(s string, v any) error {
	fixed, err := Repair(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("decode repaired JSON: %w", err)
	}
	return nil
}

type candidate struct {
	text string
	// nested is set when the candidate lies inside an earlier one.
	nested bool
}

// candidates lists every substring starting at '{' or '[' that closes in
// balance, in order of appearance. An opening bracket that never closes yields
// the remainder of the input.
func candidates(s string) []candidate {
	var out []candidate
	outerEnd := -1
	for i := 0; i < len(s) && len(out) < maxCandidates; i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		nested := i <= outerEnd
		end := matchClose(s, i)
		if end == -1 {
			end = len(s) - 1
		}
		if !nested {
			outerEnd = end
		}
		out = append(out, candidate{text: s[i : end+1], nested: nested})
	}
	return out
}

// matchClose scans from the bracket at start and returns the index of the
// bracket that closes it, or -1. Double-quoted strings and escapes are skipped.
func matchClose(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

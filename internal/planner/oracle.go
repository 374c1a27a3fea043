package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Oracle is an external text-generation service. Its output is free text and
// is never trusted to follow the requested structure.
type Oracle interface {
	Generate(ctx context.Context, req OracleRequest) (string, error)
}

// Section is a titled block of facts in a prompt. Lines are bulleted unless
// Verbatim is set.
type Section struct {
	Title    string
	Lines    []string
	Verbatim bool
}

// OracleRequest is everything sent to the oracle for one call.
type OracleRequest struct {
	Role            string
	Sections        []Section
	Requirements    []string
	OutputContract  string
	Temperature     float32
	MaxOutputTokens int32
}

// Prompt renders the request as plain text.
func (r OracleRequest) Prompt() string {
	var b strings.Builder
	if r.Role != "" {
		b.WriteString(r.Role)
		b.WriteString("\n\n")
	}
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "%s:\n", strings.ToUpper(s.Title))
		if len(s.Lines) == 0 {
			b.WriteString("- none\n")
		}
		for _, line := range s.Lines {
			if !s.Verbatim {
				b.WriteString("- ")
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if len(r.Requirements) > 0 {
		b.WriteString("REQUIREMENTS:\n")
		for i, req := range r.Requirements {
			fmt.Fprintf(&b, "%d. %s\n", i+1, req)
		}
		b.WriteByte('\n')
	}
	b.WriteString(r.OutputContract)
	return strings.TrimSpace(b.String())
}

type unavailableOracle struct{}

var errOracleUnavailable = errors.New("planner: oracle not configured")

func (unavailableOracle) Generate(context.Context, OracleRequest) (string, error) {
	return "", errOracleUnavailable
}

// UnavailableOracle always fails, so every synthesis takes the fallback path.
var UnavailableOracle Oracle = unavailableOracle{}

// Unwrap strips code fences and surrounding prose from oracle output, leaving
// the outermost JSON array or object when one is present.
func Unwrap(text string) string {
	s := strings.TrimSpace(text)
	if start := strings.Index(s, "```"); start >= 0 {
		rest := s[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && isFenceTag(rest[:nl]) {
			rest = rest[nl+1:]
		} else {
			rest = strings.TrimLeftFunc(rest, unicode.IsLetter)
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}

	open := strings.IndexAny(s, "[{")
	if open < 0 {
		return s
	}
	closer := "]"
	if s[open] == '{' {
		closer = "}"
	}
	if end := strings.LastIndex(s, closer); end > open {
		return s[open : end+1]
	}
	return s[open:]
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// DecodeResponse unwraps oracle output and decodes it into v.
func DecodeResponse(text string, v interface{}) error {
	body := Unwrap(text)
	if body == "" {
		return fmt.Errorf("%w: empty response", errMalformedOutput)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedOutput, err)
	}
	return nil
}

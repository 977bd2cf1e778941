// Package parser converts raw log lines into structured entries.
//
// Expected line format, fields separated by runs of whitespace:
//
//	TIMESTAMP [LEVEL] IP METHOD ENDPOINT STATUS
//
// Example:
//
//	2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET /api/users 200
//
// The grammar is anchored at both ends; anything that deviates from it is a
// total parse failure, never a partial entry. IP octets are only checked for
// shape (1-3 digits each), not for the 0-255 range, so "999.999.999.999" is
// syntactically accepted.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"logsift/internal/models"
)

// Common errors returned by Parse. Use errors.Is to classify a failure, or
// errors.As with *FormatError / *FieldError for the details.
var (
	ErrInvalidFormat = errors.New("invalid log format")
	ErrInvalidField  = errors.New("invalid field value")
)

// formatErrorLimit caps how much of an offending line is kept for
// diagnostics.
const formatErrorLimit = 100

// FormatError reports a line whose shape does not match the grammar at all.
type FormatError struct {
	// Line holds the offending line, truncated to formatErrorLimit bytes.
	Line string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid log format: line does not match expected pattern: %q", e.Line)
}

func (e *FormatError) Unwrap() error { return ErrInvalidFormat }

// FieldError reports a line whose shape matched but whose captured field
// could not be converted to its semantic type.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value for field %q: %q", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

// Parser parses log lines of the logsift format. The compiled grammar is
// built once in New and is read-only afterwards, so a single Parser is safe
// for concurrent use.
type Parser struct {
	re *regexp.Regexp
}

// New creates a Parser with its grammar compiled. The pattern is a constant,
// so compilation cannot fail at runtime.
func New() *Parser {
	return &Parser{
		re: regexp.MustCompile(
			`^(?P<timestamp>\S+)\s+\[(?P<level>INFO|WARN|ERROR)\]\s+(?P<ip>\d{1,3}(?:\.\d{1,3}){3})\s+(?P<method>[A-Z]+)\s+(?P<endpoint>\S+)\s+(?P<status>\d{3})\s*$`,
		),
	}
}

// Parse parses a single log line into a LogEntry.
//
// Parse is total: every input yields either an entry or a classified error.
// A *FormatError means the line shape did not match; a *FieldError means the
// shape matched but a field failed conversion.
func (p *Parser) Parse(line string) (*models.LogEntry, error) {
	matches := p.re.FindStringSubmatch(strings.TrimSpace(line))
	if matches == nil {
		return nil, &FormatError{Line: truncate(line, formatErrorLimit)}
	}

	// Submatch order follows the pattern: timestamp, level, ip, method,
	// endpoint, status.
	level, ok := models.ParseLevel(matches[2])
	if !ok {
		// Unreachable: the grammar restricts the level token to the closed
		// set. Kept so the error taxonomy stays honest.
		return nil, &FieldError{Field: "level", Value: matches[2]}
	}

	status, err := strconv.ParseUint(matches[6], 10, 16)
	if err != nil {
		// Unreachable at exactly three digits, but the conversion step is
		// explicit and its failure is classified.
		return nil, &FieldError{Field: "status_code", Value: matches[6]}
	}

	return &models.LogEntry{
		Timestamp:  matches[1],
		Level:      level,
		IP:         matches[3],
		Method:     models.ParseMethod(matches[4]),
		Endpoint:   matches[5],
		StatusCode: uint16(status),
	}, nil
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package models contains the core data structures for logsift.
package models

import (
	"encoding/json"
	"strconv"
)

// Level represents the severity level of a log entry.
// The set is closed: the parser only ever produces these three values.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel converts a level token to a Level.
// Returns false for anything outside the closed set.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	default:
		return "", false
	}
}

// String returns the level token as it appears in log lines.
func (l Level) String() string {
	return string(l)
}

type methodKind uint8

const (
	methodGet methodKind = iota
	methodPost
	methodPut
	methodDelete
	methodPatch
	methodHead
	methodOptions
	methodOther
)

// Method identifies the HTTP verb of a request. The seven known verbs are
// distinct values; any other uppercase token is preserved verbatim through
// OtherMethod. Method values are comparable with ==.
type Method struct {
	kind methodKind
	raw  string // only set for methodOther
}

// Known HTTP methods.
var (
	MethodGet     = Method{kind: methodGet}
	MethodPost    = Method{kind: methodPost}
	MethodPut     = Method{kind: methodPut}
	MethodDelete  = Method{kind: methodDelete}
	MethodPatch   = Method{kind: methodPatch}
	MethodHead    = Method{kind: methodHead}
	MethodOptions = Method{kind: methodOptions}
)

// OtherMethod returns a Method carrying an unrecognized verb token.
func OtherMethod(raw string) Method {
	return Method{kind: methodOther, raw: raw}
}

// ParseMethod maps a verb token to a Method. Unknown tokens are kept as-is.
func ParseMethod(s string) Method {
	switch s {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	case "PATCH":
		return MethodPatch
	case "HEAD":
		return MethodHead
	case "OPTIONS":
		return MethodOptions
	default:
		return OtherMethod(s)
	}
}

// IsKnown reports whether the method is one of the seven known verbs.
func (m Method) IsKnown() bool {
	return m.kind != methodOther
}

// String returns the verb token.
func (m Method) String() string {
	switch m.kind {
	case methodGet:
		return "GET"
	case methodPost:
		return "POST"
	case methodPut:
		return "PUT"
	case methodDelete:
		return "DELETE"
	case methodPatch:
		return "PATCH"
	case methodHead:
		return "HEAD"
	case methodOptions:
		return "OPTIONS"
	default:
		return m.raw
	}
}

// MarshalJSON encodes the method as its verb token.
func (m Method) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a verb token into a Method.
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMethod(s)
	return nil
}

// LogEntry represents a single parsed log line. Entries are created by the
// parser and never mutated afterwards.
type LogEntry struct {
	// Timestamp is the raw timestamp token. It is kept opaque: the analyzer
	// never needs calendar semantics.
	Timestamp string `json:"timestamp"`

	// Level is the severity level of the entry.
	Level Level `json:"level"`

	// IP is the client address as written, a dotted quad of 1-3 digit
	// groups. Octet values are not range-checked.
	IP string `json:"ip"`

	// Method is the HTTP verb.
	Method Method `json:"method"`

	// Endpoint is the request path token.
	Endpoint string `json:"endpoint"`

	// StatusCode is the three-digit HTTP status.
	StatusCode uint16 `json:"status_code"`
}

// String returns a single-line representation in the source log format.
func (e *LogEntry) String() string {
	return e.Timestamp + " [" + string(e.Level) + "] " + e.IP + " " +
		e.Method.String() + " " + e.Endpoint + " " + strconv.Itoa(int(e.StatusCode))
}

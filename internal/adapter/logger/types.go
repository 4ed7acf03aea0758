package logger

import (
	"fmt"
	"strings"
)

// Level orders entries by severity; entries below the configured level are
// dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts the level names in any case, so "info" from a YAML file
// works as well as "INFO".
func ParseLevel(s string) (Level, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), true
		}
	}
	return LevelDebug, false
}

// Entry is one JSON line. RequestID ties together the entries of one HTTP
// request; background work leaves it empty or names its phase ("startup").
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service"`
	Hostname  string                 `json:"hostname"`
	RequestID string                 `json:"request_id,omitempty"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     *EntryError            `json:"error,omitempty"`
}

// EntryError carries the failure text and, when it differs, the verbose
// form with wrapped causes.
type EntryError struct {
	Message string `json:"message"`
	Verbose string `json:"verbose,omitempty"`
}

func newEntryError(err error) *EntryError {
	e := &EntryError{Message: err.Error()}
	if verbose := fmt.Sprintf("%+v", err); verbose != e.Message {
		e.Verbose = verbose
	}
	return e
}

package convert

import (
	"fmt"
)

// event fields a column can feed
const (
	RoleStart    = "start"
	RoleEnd      = "end"
	RoleDialogue = "dialogue"
	RoleActor    = "actor"
	RoleTrack    = "track"
	RoleItalics  = "italics"
)

// ConfigurationError reports conversion settings that cannot work. It is
// returned before any row is read.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid " + e.Field
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RowError ties a cell that failed to convert to its position.
type RowError struct {
	Sheet string
	// 1-based, counting the header row
	Row    int
	Column Column
	Role   string
	Err    error
}

func (e *RowError) Error() string {
	loc := fmt.Sprintf("row %d", e.Row)
	if e.Sheet != "" {
		loc = fmt.Sprintf("sheet %q %s", e.Sheet, loc)
	}
	return fmt.Sprintf("%s, %s column %s: %v", loc, e.Role, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

package audio

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a source audio file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("audio file not found: %s", e.Path)
}

// ToolUnavailableError reports that a required external tool is missing
// from the environment.
type ToolUnavailableError struct {
	Tool string
	Hint string
}

func (e *ToolUnavailableError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s not found: %s", e.Tool, e.Hint)
	}
	return fmt.Sprintf("%s not found", e.Tool)
}

// ProcessingError reports that a decode or transcode ran but failed.
// Output carries the tool's diagnostic text verbatim when there is any.
type ProcessingError struct {
	Op     string
	Output string
	Err    error
}

func (e *ProcessingError) Error() string {
	msg := "failed to " + e.Op
	if e.Output != "" {
		return fmt.Sprintf("%s: %s", msg, strings.TrimSpace(e.Output))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProcessingError) Unwrap() error { return e.Err }

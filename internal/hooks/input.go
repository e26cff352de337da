// Package hooks implements the host-facing hook contract: short-lived
// processes that read a JSON payload from stdin, record what happened,
// and exit 0 no matter what. The coding session must never break
// because its memory had a bad day.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Input is the JSON payload the host pipes to every hook.
type Input struct {
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	CWD            string          `json:"cwd,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse   json.RawMessage `json:"tool_response,omitempty"`
	Source         string          `json:"source,omitempty"`
}

// EditInput is the tool_input shape of edit events.
type EditInput struct {
	FilePath  string `json:"file_path"`
	OldString string `json:"old_string,omitempty"`
	NewString string `json:"new_string,omitempty"`
	Content   string `json:"content,omitempty"` // whole-file writes
}

// ReadInputPayload is the tool_input shape of read events.
type ReadInputPayload struct {
	FilePath string `json:"file_path"`
}

// BashInput is the tool_input shape of bash events.
type BashInput struct {
	Command string `json:"command"`
}

// ReadInput decodes a hook payload from the host.
func ReadInput(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("hooks: read stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Input{}, nil
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("hooks: decode payload: %w", err)
	}
	return &in, nil
}

// Session returns the host's session ID, minting one when the payload
// omits it so events are never dropped on the floor.
func (in *Input) Session() string {
	if in.SessionID != "" {
		return in.SessionID
	}
	return "anon-" + uuid.NewString()
}

// Edit decodes tool_input as an edit. Write-style payloads (full
// content, no old/new pair) are normalized to an edit against empty.
func (in *Input) Edit() (EditInput, error) {
	var e EditInput
	if err := json.Unmarshal(in.ToolInput, &e); err != nil {
		return e, fmt.Errorf("hooks: decode edit input: %w", err)
	}
	if e.NewString == "" && e.Content != "" {
		e.NewString = e.Content
	}
	return e, nil
}

// ReadFile decodes tool_input as a file read.
func (in *Input) ReadFile() (ReadInputPayload, error) {
	var r ReadInputPayload
	if err := json.Unmarshal(in.ToolInput, &r); err != nil {
		return r, fmt.Errorf("hooks: decode read input: %w", err)
	}
	return r, nil
}

// Bash decodes tool_input as a shell command, with output pulled from
// the tool response.
func (in *Input) Bash() (BashInput, string, error) {
	var b BashInput
	if err := json.Unmarshal(in.ToolInput, &b); err != nil {
		return b, "", fmt.Errorf("hooks: decode bash input: %w", err)
	}
	return b, in.bashOutput(), nil
}

// bashOutput extracts command output from the tool response, which
// hosts deliver either as a bare string or as an object.
func (in *Input) bashOutput() string {
	if len(in.ToolResponse) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(in.ToolResponse, &s); err == nil {
		return s
	}
	var obj struct {
		Output string `json:"output"`
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	}
	if err := json.Unmarshal(in.ToolResponse, &obj); err != nil {
		return ""
	}
	out := obj.Output
	if out == "" {
		out = obj.Stdout
	}
	if obj.Stderr != "" {
		if out != "" {
			out += "\n"
		}
		out += obj.Stderr
	}
	return out
}

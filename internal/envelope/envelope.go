// Package envelope implements the versioned machine-output document
// emitted when a command is invoked with --output-version v1 (§4.11).
package envelope

import (
	"encoding/json"
	"time"
)

// Version is the only envelope schema version this build emits.
const Version = "v1"

// Item is one warning or error entry.
type Item struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// Meta carries run metadata alongside the payload.
type Meta struct {
	DurationMS int64          `json:"duration_ms"`
	Extra      map[string]any `json:"-"`
}

// MarshalJSON flattens Extra alongside duration_ms so callers can attach
// command-specific metadata without a nested object.
func (m Meta) MarshalJSON() ([]byte, error) {
	flat := map[string]any{"duration_ms": m.DurationMS}
	for k, v := range m.Extra {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// Envelope is the single JSON document emitted per invocation.
type Envelope struct {
	Version  string `json:"version"`
	Command  string `json:"command"`
	OK       bool   `json:"ok"`
	Data     any    `json:"data,omitempty"`
	Warnings []Item `json:"warnings"`
	Errors   []Item `json:"errors"`
	Meta     Meta   `json:"meta"`
}

// Builder accumulates warnings/errors over a command's lifetime and
// produces its final Envelope, timing itself from construction.
type Builder struct {
	command   string
	started   time.Time
	data      any
	warnings  []Item
	errors    []Item
	extraMeta map[string]any
}

// NewBuilder starts timing a command's envelope.
func NewBuilder(command string) *Builder {
	return &Builder{command: command, started: time.Now()}
}

// SetData sets the command-specific payload.
func (b *Builder) SetData(data any) *Builder {
	b.data = data
	return b
}

// Warn appends a warning item.
func (b *Builder) Warn(code, message string) *Builder {
	b.warnings = append(b.warnings, Item{Code: code, Message: message})
	return b
}

// Fail appends an error item.
func (b *Builder) Fail(code, message string) *Builder {
	b.errors = append(b.errors, Item{Code: code, Message: message})
	return b
}

// WithMeta attaches an additional metadata field.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if b.extraMeta == nil {
		b.extraMeta = map[string]any{}
	}
	b.extraMeta[key] = value
	return b
}

// Build finalizes the envelope. ok is false whenever any error items were
// recorded, regardless of the caller's own success judgment.
func (b *Builder) Build() Envelope {
	return Envelope{
		Version:  Version,
		Command:  b.command,
		OK:       len(b.errors) == 0,
		Data:     b.data,
		Warnings: b.warnings,
		Errors:   b.errors,
		Meta: Meta{
			DurationMS: time.Since(b.started).Milliseconds(),
			Extra:      b.extraMeta,
		},
	}
}

// Marshal renders the envelope as indented JSON.
func (e Envelope) Marshal() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

/*
Package board contains the core logic of the room synchronization engine:
the authoritative per-room operation log with its shared undo/redo history,
user and cursor bookkeeping, the message protocol, and the per-room event
loop that serializes all of it.

This file defines the Op type, a single committed stroke, and the input
normalization rules applied at commit time.
*/
package board

import (
	"math"

	"sketchroom/internal/app/user"
)

// Tool identifies how a stroke's points are rendered.
type Tool string

const (
	// ToolBrush paints with the stroke's color.
	ToolBrush Tool = "brush"

	// ToolEraser paints with the background color.
	ToolEraser Tool = "eraser"
)

const (
	// MinStrokeWidth is the smallest accepted stroke width.
	MinStrokeWidth = 1

	// MaxStrokeWidth is the largest accepted stroke width.
	MaxStrokeWidth = 64

	// DefaultStrokeColor is used when a commit carries no color.
	DefaultStrokeColor = "#000000"
)

// Point is a single canvas coordinate within a stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Op is one committed stroke. Ops are append-only and immutable except for
// the Retracted flag, which the shared undo/redo history toggles.
type Op struct {
	// ID is unique within the room for the room's lifetime.
	ID string `json:"id"`

	Tool   Tool    `json:"tool"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Points []Point `json:"points"`

	// Author is the user that committed the stroke.
	Author user.User `json:"author"`

	// Retracted marks the Op as undone. Retracted Ops stay in the log so a
	// late-joining session can resolve per-Op visibility from the snapshot.
	Retracted bool `json:"retracted"`

	// Timestamp is the commit time in Unix milliseconds.
	Timestamp int64 `json:"ts"`
}

// NormalizeTool coerces a client-supplied tool string to a known Tool.
// Anything other than "eraser" is a brush.
func NormalizeTool(raw string) Tool {
	if raw == string(ToolEraser) {
		return ToolEraser
	}
	return ToolBrush
}

// ClampWidth normalizes a client-supplied stroke width into
// [MinStrokeWidth, MaxStrokeWidth]. Zero and NaN fall back to the minimum.
func ClampWidth(w float64) float64 {
	if math.IsNaN(w) || w == 0 {
		return MinStrokeWidth
	}
	if w < MinStrokeWidth {
		return MinStrokeWidth
	}
	if w > MaxStrokeWidth {
		return MaxStrokeWidth
	}
	return w
}

// NormalizeColor substitutes the default color for an empty one.
func NormalizeColor(color string) string {
	if color == "" {
		return DefaultStrokeColor
	}
	return color
}

// Package color provides basic color definitions for a chess match
package color

// Color represents the side a participant plays in a match
type Color string

// The two sides of a match
const (
	White Color = "white"
	Black Color = "black"
)

// Opp returns the opposite color for the given color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}

	return White
}

// Package grid shows the engine on a Launchpad and turns pad presses into
// parameter edits.
package grid

import "go-genmidi/midi"

const size = midi.GridSize

// LED is one light. The zero value is off.
type LED struct {
	Color   [3]uint8
	Channel uint8
}

// Frame is a full grid, indexed [row][col] with row 0 at the bottom
type Frame [size][size]LED

// Diff returns the updates that turn prev into next
func Diff(prev, next *Frame) []midi.LEDUpdate {
	var updates []midi.LEDUpdate
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if prev[row][col] == next[row][col] {
				continue
			}
			led := next[row][col]
			updates = append(updates, midi.LEDUpdate{Row: row, Col: col, Color: led.Color, Channel: led.Channel})
		}
	}
	return updates
}

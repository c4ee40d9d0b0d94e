// Package widgets draws the Launchpad grid in the terminal.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-genmidi/grid"
	"go-genmidi/midi"
)

const (
	padOn  = "■"
	padOff = "·"
)

// RenderPad renders one light; black is drawn as a dot
func RenderPad(led grid.LED) string {
	if led.Color == [3]uint8{} {
		return padOff
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(led.Color)))
	if led.Channel == midi.ChannelFlash {
		style = style.Blink(true)
	}
	return style.Render(padOn)
}

// RenderFrame draws a full frame, top row first, with a gap before the
// scene column and under the button row the way the hardware is laid out
func RenderFrame(f *grid.Frame) string {
	var lines []string
	for row := midi.GridSize - 1; row >= 0; row-- {
		var line strings.Builder
		for col := 0; col < midi.GridSize; col++ {
			if col == midi.GridSize-1 {
				line.WriteString(" ")
			}
			line.WriteString(RenderPad(f[row][col]))
			line.WriteString(" ")
		}
		lines = append(lines, strings.TrimRight(line.String(), " "))
		if row == midi.GridSize-1 {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(grid.LED{Color: color}), name, desc)
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

package scale

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies a scale in the table
type Type int

const (
	Chromatic Type = iota
	Major
	Minor
	HarmonicMinor
	MelodicMinor
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Locrian
	MajorPentatonic
	MinorPentatonic
	Blues
	WholeTone
	Diminished
	HarmonicMajor
	Custom
	TypeCount
)

// Scale definitions - intervals from root (semitones, within one octave)
var intervals = [...][]int{
	Chromatic:       {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	Major:           {0, 2, 4, 5, 7, 9, 11},
	Minor:           {0, 2, 3, 5, 7, 8, 10},
	HarmonicMinor:   {0, 2, 3, 5, 7, 8, 11},
	MelodicMinor:    {0, 2, 3, 5, 7, 9, 11},
	Dorian:          {0, 2, 3, 5, 7, 9, 10},
	Phrygian:        {0, 1, 3, 5, 7, 8, 10},
	Lydian:          {0, 2, 4, 6, 7, 9, 11},
	Mixolydian:      {0, 2, 4, 5, 7, 9, 10},
	Locrian:         {0, 1, 3, 5, 6, 8, 10},
	MajorPentatonic: {0, 2, 4, 7, 9},
	MinorPentatonic: {0, 3, 5, 7, 10},
	Blues:           {0, 3, 5, 6, 7, 10},
	WholeTone:       {0, 2, 4, 6, 8, 10},
	Diminished:      {0, 2, 3, 5, 6, 8, 9, 11},
	HarmonicMajor:   {0, 2, 4, 5, 7, 8, 11},
}

var names = [...]string{
	Chromatic:       "Chromatic",
	Major:           "Major",
	Minor:           "Minor",
	HarmonicMinor:   "Harmonic Minor",
	MelodicMinor:    "Melodic Minor",
	Dorian:          "Dorian",
	Phrygian:        "Phrygian",
	Lydian:          "Lydian",
	Mixolydian:      "Mixolydian",
	Locrian:         "Locrian",
	MajorPentatonic: "Major Pentatonic",
	MinorPentatonic: "Minor Pentatonic",
	Blues:           "Blues",
	WholeTone:       "Whole Tone",
	Diminished:      "Diminished",
	HarmonicMajor:   "Harmonic Major",
	Custom:          "Custom",
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (t Type) String() string {
	if t < 0 || t >= TypeCount {
		return "Unknown"
	}
	return names[t]
}

// Intervals returns a copy of the interval set for a built-in scale.
// Custom and out-of-range types return nil.
func Intervals(t Type) []int {
	if t < 0 || t >= Custom {
		return nil
	}
	return append([]int(nil), intervals[t]...)
}

// NoteName returns e.g. "C#4" for 61
func NoteName(pitch int) string {
	if pitch < 0 {
		pitch = 0
	}
	return noteNames[pitch%12] + strconv.Itoa(pitch/12-1)
}

// PitchClassName returns the name of pitch%12 without an octave, e.g. "F#"
func PitchClassName(pitch int) string {
	return noteNames[((pitch%12)+12)%12]
}

var letterClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote reads a MIDI note number or a name like "C4", "f#3" or "Bb-1"
func ParseNote(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("note %d out of range", n)
		}
		return n, nil
	}
	if s == "" {
		return 0, fmt.Errorf("empty note")
	}
	class, ok := letterClass[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("bad note %q", s)
	}
	rest := s[1:]
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			class++
		} else {
			class--
		}
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad octave in %q", s)
	}
	n := (octave+1)*12 + class
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %q out of range", s)
	}
	return n, nil
}

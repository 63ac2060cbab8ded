package parques

import (
	"fmt"
	"strings"
)

type Color int

const (
	Red Color = iota
	Green
	Blue
	Yellow
	// All is a sentinel for "no specific color". It marks shared ring cells
	// and is never assigned to a player.
	All
)

// Colors is the cyclic seating order.
var Colors = []Color{Red, Green, Blue, Yellow}

var colorString = map[Color]string{
	Red:    "RED",
	Green:  "GREEN",
	Blue:   "BLUE",
	Yellow: "YELLOW",
	All:    "ALL",
}

var colorCode = map[Color]string{
	Red:    "red",
	Green:  "green",
	Blue:   "blue",
	Yellow: "yellow",
	All:    "",
}

func (c Color) String() string {
	if s, ok := colorString[c]; ok {
		return s
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// Code is the lowercase wire code. All encodes as the empty string.
func (c Color) Code() string {
	return colorCode[c]
}

// Valid reports whether c can be assigned to a player.
func (c Color) Valid() bool {
	return c >= Red && c <= Yellow
}

// Quadrant is the color's index in the seating order, which is also the number
// of quarter turns its track is rotated by.
func (c Color) Quadrant() int {
	return int(c)
}

func (c Color) Next() Color {
	if !c.Valid() {
		return c
	}
	return Colors[(int(c)+1)%len(Colors)]
}

func (c Color) Prev() Color {
	if !c.Valid() {
		return c
	}
	return Colors[(int(c)+len(Colors)-1)%len(Colors)]
}

func (c Color) MarshalText() ([]byte, error) {
	if _, ok := colorCode[c]; !ok {
		return nil, fmt.Errorf("unknown color %d", int(c))
	}
	return []byte(c.Code()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return All, nil
	}
	for color, code := range colorCode {
		if code == s {
			return color, nil
		}
	}
	return All, fmt.Errorf("unknown color %q", s)
}

package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// nrgbaFromColorCode parses a hex colour such as #FF0000 (the # is optional).
// Codes shorter than six digits are treated as the transparent background.
func nrgbaFromColorCode(colorCode string) (color.NRGBA, error) {
	colorCode = strings.ReplaceAll(colorCode, "#", "")

	// Special case the background
	if len(colorCode) < 6 {
		return color.NRGBA{0, 0, 0, 0}, nil
	}

	// Parse each channel
	r, err := strconv.ParseUint(colorCode[0:2], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%s: %w", colorCode, err)
	}
	g, err := strconv.ParseUint(colorCode[2:4], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%s: %w", colorCode, err)
	}
	b, err := strconv.ParseUint(colorCode[4:6], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%s: %w", colorCode, err)
	}

	return color.NRGBA{
		R: uint8(r),
		G: uint8(g),
		B: uint8(b),
		A: 255,
	}, nil
}

// mustColor is for the package's own colour tables, which are known good.
func mustColor(colorCode string) color.NRGBA {
	c, err := nrgbaFromColorCode(colorCode)
	if err != nil {
		panic(err)
	}

	return c
}

package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Colormap linearly interpolates between evenly spaced anchor colours.
type Colormap struct {
	Name    string
	anchors []color.NRGBA
}

// NewColormap builds a colormap from at least two hex colour codes.
func NewColormap(name string, codes ...string) (Colormap, error) {
	if len(codes) < 2 {
		return Colormap{}, fmt.Errorf("Colormap %s needs at least 2 colors, got %d", name, len(codes))
	}

	cm := Colormap{Name: name}
	for _, code := range codes {
		c, err := nrgbaFromColorCode(code)
		if err != nil {
			return Colormap{}, err
		}
		if c.A == 0 {
			return Colormap{}, fmt.Errorf("Colormap %s: %q is not a color", name, code)
		}
		cm.anchors = append(cm.anchors, c)
	}

	return cm, nil
}

var (
	Gray = Colormap{Name: "gray", anchors: []color.NRGBA{mustColor("#000000"), mustColor("#ffffff")}}

	// Reds is the 9-class ColorBrewer sequential red palette.
	Reds = Colormap{Name: "reds", anchors: []color.NRGBA{
		mustColor("#fff5f0"), mustColor("#fee0d2"), mustColor("#fcbba1"),
		mustColor("#fc9272"), mustColor("#fb6a4a"), mustColor("#ef3b2c"),
		mustColor("#cb181d"), mustColor("#a50f15"), mustColor("#67000d"),
	}}
)

// ColormapByName looks up one of the built in colormaps.
func ColormapByName(name string) (Colormap, error) {
	switch strings.ToLower(name) {
	case "gray", "grey":
		return Gray, nil
	case "reds":
		return Reds, nil
	}

	return Colormap{}, fmt.Errorf("Unknown colormap %q (expected gray or reds)", name)
}

// At maps t, clamped to [0, 1], onto the colormap.
func (c Colormap) At(t float64) color.NRGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	pos := t * float64(len(c.anchors)-1)
	lo := int(math.Floor(pos))
	if lo >= len(c.anchors)-1 {
		return c.anchors[len(c.anchors)-1]
	}
	frac := pos - float64(lo)

	a, b := c.anchors[lo], c.anchors[lo+1]

	return color.NRGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}
}

func lerp(a, b uint8, frac float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*frac))
}

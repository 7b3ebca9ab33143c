// Package synth turns a numeric seed into a fully determined vector image
// description and renders it as SVG. Nothing here reads ambient state: the
// same seed always produces a byte-identical result.
package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/prng"
)

// Canvas dimensions, in user units.
const (
	Width  = 200
	Height = 200
)

// BlendScreen is the only blend mode the generator emits.
const BlendScreen = "screen"

// Kind selects the noise primitive feeding the displacement filter.
type Kind string

const (
	KindFractalNoise Kind = "fractalNoise"
	KindTurbulence   Kind = "turbulence"
)

// HSL is a color in hue/saturation/lightness, with S and L as percentages.
type HSL struct {
	H float64 `json:"h"`
	S int     `json:"s"`
	L int     `json:"l"`
}

// String renders the color in CSS notation.
func (c HSL) String() string {
	return "hsl(" + formatNumber(c.H) + ", " + strconv.Itoa(c.S) + "%, " + strconv.Itoa(c.L) + "%)"
}

// Hex converts the color to an sRGB hex triplet.
func (c HSL) Hex() string {
	return colorful.Hsl(c.H, float64(c.S)/100, float64(c.L)/100).Clamped().Hex()
}

// Description is everything a renderer needs to draw one canvas.
type Description struct {
	Seed          uint64  `json:"seed"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	PrimaryHue    int     `json:"primary_hue"`
	SecondaryHue  float64 `json:"secondary_hue"`
	Background    HSL     `json:"background"`
	Foreground    HSL     `json:"foreground"`
	Kind          Kind    `json:"kind"`
	BaseFrequency float64 `json:"base_frequency"`
	Octaves       int     `json:"octaves"`
	Scale         int     `json:"scale"`
	Blend         string  `json:"blend"`
}

// Synthesize derives a description from seed. Draw order is fixed: primary
// hue, secondary hue offset, kind, base frequency, octaves, scale.
func Synthesize(seed uint64) Description {
	r := prng.New(seed)

	primary := int(math.Floor(r.Float64() * 360))
	secondary := math.Mod(float64(primary)+120+r.Float64()*120, 360)

	kind := KindTurbulence
	if r.Float64() > 0.5 {
		kind = KindFractalNoise
	}

	freq, _ := strconv.ParseFloat(strconv.FormatFloat(0.01+r.Float64()*0.05, 'f', 4, 64), 64)
	octaves := 2 + int(math.Floor(r.Float64()*4))
	scale := 10 + int(math.Floor(r.Float64()*40))

	return Description{
		Seed:          seed,
		Width:         Width,
		Height:        Height,
		PrimaryHue:    primary,
		SecondaryHue:  secondary,
		Background:    HSL{H: float64(primary), S: 70, L: 10},
		Foreground:    HSL{H: secondary, S: 80, L: 60},
		Kind:          kind,
		BaseFrequency: freq,
		Octaves:       octaves,
		Scale:         scale,
		Blend:         BlendScreen,
	}
}

// ForSlot synthesizes the procedural image occupying slot.
func ForSlot(slot address.Slot) Description {
	return Synthesize(slot.Seed())
}

// SVG renders the description as a standalone SVG document.
func (d Description) SVG() string {
	var b strings.Builder
	filterID := "filter-" + strconv.FormatUint(d.Seed, 10)

	fmt.Fprintf(&b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, d.Width, d.Height, d.Width, d.Height)
	b.WriteString("\n  <defs>\n")
	fmt.Fprintf(&b, `    <filter id="%s">`, filterID)
	b.WriteString("\n")
	fmt.Fprintf(&b, `      <feTurbulence type="%s" baseFrequency="%s" numOctaves="%d" result="noise" />`,
		d.Kind, strconv.FormatFloat(d.BaseFrequency, 'f', 4, 64), d.Octaves)
	b.WriteString("\n")
	fmt.Fprintf(&b, `      <feDisplacementMap in="SourceGraphic" in2="noise" scale="%d" />`, d.Scale)
	b.WriteString("\n    </filter>\n  </defs>\n")
	fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s" />`, d.Background)
	b.WriteString("\n")
	fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s" filter="url(#%s)" style="mix-blend-mode: %s;" />`,
		d.Foreground, filterID, d.Blend)
	b.WriteString("\n</svg>\n")
	return b.String()
}

// formatNumber prints f the shortest way that round-trips, without an
// exponent for the magnitudes hues take.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package thematic

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DarknessFactor is the share of each channel removed by Interpolate at ratio 1.
const DarknessFactor = 0.3

// ErrMalformedColor is returned when a color string cannot be decoded.
var ErrMalformedColor = errors.New("malformed color")

var (
	// Fallback is the no-data color returned by resolvers for unclassifiable values.
	Fallback = Color{R: 0xcc, G: 0xcc, B: 0xcc, A: 1}

	// Gray replaces a base color that cannot be decoded.
	Gray = Color{R: 100, G: 100, B: 100, A: 1}

	// Anchor is the light neutral start of every numeric ramp.
	Anchor = Color{R: 0xf2, G: 0xf0, B: 0xf7, A: 1}
)

var (
	hexRegex = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	cssRegex = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*([0-9]*\.?[0-9]+)\s*)?\)$`)
)

// Color is an sRGB color with a straight (not premultiplied) alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	alpha := clamp01(c.A)
	a = uint32(math.Round(alpha * 0xffff))
	r = uint32(c.R) * 0x101 * a / 0xffff
	g = uint32(c.G) * 0x101 * a / 0xffff
	b = uint32(c.B) * 0x101 * a / 0xffff
	return r, g, b, a
}

// Hex returns the #rrggbb form, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns rgb(...) for opaque colors and rgba(...) otherwise.
func (c Color) CSS() string {
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(clamp01(c.A), 'f', -1, 64))
}

func (c Color) String() string {
	return c.CSS()
}

// WithOpacity returns c with alpha replaced by a, clamped to [0, 1].
func (c Color) WithOpacity(a float64) Color {
	c.A = clamp01(a)
	return c
}

// MarshalText encodes the color in its CSS form.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.CSS()), nil
}

// UnmarshalText accepts hex and rgb()/rgba() forms.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseHex decodes #rgb, #rrggbb or #rrggbbaa. The leading # is optional.
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	m := hexRegex.FindStringSubmatch(s)
	if m == nil {
		return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
	}

	digits := m[1]
	if len(digits) == 3 {
		digits = string([]byte{
			digits[0], digits[0],
			digits[1], digits[1],
			digits[2], digits[2],
		})
	}

	alpha := 1.0
	if len(digits) == 8 {
		a, err := strconv.ParseUint(digits[6:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
		}
		alpha = float64(a) / 255
		digits = digits[:6]
	}

	cf, err := colorful.Hex("#" + digits)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrMalformedColor, s, err)
	}

	return fromColorful(cf, alpha), nil
}

// ParseColor decodes hex, rgb(r, g, b) and rgba(r, g, b, a) strings.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(s), "rgb") {
		return ParseHex(s)
	}

	m := cssRegex.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(m[i+1])
		if err != nil || v > 255 {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
		}
		ch[i] = uint8(v)
	}

	alpha := 1.0
	if m[4] != "" {
		a, err := strconv.ParseFloat(m[4], 64)
		if err != nil || a > 1 {
			return Color{}, fmt.Errorf("%w: %q", ErrMalformedColor, s)
		}
		alpha = a
	}

	return Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

// HexOrGray decodes a hex color and degrades to Gray when it is malformed.
func HexOrGray(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		return Gray
	}
	return c
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func fromColorful(cf colorful.Color, alpha float64) Color {
	r, g, b := cf.Clamped().RGB255()
	return Color{R: r, G: g, B: b, A: clamp01(alpha)}
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 1
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

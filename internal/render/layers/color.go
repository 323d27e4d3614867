package layers

import (
	"fmt"
	"strings"
)

type rgba [4]byte

// parseHexColor accepts "#rgb" and "#rrggbb" notation.
func parseHexColor(value string) (rgba, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if !strings.HasPrefix(value, "#") {
		return rgba{}, fmt.Errorf("color %q must start with #", value)
	}
	digits := value[1:]
	var r, g, b byte
	var err error
	switch len(digits) {
	case 3:
		r, err = hexByte(digits[0:1] + digits[0:1])
		if err == nil {
			g, err = hexByte(digits[1:2] + digits[1:2])
		}
		if err == nil {
			b, err = hexByte(digits[2:3] + digits[2:3])
		}
	case 6:
		r, err = hexByte(digits[0:2])
		if err == nil {
			g, err = hexByte(digits[2:4])
		}
		if err == nil {
			b, err = hexByte(digits[4:6])
		}
	default:
		return rgba{}, fmt.Errorf("color %q must have 3 or 6 hex digits", value)
	}
	if err != nil {
		return rgba{}, fmt.Errorf("color %q: %w", value, err)
	}
	return rgba{r, g, b, 0xFF}, nil
}

func hexByte(pair string) (byte, error) {
	var out byte
	for i := 0; i < 2; i++ {
		c := pair[i]
		var nibble byte
		switch {
		case c >= '0' && c <= '9':
			nibble = c - '0'
		case c >= 'a' && c <= 'f':
			nibble = c - 'a' + 10
		default:
			return 0, fmt.Errorf("invalid hex digit %q", string(c))
		}
		out = out<<4 | nibble
	}
	return out, nil
}

// lerpColor mixes two colors at t in [0,1].
func lerpColor(a, b rgba, t float64) rgba {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	var out rgba
	for i := 0; i < 4; i++ {
		out[i] = byte(float64(a[i]) + (float64(b[i])-float64(a[i]))*t)
	}
	return out
}

package chrome

import (
	"fmt"
	"strconv"
	"strings"
)

// CSS reference pixel density used when converting px lengths for print.
const pixelsPerInch = 96.0

// lengthToInches parses a CSS-style length ("1cm", "0.5in", "96px", "12mm")
// into inches. A bare number is treated as pixels, matching the behavior of
// the Playwright service this replaces.
func lengthToInches(s string) (float64, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	if v == "" {
		return 0, fmt.Errorf("empty length")
	}

	unit := "px"
	num := v
	for _, u := range []string{"px", "in", "cm", "mm"} {
		if strings.HasSuffix(v, u) {
			unit = u
			num = strings.TrimSpace(strings.TrimSuffix(v, u))
			break
		}
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse length %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("length %q is negative", s)
	}

	switch unit {
	case "px":
		return f / pixelsPerInch, nil
	case "in":
		return f, nil
	case "cm":
		return f / 2.54, nil
	case "mm":
		return f / 25.4, nil
	}
	return 0, fmt.Errorf("unsupported length unit in %q", s)
}

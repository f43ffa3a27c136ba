package userboard

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAgeBound converts a form value into an optional bound. Blank means unset.
func ParseAgeBound(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("userboard: age bound %q is not a whole number", value)
	}
	return &n, nil
}

// ParseAgeBounds parses both bounds. Each bound that fails to parse is left unset
// and the first error is returned alongside the parsed values.
func ParseAgeBounds(minValue, maxValue string) (*int, *int, error) {
	minBound, minErr := ParseAgeBound(minValue)
	maxBound, maxErr := ParseAgeBound(maxValue)
	if minErr != nil {
		return minBound, maxBound, minErr
	}
	return minBound, maxBound, maxErr
}

func formatBound(bound *int) string {
	if bound == nil {
		return ""
	}
	return strconv.Itoa(*bound)
}

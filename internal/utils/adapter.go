package utils

import (
	"fmt"
	"strconv"
)

// ParseID parses a positive database id from a path or query value.
func ParseID(s string) (uint, error) {
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	val, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if val == 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return uint(val), nil
}

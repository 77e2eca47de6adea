package config

import (
	"strconv"
	"strings"

	apperrors "github.com/agbru/amixbench/internal/errors"
)

// MaxSize caps n so that an n×n float64 matrix stays far below memory
// limits (about 800 MB at the cap).
const MaxSize = 10_000

// SizeList is a flag.Value holding comma-separated problem sizes. Each Set
// replaces the list; duplicates are dropped keeping the first occurrence.
type SizeList []int

func (s *SizeList) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(*s))
	for i, n := range *s {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Set parses a list such as "50,100".
func (s *SizeList) Set(value string) error {
	var sizes SizeList
	seen := make(map[int]bool)
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return apperrors.NewConfigError("invalid size %q", field)
		}
		if n < 0 || n > MaxSize {
			return apperrors.NewConfigError("size %d out of range [0, %d]", n, MaxSize)
		}
		if !seen[n] {
			seen[n] = true
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return apperrors.NewConfigError("empty size list %q", value)
	}
	*s = sizes
	return nil
}

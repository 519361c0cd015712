package postgres

import (
	"strconv"
	"strings"
)

// parseLeadTimes decodes a postgres integer-array literal like "{30,60}"
// into a slice of minutes. Malformed elements are dropped rather than
// failing the whole profile load; the domain layer substitutes defaults
// when the result is empty.
func parseLeadTimes(raw []byte) []int {
	trimmed := strings.Trim(string(raw), "{}")
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, ",")
	leads := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		leads = append(leads, n)
	}
	if len(leads) == 0 {
		return nil
	}
	return leads
}

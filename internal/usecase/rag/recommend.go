package rag

import (
	"strconv"
	"strings"
)

// parseSelection extracts the "NUMBER:" and "REASON:" lines from a model
// response. The returned index is 0-based. ok is false when no usable 1-based
// number in [1, n] could be parsed; the caller then falls back to rank 0.
func parseSelection(text string, n int) (idx int, reason string, ok bool) {
	idx = -1
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "NUMBER:"):
			raw := strings.TrimSpace(line[len("NUMBER:"):])
			// Tolerate trailing prose after the number.
			if fields := strings.Fields(raw); len(fields) > 0 {
				raw = strings.Trim(fields[0], ".,")
			}
			if v, err := strconv.Atoi(raw); err == nil {
				idx = v - 1
			}
		case strings.HasPrefix(upper, "REASON:"):
			reason = strings.TrimSpace(line[len("REASON:"):])
		}
	}

	if idx < 0 || idx >= n {
		return 0, reason, false
	}
	return idx, reason, true
}

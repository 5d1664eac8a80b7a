package utils

import "strconv"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParsePagination normalizes limit/offset query values.
func ParsePagination(limitStr, offsetStr string) (limit, offset int) {
	limit = DefaultLimit
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name       string
		limit      string
		offset     string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", "", DefaultLimit, 0},
		{"explicit", "10", "40", 10, 40},
		{"capped", "500", "0", MaxLimit, 0},
		{"garbage", "abc", "-3", DefaultLimit, 0},
		{"zero limit ignored", "0", "", DefaultLimit, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := ParsePagination(tc.limit, tc.offset)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
		})
	}
}

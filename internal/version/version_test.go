package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		commit string
		want   string
	}{
		{"prod", "prod", "", "rift " + Version},
		{"dev", "dev", "", "rift " + DevVersion},
		{"commit is shortened", "prod", "0123456789abcdef", "rift " + Version + " (0123456)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := Commit
			Commit = tt.commit
			defer func() { Commit = old }()
			assert.Equal(t, tt.want, String(tt.mode))
		})
	}
}

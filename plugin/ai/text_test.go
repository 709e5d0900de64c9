package ai

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "abc", maxLen: 5, want: "abc"},
		{name: "exact", input: "abcde", maxLen: 5, want: "abcde"},
		{name: "ascii", input: "abcdef", maxLen: 2, want: "ab..."},
		{name: "cut inside rune", input: "café au lait", maxLen: 4, want: "caf..."},
		{name: "cut after rune", input: "café au lait", maxLen: 5, want: "café..."},
		{name: "cjk", input: "会议纪要", maxLen: 4, want: "会..."},
		{name: "emoji", input: "🎵🎵", maxLen: 3, want: "..."},
		{name: "zero", input: "abc", maxLen: 0, want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

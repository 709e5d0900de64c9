package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/rift/plugin/ai/session"
)

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		pending bool
		wantOK  bool
		want    ordinalRef
	}{
		{
			name:   "hash number with noun",
			prompt: "open file #2",
			wantOK: true,
			want:   ordinalRef{verb: "open", noun: "file", n: 2},
		},
		{
			name:   "hash number without noun",
			prompt: "#3",
			wantOK: true,
			want:   ordinalRef{n: 3},
		},
		{
			name:    "bare number while choosing",
			prompt:  "2",
			pending: true,
			wantOK:  true,
			want:    ordinalRef{n: 2},
		},
		{
			name:   "bare number without a pending choice",
			prompt: "2",
		},
		{
			name:   "word ordinal with verb",
			prompt: "open the second one",
			wantOK: true,
			want:   ordinalRef{verb: "open", n: 2},
		},
		{
			name:    "last resolves to listing size",
			prompt:  "the last one",
			pending: true,
			wantOK:  true,
			want:    ordinalRef{n: 4},
		},
		{
			name:   "word ordinal without verb or pending choice",
			prompt: "second",
		},
		{
			name:   "share with recipient tail",
			prompt: "share file #1 with ana@example.com",
			wantOK: true,
			want:   ordinalRef{verb: "share", noun: "file", n: 1, rest: "with ana@example.com"},
		},
		{
			name:   "open with trailing words is not a reference",
			prompt: "open file #1 and email it to bob",
		},
		{
			name:   "plain sentence",
			prompt: "what's on my calendar today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseOrdinal(tt.prompt, 4, tt.pending)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestOrdinalRefAccepts(t *testing.T) {
	tests := []struct {
		name string
		ref  ordinalRef
		kind session.ResultKind
		want bool
	}{
		{"open file from files", ordinalRef{verb: "open", noun: "file"}, session.KindFiles, true},
		{"open document from files", ordinalRef{verb: "open", noun: "document"}, session.KindFiles, true},
		{"email noun on files", ordinalRef{verb: "open", noun: "email"}, session.KindFiles, false},
		{"share doc", ordinalRef{verb: "share"}, session.KindDocs, true},
		{"share email", ordinalRef{verb: "share"}, session.KindEmails, false},
		{"send never applies", ordinalRef{verb: "send"}, session.KindFiles, false},
		{"play playlist", ordinalRef{verb: "play"}, session.KindPlaylists, true},
		{"play file", ordinalRef{verb: "play"}, session.KindFiles, false},
		{"bare number anywhere", ordinalRef{}, session.KindEmails, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.accepts(tt.kind))
		})
	}
}

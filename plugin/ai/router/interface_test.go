package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		input  string
		want   Intent
		wantOK bool
	}{
		{"EMAIL_DRAFT", IntentEmailDraft, true},
		{"  calendar_create \n", IntentCalendarCreate, true},
		{"`SPOTIFY_PLAY`", IntentSpotifyPlay, true},
		{"\"CHAT\".", IntentChat, true},
		{"DRIVE_SEARCH because the user wants files", IntentDriveSearch, true},
		{"MEMO_SEARCH", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseIntent(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllIntents(t *testing.T) {
	all := AllIntents()
	assert.Len(t, all, 23)
	assert.Equal(t, IntentChat, all[len(all)-1])

	seen := make(map[Intent]bool)
	for _, intent := range all {
		assert.False(t, seen[intent], "duplicate intent %s", intent)
		seen[intent] = true
		parsed, ok := ParseIntent(string(intent))
		assert.True(t, ok)
		assert.Equal(t, intent, parsed)
	}
}

func TestIntentDomain(t *testing.T) {
	assert.Equal(t, "email", IntentEmailEdit.Domain())
	assert.Equal(t, "calendar", IntentCalendarDelete.Domain())
	assert.Equal(t, "drive", IntentDriveShare.Domain())
	assert.Equal(t, "docs", IntentDocsUpdate.Domain())
	assert.Equal(t, "meet", IntentMeetCreate.Domain())
	assert.Equal(t, "spotify", IntentSpotifyPlaylist.Domain())
	assert.Equal(t, "chat", IntentChat.Domain())
}

func TestMockRouterService(t *testing.T) {
	ctx := context.Background()
	svc := NewMockRouterService()
	svc.IntentOverrides["hello there"] = IntentMeetShare

	got := svc.ClassifyIntent(ctx, "hello there")
	assert.Equal(t, IntentMeetShare, got.Intent)

	got = svc.ClassifyIntent(ctx, "do I have any unread emails")
	assert.Equal(t, IntentEmailQuery, got.Intent)
	assert.Equal(t, SourceRule, got.Source)
	assert.Equal(t, 2, svc.Calls())
}

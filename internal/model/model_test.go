package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squat() ExerciseCard {
	return ExerciseCard{
		ID:        2,
		Title:     "Squat",
		Level:     "Beginner",
		Equipment: "Bodyweight",
		TimeReq:   "45min",
		Tags:      []string{"gym", "Leg Training", "Bodyweight"},
	}
}

func TestExerciseCardMatches(t *testing.T) {
	card := squat()

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"SQU", true},        // title, case-insensitive
		{"beginner", true},   // level
		{"bodyweight", true}, // equipment
		{"leg train", true},  // tag substring
		{"deadlift", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, card.Matches(tt.query))
		})
	}
}

func TestExerciseCardInCategory(t *testing.T) {
	card := squat()

	assert.True(t, card.InCategory(""))
	assert.True(t, card.InCategory("Beginner"))
	assert.True(t, card.InCategory("Leg Training"))
	assert.False(t, card.InCategory("leg training"), "category match is exact")
	assert.False(t, card.InCategory("Advanced"))
}

func TestExerciseCardHasAnyTag(t *testing.T) {
	card := squat()

	assert.True(t, card.HasAnyTag([]string{"home", "gym"}))
	assert.False(t, card.HasAnyTag([]string{"home"}))
	assert.False(t, card.HasAnyTag(nil))
}

func TestFavoriteEntryJSONIsFlat(t *testing.T) {
	entry := FavoriteEntry{
		ExerciseCard: squat(),
		AddedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 2, raw["id"])
	assert.Equal(t, "Squat", raw["title"])
	assert.Equal(t, "2025-01-02T03:04:05Z", raw["addedAt"])
	assert.NotContains(t, raw, "ExerciseCard")
}

func TestLegacyUserDecodes(t *testing.T) {
	// Shape of a record written by the old browser app.
	legacy := `{
		"id": "user_1700000000000_abc123def",
		"username": "alice",
		"email": "alice@x.com",
		"password": "=QVTMF1XTRFUS9FWYhVXNVFV",
		"phone": "",
		"createdAt": "2024-11-14T22:13:20.000Z",
		"isActive": true,
		"profile": {
			"avatar": null,
			"displayName": "alice",
			"bio": "",
			"preferences": {"notifications": true, "newsletter": true}
		}
	}`

	var u User
	require.NoError(t, json.NewDecoder(strings.NewReader(legacy)).Decode(&u))
	assert.Equal(t, "alice", u.Username)
	assert.Nil(t, u.Profile.Avatar)
	assert.True(t, u.LastLoginAt.IsZero())
	assert.Equal(t, ThemeAuto, u.Profile.Preferences.EffectiveTheme())
	assert.True(t, u.Matches("ALICE@X.COM"))
}

func TestPublicOmitsPassword(t *testing.T) {
	u := User{ID: "user_1", Username: "bob", Password: "$2a$04$secret"}

	data, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"password"`)
	assert.NotContains(t, string(data), "secret")
}

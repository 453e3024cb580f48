package model

import "strings"

// Exercise is one item of the remote catalog, as returned by GET /exercises.
// Tags only appear in the embedded seed catalog; the remote API has a single
// category instead.
type Exercise struct {
	ID          int      `json:"id"          yaml:"id"`
	Title       string   `json:"title"       yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category"    yaml:"category"`
	ImageURL    string   `json:"image_url"   yaml:"image_url"`
	VideoURL    string   `json:"video_url"   yaml:"video_url"`
	Level       string   `json:"level"       yaml:"level"`
	Duration    string   `json:"duration"    yaml:"duration"`
	Equipment   string   `json:"equipment"   yaml:"equipment"`
	BodyPart    string   `json:"body_part"   yaml:"body_part"`
	Difficulty  string   `json:"difficulty"  yaml:"difficulty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
}

// ExerciseCard is the display snapshot of an exercise: what a catalog card
// shows and what a favorite remembers. Media URLs are already resolved.
type ExerciseCard struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Level           string   `json:"level"`
	Equipment       string   `json:"equipment"`
	TimeReq         string   `json:"timeReq"`
	Tags            []string `json:"tags"`
	ImageURL        string   `json:"imageUrl"`
	VideoURL        string   `json:"videoUrl"`
	IsYouTube       bool     `json:"isYouTube"`
	YouTubeEmbedURL string   `json:"youtubeEmbedUrl"`
}

// Card returns the card itself. FavoriteEntry embeds ExerciseCard and gets
// this method promoted, so list helpers can be written once for both.
func (c ExerciseCard) Card() ExerciseCard { return c }

// Matches reports whether query is a case-insensitive substring of the
// title, level, equipment or any tag. An empty query matches everything.
func (c ExerciseCard) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Level), q) ||
		strings.Contains(strings.ToLower(c.Equipment), q) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// InCategory reports whether category equals one of the tags or the level
// exactly. An empty category matches everything.
func (c ExerciseCard) InCategory(category string) bool {
	if category == "" || c.Level == category {
		return true
	}
	for _, tag := range c.Tags {
		if tag == category {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the card carries at least one of tags.
func (c ExerciseCard) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, tag := range c.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

package catalog

import (
	"net/url"
	"strings"

	"github.com/sakif/maxsports/internal/model"
)

// MEDIA URLS:
// The API returns image_url / video_url either absolute or relative to the
// API's origin ("/uploads/squat.png", "uploads/squat.png"). Relative paths
// are resolved against scheme://host of the base URL, not against the /api
// prefix.
//
// A video hosted on YouTube cannot play in a <video> element, so YouTube
// links are rewritten to their embed form:
//
//	https://www.youtube.com/watch?v=ID   ┐
//	https://youtu.be/ID                  ├─▶ https://www.youtube.com/embed/ID
//	https://www.youtube.com/shorts/ID    │
//	https://www.youtube.com/embed/ID     ┘

const youTubeEmbedPrefix = "https://www.youtube.com/embed/"

// ResolveMedia makes ref absolute against origin. Empty stays empty;
// absolute and protocol-relative URLs and data URIs pass through.
func ResolveMedia(origin *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || origin == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || strings.HasPrefix(ref, "//") {
		return ref
	}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return (&url.URL{Scheme: origin.Scheme, Host: origin.Host}).ResolveReference(u).String()
}

// YouTubeID returns the video id of a YouTube link, or "" when raw is not
// one.
func YouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtu.be":
		return firstSegment(u.Path)
	case "youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		for _, prefix := range []string{"/shorts/", "/embed/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				return firstSegment(rest)
			}
		}
	}
	return ""
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// ToCard builds the display card of e with media resolved against origin.
// A remote item without tags gets its category as its only tag, so the
// category filter and the category list cover it.
func ToCard(origin *url.URL, e model.Exercise) model.ExerciseCard {
	tags := e.Tags
	if len(tags) == 0 && e.Category != "" {
		tags = []string{e.Category}
	}
	if tags == nil {
		tags = []string{}
	}

	c := model.ExerciseCard{
		ID:        e.ID,
		Title:     e.Title,
		Level:     e.Level,
		Equipment: e.Equipment,
		TimeReq:   e.Duration,
		Tags:      tags,
		ImageURL:  ResolveMedia(origin, e.ImageURL),
		VideoURL:  ResolveMedia(origin, e.VideoURL),
	}
	if id := YouTubeID(c.VideoURL); id != "" {
		c.IsYouTube = true
		c.YouTubeEmbedURL = youTubeEmbedPrefix + id
	}
	return c
}

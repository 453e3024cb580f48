package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sakif/maxsports/internal/listing"
	"github.com/sakif/maxsports/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedSource serves the catalog embedded in the binary. It is the offline
// Source: search, category and sort are applied locally the way the remote
// API applies them.
type SeedSource struct {
	items []model.Exercise
}

var _ Source = (*SeedSource)(nil)

// NewSeedSource parses the embedded catalog.
func NewSeedSource() (*SeedSource, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed parses a catalog document:
//
//	exercises:
//	  - id: 1
//	    title: Squat
//	    tags: [gym, Leg Training]
func ParseSeed(data []byte) (*SeedSource, error) {
	var doc struct {
		Exercises []model.Exercise `yaml:"exercises"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing seed: %w", err)
	}

	seen := make(map[int]bool, len(doc.Exercises))
	for _, e := range doc.Exercises {
		if e.ID <= 0 {
			return nil, fmt.Errorf("catalog: seed exercise %q has no id", e.Title)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("catalog: duplicate seed id %d", e.ID)
		}
		seen[e.ID] = true
	}
	return &SeedSource{items: doc.Exercises}, nil
}

// Origin is nil: seed media paths are kept as written.
func (s *SeedSource) Origin() *url.URL { return nil }

// Len is the number of exercises in the catalog.
func (s *SeedSource) Len() int { return len(s.items) }

// ListExercises filters, sorts and pages the seed catalog.
func (s *SeedSource) ListExercises(_ context.Context, p Params) (*ExercisePage, error) {
	matched := make([]model.Exercise, 0, len(s.items))
	for _, e := range s.items {
		c := ToCard(nil, e)
		if c.Matches(p.Search) && (c.InCategory(p.Category) || strings.EqualFold(e.Category, p.Category)) {
			matched = append(matched, e)
		}
	}

	cards := make([]exerciseItem, len(matched))
	for i, e := range matched {
		cards[i] = exerciseItem{e}
	}
	listing.SortItems(cards, p.Sort, p.Order)

	page := max(p.Page, 1)
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	pageItems, _ := listing.Page(cards, page, limit)

	out := &ExercisePage{
		Items:      make([]model.Exercise, 0, len(pageItems)),
		Pagination: Pagination{Page: page, Limit: limit, Total: len(cards)},
	}
	for _, it := range pageItems {
		out.Items = append(out.Items, it.Exercise)
	}
	return out, nil
}

// exerciseItem lets the listing rules sort raw exercises.
type exerciseItem struct {
	model.Exercise
}

func (e exerciseItem) Card() model.ExerciseCard { return ToCard(nil, e.Exercise) }

package recs

import (
	"sort"
)

// ScoredBook is one scored candidate, identified by the book's uuid string.
type ScoredBook struct {
	BookID string
	Score  float64
}

// ContentRecommender scores every candidate book as the sum of the user's tag
// weights over the book's tags. Books the user has already borrowed are
// excluded; zero and negative totals are dropped because an absent tag weight
// is no signal at all.
type ContentRecommender struct{}

func (ContentRecommender) Name() string { return "content" }

// Recommend iterates books in ascending id order so equal scores keep a
// deterministic relative order under the stable sort.
func (ContentRecommender) Recommend(prefs map[string]float64, bookTags map[string][]string, exclude map[string]bool, limit int) []ScoredBook {
	bookIDs := make([]string, 0, len(bookTags))
	for id := range bookTags {
		bookIDs = append(bookIDs, id)
	}
	sort.Strings(bookIDs)

	scores := make([]ScoredBook, 0, len(bookIDs))
	for _, id := range bookIDs {
		if exclude[id] {
			continue
		}
		var score float64
		for _, tag := range bookTags[id] {
			score += prefs[tag]
		}
		if score > 0 {
			scores = append(scores, ScoredBook{BookID: id, Score: score})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

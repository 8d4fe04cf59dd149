package recs

import (
	"testing"
)

func TestContentRecommender_ScoresByTagOverlap(t *testing.T) {
	prefs := map[string]float64{"scifi": 1.0}
	bookTags := map[string][]string{
		"b1": {"scifi"},
		"b2": {"scifi"},
		"b3": {"romance"},
	}
	exclude := map[string]bool{"b1": true}

	got := ContentRecommender{}.Recommend(prefs, bookTags, exclude, 10)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 result, got %d: %v", len(got), got)
	}
	if got[0].BookID != "b2" || got[0].Score != 1.0 {
		t.Fatalf("expected b2 with score 1.0, got %+v", got[0])
	}
}

func TestContentRecommender_DropsNonPositiveScores(t *testing.T) {
	prefs := map[string]float64{"scifi": 2.0}
	bookTags := map[string][]string{
		"b1": {"romance"},
		"b2": {},
	}
	got := ContentRecommender{}.Recommend(prefs, bookTags, map[string]bool{}, 10)
	if len(got) != 0 {
		t.Fatalf("expected no results for zero-score books, got %v", got)
	}
}

func TestContentRecommender_SortsDescendingAndTruncates(t *testing.T) {
	prefs := map[string]float64{"a": 1.0, "b": 2.0}
	bookTags := map[string][]string{
		"b1": {"a"},
		"b2": {"a", "b"},
		"b3": {"b"},
	}
	got := ContentRecommender{}.Recommend(prefs, bookTags, map[string]bool{}, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].BookID != "b2" || got[1].BookID != "b3" {
		t.Fatalf("expected [b2 b3], got %+v", got)
	}
	if got[0].Score < got[1].Score {
		t.Fatalf("scores not descending: %+v", got)
	}
}

func TestContentRecommender_TieBreakIsAscendingBookID(t *testing.T) {
	prefs := map[string]float64{"a": 1.0}
	bookTags := map[string][]string{
		"b-z": {"a"},
		"b-a": {"a"},
		"b-m": {"a"},
	}
	got := ContentRecommender{}.Recommend(prefs, bookTags, map[string]bool{}, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	want := []string{"b-a", "b-m", "b-z"}
	for i, w := range want {
		if got[i].BookID != w {
			t.Fatalf("tie order wrong at %d: got %s want %s (%+v)", i, got[i].BookID, w, got)
		}
	}
}

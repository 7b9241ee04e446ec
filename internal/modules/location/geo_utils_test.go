package location

import (
	"testing"

	"entregas/internal/types"
)

func TestSortByDistance_Matches(t *testing.T) {
	matches := []Match{
		{Deliverer: Deliverer{ID: types.ID("c")}, Distance: 5.0},
		{Deliverer: Deliverer{ID: types.ID("a")}, Distance: 1.0},
		{Deliverer: Deliverer{ID: types.ID("b")}, Distance: 3.0},
	}

	sortByDistance(matches, func(m Match) float64 { return m.Distance })

	if matches[0].Deliverer.ID != "a" || matches[1].Deliverer.ID != "b" || matches[2].Deliverer.ID != "c" {
		t.Errorf("unexpected sort order: %v", matches)
	}
}

func TestSortByDistance_StableOnTies(t *testing.T) {
	matches := []Match{
		{Deliverer: Deliverer{ID: types.ID("first")}, Distance: 2.0},
		{Deliverer: Deliverer{ID: types.ID("closer")}, Distance: 1.0},
		{Deliverer: Deliverer{ID: types.ID("second")}, Distance: 2.0},
	}

	sortByDistance(matches, func(m Match) float64 { return m.Distance })

	if matches[1].Deliverer.ID != "first" || matches[2].Deliverer.ID != "second" {
		t.Errorf("ties must keep input order: %v", matches)
	}
}

func TestSortByDistance_Empty(t *testing.T) {
	var matches []Match
	sortByDistance(matches, func(m Match) float64 { return m.Distance })
}

package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pm "tripweave/internal/models/plan_models"
)

func normalized(id, memberID string, wish float64) pm.NormalizedPlace {
	return pm.NormalizedPlace{
		CandidatePlace: place(id, memberID, 3),
		NormalizedWish: wish,
	}
}

func normalizedAnchor(id, role string) pm.NormalizedPlace {
	return pm.NormalizedPlace{CandidatePlace: anchor(id, role)}
}

func TestSelect_RespectsBudgetExcludingAnchors(t *testing.T) {
	s := NewSelector(zerolog.Nop())

	settings := pm.DefaultSettings()
	settings.MaxPlaces = 3

	places := []pm.NormalizedPlace{normalizedAnchor("a1", "departure"), normalizedAnchor("a2", "destination")}
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		places = append(places, normalized(id, "m1", 0.5))
	}

	res, _, err := s.Select(context.Background(), places, []pm.Member{member("m1")}, settings)
	require.NoError(t, err)

	nonAnchors := 0
	anchors := 0
	for _, p := range res.Places {
		if p.IsAnchor {
			anchors++
		} else {
			nonAnchors++
		}
	}
	assert.Equal(t, 3, nonAnchors)
	assert.Equal(t, 2, anchors, "anchors are force-included regardless of budget")
}

func TestSelect_Idempotent(t *testing.T) {
	s := NewSelector(zerolog.Nop())
	settings := pm.DefaultSettings()
	settings.MaxPlaces = 4

	places := []pm.NormalizedPlace{
		normalized("p1", "m1", 0.9),
		normalized("p2", "m2", 0.9),
		normalized("p3", "m1", 0.4),
		normalized("p4", "m2", 0.7),
		normalized("p5", "m1", 0.6),
	}
	members := []pm.Member{member("m1"), member("m2")}

	first, _, err := s.Select(context.Background(), places, members, settings)
	require.NoError(t, err)
	second, _, err := s.Select(context.Background(), places, members, settings)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSelect_FairnessFavorsUnderRepresentedMember(t *testing.T) {
	s := NewSelector(zerolog.Nop())

	settings := pm.DefaultSettings()
	settings.FairnessWeight = 0.8

	// Member A's single high-value place vs member B's four diluted ones.
	places := []pm.NormalizedPlace{normalized("a-place", "memberA", 1.0)}
	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		places = append(places, normalized(id, "memberB", 0.25))
	}

	res, _, err := s.Select(context.Background(), places,
		[]pm.Member{member("memberA"), member("memberB")}, settings)
	require.NoError(t, err)

	roundOf := make(map[string]int)
	for _, p := range res.Places {
		roundOf[p.ID] = p.Round
	}
	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		assert.LessOrEqual(t, roundOf["a-place"], roundOf[id],
			"A's place must be picked at least as early as any of B's")
	}
}

func TestSelect_OnlyAnchorsIsNotAnError(t *testing.T) {
	s := NewSelector(zerolog.Nop())

	res, _, err := s.Select(context.Background(),
		[]pm.NormalizedPlace{normalizedAnchor("a1", "departure")},
		[]pm.Member{member("m1")}, pm.DefaultSettings())
	require.NoError(t, err)

	assert.Len(t, res.Places, 1)
	assert.Equal(t, 0, res.Rounds)
	assert.Zero(t, res.FairnessScore)
}

func TestFairnessDispersion(t *testing.T) {
	// Perfectly proportional selection has zero dispersion.
	even := fairnessDispersion(
		map[string]int{"m1": 2, "m2": 2},
		map[string]float64{"m1": 1.0, "m2": 1.0})
	assert.Zero(t, even)

	skewed := fairnessDispersion(
		map[string]int{"m1": 4, "m2": 0},
		map[string]float64{"m1": 1.0, "m2": 1.0})
	assert.Greater(t, skewed, even)
}

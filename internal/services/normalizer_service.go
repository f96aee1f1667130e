package services

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
	"tripweave/pkg/utils"
)

// PreferenceNormalizer rescales raw wish levels so that members who submitted
// many places are not structurally advantaged. Pure: no side effects, stage
// progress is returned for the orchestrator to publish.
type PreferenceNormalizer interface {
	Normalize(ctx context.Context, places []pm.CandidatePlace, members []pm.Member, settings pm.OptimizerSettings) ([]pm.NormalizedPlace, []pm.ProgressEvent, error)
}

type wishNormalizer struct {
	log zerolog.Logger
}

func NewPreferenceNormalizer(log zerolog.Logger) PreferenceNormalizer {
	return &wishNormalizer{log: log.With().Str("stage", "normalizing").Logger()}
}

func (n *wishNormalizer) Normalize(ctx context.Context, places []pm.CandidatePlace, members []pm.Member, settings pm.OptimizerSettings) ([]pm.NormalizedPlace, []pm.ProgressEvent, error) {
	if len(places) == 0 {
		return nil, nil, utils.ErrNoPlaces
	}
	if len(members) == 0 {
		return nil, nil, utils.ErrNoMembers
	}

	events := []pm.ProgressEvent{stageEvent(pm.StageNormalizing, 0, "normalizing preferences")}

	// Member places are rescaled; system anchors pass through untouched.
	placeCount := make(map[string]int, len(members))
	for _, p := range places {
		if p.IsAnchor {
			continue
		}
		if !utils.ValidCoordinate(p.Location.Latitude, p.Location.Longitude) {
			n.log.Error().Str("place_id", p.ID).Msg("malformed coordinates")
			return nil, events, utils.ErrInvalidInput
		}
		placeCount[p.MemberID]++
	}

	out := make([]pm.NormalizedPlace, 0, len(places))
	for _, p := range places {
		if p.IsAnchor {
			out = append(out, pm.NormalizedPlace{CandidatePlace: p})
			continue
		}

		count := placeCount[p.MemberID]
		fairnessFactor := math.Sqrt(1 / float64(count))
		basePreference := float64(p.WishLevel) / 5

		var multiplier float64
		switch {
		case settings.FairnessWeight > 0.7:
			multiplier = fairnessFactor
		case settings.EfficiencyWeight > 0.7:
			multiplier = basePreference
		default:
			multiplier = (fairnessFactor + basePreference) / 2
		}

		normalized := clampFloat(basePreference*fairnessFactor*multiplier, 0.1, 1.0)
		out = append(out, pm.NormalizedPlace{CandidatePlace: p, NormalizedWish: normalized})
	}

	n.log.Debug().Int("places", len(out)).Int("members", len(members)).Msg("normalization done")
	events = append(events, stageEvent(pm.StageNormalizing, 100, "preferences normalized"))
	return out, events, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package services

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
)

// SelectionResult is the PlaceSelector stage output.
type SelectionResult struct {
	Places         []pm.SelectedPlace `json:"places"`
	FairnessScore  float64            `json:"fairness_score"`
	Rounds         int                `json:"rounds"`
	MemberFairness map[string]float64 `json:"member_fairness"`
}

// Selector picks places into the itinerary. It is a pure, swappable
// interface so alternative algorithms can replace the round-robin greedy one
// without touching the orchestration.
type Selector interface {
	Select(ctx context.Context, places []pm.NormalizedPlace, members []pm.Member, settings pm.OptimizerSettings) (*SelectionResult, []pm.ProgressEvent, error)
}

type roundRobinSelector struct {
	log zerolog.Logger
}

func NewSelector(log zerolog.Logger) Selector {
	return &roundRobinSelector{log: log.With().Str("stage", "selecting").Logger()}
}

func (s *roundRobinSelector) Select(ctx context.Context, places []pm.NormalizedPlace, members []pm.Member, settings pm.OptimizerSettings) (*SelectionResult, []pm.ProgressEvent, error) {
	events := []pm.ProgressEvent{stageEvent(pm.StageSelecting, 0, "selecting places")}

	selected := make([]pm.SelectedPlace, 0, settings.MaxPlaces)
	candidates := make([]pm.NormalizedPlace, 0, len(places))

	// Anchors are force-included and never count against the budget.
	for _, p := range places {
		if p.IsAnchor {
			selected = append(selected, pm.SelectedPlace{NormalizedPlace: p, Round: 0})
		} else {
			candidates = append(candidates, p)
		}
	}

	// Deterministic base order so identical inputs give identical output.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	wishSum := make(map[string]float64, len(members))
	for _, c := range candidates {
		wishSum[c.MemberID] += c.NormalizedWish
	}
	selectedCount := make(map[string]int, len(members))

	fairShare := 1.0
	if len(members) > 0 {
		fairShare = math.Max(1, float64(settings.MaxPlaces)/float64(len(members)))
	}

	budget := settings.MaxPlaces
	round := 0
	fairness := 0.0

	for len(candidates) > 0 && countNonAnchors(selected) < budget {
		round++

		bestIdx := -1
		bestScore := math.Inf(-1)
		for i, c := range candidates {
			deficit := (fairShare - float64(selectedCount[c.MemberID])) / fairShare
			score := c.NormalizedWish + settings.FairnessWeight*deficit
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		pick := candidates[bestIdx]
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
		selectedCount[pick.MemberID]++

		fairness = fairnessDispersion(selectedCount, wishSum)
		selected = append(selected, pm.SelectedPlace{
			NormalizedPlace: pick,
			Round:           round,
			FairnessAtRound: fairness,
		})

		if round%4 == 0 {
			pct := countNonAnchors(selected) * 100 / budget
			events = append(events, stageEvent(pm.StageSelecting, pct, "selection in progress"))
		}
	}

	s.log.Debug().Int("selected", len(selected)).Int("rounds", round).
		Float64("fairness", fairness).Msg("selection done")
	events = append(events, stageEvent(pm.StageSelecting, 100, "places selected"))

	return &SelectionResult{
		Places:         selected,
		FairnessScore:  fairness,
		Rounds:         round,
		MemberFairness: memberRatios(selectedCount, wishSum),
	}, events, nil
}

func countNonAnchors(selected []pm.SelectedPlace) int {
	n := 0
	for _, s := range selected {
		if !s.IsAnchor {
			n++
		}
	}
	return n
}

// fairnessDispersion is the coefficient of variation of each member's
// selected-count / normalized-wish-sum ratio. Lower is fairer; 0 means every
// member is represented exactly in proportion to their normalized wishes.
func fairnessDispersion(selectedCount map[string]int, wishSum map[string]float64) float64 {
	ratios := make([]float64, 0, len(wishSum))
	for memberID, sum := range wishSum {
		if sum <= 0 {
			continue
		}
		ratios = append(ratios, float64(selectedCount[memberID])/sum)
	}
	if len(ratios) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range ratios {
		mean += r
	}
	mean /= float64(len(ratios))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, r := range ratios {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(ratios))
	return math.Sqrt(variance) / mean
}

func memberRatios(selectedCount map[string]int, wishSum map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(wishSum))
	for memberID, sum := range wishSum {
		if sum <= 0 {
			continue
		}
		out[memberID] = float64(selectedCount[memberID]) / sum
	}
	return out
}

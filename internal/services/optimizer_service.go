package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	dbm "tripweave/internal/models/db_models"
	pm "tripweave/internal/models/plan_models"
	"tripweave/internal/repositories"
	"tripweave/pkg/utils"
)

const AlgorithmVersion = "1.2.0"

// StageError reports which pipeline stage a run failed in.
type StageError struct {
	Stage pm.Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// OptimizerService orchestrates the pipeline: it validates input, snapshots
// trip data, runs each stage as a pure call, drains and publishes the
// returned progress events, and persists the result. Stages run strictly in
// sequence; a singleflight group keyed by trip id keeps concurrent requests
// for the same trip from interleaving.
type OptimizerService interface {
	Optimize(ctx context.Context, tripID string, settings pm.OptimizerSettings) (*pm.TripSchedule, bool, error)
	GetActiveSchedule(ctx context.Context, tripID string) (*pm.TripSchedule, error)
	GetCandidatePlaces(ctx context.Context, tripID string) ([]pm.CandidatePlace, error)
}

type optimizerService struct {
	tripRepo     repositories.TripRepository
	scheduleRepo repositories.ScheduleRepository
	normalizer   PreferenceNormalizer
	selector     Selector
	router       RouteConstructor
	assembler    ScheduleAssembler
	detector     ConflictDetector
	hub          ProgressHub

	cache    *cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group
	log      zerolog.Logger
}

func NewOptimizerService(
	tripRepo repositories.TripRepository,
	scheduleRepo repositories.ScheduleRepository,
	normalizer PreferenceNormalizer,
	selector Selector,
	router RouteConstructor,
	assembler ScheduleAssembler,
	detector ConflictDetector,
	hub ProgressHub,
	cacheTTL time.Duration,
	log zerolog.Logger,
) OptimizerService {
	return &optimizerService{
		tripRepo:     tripRepo,
		scheduleRepo: scheduleRepo,
		normalizer:   normalizer,
		selector:     selector,
		router:       router,
		assembler:    assembler,
		detector:     detector,
		hub:          hub,
		cache:        cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:     cacheTTL,
		log:          log.With().Str("component", "optimizer").Logger(),
	}
}

func (s *optimizerService) Optimize(ctx context.Context, tripID string, settings pm.OptimizerSettings) (*pm.TripSchedule, bool, error) {
	if tripID == "" {
		return nil, false, utils.ErrInvalidInput
	}
	if err := settings.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}

	key := cacheKey(tripID, settings)
	if v, ok := s.cache.Get(key); ok {
		return v.(*pm.TripSchedule), true, nil
	}

	v, err, _ := s.group.Do(tripID, func() (interface{}, error) {
		return s.run(ctx, tripID, settings)
	})
	if err != nil {
		return nil, false, err
	}

	schedule := v.(*pm.TripSchedule)
	s.cache.Set(key, schedule, s.cacheTTL)
	return schedule, false, nil
}

func (s *optimizerService) run(ctx context.Context, tripID string, settings pm.OptimizerSettings) (*pm.TripSchedule, error) {
	started := time.Now()
	runID := s.hub.BeginRun(tripID)

	publish := func(events ...pm.ProgressEvent) {
		for _, ev := range events {
			ev.Progress = pm.GlobalPercent(ev.Stage, ev.Progress)
			s.hub.Publish(tripID, runID, ev)
		}
	}
	fail := func(stage pm.Stage, err error) error {
		ev := stageEvent(pm.StageError, 100, fmt.Sprintf("%s stage failed", stage))
		ev.Error = err.Error()
		ev.ExecutionTimeMs = time.Since(started).Milliseconds()
		s.hub.Publish(tripID, runID, ev)
		s.log.Error().Err(err).Str("trip_id", tripID).Str("stage", string(stage)).Msg("optimization failed")
		return &StageError{Stage: stage, Err: err}
	}

	publish(stageEvent(pm.StageCollecting, 0, "collecting trip data"))

	trip, err := s.tripRepo.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, fail(pm.StageCollecting, utils.ErrDatabaseError)
	}
	if trip == nil {
		return nil, fail(pm.StageCollecting, utils.ErrTripNotFound)
	}
	if len(trip.Members) == 0 {
		return nil, fail(pm.StageCollecting, utils.ErrNoMembers)
	}
	if len(trip.Places) == 0 {
		return nil, fail(pm.StageCollecting, utils.ErrNoPlaces)
	}

	loc := utils.LocationOrUTC(trip.Timezone)
	members, places := snapshot(trip)
	publish(stageEvent(pm.StageCollecting, 100, "trip data collected"))

	// Each stage is wrapped in its own deadline; exceeding it surfaces as a
	// distinct timeout error.
	norm, err := runStage(ctx, settings.NormalizeTimeout.Std(), func(c context.Context) (stageOut[[]pm.NormalizedPlace], error) {
		out, events, err := s.normalizer.Normalize(c, places, members, settings)
		return stageOut[[]pm.NormalizedPlace]{out, events}, err
	})
	publish(norm.events...)
	if err != nil {
		return nil, fail(pm.StageNormalizing, err)
	}

	sel, err := runStage(ctx, settings.SelectTimeout.Std(), func(c context.Context) (stageOut[*SelectionResult], error) {
		out, events, err := s.selector.Select(c, norm.value, members, settings)
		return stageOut[*SelectionResult]{out, events}, err
	})
	publish(sel.events...)
	if err != nil {
		return nil, fail(pm.StageSelecting, err)
	}

	route, err := runStage(ctx, settings.RouteTimeout.Std(), func(c context.Context) (stageOut[*RouteResult], error) {
		out, events, err := s.router.Construct(c, sel.value.Places, trip.StartDate.In(loc), trip.EndDate.In(loc), settings)
		return stageOut[*RouteResult]{out, events}, err
	})
	publish(route.events...)
	if err != nil {
		return nil, fail(pm.StageRouting, err)
	}

	assembled, err := runStage(ctx, settings.AssembleTimeout.Std(), func(c context.Context) (stageOut[[]pm.DaySchedule], error) {
		out, events, err := s.assembler.Assemble(c, route.value.Days, settings)
		return stageOut[[]pm.DaySchedule]{out, events}, err
	})
	publish(assembled.events...)
	if err != nil {
		return nil, fail(pm.StageRouting, err)
	}

	schedule := &pm.TripSchedule{
		TripID:           tripID,
		GeneratedAt:      time.Now(),
		AlgorithmVersion: AlgorithmVersion,
		Timezone:         trip.Timezone,
		Settings:         settings,
		Days:             assembled.value,
		MemberFairness:   sel.value.MemberFairness,
	}
	schedule.Stats = AggregateTrip(assembled.value)
	schedule.Stats.FairnessScore = sel.value.FairnessScore
	schedule.Stats.SelectionRounds = sel.value.Rounds
	schedule.Stats.DroppedPlaces = len(route.value.Dropped)
	for _, d := range route.value.Dropped {
		schedule.Stats.DroppedPlaceIDs = append(schedule.Stats.DroppedPlaceIDs, d.ID)
	}
	schedule.Conflicts = s.detector.Detect(schedule)

	if err := s.persist(ctx, trip, schedule); err != nil {
		return nil, fail(pm.StageRouting, utils.ErrDatabaseError)
	}

	done := stageEvent(pm.StageComplete, 100, "itinerary ready")
	done.ExecutionTimeMs = time.Since(started).Milliseconds()
	publish(done)

	s.log.Info().Str("trip_id", tripID).
		Int("days", len(schedule.Days)).
		Int("dropped", schedule.Stats.DroppedPlaces).
		Dur("took", time.Since(started)).
		Msg("optimization complete")
	return schedule, nil
}

// persist writes the schedule record and applies the reset-then-apply
// scheduling marks to the trip's place rows.
func (s *optimizerService) persist(ctx context.Context, trip *dbm.Trip, schedule *pm.TripSchedule) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	settingsJSON, err := json.Marshal(schedule.Settings)
	if err != nil {
		return err
	}

	record := &dbm.TripScheduleRecord{
		TripID:           trip.ID,
		AlgorithmVersion: schedule.AlgorithmVersion,
		GeneratedAt:      schedule.GeneratedAt.Unix(),
		Settings:         datatypes.JSON(settingsJSON),
		Payload:          datatypes.JSON(payload),
	}
	if err := s.scheduleRepo.ReplaceActiveSchedule(ctx, record); err != nil {
		return err
	}

	var marks []repositories.ScheduledMark
	for _, day := range schedule.Days {
		for _, v := range day.Visits {
			placeID, err := uuid.Parse(v.Place.ID)
			if err != nil {
				continue
			}
			marks = append(marks, repositories.ScheduledMark{
				PlaceID:   placeID,
				DayIndex:  day.DayIndex,
				StartUnix: v.Arrival.Unix(),
				EndUnix:   v.Departure.Unix(),
			})
		}
	}
	return s.tripRepo.ApplyScheduling(ctx, trip.ID.String(), marks)
}

func (s *optimizerService) GetActiveSchedule(ctx context.Context, tripID string) (*pm.TripSchedule, error) {
	if tripID == "" {
		return nil, utils.ErrInvalidInput
	}
	rec, err := s.scheduleRepo.GetActiveSchedule(ctx, tripID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if rec == nil {
		return nil, utils.ErrNoSchedule
	}

	var schedule pm.TripSchedule
	if err := json.Unmarshal(rec.Payload, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (s *optimizerService) GetCandidatePlaces(ctx context.Context, tripID string) ([]pm.CandidatePlace, error) {
	if tripID == "" {
		return nil, utils.ErrInvalidInput
	}
	rows, err := s.tripRepo.GetPlacesByTripID(ctx, tripID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make([]pm.CandidatePlace, 0, len(rows))
	for _, p := range rows {
		out = append(out, placeSnapshot(p))
	}
	return out, nil
}

// ---- snapshots ----

// snapshot converts persisted rows into the read-only value types the
// pipeline works on. Taken once at run start; stages never touch the DB.
func snapshot(trip *dbm.Trip) ([]pm.Member, []pm.CandidatePlace) {
	counts := make(map[string]int, len(trip.Members))
	places := make([]pm.CandidatePlace, 0, len(trip.Places))
	for _, p := range trip.Places {
		place := placeSnapshot(p)
		if !place.IsAnchor {
			counts[place.MemberID]++
		}
		places = append(places, place)
	}

	members := make([]pm.Member, 0, len(trip.Members))
	for _, m := range trip.Members {
		members = append(members, pm.Member{
			ID:          m.ID.String(),
			DisplayName: m.DisplayName,
			PlaceCount:  counts[m.ID.String()],
		})
	}
	return members, places
}

func placeSnapshot(p dbm.CandidatePlace) pm.CandidatePlace {
	return pm.CandidatePlace{
		ID:       p.ID.String(),
		MemberID: p.MemberID.String(),
		Name:     p.Name,
		Location: pm.Coordinate{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		},
		WishLevel:       p.WishLevel,
		StayMinutes:     p.StayMinutes,
		Category:        p.Category,
		EarliestArrival: p.EarliestArrival,
		LatestDeparture: p.LatestDeparture,
		IsAnchor:        p.IsAnchor,
		AnchorRole:      p.AnchorRole,
	}
}

// ---- stage plumbing ----

type stageOut[T any] struct {
	value  T
	events []pm.ProgressEvent
}

// runStage runs fn under its own deadline. A blown deadline maps to the
// distinct stage-timeout error; the stage goroutine is left to finish on its
// own since stages are pure and hold no resources.
func runStage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(stageCtx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-stageCtx.Done():
		var zero T
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			return zero, utils.ErrStageTimeout
		}
		return zero, stageCtx.Err()
	}
}

func cacheKey(tripID string, settings pm.OptimizerSettings) string {
	return fmt.Sprintf("%s|%+v", tripID, settings)
}

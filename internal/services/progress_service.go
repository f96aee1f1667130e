package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	pm "tripweave/internal/models/plan_models"
)

const subscriberBuffer = 64

// stageEvent builds an event with a stage-local percent. The orchestrator
// maps local percents into the stage's global range before publishing.
func stageEvent(stage pm.Stage, localPercent int, message string) pm.ProgressEvent {
	return pm.ProgressEvent{
		Stage:     stage,
		Progress:  localPercent,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// ProgressHub is the one inherently concurrent piece of the pipeline: an
// owned pub/sub registry keyed by trip id. Subscribers joining mid-run
// receive the latest event first, then everything subsequent. Delivery is
// at-least-once; consumers de-duplicate by (stage, timestamp) if they need
// exactly-once.
type ProgressHub interface {
	// BeginRun makes the returned run id the authoritative one for the trip.
	// Events published under a superseded run id are dropped, so two runs
	// never interleave in the same stream.
	BeginRun(tripID string) string
	Publish(tripID, runID string, ev pm.ProgressEvent)
	Subscribe(tripID string) (<-chan pm.ProgressEvent, func())
	Latest(tripID string) (pm.ProgressEvent, bool)
}

type tripStream struct {
	runID     string
	latest    pm.ProgressEvent
	hasLatest bool
	subs      map[uint64]chan pm.ProgressEvent
}

type progressHub struct {
	mu      sync.Mutex
	streams map[string]*tripStream
	nextSub uint64
	log     zerolog.Logger
}

func NewProgressHub(log zerolog.Logger) ProgressHub {
	return &progressHub{
		streams: make(map[string]*tripStream),
		log:     log.With().Str("component", "progress_hub").Logger(),
	}
}

func (h *progressHub) stream(tripID string) *tripStream {
	s, ok := h.streams[tripID]
	if !ok {
		s = &tripStream{subs: make(map[uint64]chan pm.ProgressEvent)}
		h.streams[tripID] = s
	}
	return s
}

func (h *progressHub) BeginRun(tripID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stream(tripID)
	s.runID = uuid.New().String()
	s.hasLatest = false
	return s.runID
}

func (h *progressHub) Publish(tripID, runID string, ev pm.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stream(tripID)
	if s.runID != runID {
		h.log.Debug().Str("trip_id", tripID).Msg("dropping event from superseded run")
		return
	}

	// Keep the stream monotonically non-decreasing; the error state is the
	// exception since it can fire from any percent.
	if s.hasLatest && ev.Stage != pm.StageError && ev.Progress < s.latest.Progress {
		ev.Progress = s.latest.Progress
	}
	s.latest = ev
	s.hasLatest = true

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer: evict the oldest buffered event so the newest
			// always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (h *progressHub) Subscribe(tripID string) (<-chan pm.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stream(tripID)
	id := h.nextSub
	h.nextSub++

	ch := make(chan pm.ProgressEvent, subscriberBuffer)
	s.subs[id] = ch
	if s.hasLatest {
		ch <- s.latest
	}

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if cur, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(cur)
		}
	}
	return ch, unsubscribe
}

func (h *progressHub) Latest(tripID string) (pm.ProgressEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.streams[tripID]
	if !ok || !s.hasLatest {
		return pm.ProgressEvent{}, false
	}
	return s.latest, true
}

package plan_models

import "time"

type Stage string

const (
	StageCollecting  Stage = "collecting"
	StageNormalizing Stage = "normalizing"
	StageSelecting   Stage = "selecting"
	StageRouting     Stage = "routing"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// ProgressEvent is one tick of the pipeline's self-report. Progress is the
// global 0..100 percent after mapping the stage-local percent into the
// stage's fixed range. Consumers de-duplicate by (Stage, Timestamp) when they
// need exactly-once semantics; delivery is at-least-once.
type ProgressEvent struct {
	Stage           Stage     `json:"stage"`
	Progress        int       `json:"progress"`
	Message         string    `json:"message"`
	ExecutionTimeMs int64     `json:"execution_time_ms,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Global percent ranges per stage. A stage-local 0..100 maps linearly into
// its range, so the stream is monotonically non-decreasing across stages.
var stageRanges = map[Stage][2]int{
	StageCollecting:  {0, 5},
	StageNormalizing: {5, 25},
	StageSelecting:   {25, 65},
	StageRouting:     {65, 95},
	StageComplete:    {100, 100},
}

// GlobalPercent maps a stage-local percent into that stage's global range.
func GlobalPercent(stage Stage, local int) int {
	r, ok := stageRanges[stage]
	if !ok {
		return local
	}
	if local < 0 {
		local = 0
	}
	if local > 100 {
		local = 100
	}
	return r[0] + (r[1]-r[0])*local/100
}

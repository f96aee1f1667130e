package request_models

// OptimizeRequest carries per-run overrides of the configured optimizer
// defaults. Absent fields keep their defaults; the merged settings are
// validated once at pipeline entry.
type OptimizeRequest struct {
	FairnessWeight   *float64 `json:"fairness_weight,omitempty"`
	EfficiencyWeight *float64 `json:"efficiency_weight,omitempty"`
	MaxPlaces        *int     `json:"max_places,omitempty"`
	DailyHours       *float64 `json:"daily_hours,omitempty"`
	DayStartHour     *int     `json:"day_start_hour,omitempty"`
	MinBufferMinutes *int     `json:"min_buffer_minutes,omitempty"`
	MaxBufferMinutes *int     `json:"max_buffer_minutes,omitempty"`
}

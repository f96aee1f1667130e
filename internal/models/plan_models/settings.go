package plan_models

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts human-readable values like "30s" in both YAML and JSON,
// alongside plain nanosecond integers.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(v)
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %q", data)
	}
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// OptimizerSettings enumerates every knob the pipeline recognizes. Defaults
// live in DefaultSettings; validation happens once at pipeline entry, never
// inside individual stages.
type OptimizerSettings struct {
	FairnessWeight   float64 `json:"fairness_weight" yaml:"fairness_weight"`
	EfficiencyWeight float64 `json:"efficiency_weight" yaml:"efficiency_weight"`
	MaxPlaces        int     `json:"max_places" yaml:"max_places"`
	DailyHours       float64 `json:"daily_hours" yaml:"daily_hours"`
	DayStartHour     int     `json:"day_start_hour" yaml:"day_start_hour"`

	// Transport-mode distance thresholds, in kilometers.
	WalkMaxKm    float64 `json:"walk_max_km" yaml:"walk_max_km"`
	TransitMaxKm float64 `json:"transit_max_km" yaml:"transit_max_km"`
	FlightMinKm  float64 `json:"flight_min_km" yaml:"flight_min_km"`

	MinBufferMinutes int `json:"min_buffer_minutes" yaml:"min_buffer_minutes"`
	MaxBufferMinutes int `json:"max_buffer_minutes" yaml:"max_buffer_minutes"`

	// Per-stage upper bounds. A stage that exceeds its bound fails the run
	// with a timeout error code.
	NormalizeTimeout Duration `json:"normalize_timeout" yaml:"normalize_timeout"`
	SelectTimeout    Duration `json:"select_timeout" yaml:"select_timeout"`
	RouteTimeout     Duration `json:"route_timeout" yaml:"route_timeout"`
	AssembleTimeout  Duration `json:"assemble_timeout" yaml:"assemble_timeout"`
}

func DefaultSettings() OptimizerSettings {
	return OptimizerSettings{
		FairnessWeight:   0.6,
		EfficiencyWeight: 0.4,
		MaxPlaces:        20,
		DailyHours:       12,
		DayStartHour:     8,
		WalkMaxKm:        1,
		TransitMaxKm:     20,
		FlightMinKm:      200,
		MinBufferMinutes: 5,
		MaxBufferMinutes: 30,
		NormalizeTimeout: Duration(10 * time.Second),
		SelectTimeout:    Duration(20 * time.Second),
		RouteTimeout:     Duration(40 * time.Second),
		AssembleTimeout:  Duration(20 * time.Second),
	}
}

func (s OptimizerSettings) Validate() error {
	if s.FairnessWeight < 0 || s.FairnessWeight > 1 {
		return fmt.Errorf("fairness_weight must be in [0,1], got %v", s.FairnessWeight)
	}
	if s.EfficiencyWeight < 0 || s.EfficiencyWeight > 1 {
		return fmt.Errorf("efficiency_weight must be in [0,1], got %v", s.EfficiencyWeight)
	}
	if s.MaxPlaces <= 0 {
		return fmt.Errorf("max_places must be positive, got %d", s.MaxPlaces)
	}
	if s.DailyHours <= 0 || s.DailyHours > 24 {
		return fmt.Errorf("daily_hours must be in (0,24], got %v", s.DailyHours)
	}
	if s.DayStartHour < 0 || s.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour must be in [0,23], got %d", s.DayStartHour)
	}
	if s.WalkMaxKm <= 0 || s.TransitMaxKm < s.WalkMaxKm || s.FlightMinKm < s.TransitMaxKm {
		return fmt.Errorf("mode thresholds must satisfy 0 < walk <= transit <= flight")
	}
	if s.MinBufferMinutes < 0 || s.MaxBufferMinutes < s.MinBufferMinutes {
		return fmt.Errorf("buffer bounds must satisfy 0 <= min <= max")
	}
	if s.NormalizeTimeout <= 0 || s.SelectTimeout <= 0 || s.RouteTimeout <= 0 || s.AssembleTimeout <= 0 {
		return fmt.Errorf("stage timeouts must be positive")
	}
	return nil
}

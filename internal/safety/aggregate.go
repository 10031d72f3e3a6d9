package safety

import (
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// Thresholds defines the speed and distance boundaries for classification.
type Thresholds struct {
	LowSpeedMax      float64       `yaml:"low_speed_max"`     // mph, below → LOW_SPEED
	ModerateMax      float64       `yaml:"moderate_max"`      // mph, below → MODERATE
	ImminentManeuver float64       `yaml:"imminent_maneuver"` // meters
	StaleAfter       time.Duration `yaml:"stale_after"`
}

// DefaultThresholds returns the built-in classification boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowSpeedMax:      25,
		ModerateMax:      55,
		ImminentManeuver: 150,
		StaleAfter:       5 * time.Second,
	}
}

// escalationRule raises the level when its condition holds. The highest
// matching level wins (monotonic: conditions only raise, never lower).
type escalationRule struct {
	Name    string
	Applies func(t model.Telemetry, thr Thresholds) bool
	Level   model.SafetyLevel
}

var escalationRules = []escalationRule{
	// Maneuver proximity: an imminent turn while navigating demands full attention.
	{
		Name: "maneuver_imminent",
		Applies: func(t model.Telemetry, thr Thresholds) bool {
			if !t.IsNavigating {
				return false
			}
			// Unknown distance while navigating counts as imminent.
			return t.ManeuverDistance < 0 || t.ManeuverDistance <= thr.ImminentManeuver
		},
		Level: model.Critical,
	},
	{
		Name: "traffic_severe",
		Applies: func(t model.Telemetry, _ Thresholds) bool {
			return t.Traffic == model.TrafficSevere
		},
		Level: model.Critical,
	},
	{
		Name: "weather_severe",
		Applies: func(t model.Telemetry, _ Thresholds) bool {
			return t.Weather == model.WeatherSevere
		},
		Level: model.Critical,
	},
	{
		Name: "traffic_heavy",
		Applies: func(t model.Telemetry, _ Thresholds) bool {
			return t.Traffic == model.TrafficHeavy
		},
		Level: model.Highway,
	},
	{
		Name: "weather_degraded",
		Applies: func(t model.Telemetry, _ Thresholds) bool {
			return t.Weather == model.WeatherFog || t.Weather == model.WeatherSnow
		},
		Level: model.Highway,
	},
}

// Aggregator turns raw telemetry samples into SafetyContext snapshots.
// Pure and total: it never blocks and never fails. Missing or stale
// readings classify conservatively; safety classification fails closed.
type Aggregator struct {
	thr Thresholds
}

// New creates an Aggregator. Zero-valued threshold fields take defaults.
func New(thr Thresholds) *Aggregator {
	def := DefaultThresholds()
	if thr.LowSpeedMax <= 0 {
		thr.LowSpeedMax = def.LowSpeedMax
	}
	if thr.ModerateMax <= 0 {
		thr.ModerateMax = def.ModerateMax
	}
	if thr.ImminentManeuver <= 0 {
		thr.ImminentManeuver = def.ImminentManeuver
	}
	if thr.StaleAfter <= 0 {
		thr.StaleAfter = def.StaleAfter
	}
	return &Aggregator{thr: thr}
}

// Aggregate classifies one telemetry sample into a SafetyContext.
// The level is a pure function of the sample: no memory beyond it
// (hysteresis belongs to the auto-pause controller, not here).
func (a *Aggregator) Aggregate(sample model.Telemetry, now time.Time) model.SafetyContext {
	level := baseLevel(sample.Speed, a.thr)

	for _, rule := range escalationRules {
		if rule.Applies(sample, a.thr) && rule.Level > level {
			level = rule.Level
		}
	}

	stale := sample.Timestamp.IsZero() || now.Sub(sample.Timestamp) > a.thr.StaleAfter
	if stale && model.Critical > level {
		// Lost or lagging feed: assume the worst rather than keep a
		// stale low level.
		level = model.Critical
	}

	return model.SafetyContext{
		Speed:            sample.Speed,
		IsNavigating:     sample.IsNavigating,
		Traffic:          sample.Traffic,
		Weather:          sample.Weather,
		UpcomingManeuver: sample.UpcomingManeuver,
		ManeuverDistance: sample.ManeuverDistance,
		Timestamp:        sample.Timestamp,
		Level:            level,
		Stale:            stale,
	}
}

// Conservative fallback returns the context used when the telemetry
// stream is lost entirely.
func (a *Aggregator) Conservative(now time.Time) model.SafetyContext {
	return model.SafetyContext{
		Speed:            model.UnknownSpeed,
		ManeuverDistance: model.UnknownDistance,
		Timestamp:        now,
		Level:            model.Critical,
		Stale:            true,
	}
}

// baseLevel maps speed to a level. Unknown speed reads as moving at
// highway pace, never as parked.
func baseLevel(speed float64, thr Thresholds) model.SafetyLevel {
	switch {
	case speed < 0 || speed != speed: // unknown or NaN
		return model.Highway
	case speed == 0:
		return model.Parked
	case speed < thr.LowSpeedMax:
		return model.LowSpeed
	case speed < thr.ModerateMax:
		return model.Moderate
	default:
		return model.Highway
	}
}

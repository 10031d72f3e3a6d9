package model

// SafetyLevel represents the discrete driving-safety classification.
// Ordered: a higher level means voice interaction is less safe.
type SafetyLevel int

const (
	Parked   SafetyLevel = 0
	LowSpeed SafetyLevel = 1
	Moderate SafetyLevel = 2
	Highway  SafetyLevel = 3
	Critical SafetyLevel = 4
)

func (l SafetyLevel) String() string {
	switch l {
	case Parked:
		return "PARKED"
	case LowSpeed:
		return "LOW_SPEED"
	case Moderate:
		return "MODERATE"
	case Highway:
		return "HIGHWAY"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level label (any case) back to a SafetyLevel.
// Unrecognized labels map to Critical: classification fails closed.
func ParseLevel(s string) SafetyLevel {
	switch s {
	case "PARKED", "parked":
		return Parked
	case "LOW_SPEED", "low_speed":
		return LowSpeed
	case "MODERATE", "moderate":
		return Moderate
	case "HIGHWAY", "highway":
		return Highway
	case "CRITICAL", "critical":
		return Critical
	default:
		return Critical
	}
}

// TrafficCondition is the congestion hint reported by the telemetry feed.
type TrafficCondition string

const (
	TrafficLight    TrafficCondition = "light"
	TrafficModerate TrafficCondition = "moderate"
	TrafficHeavy    TrafficCondition = "heavy"
	TrafficSevere   TrafficCondition = "severe"
)

// WeatherCondition is the weather hint reported by the telemetry feed.
type WeatherCondition string

const (
	WeatherClear  WeatherCondition = "clear"
	WeatherRain   WeatherCondition = "rain"
	WeatherFog    WeatherCondition = "fog"
	WeatherSnow   WeatherCondition = "snow"
	WeatherSevere WeatherCondition = "severe"
)

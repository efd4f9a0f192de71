package adaptive

import (
	"fmt"
	"time"
)

// Mode is the process-wide processing tier. Lower values are faster and
// riskier; Emergency is the floor.
type Mode int

const (
	// Fast uses the full concurrency budget and hardware acceleration.
	Fast Mode = iota
	// Balanced is the starting tier: half the budget, software rendering.
	Balanced
	// Safe runs requests independently with a quarter of the budget.
	Safe
	// Emergency is fully serial with feature extraction only.
	Emergency
)

// Analysis timeouts per mode.
const (
	FastTimeout      = 3 * time.Second
	BalancedTimeout  = 5 * time.Second
	SafeTimeout      = 8 * time.Second
	EmergencyTimeout = 12 * time.Second
)

// Modes lists every tier from fastest to safest.
var Modes = []Mode{Fast, Balanced, Safe, Emergency}

func (m Mode) String() string {
	switch m {
	case Fast:
		return "fast"
	case Balanced:
		return "balanced"
	case Safe:
		return "safe"
	case Emergency:
		return "emergency"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DisplayName is the label shown to users.
func (m Mode) DisplayName() string {
	switch m {
	case Fast:
		return "Fast"
	case Balanced:
		return "Balanced"
	case Safe:
		return "Safe"
	case Emergency:
		return "Emergency"
	default:
		return "Unknown"
	}
}

// ParseMode converts a mode name back to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if m.String() == s {
			return m, nil
		}
	}
	return Balanced, fmt.Errorf("unknown processing mode %q", s)
}

// Timeout returns the analysis timeout for a single photo in this mode.
func (m Mode) Timeout() time.Duration {
	switch m {
	case Fast:
		return FastTimeout
	case Balanced:
		return BalancedTimeout
	case Safe:
		return SafeTimeout
	case Emergency:
		return EmergencyTimeout
	default:
		return EmergencyTimeout
	}
}

// safer returns the next safer tier; Emergency returns itself.
func (m Mode) safer() Mode {
	switch m {
	case Fast:
		return Balanced
	case Balanced:
		return Safe
	case Safe, Emergency:
		return Emergency
	default:
		return Emergency
	}
}

// faster returns the next faster tier; Fast returns itself.
func (m Mode) faster() Mode {
	switch m {
	case Emergency:
		return Safe
	case Safe:
		return Balanced
	case Balanced, Fast:
		return Fast
	default:
		return Balanced
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name, so policy files can say
// "initial_mode: safe".
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

package compat

import (
	"errors"
	"fmt"
)

// Tier maps a minimum percentage (inclusive) to a message.
type Tier struct {
	Min     float64
	Message string
}

// Default tier messages.
const (
	MessagePerfect   = "Perfect match"
	MessageGreat     = "Great compatibility"
	MessageSome      = "Some differences"
	MessageDifferent = "Very different answers"
)

// DefaultTiers returns the message tiers, highest threshold first.
func DefaultTiers() []Tier {
	return []Tier{
		{Min: 80, Message: MessagePerfect},
		{Min: 60, Message: MessageGreat},
		{Min: 40, Message: MessageSome},
	}
}

func validateTiers(tiers []Tier, fallback string) error {
	if fallback == "" {
		return errors.New("fallback message must not be empty")
	}
	for i, t := range tiers {
		if t.Min < 0 || t.Min > 100 {
			return fmt.Errorf("tier %d: minimum %.2f outside [0, 100]", i, t.Min)
		}
		if t.Message == "" {
			return fmt.Errorf("tier %d: message must not be empty", i)
		}
		if i > 0 && t.Min >= tiers[i-1].Min {
			return fmt.Errorf("tier %d: thresholds must be strictly descending", i)
		}
	}
	return nil
}

// messageFor returns the first tier whose minimum the percentage reaches.
func messageFor(tiers []Tier, fallback string, percentage float64) string {
	for _, t := range tiers {
		if percentage >= t.Min {
			return t.Message
		}
	}
	return fallback
}

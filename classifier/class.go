package classifier

import (
	"fmt"
	"strings"
)

// OutcomeClass is a qualitative bucket for a draw.
type OutcomeClass int

const (
	Bad OutcomeClass = iota
	Unfavorable
	Neutral
	Favorable
	// Unknown is what an unmatched shape classifies as. It is a valid,
	// displayable outcome, not an error.
	Unknown
)

// KnownClasses are the classes a table may assign, in display order.
var KnownClasses = []OutcomeClass{Bad, Unfavorable, Neutral, Favorable}

// AllClasses is KnownClasses followed by Unknown.
var AllClasses = []OutcomeClass{Bad, Unfavorable, Neutral, Favorable, Unknown}

// String returns a string representation of the class.
func (c OutcomeClass) String() string {
	switch c {
	case Bad:
		return "Bad"
	case Unfavorable:
		return "Unfavorable"
	case Neutral:
		return "Neutral"
	case Favorable:
		return "Favorable"
	default:
		return "Unknown"
	}
}

// ParseOutcomeClass parses a class name, ignoring case.
func ParseOutcomeClass(s string) (OutcomeClass, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllClasses {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("unknown outcome class %q", s)
}

package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// State represents the review stage of a dictionary article.
// Values match the integers stored in the articles.state column.
type State int

const (
	StateNew       State = 0
	StateDraft     State = 1
	StateApproval  State = 2
	StatePublished State = 3
	StateArchived  State = 4
)

var stateNames = map[State]string{
	StateNew:       "NEW",
	StateDraft:     "DRAFT",
	StateApproval:  "APPROVAL",
	StatePublished: "PUBLISHED",
	StateArchived:  "ARCHIVED",
}

// Dutch labels shown to editors.
var stateLabels = map[State]string{
	StateNew:       "suggestie",
	StateDraft:     "Klad versie",
	StateApproval:  "In afwachting",
	StatePublished: "Publicatie",
	StateArchived:  "Gearchiveerd",
}

// AllStates returns every valid state in column order.
func AllStates() []State {
	return []State{StateNew, StateDraft, StateApproval, StatePublished, StateArchived}
}

// IsValid returns true if the state is one of the five lifecycle states
func (s State) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// String returns the string representation of the state
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// Label returns the editorial label for the state
func (s State) Label() string {
	return stateLabels[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts either the state name or its stored number.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState parses a state name (case-insensitive) or its numeric value.
func ParseState(raw string) (State, error) {
	value := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(value); err == nil {
		if s := State(n); s.IsValid() {
			return s, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}

	upper := strings.ToUpper(value)
	for s, name := range stateNames {
		if name == upper {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidState, raw)
}

package session

import "time"

// Phase is the conversational position of a session, derived from State.
type Phase string

const (
	PhaseAwaitingConsent Phase = "awaiting_consent"
	PhaseCollecting      Phase = "collecting"
	PhaseConfirming      Phase = "confirming"
	PhaseGenerating      Phase = "generating"
)

// State represents all serializable state of one conversant.
//
// Invariants maintained by the conversation machine:
//   - 0 <= Step <= number of fields
//   - while Step < number of fields, len(Answers) == Step
//   - Step never advances while PrivacyAccepted is false
type State struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"` // Monotonically increasing for optimistic locking

	Step            int               `json:"step"`
	Answers         map[string]string `json:"answers"`
	PrivacyAccepted bool              `json:"privacy_accepted"`

	// Attempt identifies an in-flight document generation. Empty when idle.
	Attempt string `json:"attempt,omitempty"`
}

// New returns a fresh session awaiting consent.
func New(id string) *State {
	return &State{
		ID:      id,
		Answers: make(map[string]string),
	}
}

// Phase derives the session phase for a catalog of n fields.
func (s *State) Phase(n int) Phase {
	switch {
	case !s.PrivacyAccepted:
		return PhaseAwaitingConsent
	case s.Attempt != "":
		return PhaseGenerating
	case s.Step >= n:
		return PhaseConfirming
	default:
		return PhaseCollecting
	}
}

// Reset returns the session to the first question, dropping all answers.
// Consent is kept.
func (s *State) Reset() {
	s.Step = 0
	s.Answers = make(map[string]string)
	s.Attempt = ""
}

// Clone returns a deep copy so stored state is never aliased by callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	return &c
}

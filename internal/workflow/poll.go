package workflow

// PollStatus is the lifecycle state of a poll.
type PollStatus string

// Poll states.
const (
	PollDraft  PollStatus = "draft"
	PollActive PollStatus = "active"
	PollClosed PollStatus = "closed"
)

// Valid reports whether s is a known poll state.
func (s PollStatus) Valid() bool {
	switch s {
	case PollDraft, PollActive, PollClosed:
		return true
	}
	return false
}

// PollAction names an admin-triggered poll transition.
type PollAction string

// Poll transitions.
const (
	PollLaunch PollAction = "launch"
	PollClose  PollAction = "close"
	PollReopen PollAction = "reopen"
	PollReset  PollAction = "reset"
)

type pollEdge struct {
	from PollStatus
	act  PollAction
}

// pollTransitions is the closed transition table for polls.
var pollTransitions = map[pollEdge]PollStatus{
	{PollDraft, PollLaunch}:  PollActive,
	{PollActive, PollClose}:  PollClosed,
	{PollClosed, PollReopen}: PollActive,
	{PollActive, PollReset}:  PollDraft,
	{PollClosed, PollReset}:  PollDraft,
}

// NextPollStatus returns the state reached by applying action to current.
func NextPollStatus(current PollStatus, action PollAction) (PollStatus, error) {
	next, ok := pollTransitions[pollEdge{current, action}]
	if !ok {
		return current, Invalidf("cannot %s a %s poll", action, current)
	}
	return next, nil
}

// ClearsVotes reports whether applying action discards the poll's votes.
func (a PollAction) ClearsVotes() bool {
	return a == PollReset
}

// RequirePollDraft gates option edits.
func RequirePollDraft(status PollStatus) error {
	if status != PollDraft {
		return Invalidf("poll options can only be changed while the poll is a draft")
	}
	return nil
}

// RequirePollEditable gates title, description and closing date edits.
func RequirePollEditable(status PollStatus) error {
	if status != PollDraft {
		return Invalidf("a poll can only be edited while it is a draft")
	}
	return nil
}

// RequirePollActive gates vote casting.
func RequirePollActive(status PollStatus) error {
	if status != PollActive {
		return Invalidf("poll is not accepting votes")
	}
	return nil
}

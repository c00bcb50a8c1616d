// Package fsm defines the dictation lifecycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateInserting    State = "inserting"
	StateError        State = "error"
)

const (
	// EventPress is the trigger-down edge.
	EventPress Event = "press"
	// EventRelease is the trigger-up edge.
	EventRelease Event = "release"
	// EventMaxDuration force-stops a recording at the hard duration ceiling.
	EventMaxDuration Event = "max-duration"
	// EventDiscard drops a capture below the minimum utterance duration.
	EventDiscard Event = "discard"
	// EventCleaned marks transcription+cleanup success.
	EventCleaned Event = "cleaned"
	// EventInserted completes the cycle after an insertion attempt,
	// successful or soft-failed.
	EventInserted Event = "inserted"
	// EventFail routes any state to error.
	EventFail Event = "fail"
	// EventReset acknowledges an error and returns to idle.
	EventReset Event = "reset"
)

// Transition applies one event to a state and returns the next state.
// Invalid pairs return the current state and an error; callers decide
// whether that is a no-op (trigger edges) or a fault.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventPress:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventRelease, EventMaxDuration:
			return StateTranscribing, nil
		case EventDiscard:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribing:
		switch event {
		case EventCleaned:
			return StateInserting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateInserting:
		switch event {
		case EventInserted:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// IsTriggerEvent reports whether an event originates from the trigger key.
// Trigger edges arriving outside their accepting state are no-ops.
func IsTriggerEvent(event Event) bool {
	return event == EventPress || event == EventRelease
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

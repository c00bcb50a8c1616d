package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventPress)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventRelease)
	require.NoError(t, err)
	require.Equal(t, StateTranscribing, next)

	next, err = Transition(next, EventCleaned)
	require.NoError(t, err)
	require.Equal(t, StateInserting, next)

	next, err = Transition(next, EventInserted)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionMaxDurationActsLikeRelease(t *testing.T) {
	next, err := Transition(StateRecording, EventMaxDuration)
	require.NoError(t, err)
	require.Equal(t, StateTranscribing, next)
}

func TestTransitionDiscardReturnsToIdle(t *testing.T) {
	next, err := Transition(StateRecording, EventDiscard)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateRecording, StateTranscribing, StateInserting, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle release invalid", state: StateIdle, event: EventRelease, want: StateIdle, wantErr: true},
		{name: "idle inserted invalid", state: StateIdle, event: EventInserted, want: StateIdle, wantErr: true},
		{name: "recording press invalid", state: StateRecording, event: EventPress, want: StateRecording, wantErr: true},
		{name: "recording cleaned invalid", state: StateRecording, event: EventCleaned, want: StateRecording, wantErr: true},
		{name: "transcribing press invalid", state: StateTranscribing, event: EventPress, want: StateTranscribing, wantErr: true},
		{name: "transcribing release invalid", state: StateTranscribing, event: EventRelease, want: StateTranscribing, wantErr: true},
		{name: "inserting press invalid", state: StateInserting, event: EventPress, want: StateInserting, wantErr: true},
		{name: "inserting release invalid", state: StateInserting, event: EventRelease, want: StateInserting, wantErr: true},
		{name: "error press invalid", state: StateError, event: EventPress, want: StateError, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIsTriggerEvent(t *testing.T) {
	require.True(t, IsTriggerEvent(EventPress))
	require.True(t, IsTriggerEvent(EventRelease))
	require.False(t, IsTriggerEvent(EventCleaned))
	require.False(t, IsTriggerEvent(EventFail))
}

package toaster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_PushAssignsIncreasingIDs(t *testing.T) {
	var s State

	s.Push(KindInfo, "a", 5)
	s.Push(KindError, "b", 3)

	got := s.Toasts()
	require.Len(t, got, 2)
	assert.Equal(t, Toast{ID: 0, Kind: KindInfo, Message: "a", Duration: 5}, got[0])
	assert.Equal(t, Toast{ID: 1, Kind: KindError, Message: "b", Duration: 3}, got[1])
}

func TestState_IDsNotReusedAfterDismiss(t *testing.T) {
	var s State
	s.Push(KindInfo, "a", 1)
	s.Dismiss(0)
	s.Push(KindInfo, "b", 1)

	got := s.Toasts()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestState_AgeAndSetTimer(t *testing.T) {
	var s State
	s.Push(KindWarn, "w", 1)

	s.SetTimer(0, true)
	s.Age(0)

	got := s.Toasts()[0]
	assert.True(t, got.HasTimer)
	assert.Equal(t, 0, got.Duration)
}

func TestState_UnknownIDsAreNoOps(t *testing.T) {
	var s State
	s.Push(KindInfo, "a", 5)
	before := s.Toasts()

	s.Age(42)
	s.SetTimer(42, true)
	s.Dismiss(42)

	assert.Equal(t, before, s.Toasts())
}

func TestState_DismissRemovesOnlyMatching(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		timer    bool
	}{
		{name: "fresh", duration: 5},
		{name: "timed", duration: 3, timer: true},
		{name: "expired", duration: 0, timer: true},
		{name: "negative", duration: -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			s.Push(KindInfo, "keep-0", 5)
			s.Push(KindInfo, "target", tt.duration)
			s.Push(KindInfo, "keep-2", 5)
			s.SetTimer(1, tt.timer)

			s.Dismiss(1)

			got := s.Toasts()
			require.Len(t, got, 2)
			assert.Equal(t, 0, got[0].ID)
			assert.Equal(t, 2, got[1].ID)
		})
	}
}

func TestState_ToastsIsACopy(t *testing.T) {
	var s State
	s.Push(KindInfo, "a", 5)

	got := s.Toasts()
	got[0].Message = "changed"

	assert.Equal(t, "a", s.Toasts()[0].Message)
}

package goals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hustle-genie/utils"
)

type recordingSink struct {
	saved [][]Goal
	err   error
}

func (s *recordingSink) SaveGoals(goals []Goal) error {
	s.saved = append(s.saved, goals)
	return s.err
}

func newTracker(sink *recordingSink) *Tracker {
	return NewTracker([]Goal{Default}, sink, utils.NewNopLogger())
}

func TestAddGoal(t *testing.T) {
	sink := &recordingSink{}
	tr := newTracker(sink)

	g, err := tr.Add("  Etsy Shop ", 400, "")
	require.NoError(t, err)
	assert.Equal(t, Goal{Title: "Etsy Shop", Current: 0, Goal: 400}, g)
	assert.Equal(t, []Goal{Default, g}, tr.List())
	require.Len(t, sink.saved, 1)
	assert.Equal(t, tr.List(), sink.saved[0])
}

func TestAddDuplicateRejected(t *testing.T) {
	sink := &recordingSink{}
	tr := newTracker(sink)

	_, err := tr.Add("Etsy Shop", 400, "")
	require.NoError(t, err)

	_, err = tr.Add("Etsy Shop", 900, "")
	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Len(t, tr.List(), 2)
	assert.Len(t, sink.saved, 1)
}

func TestAddValidation(t *testing.T) {
	tr := newTracker(&recordingSink{})

	_, err := tr.Add("   ", 100, "")
	assert.ErrorIs(t, err, ErrInvalidGoal)
	_, err = tr.Add("Zero", 0, "")
	assert.ErrorIs(t, err, ErrInvalidGoal)
	assert.Len(t, tr.List(), 1)
}

func TestUpdateProgressClamps(t *testing.T) {
	tr := newTracker(&recordingSink{})

	tests := []struct {
		in, want float64
	}{
		{120, 120},
		{-5, 0},
		{9000, 500},
		{500, 500},
	}
	for _, tt := range tests {
		g, err := tr.UpdateProgress("My First Hustle", tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, g.Current)
	}

	_, err := tr.UpdateProgress("nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGoal(t *testing.T) {
	tr := newTracker(&recordingSink{})

	require.NoError(t, tr.Delete("My First Hustle"))
	assert.Empty(t, tr.List())
	assert.ErrorIs(t, tr.Delete("My First Hustle"), ErrNotFound)
}

func TestSinkFailureKeepsState(t *testing.T) {
	tr := newTracker(&recordingSink{err: errors.New("quota")})

	_, err := tr.Add("Etsy Shop", 400, "")
	require.NoError(t, err)
	assert.Len(t, tr.List(), 2)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.5, Goal{Current: 250, Goal: 500}.Progress())
	assert.Equal(t, 1.0, Goal{Current: 900, Goal: 500}.Progress())
	assert.Equal(t, 0.0, Goal{Current: 1}.Progress())
}

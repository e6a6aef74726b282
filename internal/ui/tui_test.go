package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	r, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))

	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestPopulationModel_ProgressView(t *testing.T) {
	// Given: a model halfway through adding records
	tracker := NewProgressTracker()
	tracker.SetStage(StageAdding, 200)
	tracker.Update(100)
	m := newPopulationModel(tracker, "index 7", true)

	// When: rendering
	view := m.View()

	// Then: the header, stages and counts are shown
	assert.Contains(t, view, "indexwrap populate • index 7")
	assert.Contains(t, view, "● Creating")
	assert.Contains(t, view, "Adding")
	assert.Contains(t, view, "○ Closing")
	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "100 / 200 records")
}

func TestPopulationModel_UnknownTotal(t *testing.T) {
	m := newPopulationModel(NewProgressTracker(), "", true)

	view := m.View()

	assert.Contains(t, view, "Creating...")
	assert.Contains(t, view, "q hides progress")
}

func TestPopulationModel_CompleteQuits(t *testing.T) {
	m := newPopulationModel(NewProgressTracker(), "", true)

	model, cmd := m.Update(completeMsg(CompletionStats{
		IndexID: 3, Records: 12, Target: "delegate: in-memory/1.0", Duration: 65 * time.Second,
	}))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	view := model.View()
	assert.Contains(t, view, "Population complete")
	assert.Contains(t, view, "12")
	assert.Contains(t, view, "1m 5s")
	assert.Contains(t, view, "delegate: in-memory/1.0")
}

func TestPopulationModel_KeysAndResize(t *testing.T) {
	m := newPopulationModel(NewProgressTracker(), "", true)

	_, _ = m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Equal(t, 20, m.bar.Width)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "population continues")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3 * time.Minute, "3m"},
		{185 * time.Second, "3m 5s"},
		{time.Hour + 2*time.Minute, "1h 2m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

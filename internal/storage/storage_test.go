package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadWithoutPriorSaveIsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.LoadSchedule()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := openTestStore(t)
	sched := model.Schedule{Version: 2, Programs: []model.Program{
		{ID: "p1", Name: "A", Weekdays: []model.Weekday{1}, StartTime: model.NewClockTime(6, 0, 0), Active: true,
			Zones: []model.ZoneAction{{ZoneIDs: []string{"mac/1"}, DurationSeconds: 30}}},
	}}

	require.NoError(t, s.SaveSchedule(sched))

	got, found, err := s.LoadSchedule()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sched, got)
}

func TestSaveRejectsOversizedBlob(t *testing.T) {
	s := openTestStore(t)
	zones := make([]model.ZoneAction, 0, 2000)
	for i := 0; i < 2000; i++ {
		zones = append(zones, model.ZoneAction{ZoneIDs: []string{strings.Repeat("z", 20)}, DurationSeconds: 1})
	}
	huge := model.Schedule{Version: 1, Programs: []model.Program{{ID: "p1", Zones: zones}}}

	err := s.SaveSchedule(huge)
	assert.Error(t, err)
}

func TestOverwriteReplacesPreviousSchedule(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveSchedule(model.Schedule{Version: 1}))
	require.NoError(t, s.SaveSchedule(model.Schedule{Version: 2}))

	got, found, err := s.LoadSchedule()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.Version)
}

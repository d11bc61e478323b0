package testutil

import (
	"testing"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/ingest"
	"github.com/banshee-data/gaze.report/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestWriteExport_LoadsBack(t *testing.T) {
	t.Parallel()

	s := DefaultSession(StandardTrials([]gaze.Direction{gaze.DirectionLeft}, 20, 30)...)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteExport(fsys, "/rec", s))

	ex, err := ingest.Load(fsys, "/rec", ingest.DefaultLayout())
	require.NoError(t, err)

	n := s.TotalFrames()
	assert.Len(t, ex.Input.World, n)
	assert.Len(t, ex.Input.Gaze, n)
	assert.Len(t, ex.Input.Pupil, n)
	assert.Len(t, ex.Input.Surfaces, n)
	assert.Len(t, ex.Input.Targets, n)
	assert.Equal(t, s.ExportSegments(), ex.Input.Segments)
	assert.Equal(t, FullFrameCorners(), ex.Input.Surfaces[0].Corners)
	require.NotNil(t, ex.Input.Targets[40].Center)
	assert.Equal(t, Positions[gaze.ZoneLeft], *ex.Input.Targets[40].Center)
}

func TestWriteExport_NoGaze(t *testing.T) {
	t.Parallel()

	s := DefaultSession(Phase{Zone: gaze.ZoneCenter, Frames: 5})
	s.NoGaze = true
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteExport(fsys, "/rec", s))

	ex, err := ingest.Load(fsys, "/rec", ingest.DefaultLayout())
	require.NoError(t, err)
	assert.Empty(t, ex.Input.Gaze)
	assert.Len(t, ex.Input.World, 5)
}

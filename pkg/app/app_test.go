package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/api"
	"igfollow/pkg/avatar"
	"igfollow/pkg/config"
	"igfollow/pkg/export"
	"igfollow/pkg/logger"
	"igfollow/pkg/sched"
	"igfollow/pkg/storage"
)

func TestStartupWithNoSurfaces(t *testing.T) {
	a := Startup(config.DefaultConfig(), nil, Options{Logger: logger.NewNopLogger()})

	require.NotNil(t, a)
	assert.NotNil(t, a.Binder)
	assert.Nil(t, a.Export, "no export panel means no export controller")
	assert.Nil(t, a.Preview, "no preview slot means no preview widget")
}

func TestStartupBindsAvatarSlots(t *testing.T) {
	empty := avatar.NewSlot()
	withSource := avatar.NewSlot()
	withSource.SetSource("https://unavatar.io/instagram/janedoe")

	a := Startup(config.DefaultConfig(), &Root{
		AvatarSlots: []*avatar.Slot{empty, withSource, nil},
	}, Options{Logger: logger.NewNopLogger()})

	require.NotNil(t, a)
	assert.True(t, empty.Bound())
	assert.True(t, empty.Fallback(), "sourceless slot falls back immediately")
	assert.True(t, withSource.Bound())
	assert.False(t, withSource.Fallback())
}

func TestStartupWithAllSurfaces(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.BaseURL = "http://localhost:1"

	downloads, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	previewSlot := avatar.NewSlot()
	clock := sched.NewManual()

	a := Startup(cfg, &Root{
		ExportPanel:  export.NopPanel{},
		ExportSubmit: export.NewBoolSubmit(),
		PreviewSlot:  previewSlot,
		PreviewInput: "@JaneDoe",
	}, Options{
		Client:    api.NewClient(&cfg.Service, logger.NewNopLogger()),
		Downloads: downloads,
		Scheduler: clock,
		Logger:    logger.NewNopLogger(),
	})

	require.NotNil(t, a.Export)
	require.NotNil(t, a.Preview)

	// The initial input value is applied without waiting for the debounce
	assert.Equal(t, "janedoe", a.Preview.Handle())
	assert.True(t, a.Preview.Visible())
	assert.True(t, previewSlot.Bound())

	// Later input goes through the debounce
	a.Preview.Input("other")
	clock.Advance(250 * time.Millisecond)
	assert.Equal(t, "other", a.Preview.Handle())
}

// Package app wires the three top-level controllers (avatar binder, export
// controller, preview widget) against whatever display surfaces the caller
// provides. Absent surfaces disable their controller instead of erroring,
// so the same startup path serves the full TUI and minimal scripted runs.
package app

import (
	"igfollow/pkg/api"
	"igfollow/pkg/avatar"
	"igfollow/pkg/config"
	"igfollow/pkg/export"
	"igfollow/pkg/logger"
	"igfollow/pkg/preview"
	"igfollow/pkg/sched"
	"igfollow/pkg/storage"
)

// Root holds the optional display surfaces of a session. Any nil (or empty)
// field simply disables the controller that would use it.
type Root struct {
	// AvatarSlots are the avatar surfaces in scope at startup
	AvatarSlots []*avatar.Slot

	// Export surfaces
	ExportPanel  export.ProgressPanel
	ExportSubmit export.SubmitControl
	Navigator    export.Navigator

	// Preview surfaces
	PreviewSlot *avatar.Slot
	// PreviewInput is the input's value at startup, applied immediately
	PreviewInput string
}

// Options carries the shared infrastructure controllers depend on
type Options struct {
	Client    *api.Client
	Downloads *storage.Manager
	Scheduler sched.Scheduler
	Logger    logger.Logger
}

// App is the assembled session
type App struct {
	Binder  *avatar.Binder
	Export  *export.Controller
	Preview *preview.Widget
}

// Startup binds avatar slots and registers the export and preview
// controllers for the surfaces present in root
func Startup(cfg *config.Config, root *Root, opts Options) *App {
	if root == nil {
		root = &Root{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = sched.New()
	}

	a := &App{
		Binder: avatar.NewBinder(opts.Logger),
	}

	a.Binder.BindAll(root.AvatarSlots)

	if root.ExportPanel != nil && opts.Client != nil && opts.Downloads != nil {
		a.Export = export.NewController(cfg, export.Deps{
			Client:    opts.Client,
			Downloads: opts.Downloads,
			Panel:     root.ExportPanel,
			Submit:    root.ExportSubmit,
			Navigator: root.Navigator,
			Scheduler: opts.Scheduler,
			Logger:    opts.Logger,
		})
	}

	if root.PreviewSlot != nil {
		a.Preview = preview.NewWidget(cfg, root.PreviewSlot, a.Binder, opts.Scheduler, opts.Logger)
		a.Preview.Start(root.PreviewInput)
	}

	return a
}

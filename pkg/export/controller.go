package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"igfollow/pkg/api"
	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/logger"
	"igfollow/pkg/sched"
	"igfollow/pkg/snapshot"
	"igfollow/pkg/storage"
)

// Result describes how a submission ended
type Result struct {
	Phase       Phase
	SavedPath   string
	RedirectURL string
}

// Deps are the collaborators one controller drives. Panel, Submit, Scheduler
// and Logger get working defaults when nil; Client and Downloads are required.
type Deps struct {
	Client    *api.Client
	Downloads *storage.Manager
	Panel     ProgressPanel
	Submit    SubmitControl
	Navigator Navigator
	Scheduler sched.Scheduler
	Logger    logger.Logger

	// Increment picks the simulated progress step. Overridden in tests.
	Increment func(min, max int) int
}

// Controller drives one export request/response cycle with user-facing
// progress feedback. The server only answers at completion, so progress is
// simulated by a ticker until the real response arrives.
type Controller struct {
	cfg  *config.Config
	deps Deps

	mu         sync.Mutex
	phase      Phase
	percent    int
	ticker     sched.Ticker
	hideTimer  sched.Timer
	resetTimer sched.Timer
}

// NewController creates a controller
func NewController(cfg *config.Config, deps Deps) *Controller {
	if deps.Panel == nil {
		deps.Panel = NopPanel{}
	}
	if deps.Submit == nil {
		deps.Submit = NewBoolSubmit()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = sched.New()
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}
	if deps.Increment == nil {
		deps.Increment = defaultIncrement
	}

	return &Controller{
		cfg:   cfg,
		deps:  deps,
		phase: PhaseIdle,
	}
}

func defaultIncrement(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

// Phase returns the current submission phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Percent returns the current progress value
func (c *Controller) Percent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.percent
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// Preflight rejects exports that exceed the free limit before any request
// is made, mirroring the server's paywall check
func Preflight(entryCount int) error {
	if snapshot.ExceedsFreeLimit(entryCount) {
		return errors.New(errors.ErrorTypePaymentRequired,
			fmt.Sprintf("export of %d profiles exceeds the free limit of %d",
				entryCount, snapshot.FreeExportLimit), http.StatusPaymentRequired)
	}
	return nil
}

// Submit runs one export submission end to end. A second call while one is
// in flight is rejected. The submit control is re-enabled on every path.
func (c *Controller) Submit(ctx context.Context, accountID int64, snapshotType, format string) (*Result, error) {
	snapshotType, err := snapshot.ValidateType(snapshotType)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeExport, err.Error(), 0)
	}
	format, err = snapshot.ValidateFormat(format)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeExport, err.Error(), 0)
	}

	c.mu.Lock()
	if !c.deps.Submit.Enabled() {
		c.mu.Unlock()
		return nil, errors.New(errors.ErrorTypeExport, "an export is already in progress", 0)
	}
	c.deps.Submit.SetEnabled(false)
	c.phase = PhaseSubmitting
	c.percent = c.cfg.Progress.InitialPercent
	// A pending hide or reset from the previous submission must not fire
	// into this one
	hide, reset := c.hideTimer, c.resetTimer
	c.hideTimer, c.resetTimer = nil, nil
	c.mu.Unlock()

	if hide != nil {
		hide.Stop()
	}
	if reset != nil {
		reset.Stop()
	}

	// Guaranteed re-enable regardless of which terminal state is reached
	defer c.deps.Submit.SetEnabled(true)

	panel := c.deps.Panel
	panel.Show()
	panel.SetErrored(false)
	panel.SetPercent(clampPercent(c.cfg.Progress.InitialPercent))
	panel.SetStatus(statusForPercent(c.cfg.Progress.InitialPercent))
	c.startTicker()

	form := url.Values{}
	form.Set("snapshot_type", snapshotType)
	form.Set("export_format", format)

	c.setPhase(PhaseAwaitingResponse)
	resp, err := c.deps.Client.PostForm(ctx, api.ExportPath(accountID), form)
	if err != nil {
		return nil, c.fail(msgGeneric, err)
	}
	defer resp.Body.Close()

	// The real response supersedes the simulation
	c.stopTicker()

	if c.cfg.Service.ResponseMode == config.ResponseModeBinary {
		return c.handleBinary(resp, format)
	}
	return c.handleEnvelope(ctx, resp, format)
}

// handleBinary treats the response body as the export file itself
func (c *Controller) handleBinary(resp *http.Response, format string) (*Result, error) {
	if err := c.deps.Client.CheckResponseStatus(resp); err != nil {
		return nil, c.fail(msgGeneric, err)
	}

	c.beginPackaging()
	return c.save(resp, format)
}

// handleEnvelope interprets the JSON response contract
func (c *Controller) handleEnvelope(ctx context.Context, resp *http.Response, format string) (*Result, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(msgGeneric, errors.New(errors.ErrorTypeNetwork,
			fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode))
	}

	// A malformed body behaves like an empty payload; the downstream checks
	// then surface the generic failure message
	var env Envelope
	if unmarshalErr := json.Unmarshal(body, &env); unmarshalErr != nil {
		c.deps.Logger.WarnWithFields("unparseable export response body", map[string]interface{}{
			"status": resp.StatusCode,
			"error":  unmarshalErr.Error(),
		})
		env = Envelope{}
	}

	// Redirect instructions win even on a paywall status code
	if env.Status == StatusRedirect {
		if env.URL == "" {
			return nil, c.fail(msgGeneric, errors.New(errors.ErrorTypeExport,
				"redirect response missing url", resp.StatusCode))
		}
		target := c.deps.Client.ResolveURL(env.URL)
		c.setPhase(PhaseRedirecting)
		c.deps.Panel.Hide()
		if c.deps.Navigator != nil {
			c.deps.Navigator.Navigate(target)
		}
		c.deps.Logger.InfoWithFields("export redirected", map[string]interface{}{"url": target})
		return &Result{Phase: PhaseRedirecting, RedirectURL: target}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := env.Message
		if message == "" {
			message = msgGeneric
		}
		cause := c.deps.Client.CheckResponseStatus(resp)
		if cause == nil {
			cause = errors.New(errors.ErrorTypeExport, message, resp.StatusCode)
		}
		return nil, c.fail(message, cause)
	}

	switch env.Status {
	case StatusOK:
		if env.DownloadURL == "" {
			return nil, c.fail(msgGeneric, errors.New(errors.ErrorTypeExport,
				"response missing download_url", resp.StatusCode))
		}
		return c.download(ctx, env.DownloadURL, format)
	default:
		message := env.Message
		if message == "" {
			message = msgGeneric
		}
		return nil, c.fail(message, errors.New(errors.ErrorTypeExport, message, resp.StatusCode))
	}
}

// download fetches the artifact through the relay URL with a cache-defeating
// query parameter
func (c *Controller) download(ctx context.Context, downloadURL, format string) (*Result, error) {
	c.beginPackaging()

	sep := "?"
	if strings.Contains(downloadURL, "?") {
		sep = "&"
	}
	busted := fmt.Sprintf("%s%s_=%d", downloadURL, sep, c.deps.Scheduler.Now().UnixMilli())

	resp, err := c.deps.Client.Get(ctx, busted)
	if err != nil {
		return nil, c.fail(msgGeneric, err)
	}
	defer resp.Body.Close()

	if err := c.deps.Client.CheckResponseStatus(resp); err != nil {
		return nil, c.fail(msgGeneric, err)
	}

	return c.save(resp, format)
}

func (c *Controller) beginPackaging() {
	c.setPhase(PhasePackaging)
	c.mu.Lock()
	c.percent = c.cfg.Progress.PackagingPercent
	c.mu.Unlock()
	c.deps.Panel.SetPercent(clampPercent(c.cfg.Progress.PackagingPercent))
	c.deps.Panel.SetStatus(msgPackaging)
}

// save writes the artifact to the download directory and finishes the cycle
func (c *Controller) save(resp *http.Response, format string) (*Result, error) {
	filename := storage.FilenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = storage.DefaultExportName(format)
	}

	path, err := c.deps.Downloads.Save(resp.Body, filename)
	if err != nil {
		return nil, c.fail(msgGeneric, errors.New(errors.ErrorTypeExport,
			fmt.Sprintf("failed to save export: %v", err), 0))
	}

	c.mu.Lock()
	c.percent = 100
	c.mu.Unlock()
	c.deps.Panel.SetPercent(100)
	c.deps.Panel.SetStatus(msgReady)
	c.setPhase(PhaseReady)

	c.deps.Logger.InfoWithFields("export saved", map[string]interface{}{
		"path":   path,
		"format": format,
	})

	timer := c.deps.Scheduler.AfterFunc(c.cfg.Export.HideDelay, func() {
		c.deps.Panel.Hide()
		c.setPhase(PhaseIdle)
	})
	c.mu.Lock()
	c.hideTimer = timer
	c.mu.Unlock()

	return &Result{Phase: PhaseReady, SavedPath: path}, nil
}

// fail moves the submission to the Failed state, surfaces the message on the
// panel, and schedules the panel reset
func (c *Controller) fail(message string, cause error) error {
	c.stopTicker()
	c.setPhase(PhaseFailed)

	c.mu.Lock()
	c.percent = 0
	c.mu.Unlock()

	panel := c.deps.Panel
	panel.SetPercent(0)
	panel.SetStatus(message)
	panel.SetErrored(true)

	c.deps.Logger.ErrorWithFields("export failed", map[string]interface{}{
		"message": message,
		"error":   cause.Error(),
	})

	timer := c.deps.Scheduler.AfterFunc(c.cfg.Export.ErrorResetDelay, func() {
		panel.SetErrored(false)
		panel.Hide()
		c.setPhase(PhaseIdle)
	})
	c.mu.Lock()
	c.resetTimer = timer
	c.mu.Unlock()

	return cause
}

// startTicker begins the simulated progress updates
func (c *Controller) startTicker() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticker = c.deps.Scheduler.Every(c.cfg.Progress.TickInterval, c.tick)
}

// stopTicker halts the simulation. Safe to call when no ticker is running.
func (c *Controller) stopTicker() {
	c.mu.Lock()
	ticker := c.ticker
	c.ticker = nil
	c.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}
}

// tick advances the simulated progress. The value never passes the ceiling,
// reserving the top of the bar for real completion; reaching the ceiling
// stops the ticker.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.ticker == nil {
		c.mu.Unlock()
		return
	}

	c.percent += c.deps.Increment(c.cfg.Progress.IncrementMin, c.cfg.Progress.IncrementMax)

	var ticker sched.Ticker
	if c.percent >= c.cfg.Progress.Ceiling {
		c.percent = c.cfg.Progress.Ceiling
		ticker = c.ticker
		c.ticker = nil
	}
	percent := c.percent
	c.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
	}

	c.deps.Panel.SetPercent(clampPercent(percent))
	c.deps.Panel.SetStatus(statusForPercent(percent))
}

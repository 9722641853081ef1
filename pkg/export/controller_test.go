package export

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollow/pkg/api"
	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/logger"
	"igfollow/pkg/sched"
	"igfollow/pkg/storage"
)

// recordingPanel captures every panel mutation for assertions
type recordingPanel struct {
	mu       sync.Mutex
	visible  bool
	errored  bool
	percents []int
	statuses []string
}

func (p *recordingPanel) Show() {
	p.mu.Lock()
	p.visible = true
	p.mu.Unlock()
}

func (p *recordingPanel) Hide() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
}

func (p *recordingPanel) SetPercent(percent int) {
	p.mu.Lock()
	p.percents = append(p.percents, percent)
	p.mu.Unlock()
}

func (p *recordingPanel) SetStatus(message string) {
	p.mu.Lock()
	p.statuses = append(p.statuses, message)
	p.mu.Unlock()
}

func (p *recordingPanel) SetErrored(errored bool) {
	p.mu.Lock()
	p.errored = errored
	p.mu.Unlock()
}

func (p *recordingPanel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *recordingPanel) Errored() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errored
}

func (p *recordingPanel) Percents() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.percents))
	copy(out, p.percents)
	return out
}

func (p *recordingPanel) LastStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.statuses) == 0 {
		return ""
	}
	return p.statuses[len(p.statuses)-1]
}

type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(url string) {
	n.mu.Lock()
	n.urls = append(n.urls, url)
	n.mu.Unlock()
}

type fixture struct {
	controller *Controller
	panel      *recordingPanel
	submit     *BoolSubmit
	navigator  *recordingNavigator
	clock      *sched.Manual
	downloads  *storage.Manager
}

func newFixture(t *testing.T, serverURL, responseMode string) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Service.BaseURL = serverURL
	cfg.Service.ResponseMode = responseMode
	cfg.Service.SessionCookie = "cookie"
	cfg.Service.CSRFToken = "token"

	downloads, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	panel := &recordingPanel{}
	submit := NewBoolSubmit()
	navigator := &recordingNavigator{}
	clock := sched.NewManual()

	controller := NewController(cfg, Deps{
		Client:    api.NewClient(&cfg.Service, logger.NewNopLogger()),
		Downloads: downloads,
		Panel:     panel,
		Submit:    submit,
		Navigator: navigator,
		Scheduler: clock,
		Logger:    logger.NewNopLogger(),
		Increment: func(min, max int) int { return 10 },
	})

	return &fixture{
		controller: controller,
		panel:      panel,
		submit:     submit,
		navigator:  navigator,
		clock:      clock,
		downloads:  downloads,
	}
}

func TestSubmitSuccessJSONEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/7/export", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "followers", r.PostForm.Get("snapshot_type"))
		assert.Equal(t, "csv", r.PostForm.Get("export_format"))
		fmt.Fprint(w, `{"status":"ok","download_url":"/files/export.csv"}`)
	})
	mux.HandleFunc("/files/export.csv", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("_"), "relay download must carry a cache buster")
		w.Header().Set("Content-Disposition", `attachment; filename="followers_export.csv"`)
		w.Write([]byte("username\nalice\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeJSON)

	result, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.NoError(t, err)

	assert.Equal(t, PhaseReady, result.Phase)
	content, err := os.ReadFile(result.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, "username\nalice\n", string(content))
	assert.Contains(t, result.SavedPath, "followers_export.csv")

	assert.Equal(t, msgReady, f.panel.LastStatus())
	percents := f.panel.Percents()
	assert.Equal(t, 100, percents[len(percents)-1])
	assert.True(t, f.submit.Enabled(), "submit must be re-enabled after success")

	// Panel hides after the configured delay
	assert.True(t, f.panel.Visible())
	f.clock.Advance(1500 * time.Millisecond)
	assert.False(t, f.panel.Visible())
	assert.Equal(t, PhaseIdle, f.controller.Phase())
}

func TestSimulatedProgressStopsAtCeiling(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/7/export", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		fmt.Fprint(w, `{"status":"ok","download_url":"/files/export.csv"}`)
	})
	mux.HandleFunc("/files/export.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeJSON)

	done := make(chan struct{})
	var result *Result
	var submitErr error
	go func() {
		result, submitErr = f.controller.Submit(context.Background(), 7, "followers", "csv")
		close(done)
	}()

	<-started
	assert.False(t, f.submit.Enabled(), "submit must be disabled while in flight")

	// Increment is fixed at 10 from an initial 8: 18, 28, ..., 68, 75.
	// Extra ticks past the ceiling must be no-ops.
	for i := 0; i < 20; i++ {
		f.clock.Advance(400 * time.Millisecond)
	}

	for _, p := range f.panel.Percents() {
		assert.Less(t, p, 76, "simulated progress must never reach 76 before the response")
	}
	percents := f.panel.Percents()
	assert.Equal(t, 75, percents[len(percents)-1])
	ticksAtCeiling := len(percents)

	f.clock.Advance(4 * time.Second)
	assert.Len(t, f.panel.Percents(), ticksAtCeiling, "ticker must self-stop at the ceiling")

	close(release)
	<-done

	require.NoError(t, submitErr)
	assert.Equal(t, PhaseReady, result.Phase)
	assert.True(t, f.submit.Enabled())
}

func TestProgressNarrationThresholds(t *testing.T) {
	assert.Equal(t, msgProcessing, statusForPercent(8))
	assert.Equal(t, msgProcessing, statusForPercent(29))
	assert.Equal(t, msgCrunching, statusForPercent(30))
	assert.Equal(t, msgCrunching, statusForPercent(59))
	assert.Equal(t, msgAlmost, statusForPercent(60))
	assert.Equal(t, msgAlmost, statusForPercent(75))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, clampPercent(-5))
	assert.Equal(t, 0, clampPercent(0))
	assert.Equal(t, 42, clampPercent(42))
	assert.Equal(t, 100, clampPercent(100))
	assert.Equal(t, 100, clampPercent(140))
}

func TestSubmitErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","message":"Limit exceeded"}`)
	}))
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeJSON)

	_, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.Error(t, err)

	assert.Equal(t, "Limit exceeded", f.panel.LastStatus())
	assert.True(t, f.panel.Errored())
	percents := f.panel.Percents()
	assert.Equal(t, 0, percents[len(percents)-1])
	assert.True(t, f.submit.Enabled(), "submit must be re-enabled after failure")
	assert.Equal(t, PhaseFailed, f.controller.Phase())

	// Error styling clears after the reset delay
	f.clock.Advance(4 * time.Second)
	assert.False(t, f.panel.Errored())
	assert.False(t, f.panel.Visible())
	assert.Equal(t, PhaseIdle, f.controller.Phase())
}

func TestSubmitMalformedBodyFailsGenerically(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>definitely not json</html>`)
	}))
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeJSON)

	_, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.Error(t, err)

	assert.Equal(t, msgGeneric, f.panel.LastStatus())
	assert.True(t, f.submit.Enabled())
}

func TestSubmitRedirectEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"status":"redirect","url":"/billing/upgrade"}`)
	}))
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeJSON)

	result, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.NoError(t, err)

	assert.Equal(t, PhaseRedirecting, result.Phase)
	assert.Equal(t, server.URL+"/billing/upgrade", result.RedirectURL)
	require.Len(t, f.navigator.urls, 1)
	assert.Equal(t, server.URL+"/billing/upgrade", f.navigator.urls[0])
	assert.True(t, f.submit.Enabled())
}

func TestSubmitNetworkFailure(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:0", config.ResponseModeJSON)

	_, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.Error(t, err)

	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNetwork, apiErr.Type)
	assert.Equal(t, msgGeneric, f.panel.LastStatus())
	assert.True(t, f.panel.Errored())
	assert.True(t, f.submit.Enabled())
}

func TestSubmitBinaryResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="snapshot.xlsx"`)
		w.Write([]byte("binary-bytes"))
	}))
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeBinary)

	result, err := f.controller.Submit(context.Background(), 7, "following", "xlsx")
	require.NoError(t, err)

	assert.Equal(t, PhaseReady, result.Phase)
	assert.Contains(t, result.SavedPath, "snapshot.xlsx")
	content, err := os.ReadFile(result.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", string(content))
}

func TestSubmitBinaryDefaultFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("binary-bytes"))
	}))
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeBinary)

	result, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.NoError(t, err)
	assert.Contains(t, result.SavedPath, "export.csv")
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	f := newFixture(t, "http://localhost:1", config.ResponseModeJSON)
	f.submit.SetEnabled(false)

	_, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.Error(t, err)

	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeExport, apiErr.Type)
	assert.False(t, f.submit.Enabled(), "a rejected submission must not re-enable a foreign in-flight submit")
}

func TestSubmitValidatesInputs(t *testing.T) {
	f := newFixture(t, "http://localhost:1", config.ResponseModeJSON)

	_, err := f.controller.Submit(context.Background(), 7, "friends", "csv")
	assert.Error(t, err)

	_, err = f.controller.Submit(context.Background(), 7, "followers", "pdf")
	assert.Error(t, err)

	assert.True(t, f.submit.Enabled(), "validation failures happen before the submit control is touched")
}

func TestPreflight(t *testing.T) {
	assert.NoError(t, Preflight(600))

	err := Preflight(601)
	require.Error(t, err)
	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypePaymentRequired, apiErr.Type)
}

func TestCompletionTimersDoNotLeakAcrossSubmissions(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/7/export", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			fmt.Fprint(w, `{"status":"ok","download_url":"/files/export.csv"}`)
			return
		}
		fmt.Fprint(w, `{"status":"error","message":"Limit exceeded"}`)
	})
	mux.HandleFunc("/files/export.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFixture(t, server.URL, config.ResponseModeJSON)

	// First submission succeeds and schedules its hide timer
	result, err := f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, result.Phase)

	// Second submission starts inside the hide window and fails
	_, err = f.controller.Submit(context.Background(), 7, "followers", "csv")
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, f.controller.Phase())

	// The first submission's hide timer must not clear the failure display
	f.clock.Advance(1500 * time.Millisecond)
	assert.True(t, f.panel.Visible(), "stale hide timer must not hide the failed panel")
	assert.True(t, f.panel.Errored())
	assert.Equal(t, PhaseFailed, f.controller.Phase())

	// The failure still resets after its own delay
	f.clock.Advance(2500 * time.Millisecond)
	assert.False(t, f.panel.Visible())
	assert.Equal(t, PhaseIdle, f.controller.Phase())
}

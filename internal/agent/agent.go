// Package agent pushes the local tracking state to the server. It reacts to
// state-file changes with a short debounce and also pushes on a fixed
// interval so the server converges even when file events are missed.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/groblegark/cadence/internal/client"
	"github.com/groblegark/cadence/internal/localstate"
	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
)

const (
	// DefaultInterval is the unconditional push period.
	DefaultInterval = 5 * time.Minute
	// DefaultDebounce is how long to wait after a file change before
	// pushing, coalescing bursts of writes into one upsert.
	DefaultDebounce = time.Second
)

// Options tune the agent's timing. Zero values select the defaults.
type Options struct {
	Interval time.Duration
	Debounce time.Duration
	Logger   *slog.Logger
}

// Agent watches the local state file and mirrors it to the server.
// Pushes are fire-and-forget: failures are logged and the next trigger
// tries again, except a disabled metrics backend which stops the agent.
type Agent struct {
	state    *localstate.Store
	client   client.TrackerClient
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an agent syncing the given state store through the client.
func New(state *localstate.Store, c client.TrackerClient, opts Options) *Agent {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Agent{
		state:    state,
		client:   c,
		interval: opts.Interval,
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
}

// Start begins watching and pushing. It pushes once immediately so the
// server reflects local state from the moment the agent comes up.
func (a *Agent) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory: the state file is replaced by rename on every
	// write, which silently drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(a.state.Path())); err != nil {
		watcher.Close()
		return fmt.Errorf("watching state directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer watcher.Close()
		a.run(ctx, watcher)
	}()
	return nil
}

// Stop cancels the agent and waits for the in-flight push (if any) to finish.
func (a *Agent) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

func (a *Agent) run(ctx context.Context, watcher *fsnotify.Watcher) {
	if !a.push(ctx) {
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	// The debounce timer starts stopped and is rearmed on every relevant
	// file event; it fires once the burst of writes settles.
	debounce := time.NewTimer(a.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	statePath := filepath.Clean(a.state.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != statePath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(a.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.Warn("state watcher error", "error", err)
		case <-debounce.C:
			if !a.push(ctx) {
				return
			}
		case <-ticker.C:
			if !a.push(ctx) {
				return
			}
		}
	}
}

// push uploads the current local state. It returns false when the agent
// should stop (metrics backend disabled).
func (a *Agent) push(ctx context.Context) bool {
	st, err := a.state.Snapshot()
	if err != nil {
		a.logger.Warn("reading local state failed", "error", err)
		return true
	}

	row := &model.DailyMetrics{
		Date:      st.Date,
		Checklist: st.Checklist,
		Actions:   st.Actions,
		Score:     a.currentScore(ctx, st),
	}
	if err := a.client.UpsertDaily(ctx, row); err != nil {
		if client.IsBackendDisabled(err) {
			a.logger.Warn("metrics backend disabled, stopping sync agent")
			return false
		}
		if ctx.Err() == nil {
			a.logger.Warn("daily sync push failed", "date", row.Date, "error", err)
		}
		return true
	}
	a.logger.Debug("daily state pushed", "date", row.Date, "score", row.Score)
	return true
}

// currentScore recomputes the score against the live configs so the pushed
// row stays correct even when the CLI last wrote a stale score. Falls back
// to the last recorded score if the configs cannot be fetched.
func (a *Agent) currentScore(ctx context.Context, st *localstate.State) int {
	checklist, actions, scoring, err := a.fetchConfigs(ctx)
	if err != nil {
		a.logger.Debug("config fetch failed, using recorded score", "error", err)
		return st.Score
	}
	return localstate.Score(st, checklist, actions, scoring)
}

func (a *Agent) fetchConfigs(ctx context.Context) (*schema.ChecklistConfig, *schema.ActionsConfig, *schema.ScoringConfig, error) {
	var checklist schema.ChecklistConfig
	if err := a.fetchConfig(ctx, schema.CategoryChecklist, &checklist); err != nil {
		return nil, nil, nil, err
	}
	var actions schema.ActionsConfig
	if err := a.fetchConfig(ctx, schema.CategoryActions, &actions); err != nil {
		return nil, nil, nil, err
	}
	var scoring schema.ScoringConfig
	if err := a.fetchConfig(ctx, schema.CategoryScoring, &scoring); err != nil {
		return nil, nil, nil, err
	}
	return &checklist, &actions, &scoring, nil
}

func (a *Agent) fetchConfig(ctx context.Context, cat schema.Category, v any) error {
	raw, err := a.client.GetConfig(ctx, cat)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s config: %w", cat, err)
	}
	return nil
}

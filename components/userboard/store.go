package userboard

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DemoAdvisory is shown while the store serves the fallback dataset.
const DemoAdvisory = "Cannot reach the backend API; showing demo data."

var (
	// ErrConflict matches a create rejected because the name already exists.
	ErrConflict = errors.New("userboard: user name already exists")
	// ErrRejected matches a write the backend refused as invalid.
	ErrRejected = errors.New("userboard: rejected by backend validation")
	// ErrUnavailable matches transport failures reaching the backend.
	ErrUnavailable = errors.New("userboard: backend unavailable")

	// ErrDeleteNotConfirmed is returned when the user declines a delete.
	ErrDeleteNotConfirmed = errors.New("userboard: delete not confirmed")
	// ErrNoFileSelected is returned when an upload has no file.
	ErrNoFileSelected = errors.New("userboard: no CSV file selected")
	// ErrNotCSV is returned when the selected file is not a .csv file.
	ErrNotCSV = errors.New("userboard: selected file is not a CSV")

	errMissingFallback = errors.New("userboard: fallback source not configured")
	errMissingRemote   = errors.New("userboard: remote source not configured")
)

// Options configures the Store. Every collaborator is an interface so
// transports and tests can swap implementations.
type Options struct {
	Remote      DataSource
	Fallback    FallbackSource
	Validator   UserValidator
	Telemetry   Telemetry
	RefreshHook RefreshHook
	Logger      *zap.Logger
	Clock       func() time.Time
}

// Store owns the view state and routes intents to the active data source.
type Store struct {
	opts      Options
	mu        sync.RWMutex
	state     State
	refreshes singleflight.Group

	// refreshSeq numbers refreshes as they start; appliedSeq is the newest
	// one whose result reached state.
	refreshSeq uint64
	appliedSeq uint64
}

// NewStore builds a Store with safe defaults.
func NewStore(opts Options) *Store {
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Store{
		opts: opts,
		state: State{
			Stats:    AgeGroupStats{},
			Controls: DefaultViewControls(),
			Upload:   UploadState{Status: UploadIdle},
		},
	}
}

// RefreshAll reloads users and stats from the remote source. When either
// fetch fails the store switches to the fallback dataset and demo mode.
// Overlapping calls share the in-flight refresh.
func (s *Store) RefreshAll(ctx context.Context) error {
	if s.opts.Fallback == nil {
		return errMissingFallback
	}
	_, err, _ := s.refreshes.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

// refreshAfterWrite starts a fresh remote read. A refresh already in flight
// may have listed users before the write landed, so it is not joined.
func (s *Store) refreshAfterWrite(ctx context.Context) error {
	if s.opts.Fallback == nil {
		return errMissingFallback
	}
	s.refreshes.Forget("refresh")
	return s.RefreshAll(ctx)
}

func (s *Store) refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	s.state.Loading = true
	s.state.Advisory = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
	}()

	started := s.opts.Clock()
	users, stats, fetchErr := s.fetchRemote(ctx)
	if fetchErr == nil {
		if !s.apply(seq, users, stats, false) {
			return nil
		}
		s.emit(ctx, StoreEvent{Reason: "refresh", Count: len(users)})
		s.opts.Telemetry.Record(ctx, "userboard.refresh.duration", map[string]any{
			"seconds": s.opts.Clock().Sub(started).Seconds(),
			"demo":    false,
		})
		return nil
	}

	// A caller that gave up says nothing about the backend.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("userboard: refresh: %w", ctxErr)
	}
	s.opts.Logger.Warn("backend unreachable, switching to demo data", zap.Error(fetchErr))
	s.opts.Fallback.Reset()
	users, stats, err := readAll(ctx, s.opts.Fallback)
	if err != nil {
		return fmt.Errorf("userboard: read fallback dataset: %w", err)
	}
	if !s.apply(seq, users, stats, true) {
		return nil
	}
	s.emit(ctx, StoreEvent{Reason: "fallback", Count: len(users)})
	s.opts.Telemetry.Record(ctx, "userboard.refresh.duration", map[string]any{
		"seconds": s.opts.Clock().Sub(started).Seconds(),
		"demo":    true,
	})
	return nil
}

// apply stores a refresh result unless a newer refresh already landed.
func (s *Store) apply(seq uint64, users []User, stats AgeGroupStats, demo bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.state.Users = users
	s.state.Stats = stats
	s.state.DemoMode = demo
	s.state.Advisory = ""
	if demo {
		s.state.Advisory = DemoAdvisory
	}
	return true
}

// fetchRemote runs both reads concurrently; either failure fails the pair.
func (s *Store) fetchRemote(ctx context.Context) ([]User, AgeGroupStats, error) {
	if s.opts.Remote == nil {
		return nil, nil, errMissingRemote
	}
	var (
		users []User
		stats AgeGroupStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.opts.Remote.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		users = list
		return nil
	})
	g.Go(func() error {
		groups, err := s.opts.Remote.AgeGroupStats(gctx)
		if err != nil {
			return fmt.Errorf("age group stats: %w", err)
		}
		stats = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if users == nil {
		users = []User{}
	}
	if stats == nil {
		stats = AgeGroupStats{}
	}
	return users, stats, nil
}

func readAll(ctx context.Context, source DataSource) ([]User, AgeGroupStats, error) {
	users, err := source.ListUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats, err := source.AgeGroupStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return users, stats, nil
}

// reloadLocal re-reads the fallback copy after a demo-mode write. It never
// touches the network.
func (s *Store) reloadLocal(ctx context.Context) error {
	users, err := s.opts.Fallback.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("userboard: reload demo users: %w", err)
	}
	s.mu.Lock()
	s.state.Users = users
	s.mu.Unlock()
	return nil
}

// Create submits the create form. Invalid input never leaves the process.
func (s *Store) Create(ctx context.Context, form CreateForm) error {
	s.mu.Lock()
	s.state.Form = form
	s.mu.Unlock()

	user, err := ParseCreateForm(form)
	if err == nil {
		err = s.opts.Validator.ValidateUser(user)
	}
	if err != nil {
		s.setNotice(NoticeValidation, "Validation error: "+detailOf(err))
		return err
	}

	if s.DemoMode() {
		if s.opts.Fallback == nil {
			return errMissingFallback
		}
		if err := s.opts.Fallback.CreateUser(ctx, user); err != nil {
			s.noticeForWrite("Create failed", err)
			return err
		}
		if err := s.reloadLocal(ctx); err != nil {
			return err
		}
		s.clearForm()
		s.setNotice(NoticeInfo, "Demo mode: "+user.Name+" was added locally and not saved to the backend.")
		s.emit(ctx, StoreEvent{Reason: "create", Name: user.Name})
		return nil
	}

	if s.opts.Remote == nil {
		return errMissingRemote
	}
	if err := s.opts.Remote.CreateUser(ctx, user); err != nil {
		s.noticeForWrite("Create failed", err)
		return err
	}
	s.clearForm()
	s.emit(ctx, StoreEvent{Reason: "create", Name: user.Name})
	return s.refreshAfterWrite(ctx)
}

// Delete removes a user by name once the confirmer approves.
func (s *Store) Delete(ctx context.Context, name string, confirm Confirmer) error {
	if name == "" {
		s.setNotice(NoticeValidation, "Validation error: name is required")
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if confirm == nil || !confirm.Confirm(ctx, fmt.Sprintf("Delete user %s?", name)) {
		return ErrDeleteNotConfirmed
	}

	if s.DemoMode() {
		if s.opts.Fallback == nil {
			return errMissingFallback
		}
		if err := s.opts.Fallback.DeleteUser(ctx, name); err != nil {
			s.noticeForWrite("Delete failed", err)
			return err
		}
		if err := s.reloadLocal(ctx); err != nil {
			return err
		}
		s.emit(ctx, StoreEvent{Reason: "delete", Name: name})
		return nil
	}

	if s.opts.Remote == nil {
		return errMissingRemote
	}
	if err := s.opts.Remote.DeleteUser(ctx, name); err != nil {
		s.noticeForWrite("Delete failed", err)
		return err
	}
	s.emit(ctx, StoreEvent{Reason: "delete", Name: name})
	return s.refreshAfterWrite(ctx)
}

// Upload sends a CSV file for bulk creation.
func (s *Store) Upload(ctx context.Context, upload CSVUpload) (UploadResult, error) {
	if upload.Content == nil || strings.TrimSpace(upload.Filename) == "" {
		s.setNotice(NoticeValidation, "Select a CSV file first.")
		return UploadResult{}, ErrNoFileSelected
	}
	if !strings.EqualFold(filepath.Ext(upload.Filename), ".csv") {
		s.setNotice(NoticeValidation, "Only .csv files can be uploaded.")
		return UploadResult{}, ErrNotCSV
	}

	if s.DemoMode() {
		if s.opts.Fallback == nil {
			return UploadResult{}, errMissingFallback
		}
		result, err := s.opts.Fallback.UploadCSV(ctx, upload)
		if err != nil {
			s.setUpload(UploadState{Status: UploadFailed, Reason: detailOf(err)})
			return UploadResult{}, err
		}
		s.setUpload(UploadState{Status: UploadSimulated})
		s.setNotice(NoticeInfo, "Demo mode: the file was not sent to the backend.")
		s.emit(ctx, StoreEvent{Reason: "upload", Name: upload.Filename})
		return result, nil
	}

	if s.opts.Remote == nil {
		return UploadResult{}, errMissingRemote
	}
	s.setUpload(UploadState{Status: UploadProcessing})
	result, err := s.opts.Remote.UploadCSV(ctx, upload)
	if err != nil {
		s.setUpload(UploadState{Status: UploadFailed, Reason: detailOf(err)})
		return UploadResult{}, err
	}
	s.setUpload(UploadState{Status: UploadSucceeded, Added: result.AddedCount})
	s.emit(ctx, StoreEvent{Reason: "upload", Name: upload.Filename, Count: result.AddedCount})
	return result, s.refreshAfterWrite(ctx)
}

// SetSearch updates the name filter.
func (s *Store) SetSearch(ctx context.Context, term string) {
	s.updateControls(ctx, func(c *ViewControls) { c.SearchTerm = term })
}

// SetAgeBounds updates the optional age bounds. Nil clears a bound.
func (s *Store) SetAgeBounds(ctx context.Context, minAge, maxAge *int) {
	s.updateControls(ctx, func(c *ViewControls) {
		c.AgeMin = copyInt(minAge)
		c.AgeMax = copyInt(maxAge)
	})
}

// ApplyFilter parses raw bound inputs and sets the search term and bounds
// together. Unparseable bounds leave the controls untouched.
func (s *Store) ApplyFilter(ctx context.Context, search, minValue, maxValue string) error {
	minAge, maxAge, err := ParseAgeBounds(minValue, maxValue)
	if err != nil {
		s.setNotice(NoticeValidation, "Validation error: "+detailOf(err))
		return err
	}
	s.updateControls(ctx, func(c *ViewControls) {
		c.SearchTerm = search
		c.AgeMin = minAge
		c.AgeMax = maxAge
	})
	return nil
}

// ToggleSort applies a click on a column header.
func (s *Store) ToggleSort(ctx context.Context, key SortKey) {
	s.updateControls(ctx, func(c *ViewControls) { *c = ToggleSort(*c, key) })
}

// ToggleStatsExpanded flips between the top five groups and the full ranking.
func (s *Store) ToggleStatsExpanded(ctx context.Context) {
	s.updateControls(ctx, func(c *ViewControls) { c.StatsExpanded = !c.StatsExpanded })
}

// ResetControls restores the startup controls.
func (s *Store) ResetControls(ctx context.Context) {
	s.updateControls(ctx, func(c *ViewControls) { *c = DefaultViewControls() })
}

func (s *Store) updateControls(ctx context.Context, mutate func(*ViewControls)) {
	s.mu.Lock()
	controls := s.state.Controls.clone()
	mutate(&controls)
	s.state.Controls = controls
	s.mu.Unlock()
	s.opts.Telemetry.Record(ctx, "userboard.controls", map[string]any{
		"search":   controls.SearchTerm,
		"age_min":  formatBound(controls.AgeMin),
		"age_max":  formatBound(controls.AgeMax),
		"sort_key": string(controls.SortKey),
		"sort_dir": string(controls.SortDirection),
		"expanded": controls.StatsExpanded,
	})
}

// DemoMode reports whether writes are redirected to the fallback copy.
func (s *Store) DemoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DemoMode
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	out.Users = slices.Clone(s.state.Users)
	if out.Users == nil {
		out.Users = []User{}
	}
	out.Stats = s.state.Stats.Clone()
	out.Controls = s.state.Controls.clone()
	return out
}

// View derives the render model from the current state.
func (s *Store) View() ViewModel {
	return BuildView(s.Snapshot())
}

// TakeNotice returns the pending notice and clears it.
func (s *Store) TakeNotice() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notice := s.state.Notice
	s.state.Notice = Notice{}
	return notice
}

func (s *Store) setNotice(kind NoticeKind, message string) {
	s.mu.Lock()
	s.state.Notice = Notice{Kind: kind, Message: message}
	s.mu.Unlock()
}

func (s *Store) noticeForWrite(action string, err error) {
	kind := NoticeError
	message := action + ": " + detailOf(err)
	switch {
	case errors.Is(err, ErrConflict):
		kind = NoticeConflict
		message = action + ": a user with that name already exists (conflict)"
	case errors.Is(err, ErrRejected):
		kind = NoticeValidation
		message = "Validation error: " + detailOf(err)
	}
	s.setNotice(kind, message)
}

func (s *Store) clearForm() {
	s.mu.Lock()
	s.state.Form = CreateForm{}
	s.mu.Unlock()
}

func (s *Store) setUpload(upload UploadState) {
	s.mu.Lock()
	s.state.Upload = upload
	s.mu.Unlock()
}

func (s *Store) emit(ctx context.Context, event StoreEvent) {
	event.DemoMode = s.DemoMode()
	event.At = s.opts.Clock()
	if err := s.opts.RefreshHook.StateChanged(ctx, event); err != nil {
		s.opts.Logger.Warn("refresh hook failed", zap.String("reason", event.Reason), zap.Error(err))
	}
	payload := map[string]any{"demo": event.DemoMode}
	if event.Name != "" {
		payload["name"] = event.Name
	}
	if event.Count > 0 {
		payload["count"] = event.Count
	}
	s.opts.Telemetry.Record(ctx, "userboard."+event.Reason, payload)
}

// detailOf returns the most user-facing message an error carries.
func detailOf(err error) string {
	var detailed interface{ Detail() string }
	if errors.As(err, &detailed) {
		if msg := detailed.Detail(); msg != "" {
			return msg
		}
	}
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 && strings.HasPrefix(msg, "userboard") {
		return msg[idx+2:]
	}
	return msg
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

type noopRefreshHook struct{}

func (noopRefreshHook) StateChanged(context.Context, StoreEvent) error { return nil }

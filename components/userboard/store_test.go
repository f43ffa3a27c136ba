package userboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	users []User
	stats AgeGroupStats

	listErr  error
	statsErr error
	writeErr error
	gate     chan struct{}

	listCalls  atomic.Int32
	statsCalls atomic.Int32
	resets     int
	created    []User
	deleted    []string
	uploads    []string
	uploadResp UploadResult
}

func (s *stubSource) ListUsers(ctx context.Context) ([]User, error) {
	s.listCalls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User{}, s.users...), nil
}

func (s *stubSource) AgeGroupStats(context.Context) (AgeGroupStats, error) {
	s.statsCalls.Add(1)
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats.Clone(), nil
}

func (s *stubSource) CreateUser(_ context.Context, user User) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, user)
	s.users = append(s.users, user)
	return nil
}

func (s *stubSource) DeleteUser(_ context.Context, name string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, name)
	kept := s.users[:0]
	for _, u := range s.users {
		if u.Name != name {
			kept = append(kept, u)
		}
	}
	s.users = kept
	return nil
}

func (s *stubSource) UploadCSV(_ context.Context, upload CSVUpload) (UploadResult, error) {
	if s.writeErr != nil {
		return UploadResult{}, s.writeErr
	}
	s.uploads = append(s.uploads, upload.Filename)
	return s.uploadResp, nil
}

func (s *stubSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	s.users = fallbackUsers()
}

func fallbackUsers() []User {
	return []User{{Name: "Bulbasaur", Age: 14}, {Name: "Mew", Age: 150}, {Name: "Eevee", Age: 3}}
}

func fallbackStats() AgeGroupStats {
	return AgeGroupStats{"B": 24.3, "M": 100, "E": 3}
}

func newFallback() *stubSource {
	return &stubSource{users: fallbackUsers(), stats: fallbackStats(), uploadResp: UploadResult{Simulated: true}}
}

func newRemote() *stubSource {
	return &stubSource{
		users: []User{{Name: "Ash", Age: 10}, {Name: "Misty", Age: 12}},
		stats: AgeGroupStats{"A": 10, "M": 12},
	}
}

// staleFirstListSource reads users for its first listing, then holds the
// result until release closes. Later listings return immediately.
type staleFirstListSource struct {
	*stubSource
	listed  chan struct{}
	release chan struct{}
	started atomic.Bool
}

func (s *staleFirstListSource) ListUsers(ctx context.Context) ([]User, error) {
	if !s.started.CompareAndSwap(false, true) {
		return s.stubSource.ListUsers(ctx)
	}
	users, err := s.stubSource.ListUsers(ctx)
	close(s.listed)
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return users, err
}

type recordingHook struct {
	mu     sync.Mutex
	events []StoreEvent
}

func (h *recordingHook) StateChanged(_ context.Context, event StoreEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Reason
	}
	return out
}

type classifiedError struct {
	target error
	detail string
}

func (e classifiedError) Error() string        { return "remote: " + e.detail }
func (e classifiedError) Is(target error) bool { return target == e.target }
func (e classifiedError) Detail() string       { return e.detail }

var yes = ConfirmFunc(func(context.Context, string) bool { return true })
var no = ConfirmFunc(func(context.Context, string) bool { return false })

func TestRefreshAllLiveSuccess(t *testing.T) {
	remote := newRemote()
	hook := &recordingHook{}
	store := NewStore(Options{Remote: remote, Fallback: newFallback(), RefreshHook: hook})

	require.NoError(t, store.RefreshAll(context.Background()))
	state := store.Snapshot()
	assert.False(t, state.DemoMode)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Advisory)
	assert.Equal(t, remote.users, state.Users)
	assert.Equal(t, remote.stats, state.Stats)
	assert.Equal(t, []string{"refresh"}, hook.reasons())
}

func TestRefreshAllFallsBackWhenEitherFetchFails(t *testing.T) {
	cases := map[string]func(*stubSource){
		"users fail": func(s *stubSource) { s.listErr = errors.New("down") },
		"stats fail": func(s *stubSource) { s.statsErr = errors.New("down") },
		"both fail": func(s *stubSource) {
			s.listErr = errors.New("down")
			s.statsErr = errors.New("down")
		},
	}
	for name, breakRemote := range cases {
		t.Run(name, func(t *testing.T) {
			remote := newRemote()
			breakRemote(remote)
			fallback := newFallback()
			store := NewStore(Options{Remote: remote, Fallback: fallback})

			require.NoError(t, store.RefreshAll(context.Background()))
			state := store.Snapshot()
			assert.True(t, state.DemoMode)
			assert.False(t, state.Loading)
			assert.Equal(t, DemoAdvisory, state.Advisory)
			assert.Equal(t, fallbackUsers(), state.Users)
			assert.Equal(t, fallbackStats(), state.Stats)
			assert.Equal(t, 1, fallback.resets)
		})
	}
}

func TestRefreshAllWithoutRemoteUsesFallback(t *testing.T) {
	store := NewStore(Options{Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(context.Background()))
	assert.True(t, store.DemoMode())
}

func TestRefreshAllRequiresFallback(t *testing.T) {
	store := NewStore(Options{Remote: newRemote()})
	assert.Error(t, store.RefreshAll(context.Background()))
}

func TestRefreshAllResetsDemoWrites(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.listErr = errors.New("down")
	fallback := newFallback()
	store := NewStore(Options{Remote: remote, Fallback: fallback})
	require.NoError(t, store.RefreshAll(ctx))
	require.NoError(t, store.Create(ctx, CreateForm{Name: "Togepi", Age: "1"}))
	require.Len(t, store.Snapshot().Users, 4)

	require.NoError(t, store.RefreshAll(ctx))
	assert.Equal(t, fallbackUsers(), store.Snapshot().Users)
}

func TestRefreshAllRecoversToLiveMode(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.listErr = errors.New("down")
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))
	require.True(t, store.DemoMode())

	remote.listErr = nil
	require.NoError(t, store.RefreshAll(ctx))
	state := store.Snapshot()
	assert.False(t, state.DemoMode)
	assert.Empty(t, state.Advisory)
	assert.Equal(t, remote.users, state.Users)
}

func TestRefreshAllCoalescesOverlappingCalls(t *testing.T) {
	remote := newRemote()
	remote.gate = make(chan struct{})
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.RefreshAll(context.Background()))
		}()
	}
	require.Eventually(t, func() bool { return store.Snapshot().Loading }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(remote.gate)
	wg.Wait()

	assert.Equal(t, int32(1), remote.listCalls.Load())
	assert.Equal(t, int32(1), remote.statsCalls.Load())
	assert.False(t, store.Snapshot().Loading)
}

func TestRefreshAllCancelledCallerKeepsMode(t *testing.T) {
	remote := newRemote()
	fallback := newFallback()
	store := NewStore(Options{Remote: remote, Fallback: fallback})
	require.NoError(t, store.RefreshAll(context.Background()))

	remote.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.RefreshAll(ctx)
	require.ErrorIs(t, err, context.Canceled)

	state := store.Snapshot()
	assert.False(t, state.DemoMode)
	assert.Empty(t, state.Advisory)
	assert.Equal(t, remote.users, state.Users)
	assert.Zero(t, fallback.resets)
	assert.False(t, state.Loading)
}

func TestCreateRefreshDoesNotJoinEarlierRefresh(t *testing.T) {
	ctx := context.Background()
	remote := &staleFirstListSource{
		stubSource: newRemote(),
		listed:     make(chan struct{}),
		release:    make(chan struct{}),
	}
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})

	done := make(chan error, 1)
	go func() { done <- store.RefreshAll(ctx) }()
	<-remote.listed

	require.NoError(t, store.Create(ctx, CreateForm{Name: "Brock", Age: "15"}))
	assert.Contains(t, store.Snapshot().Users, User{Name: "Brock", Age: 15})

	close(remote.release)
	require.NoError(t, <-done)
	state := store.Snapshot()
	assert.Len(t, state.Users, 3)
	assert.Contains(t, state.Users, User{Name: "Brock", Age: 15})
	assert.False(t, state.DemoMode)
	assert.Equal(t, int32(2), remote.listCalls.Load())
}

func TestCreateLiveRefreshesFromServer(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	require.NoError(t, store.Create(ctx, CreateForm{Name: "Brock", Age: "15"}))
	state := store.Snapshot()
	assert.Equal(t, []User{{Name: "Brock", Age: 15}}, remote.created)
	assert.Len(t, state.Users, 3)
	assert.Equal(t, CreateForm{}, state.Form)
	assert.Equal(t, int32(2), remote.listCalls.Load())
}

func TestCreateConflictLeavesListUntouched(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))
	remote.writeErr = classifiedError{target: ErrConflict, detail: "User with name 'Ash' already exists."}

	err := store.Create(ctx, CreateForm{Name: "Ash", Age: "10"})
	require.ErrorIs(t, err, ErrConflict)
	state := store.Snapshot()
	assert.Len(t, state.Users, 2)
	assert.Equal(t, CreateForm{Name: "Ash", Age: "10"}, state.Form)
	notice := store.TakeNotice()
	assert.Equal(t, NoticeConflict, notice.Kind)
	assert.Contains(t, notice.Message, "conflict")
	assert.True(t, store.TakeNotice().IsZero())
}

func TestCreateServerValidationSurfacesMessage(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))
	remote.writeErr = classifiedError{target: ErrRejected, detail: "Age is not valid"}

	require.Error(t, store.Create(ctx, CreateForm{Name: "Mew", Age: "150"}))
	notice := store.TakeNotice()
	assert.Equal(t, NoticeValidation, notice.Kind)
	assert.Equal(t, "Validation error: Age is not valid", notice.Message)
}

func TestCreateLocalValidationSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	for _, form := range []CreateForm{{Name: "", Age: "10"}, {Name: "Old", Age: "151"}, {Name: "X", Age: "ten"}} {
		err := store.Create(ctx, form)
		require.ErrorIs(t, err, ErrInvalidUser)
		assert.Equal(t, NoticeValidation, store.TakeNotice().Kind)
	}
	assert.Empty(t, remote.created)
}

func TestCreateDemoModeAppendsLocally(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.statsErr = errors.New("down")
	fallback := newFallback()
	store := NewStore(Options{Remote: remote, Fallback: fallback})
	require.NoError(t, store.RefreshAll(ctx))
	listCalls := remote.listCalls.Load()

	require.NoError(t, store.Create(ctx, CreateForm{Name: "Togepi", Age: "1"}))
	state := store.Snapshot()
	assert.Len(t, state.Users, 4)
	assert.Equal(t, "Togepi", state.Users[3].Name)
	assert.Equal(t, CreateForm{}, state.Form)
	assert.Empty(t, remote.created)
	assert.Equal(t, listCalls, remote.listCalls.Load())
	assert.Equal(t, fallbackStats(), state.Stats)
	assert.Equal(t, NoticeInfo, store.TakeNotice().Kind)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	assert.ErrorIs(t, store.Delete(ctx, "Ash", no), ErrDeleteNotConfirmed)
	assert.ErrorIs(t, store.Delete(ctx, "Ash", nil), ErrDeleteNotConfirmed)
	assert.Empty(t, remote.deleted)
	assert.Len(t, store.Snapshot().Users, 2)

	require.NoError(t, store.Delete(ctx, "Ash", yes))
	assert.Equal(t, []string{"Ash"}, remote.deleted)
	assert.Equal(t, []User{{Name: "Misty", Age: 12}}, store.Snapshot().Users)
}

func TestDeleteFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))
	remote.writeErr = errors.New("boom")

	require.Error(t, store.Delete(ctx, "Ash", yes))
	assert.Len(t, store.Snapshot().Users, 2)
	notice := store.TakeNotice()
	assert.Equal(t, NoticeError, notice.Kind)
	assert.Equal(t, "Delete failed: boom", notice.Message)
}

func TestDeleteDemoModeRemovesOneRecord(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.listErr = errors.New("down")
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	require.NoError(t, store.Delete(ctx, "Mew", yes))
	assert.Equal(t, []User{{Name: "Bulbasaur", Age: 14}, {Name: "Eevee", Age: 3}}, store.Snapshot().Users)
	assert.Empty(t, remote.deleted)
}

func TestUploadRequiresCSVFile(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{Remote: newRemote(), Fallback: newFallback()})

	_, err := store.Upload(ctx, CSVUpload{})
	assert.ErrorIs(t, err, ErrNoFileSelected)
	_, err = store.Upload(ctx, CSVUpload{Filename: "users.xlsx", Content: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNotCSV)
	assert.Equal(t, NoticeValidation, store.TakeNotice().Kind)
}

func TestUploadLiveTracksStatus(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.uploadResp = UploadResult{AddedCount: 3}
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	result, err := store.Upload(ctx, CSVUpload{Filename: "Users.CSV", Content: strings.NewReader("name,age\n")})
	require.NoError(t, err)
	assert.Equal(t, 3, result.AddedCount)
	upload := store.Snapshot().Upload
	assert.Equal(t, UploadSucceeded, upload.Status)
	assert.Equal(t, "success: 3 records added", upload.Message())
	assert.Equal(t, int32(2), remote.listCalls.Load())

	remote.writeErr = classifiedError{target: ErrRejected, detail: "Invalid file type. Please upload a CSV."}
	_, err = store.Upload(ctx, CSVUpload{Filename: "users.csv", Content: strings.NewReader("x")})
	require.Error(t, err)
	upload = store.Snapshot().Upload
	assert.Equal(t, UploadFailed, upload.Status)
	assert.Equal(t, "failed: Invalid file type. Please upload a CSV.", upload.Message())
}

func TestUploadDemoModeIsSimulated(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.listErr = errors.New("down")
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	result, err := store.Upload(ctx, CSVUpload{Filename: "users.csv", Content: strings.NewReader("name,age\n")})
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Empty(t, remote.uploads)
	assert.Equal(t, UploadSimulated, store.Snapshot().Upload.Status)
}

func TestControlsDriveView(t *testing.T) {
	ctx := context.Background()
	remote := newRemote()
	remote.users = []User{{Name: "Bulbasaur", Age: 14}, {Name: "Venusaur", Age: 24}, {Name: "Charizard", Age: 36}}
	store := NewStore(Options{Remote: remote, Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))

	require.NoError(t, store.ApplyFilter(ctx, "", "20", "30"))
	view := store.View()
	assert.Equal(t, []User{{Name: "Venusaur", Age: 24}}, view.Users)
	assert.Equal(t, 1, view.Shown)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, "20", view.AgeMin)

	assert.Error(t, store.ApplyFilter(ctx, "", "abc", ""))
	assert.Equal(t, "20", store.View().AgeMin)

	store.ResetControls(ctx)
	store.ToggleSort(ctx, SortAge)
	store.ToggleSort(ctx, SortAge)
	view = store.View()
	assert.Equal(t, "Charizard", view.Users[0].Name)
	assert.Equal(t, "▼", view.SortIndicator(SortAge))
	assert.Empty(t, view.SortIndicator(SortName))

	store.ToggleStatsExpanded(ctx)
	assert.True(t, store.View().Stats.Expanded)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{Remote: newRemote(), Fallback: newFallback()})
	require.NoError(t, store.RefreshAll(ctx))
	lower := 5
	store.SetAgeBounds(ctx, &lower, nil)
	lower = 50

	snap := store.Snapshot()
	snap.Users[0].Name = "changed"
	snap.Stats["A"] = -1
	*snap.Controls.AgeMin = 99

	fresh := store.Snapshot()
	assert.Equal(t, "Ash", fresh.Users[0].Name)
	assert.Equal(t, 10.0, fresh.Stats["A"])
	assert.Equal(t, 5, *fresh.Controls.AgeMin)
}

type countingTelemetry struct {
	mu     sync.Mutex
	events map[string]int
}

func (c *countingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		c.events = map[string]int{}
	}
	c.events[event]++
}

func TestStoreRecordsTelemetry(t *testing.T) {
	ctx := context.Background()
	telemetry := &countingTelemetry{}
	store := NewStore(Options{Remote: newRemote(), Fallback: newFallback(), Telemetry: telemetry})
	require.NoError(t, store.RefreshAll(ctx))
	store.SetSearch(ctx, "a")

	assert.Equal(t, 1, telemetry.events["userboard.refresh"])
	assert.Equal(t, 1, telemetry.events["userboard.refresh.duration"])
	assert.Equal(t, 1, telemetry.events["userboard.controls"])
}

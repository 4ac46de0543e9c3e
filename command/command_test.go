package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-directory/pkg/authctx"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-directory/state"
	goerrors "github.com/goliatone/go-errors"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRichError_MapsSentinels(t *testing.T) {
	cases := []struct {
		err      error
		textCode string
		category any
	}{
		{types.ErrUsernameTaken, TextCodeUsernameTaken, goerrors.CategoryValidation},
		{types.ErrUsernameTooLong, TextCodeUsernameTooLong, goerrors.CategoryValidation},
		{types.ErrBioTooLong, TextCodeBioTooLong, goerrors.CategoryValidation},
		{types.ErrCounterOverflow, TextCodeCounterOverflow, goerrors.CategoryValidation},
		{types.ErrActorRequired, TextCodeActorRequired, goerrors.CategoryAuth},
		{types.ErrStatsUpdateDisabled, TextCodeStatsUpdateOff, goerrors.CategoryAuthz},
		{types.ErrUsernameNotFound, TextCodeUsernameNotFound, goerrors.CategoryNotFound},
		{types.ErrActivityAccessDenied, TextCodeActivityDenied, goerrors.CategoryAuthz},
		{errors.New("boom"), TextCodeDirectoryFailure, goerrors.CategoryInternal},
	}
	for _, tc := range cases {
		var richErr *goerrors.Error
		require.True(t, goerrors.As(RichError(tc.err), &richErr), tc.textCode)
		require.Equal(t, tc.textCode, richErr.TextCode)
		require.Equal(t, tc.category, richErr.Category)
	}
	require.NoError(t, RichError(nil))
}

func TestRichError_PassesThroughRichErrors(t *testing.T) {
	original := goerrors.New("already rich", goerrors.CategoryAuth).WithTextCode("CUSTOM")
	var richErr *goerrors.Error
	require.True(t, goerrors.As(RichError(original), &richErr))
	require.Equal(t, "CUSTOM", richErr.TextCode)
}

func TestFeatureScopeChain(t *testing.T) {
	require.Nil(t, featureScopeChain(authctx.Tenancy{}, uuid.Nil))

	user := uuid.New()
	tenant := uuid.New()
	org := uuid.New()
	chain := featureScopeChain(authctx.Tenancy{TenantID: tenant, OrgID: org}, user)
	require.Equal(t, featuregate.ScopeChain{
		{Kind: featuregate.ScopeUser, ID: user.String(), TenantID: tenant.String(), OrgID: org.String()},
		{Kind: featuregate.ScopeOrg, ID: org.String(), TenantID: tenant.String(), OrgID: org.String()},
		{Kind: featuregate.ScopeTenant, ID: tenant.String(), TenantID: tenant.String()},
		{Kind: featuregate.ScopeSystem},
	}, chain)

	chain = featureScopeChain(authctx.Tenancy{}, user)
	require.Equal(t, featuregate.ScopeChain{
		{Kind: featuregate.ScopeUser, ID: user.String()},
		{Kind: featuregate.ScopeSystem},
	}, chain)
}

type harness struct {
	store  *state.MemoryStore
	sink   *recordingActivitySink
	logger *recordingLogger
	clock  fixedClock
	events []any
	order  []string
}

func newHarness() *harness {
	h := &harness{
		store:  state.NewMemoryStore(),
		logger: &recordingLogger{},
		clock:  fixedClock{t: time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)},
	}
	h.sink = &recordingActivitySink{
		onLog: func(types.ActivityRecord) {
			h.order = append(h.order, "sink")
		},
	}
	return h
}

func (h *harness) hooks() types.Hooks {
	record := func(event any) {
		h.order = append(h.order, "hook")
		h.events = append(h.events, event)
	}
	return types.Hooks{
		AfterCounterChange: func(_ context.Context, e types.CounterEvent) { record(e) },
		AfterUsernameSet:   func(_ context.Context, e types.UsernameSetEvent) { record(e) },
		AfterProfileChange: func(_ context.Context, e types.ProfileUpdatedEvent) { record(e) },
		AfterStatsChange:   func(_ context.Context, e types.StatsUpdatedEvent) { record(e) },
	}
}

func (h *harness) profileConfig() ProfileCommandConfig {
	return ProfileCommandConfig{
		Store:        h.store,
		Limits:       types.DefaultLimits(),
		Activity:     h.sink,
		Hooks:        h.hooks(),
		Clock:        h.clock,
		LogicalClock: types.LogicalClockFunc(func() uint64 { return 7 }),
		Logger:       h.logger,
	}
}

func (h *harness) counterConfig() CounterCommandConfig {
	return CounterCommandConfig{
		Store:    h.store,
		Activity: h.sink,
		Hooks:    h.hooks(),
		Clock:    h.clock,
		Logger:   h.logger,
	}
}

func (h *harness) statsConfig(gate featuregate.FeatureGate) StatsCommandConfig {
	return StatsCommandConfig{
		Store:       h.store,
		Activity:    h.sink,
		Hooks:       h.hooks(),
		Clock:       h.clock,
		Logger:      h.logger,
		FeatureGate: gate,
	}
}

func (h *harness) reset() {
	h.events = nil
	h.order = nil
	h.sink.records = nil
}

func (h *harness) profile(t *testing.T, owner uuid.UUID) *types.Profile {
	t.Helper()
	var out *types.Profile
	require.NoError(t, h.store.View(context.Background(), func(ctx context.Context, tables types.Tables) error {
		var err error
		out, err = tables.Profiles().GetProfile(ctx, owner)
		return err
	}))
	return out
}

func (h *harness) stats(t *testing.T, owner uuid.UUID) *types.Stats {
	t.Helper()
	var out *types.Stats
	require.NoError(t, h.store.View(context.Background(), func(ctx context.Context, tables types.Tables) error {
		var err error
		out, err = tables.Stats().GetStats(ctx, owner)
		return err
	}))
	return out
}

func (h *harness) holder(t *testing.T, username string) (uuid.UUID, bool) {
	t.Helper()
	var (
		owner uuid.UUID
		found bool
	)
	require.NoError(t, h.store.View(context.Background(), func(ctx context.Context, tables types.Tables) error {
		var err error
		owner, found, err = tables.Usernames().LookupUsername(ctx, username)
		return err
	}))
	return owner, found
}

func (h *harness) counter(t *testing.T) uint64 {
	t.Helper()
	var value uint64
	require.NoError(t, h.store.View(context.Background(), func(ctx context.Context, tables types.Tables) error {
		var err error
		value, err = tables.Counter().LoadCounter(ctx)
		return err
	}))
	return value
}

func (h *harness) seedCounter(t *testing.T, value uint64) {
	t.Helper()
	require.NoError(t, h.store.Update(context.Background(), func(ctx context.Context, tables types.Tables) error {
		return tables.Counter().StoreCounter(ctx, value)
	}))
}

type recordingActivitySink struct {
	onLog   func(types.ActivityRecord)
	records []types.ActivityRecord
	err     error
}

func (r *recordingActivitySink) Log(_ context.Context, record types.ActivityRecord) error {
	r.records = append(r.records, record)
	if r.onLog != nil {
		r.onLog(record)
	}
	return r.err
}

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(msg string, _ error, _ ...any) {
	l.errors = append(l.errors, msg)
}

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time {
	return f.t
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
	chains  []featuregate.ScopeChain
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, opts ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	req := featuregate.ResolveRequest{}
	for _, opt := range opts {
		opt(&req)
	}
	if req.ScopeChain != nil {
		s.chains = append(s.chains, *req.ScopeChain)
	}
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

func actor() types.ActorRef {
	return types.ActorRef{ID: uuid.New(), Type: "racer"}
}

func strPtr(v string) *string {
	return &v
}

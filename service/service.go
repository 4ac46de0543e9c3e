package service

import (
	"context"

	"github.com/goliatone/go-directory/activity"
	"github.com/goliatone/go-directory/command"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-directory/query"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-masker"
)

// Service is the entry point for go-directory. It wires the state store,
// the activity sink, hooks, and command/query facades supplied by the host
// application.
type Service struct {
	cfg          Config
	commands     Commands
	queries      Queries
	activityRepo types.ActivityRepository
}

// Commands exposes the service command handlers.
type Commands struct {
	CounterIncrement *command.CounterIncrementCommand
	CounterReset     *command.CounterResetCommand
	SetUsername      *command.SetUsernameCommand
	ProfileUpdate    *command.ProfileUpdateCommand
	StatsUpdate      *command.StatsUpdateCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	Profile          *query.ProfileQuery
	ProfileInventory *query.ProfileInventoryQuery
	UsernameLookup   *query.UsernameLookupQuery
	Stats            *query.StatsQuery
	Counter          *query.CounterQuery
	ActivityFeed     *query.ActivityFeedQuery
	ActivityStats    *query.ActivityStatsQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (state store backend, activity storage, hooks, etc.).
type Config struct {
	StateStore         types.StateStore
	Limits             types.Limits
	ActivitySink       types.ActivitySink
	ActivityRepository types.ActivityRepository
	Hooks              types.Hooks
	Clock              types.Clock
	LogicalClock       types.LogicalClock
	IDGenerator        types.IDGenerator
	Logger             types.Logger
	FeatureGate        featuregate.FeatureGate
	Masker             *masker.Masker
	// ActivityPolicy guards the feed. Nil builds the self-only default with
	// Masker and ActivityOperatorTypes.
	ActivityPolicy        activity.AccessPolicy
	ActivityOperatorTypes []string
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	actRepo := norm.ActivityRepository
	if actRepo == nil {
		if sinkRepo, ok := norm.ActivitySink.(types.ActivityRepository); ok {
			actRepo = sinkRepo
		}
	}

	s := &Service{
		cfg:          norm,
		activityRepo: actRepo,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.LogicalClock == nil {
		cfg.LogicalClock = types.UnixLogicalClock{Clock: cfg.Clock}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	cfg.Limits = cfg.Limits.Normalize()
	if cfg.ActivityPolicy == nil {
		cfg.ActivityPolicy = activity.NewDefaultAccessPolicy(
			activity.WithPolicyMasker(cfg.Masker),
			activity.WithOperatorTypes(cfg.ActivityOperatorTypes...),
		)
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Limits returns the text bounds the commands were built with.
func (s *Service) Limits() types.Limits {
	return s.cfg.Limits
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.StateStore != nil &&
		s.cfg.ActivitySink != nil &&
		s.activityRepo != nil
}

// HealthCheck surfaces missing configuration and reads the counter through
// the state store so backend failures show up before the first call.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s == nil {
		return types.ErrServiceNotReady
	}
	if s.cfg.StateStore == nil {
		return types.ErrMissingStateStore
	}
	if s.cfg.ActivitySink == nil {
		return types.ErrMissingActivitySink
	}
	if s.activityRepo == nil {
		return types.ErrMissingActivityRepository
	}
	return s.cfg.StateStore.View(ctx, func(ctx context.Context, tables types.Tables) error {
		_, err := tables.Counter().LoadCounter(ctx)
		return err
	})
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows.
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.cfg.ActivitySink
}

func (s *Service) buildCommands() Commands {
	counterCfg := command.CounterCommandConfig{
		Store:       s.cfg.StateStore,
		Activity:    s.cfg.ActivitySink,
		Hooks:       s.cfg.Hooks,
		Clock:       s.cfg.Clock,
		IDGenerator: s.cfg.IDGenerator,
		Logger:      s.cfg.Logger,
	}
	profileCfg := command.ProfileCommandConfig{
		Store:        s.cfg.StateStore,
		Limits:       s.cfg.Limits,
		Activity:     s.cfg.ActivitySink,
		Hooks:        s.cfg.Hooks,
		Clock:        s.cfg.Clock,
		LogicalClock: s.cfg.LogicalClock,
		IDGenerator:  s.cfg.IDGenerator,
		Logger:       s.cfg.Logger,
	}
	return Commands{
		CounterIncrement: command.NewCounterIncrementCommand(counterCfg),
		CounterReset:     command.NewCounterResetCommand(counterCfg),
		SetUsername:      command.NewSetUsernameCommand(profileCfg),
		ProfileUpdate:    command.NewProfileUpdateCommand(profileCfg),
		StatsUpdate: command.NewStatsUpdateCommand(command.StatsCommandConfig{
			Store:       s.cfg.StateStore,
			Activity:    s.cfg.ActivitySink,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
			IDGenerator: s.cfg.IDGenerator,
			Logger:      s.cfg.Logger,
			FeatureGate: s.cfg.FeatureGate,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		Profile:          query.NewProfileQuery(s.cfg.StateStore),
		ProfileInventory: query.NewProfileInventoryQuery(s.cfg.StateStore, s.cfg.Logger),
		UsernameLookup:   query.NewUsernameLookupQuery(s.cfg.StateStore),
		Stats:            query.NewStatsQuery(s.cfg.StateStore),
		Counter:          query.NewCounterQuery(s.cfg.StateStore),
		ActivityFeed:     query.NewActivityFeedQuery(s.activityRepo, s.cfg.ActivityPolicy),
		ActivityStats:    query.NewActivityStatsQuery(s.activityRepo, s.cfg.ActivityPolicy),
	}
}

package command

import (
	"github.com/goliatone/go-directory/pkg/types"
)

// ProfileCommandConfig wires dependencies for set_username and update_profile.
type ProfileCommandConfig struct {
	Store        types.StateStore
	Limits       types.Limits
	Activity     types.ActivitySink
	Hooks        types.Hooks
	Clock        types.Clock
	LogicalClock types.LogicalClock
	IDGenerator  types.IDGenerator
	Logger       types.Logger
}

func (cfg ProfileCommandConfig) notifier() notifier {
	return notifier{
		sink:   cfg.Activity,
		hooks:  cfg.Hooks,
		clock:  safeClock(cfg.Clock),
		ids:    safeIDGenerator(cfg.IDGenerator),
		logger: safeLogger(cfg.Logger),
	}
}

package command

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-directory/pkg/types"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStatsUpdateCommand_CreatesWithoutProfile(t *testing.T) {
	h := newHarness()
	cmd := NewStatsUpdateCommand(h.statsConfig(nil))
	caller := actor()
	wins := uint32(2)

	var result types.Stats
	require.NoError(t, cmd.Execute(context.Background(), StatsUpdateInput{
		Actor:  caller,
		Patch:  types.StatsPatch{Wins: &wins},
		Result: &result,
	}))

	require.Nil(t, h.profile(t, caller.ID))
	stats := h.stats(t, caller.ID)
	require.NotNil(t, stats)
	require.Equal(t, types.Stats{Wins: 2}, *stats)
	require.Equal(t, *stats, result)

	require.Equal(t, []string{"sink", "hook"}, h.order)
	require.Equal(t, "stats.updated", h.sink.records[0].Verb)
	require.Equal(t, true, h.sink.records[0].Data["created"])
	event := h.events[0].(types.StatsUpdatedEvent)
	require.Equal(t, caller.ID, event.Owner)
	require.Equal(t, types.Stats{Wins: 2}, event.Stats)
}

func TestStatsUpdateCommand_OverwritesOnlyPresentFields(t *testing.T) {
	h := newHarness()
	cmd := NewStatsUpdateCommand(h.statsConfig(nil))
	caller := actor()
	races, wins := uint32(10), uint32(3)
	distance := uint64(math.MaxUint64)
	rewards := types.Uint128{Hi: 1, Lo: 2}

	require.NoError(t, cmd.Execute(context.Background(), StatsUpdateInput{
		Actor: caller,
		Patch: types.StatsPatch{TotalRaces: &races, Wins: &wins, TotalDistance: &distance, TotalRewards: &rewards},
	}))

	newWins := uint32(4)
	require.NoError(t, cmd.Execute(context.Background(), StatsUpdateInput{
		Actor: caller,
		Patch: types.StatsPatch{Wins: &newWins},
	}))

	expected := types.Stats{TotalRaces: 10, Wins: 4, TotalDistance: math.MaxUint64, TotalRewards: rewards}
	require.Equal(t, expected, *h.stats(t, caller.ID))

	event := h.events[1].(types.StatsUpdatedEvent)
	require.Equal(t, expected, event.Stats, "event carries all four current values")
	require.Equal(t, "18446744073709551615", h.sink.records[1].Data["total_distance"])
	require.Equal(t, rewards.String(), h.sink.records[1].Data["total_rewards"])
}

func TestStatsUpdateCommand_EmptyPatchStillNotifies(t *testing.T) {
	h := newHarness()
	cmd := NewStatsUpdateCommand(h.statsConfig(nil))

	require.NoError(t, cmd.Execute(context.Background(), StatsUpdateInput{Actor: actor()}))
	require.Len(t, h.events, 1)
}

func TestStatsUpdateCommand_FeatureGateDisabled(t *testing.T) {
	h := newHarness()
	gate := &stubFeatureGate{enabled: false}
	cmd := NewStatsUpdateCommand(h.statsConfig(gate))
	caller := actor()

	err := cmd.Execute(context.Background(), StatsUpdateInput{Actor: caller})
	require.ErrorIs(t, err, ErrStatsUpdateDisabled)
	require.Equal(t, []string{FeatureStatsUpdate}, gate.keys)
	require.Nil(t, h.stats(t, caller.ID))
	require.Empty(t, h.events)
}

func TestStatsUpdateCommand_FeatureGateError(t *testing.T) {
	h := newHarness()
	gateErr := errors.New("gate offline")
	cmd := NewStatsUpdateCommand(h.statsConfig(&stubFeatureGate{err: gateErr}))

	err := cmd.Execute(context.Background(), StatsUpdateInput{Actor: actor()})
	require.ErrorIs(t, err, gateErr)
	require.Empty(t, h.events)
}

func TestStatsUpdateCommand_FeatureGateEnabled(t *testing.T) {
	h := newHarness()
	gate := &stubFeatureGate{enabled: true}
	cmd := NewStatsUpdateCommand(h.statsConfig(gate))
	caller := actor()
	tenant := uuid.New()
	ctx := auth.WithActorContext(context.Background(), &auth.ActorContext{
		ActorID:  caller.ID.String(),
		TenantID: tenant.String(),
	})

	require.NoError(t, cmd.Execute(ctx, StatsUpdateInput{Actor: caller}))
	require.Len(t, h.events, 1)
	require.Equal(t, []featuregate.ScopeChain{{
		{Kind: featuregate.ScopeUser, ID: caller.ID.String(), TenantID: tenant.String()},
		{Kind: featuregate.ScopeTenant, ID: tenant.String(), TenantID: tenant.String()},
		{Kind: featuregate.ScopeSystem},
	}}, gate.chains)
}

package service

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-directory/command"
	"github.com/goliatone/go-directory/pkg/authctx"
	"github.com/goliatone/go-directory/pkg/types"
)

// Dispatch routes one of the five directory calls to its command. An input
// without an actor is attributed to the caller found on ctx through go-auth.
// Errors are returned as go-errors values carrying a stable text code.
func (s *Service) Dispatch(ctx context.Context, msg gocommand.Message) error {
	if !s.Ready() {
		return command.RichError(types.ErrServiceNotReady)
	}
	return command.RichError(s.dispatch(ctx, msg))
}

func (s *Service) dispatch(ctx context.Context, msg gocommand.Message) error {
	switch input := msg.(type) {
	case command.CounterIncrementInput:
		if err := resolveActor(ctx, &input.Actor); err != nil {
			return err
		}
		return s.commands.CounterIncrement.Execute(ctx, input)
	case command.CounterResetInput:
		if err := resolveActor(ctx, &input.Actor); err != nil {
			return err
		}
		return s.commands.CounterReset.Execute(ctx, input)
	case command.SetUsernameInput:
		if err := resolveActor(ctx, &input.Actor); err != nil {
			return err
		}
		return s.commands.SetUsername.Execute(ctx, input)
	case command.ProfileUpdateInput:
		if err := resolveActor(ctx, &input.Actor); err != nil {
			return err
		}
		return s.commands.ProfileUpdate.Execute(ctx, input)
	case command.StatsUpdateInput:
		if err := resolveActor(ctx, &input.Actor); err != nil {
			return err
		}
		return s.commands.StatsUpdate.Execute(ctx, input)
	case nil:
		return fmt.Errorf("%w: nil message", types.ErrUnknownCall)
	default:
		return fmt.Errorf("%w: %s", types.ErrUnknownCall, msg.Type())
	}
}

func resolveActor(ctx context.Context, actor *types.ActorRef) error {
	if !actor.IsZero() {
		return nil
	}
	ref, _, err := authctx.ResolveActor(ctx)
	if err != nil {
		return err
	}
	*actor = ref
	return nil
}

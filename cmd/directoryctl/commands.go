package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-directory/command"
	"github.com/goliatone/go-directory/config"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-directory/query"
	"github.com/goliatone/go-directory/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Backend           string
	SQLiteDSN         string
	BadgerPath        string
	Actor             string `env:"DIRECTORY_ACTOR"`
	MaxUsernameLength uint32
	MaxBioLength      uint32
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Issue profile directory and counter calls",
		Long:          `directoryctl runs directory calls against a memory, SQLite or Badger state store. Defaults come from DIRECTORY_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.Backend, "backend", "", "state store backend: memory, sqlite or badger")
	flags.StringVar(&opts.SQLiteDSN, "sqlite-dsn", "", "SQLite data source name")
	flags.StringVar(&opts.BadgerPath, "badger-path", "", "BadgerDB directory")
	flags.StringVar(&opts.Actor, "actor", "", "caller identity (UUID); falls back to DIRECTORY_ACTOR")
	flags.Uint32Var(&opts.MaxUsernameLength, "max-username-length", 0, "override the username and avatar bound")
	flags.Uint32Var(&opts.MaxBioLength, "max-bio-length", 0, "override the bio bound")

	root.AddCommand(
		newCounterCmd(opts),
		newUsernameCmd(opts),
		newProfileCmd(opts),
		newStatsCmd(opts),
		newActivityCmd(opts),
	)
	return root
}

// withService loads configuration, opens the backend and runs fn with a
// context carrying the caller as a go-auth actor.
func withService(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc *service.Service, actor types.ActorRef) error) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	limits, err := config.ResolveLimits(cfg.Limits(), types.Limits{
		MaxUsernameLength: opts.MaxUsernameLength,
		MaxBioLength:      opts.MaxBioLength,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var actor types.ActorRef
	if strings.TrimSpace(opts.Actor) != "" {
		id, err := uuid.Parse(strings.TrimSpace(opts.Actor))
		if err != nil {
			return fmt.Errorf("invalid --actor: %w", err)
		}
		actor = types.ActorRef{ID: id, Type: "cli"}
		ctx = auth.WithActorContext(ctx, &auth.ActorContext{ActorID: id.String(), Role: "cli"})
	}

	rt, err := openRuntime(ctx, cfg, limits, newLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt.svc, actor)
}

func resolveConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if opts.Actor == "" {
		var fromEnv rootOptions
		if err := config.ParseEnv(&fromEnv); err != nil {
			return config.Config{}, err
		}
		opts.Actor = fromEnv.Actor
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = config.Backend(opts.Backend)
	}
	if flags.Changed("sqlite-dsn") {
		cfg.SQLiteDSN = opts.SQLiteDSN
	}
	if flags.Changed("badger-path") {
		cfg.BadgerPath = opts.BadgerPath
	}
	return cfg, cfg.Validate()
}

func newCounterCmd(opts *rootOptions) *cobra.Command {
	counterCmd := &cobra.Command{
		Use:   "counter",
		Short: "Read or change the global counter",
	}
	counterCmd.AddCommand(
		&cobra.Command{
			Use:   "increment",
			Short: "Add one to the counter",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
					var value uint64
					if err := svc.Dispatch(ctx, command.CounterIncrementInput{Result: &value}); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), value)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Set the counter back to zero",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
					if err := svc.Dispatch(ctx, command.CounterResetInput{}); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), 0)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get",
			Short: "Print the counter",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
					value, err := svc.Queries().Counter.Query(ctx, query.CounterQueryInput{})
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), value)
					return nil
				})
			},
		},
	)
	return counterCmd
}

func newUsernameCmd(opts *rootOptions) *cobra.Command {
	usernameCmd := &cobra.Command{
		Use:   "username",
		Short: "Claim or look up usernames",
	}
	usernameCmd.AddCommand(
		&cobra.Command{
			Use:   "set [username]",
			Short: "Claim a username for the caller, creating the profile if needed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
					var profile types.Profile
					if err := svc.Dispatch(ctx, command.SetUsernameInput{Username: args[0], Result: &profile}); err != nil {
						return err
					}
					printProfile(cmd.OutOrStdout(), &profile)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "lookup [username]",
			Short: "Print the identity holding a username",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
					owner, err := svc.Queries().UsernameLookup.Query(ctx, query.UsernameLookupInput{Username: args[0]})
					if err != nil {
						return command.RichError(err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), owner)
					return nil
				})
			},
		},
	)
	return usernameCmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Read or update profiles",
	}

	var (
		username    string
		avatar      string
		bio         string
		clearAvatar bool
		clearBio    bool
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update the caller's profile; only the given fields change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var patch types.ProfilePatch
			if flags.Changed("username") {
				patch.Username = &username
			}
			patch.Avatar = textPatch(flags.Changed("avatar"), clearAvatar, avatar)
			patch.Bio = textPatch(flags.Changed("bio"), clearBio, bio)
			return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
				var profile types.Profile
				if err := svc.Dispatch(ctx, command.ProfileUpdateInput{Patch: patch, Result: &profile}); err != nil {
					return err
				}
				printProfile(cmd.OutOrStdout(), &profile)
				return nil
			})
		},
	}
	updateCmd.Flags().StringVar(&username, "username", "", "new username")
	updateCmd.Flags().StringVar(&avatar, "avatar", "", "new avatar reference")
	updateCmd.Flags().StringVar(&bio, "bio", "", "new bio")
	updateCmd.Flags().BoolVar(&clearAvatar, "clear-avatar", false, "remove the avatar")
	updateCmd.Flags().BoolVar(&clearBio, "clear-bio", false, "remove the bio")
	updateCmd.MarkFlagsMutuallyExclusive("avatar", "clear-avatar")
	updateCmd.MarkFlagsMutuallyExclusive("bio", "clear-bio")

	getCmd := &cobra.Command{
		Use:   "get [owner]",
		Short: "Print a profile; defaults to the caller",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *service.Service, actor types.ActorRef) error {
				owner, err := ownerArg(args, actor)
				if err != nil {
					return err
				}
				profile, err := svc.Queries().Profile.Query(ctx, query.ProfileQueryInput{Owner: owner})
				if err != nil {
					return command.RichError(err)
				}
				if profile == nil {
					return fmt.Errorf("no profile for %s", owner)
				}
				printProfile(cmd.OutOrStdout(), profile)
				return nil
			})
		},
	}

	var (
		listLimit  int
		listOffset int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Page through every profile in owner order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *service.Service, actor types.ActorRef) error {
				page, err := svc.Queries().ProfileInventory.Query(ctx, query.ProfileInventoryInput{
					Actor:      actor,
					Pagination: types.Pagination{Limit: listLimit, Offset: listOffset},
				})
				if err != nil {
					return command.RichError(err)
				}
				out := cmd.OutOrStdout()
				for _, profile := range page.Profiles {
					fmt.Fprintf(out, "%s\t%s\t%d\n", profile.Owner, profile.Username, profile.CreatedAt)
				}
				if page.HasMore {
					fmt.Fprintf(out, "# %d of %d, next offset %d\n", len(page.Profiles), page.Total, page.NextOffset)
				}
				return nil
			})
		},
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "page size (default 50, max 200)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "profiles to skip")

	profileCmd.AddCommand(updateCmd, getCmd, listCmd)
	return profileCmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Read or update race statistics",
	}

	var (
		races    uint32
		wins     uint32
		distance uint64
		rewards  string
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Overwrite the given stats fields for the caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var patch types.StatsPatch
			if flags.Changed("races") {
				patch.TotalRaces = &races
			}
			if flags.Changed("wins") {
				patch.Wins = &wins
			}
			if flags.Changed("distance") {
				patch.TotalDistance = &distance
			}
			if flags.Changed("rewards") {
				value, err := types.ParseUint128(rewards)
				if err != nil {
					return fmt.Errorf("invalid --rewards: %w", err)
				}
				patch.TotalRewards = &value
			}
			return withService(cmd, opts, func(ctx context.Context, svc *service.Service, _ types.ActorRef) error {
				var stats types.Stats
				if err := svc.Dispatch(ctx, command.StatsUpdateInput{Patch: patch, Result: &stats}); err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), &stats)
				return nil
			})
		},
	}
	updateCmd.Flags().Uint32Var(&races, "races", 0, "total races")
	updateCmd.Flags().Uint32Var(&wins, "wins", 0, "wins")
	updateCmd.Flags().Uint64Var(&distance, "distance", 0, "total distance")
	updateCmd.Flags().StringVar(&rewards, "rewards", "", "total rewards (unsigned 128-bit decimal)")

	getCmd := &cobra.Command{
		Use:   "get [owner]",
		Short: "Print stats; defaults to the caller",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *service.Service, actor types.ActorRef) error {
				owner, err := ownerArg(args, actor)
				if err != nil {
					return err
				}
				stats, err := svc.Queries().Stats.Query(ctx, query.StatsQueryInput{Owner: owner})
				if err != nil {
					return command.RichError(err)
				}
				if stats == nil {
					stats = &types.Stats{}
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}

	statsCmd.AddCommand(updateCmd, getCmd)
	return statsCmd
}

func newActivityCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		verbs  []string
		target string
		counts bool
	)
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent directory activity; defaults to the caller's own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := types.ActivityFilter{
				Verbs:      verbs,
				Pagination: types.Pagination{Limit: limit},
			}
			if target != "" {
				id, err := uuid.Parse(target)
				if err != nil {
					return fmt.Errorf("invalid --of: %w", err)
				}
				filter.ActorID = id
			}
			return withService(cmd, opts, func(ctx context.Context, svc *service.Service, actor types.ActorRef) error {
				filter.Actor = actor
				out := cmd.OutOrStdout()
				if counts {
					stats, err := svc.Queries().ActivityStats.Query(ctx, filter)
					if err != nil {
						return command.RichError(err)
					}
					verbs := make([]string, 0, len(stats.ByVerb))
					for verb := range stats.ByVerb {
						verbs = append(verbs, verb)
					}
					sort.Strings(verbs)
					for _, verb := range verbs {
						fmt.Fprintf(out, "%s\t%d\n", verb, stats.ByVerb[verb])
					}
					fmt.Fprintf(out, "total\t%d\n", stats.Total)
					return nil
				}
				page, err := svc.Queries().ActivityFeed.Query(ctx, filter)
				if err != nil {
					return command.RichError(err)
				}
				for _, record := range page.Records {
					fmt.Fprintf(out, "%s\t%s\t%s/%s\t%v\n",
						record.OccurredAt.Format("2006-01-02T15:04:05Z07:00"),
						record.Verb, record.ObjectType, record.ObjectID, record.Data)
				}
				return nil
			})
		},
	}
	activityCmd.Flags().IntVar(&limit, "limit", 20, "maximum records to print")
	activityCmd.Flags().StringSliceVar(&verbs, "verb", nil, "only show these verbs")
	activityCmd.Flags().StringVar(&target, "of", "", "identity whose activity to read (operators only)")
	activityCmd.Flags().BoolVar(&counts, "counts", false, "print per-verb counts instead of records")
	return activityCmd
}

func textPatch(set, remove bool, value string) types.TextPatch {
	switch {
	case remove:
		return types.ClearText()
	case set:
		return types.SetText(value)
	default:
		return types.TextPatch{}
	}
}

func ownerArg(args []string, actor types.ActorRef) (uuid.UUID, error) {
	if len(args) == 0 {
		if actor.IsZero() {
			return uuid.Nil, fmt.Errorf("owner argument or --actor required")
		}
		return actor.ID, nil
	}
	return uuid.Parse(args[0])
}

func printProfile(w io.Writer, profile *types.Profile) {
	fmt.Fprintf(w, "owner:      %s\n", profile.Owner)
	fmt.Fprintf(w, "username:   %s\n", profile.Username)
	if profile.Avatar != nil {
		fmt.Fprintf(w, "avatar:     %s\n", profile.Avatar)
	}
	if profile.Bio != nil {
		fmt.Fprintf(w, "bio:        %s\n", profile.Bio)
	}
	fmt.Fprintf(w, "created_at: %d\n", profile.CreatedAt)
}

func printStats(w io.Writer, stats *types.Stats) {
	fmt.Fprintf(w, "total_races:    %d\n", stats.TotalRaces)
	fmt.Fprintf(w, "wins:           %d\n", stats.Wins)
	fmt.Fprintf(w, "total_distance: %d\n", stats.TotalDistance)
	fmt.Fprintf(w, "total_rewards:  %s\n", stats.TotalRewards)
}

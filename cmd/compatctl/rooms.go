package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_compatibility/internal/adapters/store/sqlite"
	"github.com/baditaflorin/go_compatibility/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_compatibility/internal/core/compat"
	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/core/room"
	"github.com/baditaflorin/go_compatibility/internal/evaluator"
)

func (c *commandContext) withRooms(fn func(*room.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	calc, err := compat.NewCalculator(compat.DefaultConfig(), c.logger(), tokenizer.NewDefaultTokenizer())
	if err != nil {
		return err
	}
	svc := room.NewService(store, evaluator.New(calc, c.logger()), c.logger(),
		room.Config{ResultTTL: cfg.Rooms.ResultTTL})
	return fn(svc)
}

func newRoomsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and maintain stored rooms",
	}
	cmd.AddCommand(newRoomsShowCommand(ctx), newRoomsSweepCommand(ctx), newRoomsDeleteCommand(ctx))
	return cmd
}

func newRoomsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a room's participants and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRooms(func(svc *room.Service) error {
				r, err := svc.Get(cmd.Context(), room.Key(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRoom(r))
				return nil
			})
		},
	}
}

func renderRoom(r domain.Room) string {
	rows := make([][]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		answered := "no"
		if s, ok := r.Submission(p.UID); ok {
			answered = s.SubmittedAt.Format(time.RFC3339)
		}
		rows = append(rows, []string{p.UID, p.JoinedAt.Format(time.RFC3339), answered})
	}
	out := fmt.Sprintf("Room %s (%s)\n%s", r.Key, r.Name,
		renderTable([]string{"Participant", "Joined", "Answered"}, rows, nil))
	if r.Result != nil {
		out += fmt.Sprintf("\nScore: %d%% (%s)\n%s", r.Result.Rounded(), r.Result.Source, r.Result.Message)
	} else {
		out += "\nWaiting for answers"
	}
	return out
}

func newRoomsSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete rooms whose result has expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRooms(func(svc *room.Service) error {
				n, err := svc.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired room(s)\n", n)
				return nil
			})
		},
	}
}

func newRoomsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRooms(func(svc *room.Service) error {
				key := room.Key(args[0])
				if err := svc.Delete(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted room %s\n", key)
				return nil
			})
		},
	}
}

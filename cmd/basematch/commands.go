package main

import (
	"context"
	"encoding/json"
	"fmt"

	"basematch/internal/core/swipe"
	perr "basematch/internal/platform/errors"
	decsvc "basematch/internal/services/decisions/service"

	"github.com/spf13/cobra"
)

type opener func(ctx context.Context, driver string) (*decsvc.Service, func(), error)

func newRoot(open opener) *cobra.Command {
	var driver string
	root := &cobra.Command{
		Use:           "basematch",
		Short:         "Inspect the pending swipe queue and discovery preference",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&driver, "driver", "", "store driver (sqlite|postgres|redis|memory); defaults to BASEMATCH_STORE_DRIVER")

	// with runs fn against a freshly loaded store
	with := func(fn func(cmd *cobra.Command, s *decsvc.Service, st swipe.State, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, done, err := open(cmd.Context(), driver)
			if err != nil {
				return err
			}
			defer done()
			st, err := s.Load(cmd.Context())
			if err != nil {
				return err
			}
			return fn(cmd, s, st, args)
		}
	}

	queue := &cobra.Command{Use: "queue", Short: "Pending decisions"}
	queue.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the queued decisions in order",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, _ *decsvc.Service, st swipe.State, _ []string) error {
				return printJSON(cmd, map[string]any{
					"size":       st.Queue.Len(),
					"capacity":   st.Queue.Cap(),
					"save_count": st.SaveCount,
					"decisions":  st.Queue.Snapshot(),
				})
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop every queued decision without committing it",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, s *decsvc.Service, st swipe.State, _ []string) error {
				if err := s.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %d queued decisions\n", st.Queue.Len())
				return nil
			}),
		},
	)

	pref := &cobra.Command{Use: "preference", Short: "Discovery preference"}
	pref.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored preference",
			Args:  cobra.NoArgs,
			RunE: with(func(cmd *cobra.Command, _ *decsvc.Service, st swipe.State, _ []string) error {
				g := string(st.Gender)
				if g == "" {
					g = "unset"
				}
				fmt.Fprintln(cmd.OutOrStdout(), g)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <male|female>",
			Short: "Store a new preference",
			Args:  cobra.ExactArgs(1),
			RunE: with(func(cmd *cobra.Command, s *decsvc.Service, st swipe.State, args []string) error {
				g, ok := swipe.ParseGender(args[0])
				if !ok {
					return perr.WithField(perr.InvalidArgf("gender must be male or female, got %q", args[0]), "gender")
				}
				if err := s.Save(cmd.Context(), st.SetPreference(g)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), g)
				return nil
			}),
		},
	)

	root.AddCommand(queue, pref)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

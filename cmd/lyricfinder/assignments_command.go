package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lyricfinder/internal/lrcdb"
)

func newAssignmentsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assignments",
		Aliases: []string{"db"},
		Short:   "Inspect remembered lyric assignments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List remembered assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No assignments")
				return nil
			}
			rows := make([][]string, len(list))
			for i, a := range list {
				rows[i] = []string{a.TrackKey, a.Artist, a.Title, a.Source, a.URI, a.UpdatedAt.Format("2006-01-02 15:04")}
			}
			fmt.Fprintln(w, renderTable(
				[]string{"Track", "Artist", "Title", "Source", "URI", "Updated"},
				rows, nil,
			))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "forget <track-key>...",
		Short: "Forget the assignment of one or more tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, key := range args {
				if err := store.Forget(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", key)
			}
			return nil
		},
	})

	return cmd
}

func openStore(ctx *commandContext) (*lrcdb.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database_path is not configured")
	}
	return lrcdb.Open(cfg.DatabasePath)
}

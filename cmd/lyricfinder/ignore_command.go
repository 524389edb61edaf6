package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lyricfinder/internal/config"
	"lyricfinder/internal/logger"
	"lyricfinder/internal/policy"
)

func newIgnoreCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage candidates that are never offered again",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <uri>...",
		Short: "Ignore one or more candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := config.NewIgnoreStore(cfg.StatePath)
			pol := policy.New(store, cfg.AutoDownloadBest, logger.New(cfg.Verbose))
			for _, uri := range args {
				if err := pol.Reject(uri); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d candidates ignored (%s)\n", len(pol.Ignored()), store.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List ignored candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			keys, err := config.NewIgnoreStore(cfg.StatePath).Load()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(w, "No ignored candidates")
				return nil
			}
			rows := make([][]string, len(keys))
			for i, k := range keys {
				rows[i] = []string{fmt.Sprintf("%d", i+1), k}
			}
			fmt.Fprintln(w, renderTable([]string{"#", "Key"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	})

	return cmd
}

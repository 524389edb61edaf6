package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lyricfinder/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Create a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *ctx.configFlag
			if path == "" {
				path = config.GetDefaultConfigPath()
			}
			w := cmd.OutOrStdout()

			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(w, "Config file already exists at: %s\n", path)
				fmt.Fprintln(w, "Delete it first if you want to recreate it.")
				return nil
			}

			if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}

			fmt.Fprintf(w, "Created default config file at: %s\n", path)
			fmt.Fprintln(w, "\nAvailable options:")
			fmt.Fprintln(w, "  backends: lrcdb, lrclib, netease, local (queried in this order)")
			fmt.Fprintln(w, "  auto_download_best: true/false (download the best match without asking)")
			fmt.Fprintln(w, "  lyric_dirs: directories searched by the local backend")
			fmt.Fprintln(w, "  save_dir: where downloaded lyrics are copied")
			fmt.Fprintln(w, "  query_timeout: e.g. 10s")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			source := ctx.configPath
			if source == "" {
				source = "defaults"
			}
			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			fmt.Fprintln(w, renderStatusLine("Configuration", statusOK, source, colorize))
			for _, b := range cfg.Backends {
				fmt.Fprintln(w, renderStatusLine("Backend "+b, statusInfo, "", colorize))
			}
			return nil
		},
	})

	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"lyricfinder/internal/config"
	"lyricfinder/internal/metadata"
	"lyricfinder/internal/pipeline"
	"lyricfinder/internal/progress"
	"lyricfinder/internal/shutdown"
	"lyricfinder/pkg/utils"
)

type findOptions struct {
	artist string
	title  string
	album  string
	manual bool
	pick   string
	print  bool
}

func newFindCommand(ctx *commandContext) *cobra.Command {
	var opts findOptions

	cmd := &cobra.Command{
		Use:   "find [audio-file]",
		Short: "Look up lyrics for a track",
		Long: `Look up lyrics for a track described by tags, a file name, or both.

Tags are read from the audio file when no --artist/--title is given.
Without tags the file name is matched against common naming patterns,
for example "03. Artist - Title.mp3".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.apply(cfg)

			var path string
			if len(args) == 1 {
				path = args[0]
			}

			sh := shutdown.New(cmd.Context())
			sh.Listen()
			defer sh.Shutdown()

			log := ctx.newLogger()
			sh.AddCleanup(func() { log.Close() })

			session, err := pipeline.Setup(*cfg, log, pipeline.Hooks{})
			if err != nil {
				return err
			}
			sh.AddCleanup(func() {
				if err := session.Close(); err != nil {
					log.Warn("Failed to close session: %v", err)
				}
			})

			ev := pipeline.Event{Path: path, Tags: opts.tags()}
			if ev.Tags == nil && path != "" && utils.IsAudioFile(path) {
				if tags, err := metadata.ReadTags(path); err != nil {
					log.Debug("%v", err)
				} else {
					ev.Tags = &tags
				}
			}

			var bar *progress.Bar
			if !cfg.Verbose && isatty.IsTerminal(os.Stderr.Fd()) {
				bar = progress.New(os.Stderr, len(session.Dispatcher.Order()))
				session.Dispatcher.OnReply = bar.Reply
				log.SetProgressBar(true)
			}

			out := session.Engine.TrackChanged(sh.Context(), ev)

			if bar != nil {
				bar.Finish()
				log.SetProgressBar(false)
			}

			if opts.pick != "" {
				out, err = session.Engine.Choose(sh.Context(), opts.pick)
				if err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			printOutcome(w, out, shouldColorize(w))
			if opts.print && out.State == pipeline.StateFound {
				fmt.Fprintln(w)
				fmt.Fprint(w, string(out.Payload))
			}

			if out.State == pipeline.StateError || (out.State == pipeline.StateNotFound && out.Err != nil) {
				return out.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.artist, "artist", "", "Track artist")
	cmd.Flags().StringVar(&opts.title, "title", "", "Track title")
	cmd.Flags().StringVar(&opts.album, "album", "", "Track album")
	cmd.Flags().BoolVar(&opts.manual, "manual", false, "List candidates instead of downloading the best one")
	cmd.Flags().StringVar(&opts.pick, "pick", "", "Download the candidate with this URI")
	cmd.Flags().BoolVarP(&opts.print, "print", "p", false, "Print the lyrics when found")

	return cmd
}

// apply adjusts the configuration for this run. Picking a candidate
// implies manual mode, so the best one is not downloaded first.
func (o findOptions) apply(cfg *config.Config) {
	if o.manual || o.pick != "" {
		cfg.AutoDownloadBest = false
	}
}

// tags returns the tags given on the command line, or nil if none were.
func (o findOptions) tags() *metadata.RawTags {
	if o.artist == "" && o.title == "" && o.album == "" {
		return nil
	}
	return &metadata.RawTags{Artist: o.artist, Title: o.title, Album: o.album}
}

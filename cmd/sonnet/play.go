package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/symbiotic-sonnet/internal/adapters/apiclient"
	"github.com/PabloGalante/symbiotic-sonnet/internal/app/sequencer"
	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/render"
)

var (
	playTheme  string
	playAPIKey string
	playSave   bool
)

var errRunFailed = errors.New("a line could not be fetched; the run was reset")

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Generate a poem for a theme, one paced line at a time",
	Long: `Starts a run for the theme: line 1 is requested immediately, each
following line after the line delay, and the run completes after the
finish delay.

Example:
  sonnet play --theme "Forest at dusk" --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := newAPIClient()
		term := render.NewTerminal(cmd.OutOrStdout())

		final, err := playRun(ctx, client, term, sequencer.Options{
			LineDelay:     cfg.Client.LineDelay,
			FinishDelay:   cfg.Client.FinishDelay,
			RequireAPIKey: cfg.RequireAPIKey,
		}, playTheme, playAPIKey)
		if err != nil {
			return err
		}

		if playSave {
			saved, err := client.SavePoem(ctx, final.Theme, final.Lines)
			if err != nil {
				return fmt.Errorf("saving poem: %w", err)
			}
			term.Println(fmt.Sprintf("saved as %s", saved.ID))
		}
		return nil
	},
}

func init() {
	playCmd.Flags().StringVarP(&playTheme, "theme", "t", "", "Theme of the poem (required)")
	playCmd.Flags().StringVar(&playAPIKey, "api-key", "", "Model API key forwarded with each request")
	playCmd.Flags().BoolVar(&playSave, "save", false, "Archive the poem once it is complete")
	_ = playCmd.MarkFlagRequired("theme")
}

// printer is what playRun needs from the terminal renderer.
type printer interface {
	Status(s domain.Session) string
	Line(n int, rec domain.LineRecord) string
	Error(msg string) string
	Println(s string)
}

// playRun drives one sequencer run to completion and prints each line as
// it arrives. It returns the finished session, or an error when the run
// was reset by a failure or ctx ended first.
func playRun(ctx context.Context, fetcher sequencer.LineFetcher, out printer, opts sequencer.Options, theme, apiKey string) (domain.Session, error) {
	updates := make(chan domain.Session, domain.PoemLength+2)
	done := make(chan struct{})

	opts.Observer = func(s domain.Session) {
		select {
		case updates <- s:
		case <-done:
		}
	}

	seq := sequencer.New(fetcher, opts)
	defer func() {
		close(done)
		seq.Close()
	}()

	if err := seq.Start(theme, apiKey); err != nil {
		return domain.Session{}, err
	}

	printed := 0
	var lastState domain.SessionState
	for {
		select {
		case <-ctx.Done():
			return domain.Session{}, ctx.Err()

		case s := <-updates:
			if s.State != lastState && s.State != domain.StateInput {
				out.Println(out.Status(s))
			}
			lastState = s.State

			for ; printed < len(s.Lines); printed++ {
				out.Println(out.Line(printed, s.Lines[printed]))
			}

			switch s.State {
			case domain.StateFinished:
				return s, nil
			case domain.StateInput:
				out.Println(out.Error(errRunFailed.Error()))
				return domain.Session{}, errRunFailed
			}
		}
	}
}

var _ sequencer.LineFetcher = (*apiclient.Client)(nil)

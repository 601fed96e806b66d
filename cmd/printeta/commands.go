package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/logging"
	"github.com/devadigapratham/printeta/internal/progress"
	"github.com/devadigapratham/printeta/internal/queue"
	"github.com/devadigapratham/printeta/internal/timeline"
	"github.com/devadigapratham/printeta/raft"
)

type app struct {
	out          io.Writer
	snapshotPath string
	nowFlag      string
	timezone     string
	asJSON       bool

	state *raft.State
	clock clock.Clock
	loc   *time.Location
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "printeta",
		Short:         "Print job wait, timeline and progress estimates",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&a.snapshotPath, "snapshot", "jobs.json", "State file with printers and print jobs")
	root.PersistentFlags().StringVar(&a.nowFlag, "now", "", "Evaluate at this RFC3339 instant instead of the wall clock")
	root.PersistentFlags().StringVar(&a.timezone, "timezone", "Local", "Time zone for formatted timestamps")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print JSON instead of text")

	root.AddCommand(a.waitCmd(), a.timelineCmd(), a.progressCmd(), a.queueCmd())
	return root
}

func (a *app) load() error {
	state, err := raft.LoadStateFile(a.snapshotPath)
	if err != nil {
		return err
	}
	a.state = state

	a.clock = clock.System{}
	if a.nowFlag != "" {
		at, err := time.Parse(time.RFC3339, a.nowFlag)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		a.clock = clock.NewFake(at)
	}

	a.loc = time.Local
	if a.timezone != "" && a.timezone != "Local" {
		if a.loc, err = time.LoadLocation(a.timezone); err != nil {
			return fmt.Errorf("invalid --timezone: %w", err)
		}
	}
	return nil
}

func (a *app) job(id string) (*models.PrintJob, error) {
	job, ok := a.state.Job(id)
	if !ok {
		return nil, fmt.Errorf("print job %q: %w", id, raft.ErrNotFound)
	}
	return job, nil
}

func (a *app) printerQueue(printerID string) *queue.Queue {
	return queue.ForPrinter(printerID, a.state.PrintJobs)
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) waitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait job-id",
		Short: "Estimate how long a queued job waits before printing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.job(args[0])
			if err != nil {
				return err
			}
			now := a.clock.Now()
			est := queue.EstimateWait(job, a.printerQueue(job.PrinterID), now)
			if a.asJSON {
				return a.printJSON(est)
			}
			fmt.Fprintf(a.out, "job:      %s\n", job.ID)
			fmt.Fprintf(a.out, "state:    %s\n", job.Status)
			fmt.Fprintf(a.out, "position: %d\n", est.Position)
			fmt.Fprintf(a.out, "wait:     %s (%s)\n", clock.FormatClock(est.Wait.Std()), est.Wait)
			fmt.Fprintf(a.out, "start:    %s\n", clock.FormatStamp(est.Start, a.loc))
			return nil
		},
	}
}

func (a *app) timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline job-id",
		Short: "Show recorded and predicted events of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.job(args[0])
			if err != nil {
				return err
			}
			tl := timeline.NewBuilder(a.loc).Build(job, a.printerQueue(job.PrinterID), a.clock.Now())
			if a.asJSON {
				return a.printJSON(tl)
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tAT\tWHEN\tPROGRESS\t")
			for _, e := range tl.Entries {
				label := e.Label
				if !e.Happened {
					label += " (expected)"
				}
				if e.Next {
					label = "> " + label
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t\n", label, e.Formatted, e.HumanizedRelative, e.Progress)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "overall: %.0f%%\n", tl.Progress)
			return nil
		},
	}
}

func (a *app) progressCmd() *cobra.Command {
	var watch bool
	var count int

	cmd := &cobra.Command{
		Use:   "progress job-id",
		Short: "Show live progress of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.job(args[0])
			if err != nil {
				return err
			}
			if !watch {
				return a.printSnapshot(progress.Compute(job, a.clock.Now()))
			}
			if a.nowFlag != "" {
				return errors.New("--watch follows the wall clock and cannot be combined with --now")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx, job.ID, count)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Refresh every second until interrupted")
	cmd.Flags().IntVar(&count, "count", 0, "Stop watching after this many updates (0 means no limit)")
	return cmd
}

func (a *app) watch(ctx context.Context, jobID string, count int) error {
	ticker := progress.NewTicker(a.state, a.clock, progress.DefaultInterval, logging.Discard())
	obs := ticker.Attach(jobID)
	defer obs.Detach()

	for n := 0; count == 0 || n < count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-obs.C:
			if !ok {
				return nil
			}
			if err := a.printSnapshot(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) printSnapshot(s progress.Snapshot) error {
	if a.asJSON {
		return json.NewEncoder(a.out).Encode(s)
	}
	_, err := fmt.Fprintf(a.out, "%3d%%  %s  %s (%s)\n", s.Progress, s.TimeLeftFormatted, s.Message, s.Detail)
	return err
}

func (a *app) queueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue printer-id",
		Short: "List a printer's jobs with their predicted start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := a.printerQueue(args[0])
			now := a.clock.Now()
			board := queue.Board(q, now)
			if a.asJSON {
				return a.printJSON(board)
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POS\tJOB\tSTATE\tWAIT\tSTART\t")
			if cur, ok := q.Current(); ok {
				fmt.Fprintf(w, "-\t%s\t%s\t-\t-\t\n", cur.ID, cur.Status)
			}
			for _, e := range board {
				job, _ := q.Job(e.JobID)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", e.Position, e.JobID, job.Status,
					clock.FormatClock(e.Wait.Std()), clock.FormatStamp(e.Start, a.loc))
			}
			return w.Flush()
		},
	}
}

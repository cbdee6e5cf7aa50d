package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"
	"sigawatch/internal/scheduler"

	"github.com/spf13/cobra"
)

var checkForce *bool

func init() {
	checkForce = checkCmd.Flags().Bool("force", false, "Ignore the active window of the searches.")
	rootCmd.AddCommand(checkCmd)
}

// selectSearches returns the searches with the given titles, or all of them
// when no title is given.
func selectSearches(searches []config.Search, titles []string) ([]config.Search, error) {
	if len(titles) == 0 {
		return searches, nil
	}
	out := make([]config.Search, 0, len(titles))
	for _, title := range titles {
		idx := slices.IndexFunc(searches, func(s config.Search) bool {
			return s.Title == title
		})
		if idx < 0 {
			return nil, fmt.Errorf("no valid search titled %q", title)
		}
		out = append(out, searches[idx])
	}
	return out, nil
}

// forceWindow opens the active window of every search to the whole day.
func forceWindow(searches []config.Search) []config.Search {
	out := slices.Clone(searches)
	for i := range out {
		out[i].StartTime = "00:00"
		out[i].EndTime = "23:59"
	}
	return out
}

// checkOnce runs every search once and prints the outcomes. The scheduler is
// stopped before returning.
func checkOnce(
	ctx context.Context,
	cron chrono.CronAPI,
	runner scheduler.Runner,
	tel telemetry.API,
	searches []config.Search,
	out io.Writer,
) {
	sched := scheduler.New(cron, runner, tel)
	defer sched.Stop()

	outcomes := sched.RunAll(ctx, searches)
	for i, outcome := range outcomes {
		fmt.Fprintf(out, "%s: %s\n", searches[i].Title, outcome)
	}
}

var checkCmd = &cobra.Command{
	Use:   "check [--force] [title...]",
	Short: "Checks the given searches (all by default) once and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		searches, err := selectSearches(a.searches, args)
		if err != nil {
			return err
		}
		if *checkForce {
			searches = forceWindow(searches)
		}

		task, err := a.task()
		if err != nil {
			return err
		}
		cron := chrono.NewStandardCron(a.tel, a.clock.Location())
		checkOnce(ctx, cron, task, a.tel, searches, os.Stdout)
		return nil
	},
}

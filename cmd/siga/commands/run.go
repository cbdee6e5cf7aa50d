package commands

import (
	"errors"

	"sigawatch/internal/components/chrono"
	"sigawatch/internal/scheduler"

	"github.com/spf13/cobra"
)

var runNow *bool

func init() {
	runNow = runCmd.Flags().Bool("now", false, "Run every search once before waiting for the schedule.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--now]",
	Short: "Checks every search on its own interval until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if len(a.searches) == 0 {
			return errors.New("nothing to schedule: no valid searches")
		}

		task, err := a.task()
		if err != nil {
			return err
		}

		cron := chrono.NewStandardCron(a.tel, a.clock.Location())
		sched := scheduler.New(cron, task, a.tel)
		sched.Schedule(ctx, a.searches)
		a.tel.ReportInfo("press CTRL + C to cancel")

		if *runNow {
			sched.RunAll(ctx, a.searches)
		}
		sched.Wait(ctx)
		return nil
	},
}

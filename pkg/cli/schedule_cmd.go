package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"catgraph/internal/config"
	"catgraph/internal/scheduler"
)

func newScheduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage scheduled harvests",
		Long: "Schedules re-harvest a catalog container on a cron expression (standard\n" +
			"five fields or descriptors such as @daily). Scheduled harvests add to the graph.",
	}
	cmd.AddCommand(newScheduleAddCmd(a))
	cmd.AddCommand(newScheduleListCmd(a))
	cmd.AddCommand(newScheduleRemoveCmd(a))
	cmd.AddCommand(newScheduleRunCmd(a))
	return cmd
}

func newScheduleAddCmd(a *app) *cobra.Command {
	var reason bool

	cmd := &cobra.Command{
		Use:     "add <cron> <connection> <container>",
		Short:   "Add a scheduled harvest",
		Example: "  catgraph schedule add \"0 2 * * *\" HANA_PROD /SALES --reason",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := config.Schedule{Cron: args[0], Connection: args[1], Container: args[2], Reason: reason}
			if err := scheduler.Validate(sc); err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := svc.AddSchedule(sc); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s at %q\n", config.ImportToken(sc.Connection, sc.Container), sc.Cron)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reason, "reason", false, "Run the RDFS and OWL-RL rules after each harvest")

	return cmd
}

func newScheduleListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled harvests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			schedules := svc.Workspace().Schedules
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), schedules)
			}
			rows := make([][]string, 0, len(schedules))
			for _, sc := range schedules {
				rows = append(rows, []string{sc.Cron, sc.Connection, sc.Container, strconv.FormatBool(sc.Reason)})
			}
			printTable(cmd.OutOrStdout(), []string{"cron", "connection", "container", "reason"}, rows)
			return nil
		},
	}
}

func newScheduleRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <connection> <container>",
		Short: "Remove the schedules of a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			n, err := svc.RemoveSchedule(args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d schedule(s)\n", n)
			return nil
		},
	}
}

func newScheduleRunCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler in the foreground",
		Long: "Start the cron loop over the configured schedules and block until\n" +
			"interrupted. With --once every schedule runs immediately, one after the other.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			schedules := svc.Workspace().Schedules
			if len(schedules) == 0 {
				return fmt.Errorf("no schedules configured (see 'catgraph schedule add')")
			}
			s := scheduler.New(svc, a.logger)
			w := cmd.OutOrStdout()

			if once {
				var failed int
				for _, sc := range schedules {
					r := s.RunNow(sc)
					printRunResult(w, r)
					if r.Err != nil {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d scheduled harvests failed", failed, len(schedules))
				}
				return nil
			}

			if err := s.Start(cmd.Context(), schedules); err != nil {
				return err
			}
			defer s.Stop()
			for _, e := range s.Entries() {
				_, _ = fmt.Fprintf(w, "%s next run %s\n",
					config.ImportToken(e.Schedule.Connection, e.Schedule.Container), e.Next.Format(time.RFC3339))
			}
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case r := <-s.Results():
					printRunResult(w, r)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run every schedule once and exit")

	return cmd
}

func printRunResult(w io.Writer, r scheduler.RunResult) {
	status := "ok"
	if r.Err != nil {
		status = "failed: " + r.Err.Error()
	}
	_, _ = fmt.Fprintf(w, "%s %s %s (%s)\n",
		r.Started.Format(time.RFC3339),
		config.ImportToken(r.Schedule.Connection, r.Schedule.Container),
		status,
		r.Duration.Round(time.Millisecond))
}

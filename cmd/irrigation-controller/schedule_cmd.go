package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/config"
	"github.com/mezeipetister/irrigation-controller/internal/logging"
	"github.com/mezeipetister/irrigation-controller/internal/storage"
)

// newScheduleCommand groups operator subcommands that inspect persisted
// controller state without starting the worker modules; a supplement to the
// distilled spec, not one of its described operations.
func newScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect the persisted schedule",
	}
	cmd.AddCommand(newScheduleShowCommand())
	return cmd
}

func newScheduleShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the schedule currently persisted on this controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logging.New(cfg.LogLevel, cfg.Environment)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer log.Sync()

			store, err := storage.Open(cfg.StoragePath, logging.Module(log, "storage"))
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			sched, found, err := store.LoadSchedule()
			if err != nil {
				return fmt.Errorf("load schedule: %w", err)
			}
			if !found {
				fmt.Println("no schedule persisted yet")
				return nil
			}

			fmt.Printf("schedule version %d, %d program(s)\n", sched.Version, len(sched.Programs))
			for _, p := range sched.Programs {
				status := "inactive"
				if p.Active {
					status = "active"
				}
				fmt.Printf("  %-12s %-20s %s starts %s weekdays=%v zones=%d\n",
					p.ID, p.Name, status, p.StartTime.String(), p.Weekdays, len(p.Zones))
			}
			log.Debug("schedule show completed", zap.Int("programs", len(sched.Programs)))
			return nil
		},
	}
}

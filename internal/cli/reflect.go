package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoryd/internal/model"
	"github.com/rcliao/memoryd/internal/reflection"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Force one consolidation run",
		Long:  "Run extract-normalize-merge over the oldest unprocessed messages immediately, bypassing the trigger thresholds.",
		Run:   runReflect,
	}
	RootCmd.AddCommand(cmd)
}

func runReflect(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	led, err := openLedger()
	if err != nil {
		exitErr("open ledger", err)
	}
	defer led.Close()

	store, err := openMemoryStore()
	if err != nil {
		exitErr("open memory store", err)
	}

	orc, err := newOracle(ctx)
	if err != nil {
		exitErr("oracle", err)
	}

	coord := reflection.NewCoordinator(store, orc, cfg.Reflection.DuplicateThreshold, logger)
	sched := reflection.NewScheduler(schedulerOptions(), led, coord, logger)

	results, err := sched.ForceRun(ctx)
	if err != nil {
		exitErr("reflect", err)
	}

	if len(results) == 0 {
		fmt.Println("no new facts")
		return
	}
	for _, cat := range model.Categories() {
		if n := results[cat]; n > 0 {
			fmt.Printf("%s: %d\n", cat, n)
		}
	}
}

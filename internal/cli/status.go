package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ledger and reflection status",
		Run:   runStatus,
	}
	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	led, err := openLedger()
	if err != nil {
		exitErr("open ledger", err)
	}
	defer led.Close()

	count, err := led.CountUnprocessed(ctx)
	if err != nil {
		exitErr("status", err)
	}
	fmt.Printf("unprocessed messages: %d\n", count)

	run, err := led.LastRun(ctx)
	if err != nil {
		exitErr("status", err)
	}
	if run == nil {
		fmt.Println("last reflection: never")
		return
	}
	cats := "none"
	if len(run.CategoriesUpdated) > 0 {
		cats = strings.Join(run.CategoriesUpdated, ", ")
	}
	fmt.Printf("last reflection: %s (%d messages through id %d, categories: %s)\n",
		run.RanAt.Format("2006-01-02 15:04:05"), run.MessagesProcessed, run.LastProcessedID, cats)
}

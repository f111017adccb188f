package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rcliao/memoryd/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "log [content]",
		Short: "Append a message to the ledger",
		Long:  "Append one message to the ledger. Content can be a positional arg or piped via stdin.",
		Run:   runLog,
	}

	cmd.Flags().StringP("thread", "t", "", "Thread id (default: a new thread)")
	cmd.Flags().StringP("role", "r", model.RoleUser, "Role: user or assistant")

	RootCmd.AddCommand(cmd)
}

func runLog(cmd *cobra.Command, args []string) {
	thread, _ := cmd.Flags().GetString("thread")
	role, _ := cmd.Flags().GetString("role")

	if role != model.RoleUser && role != model.RoleAssistant {
		exitErr("log", fmt.Errorf("invalid role %q", role))
	}
	if thread == "" {
		thread = uuid.NewString()
	}

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("log", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	led, err := openLedger()
	if err != nil {
		exitErr("open ledger", err)
	}
	defer led.Close()

	msg, err := led.Append(cmd.Context(), thread, role, strings.TrimSpace(content))
	if err != nil {
		exitErr("log", err)
	}

	b, _ := json.Marshal(msg)
	fmt.Println(string(b))
}

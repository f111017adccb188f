package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rcliao/memoryd/internal/ledger"
	"github.com/rcliao/memoryd/internal/model"
	"github.com/rcliao/memoryd/internal/reflection"
	"github.com/rcliao/memoryd/internal/retrieve"
)

const chatPrompt = `You are a helpful assistant. Have natural conversations with the user. Be friendly, informative, and remember context from the conversation.`

const contextWindow = 20

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with background consolidation",
		Long:  "Line-oriented chat loop. Messages are recorded in the ledger and consolidated into memory by the background scheduler. Type 'reflect' to force a run, 'quit' to exit.",
		Run:   runChat,
	}
	cmd.Flags().StringP("thread", "t", "", "Resume an existing thread id")
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
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
	sched.Start(ctx)
	defer sched.Stop()

	router := retrieve.NewRouter(orc, logger)
	retriever := retrieve.NewMarkdownRetriever(store)

	thread, _ := cmd.Flags().GetString("thread")
	if thread == "" {
		thread = uuid.NewString()
	}

	fmt.Println("Memory Chat")
	fmt.Printf("Thread: %s\n", thread)
	fmt.Println("Commands: 'quit' to exit, 'reflect' to force consolidation")
	fmt.Println(strings.Repeat("-", 50))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "quit"):
			return
		case strings.EqualFold(input, "reflect"):
			results, err := sched.ForceRun(ctx)
			if err != nil {
				fmt.Printf("reflection failed: %v\n", err)
				continue
			}
			if len(results) == 0 {
				fmt.Println("reflection complete: no new facts")
			} else {
				fmt.Printf("reflection complete: %v\n", results)
			}
			continue
		}

		if _, err := led.Append(ctx, thread, model.RoleUser, input); err != nil {
			exitErr("record message", err)
		}

		prompt, err := buildChatPrompt(ctx, led, router, retriever, thread, input)
		if err != nil {
			exitErr("build prompt", err)
		}

		reply, err := orc.Generate(ctx, prompt)
		if err != nil {
			fmt.Printf("model error: %v\n", err)
			continue
		}
		reply = strings.TrimSpace(reply)

		if _, err := led.Append(ctx, thread, model.RoleAssistant, reply); err != nil {
			exitErr("record reply", err)
		}
		fmt.Printf("\nAssistant: %s\n", reply)
	}
}

// buildChatPrompt assembles the system prompt, retrieved memories when the
// router asks for them, and the recent thread history ending in the user's
// latest input.
func buildChatPrompt(ctx context.Context, led ledger.Ledger, router *retrieve.Router, retriever retrieve.Retriever, thread, input string) (string, error) {
	var b strings.Builder
	b.WriteString(chatPrompt)

	decision := router.Route(ctx, input)
	if decision.NeedsMemory {
		memories, err := retriever.Retrieve(ctx, input, decision.RelevantCategories)
		if err != nil {
			return "", err
		}
		if memories != "" {
			b.WriteString("\n\nWhat you remember about the user:\n")
			b.WriteString(memories)
		}
	}

	history, err := led.Recent(ctx, thread, contextWindow)
	if err != nil {
		return "", err
	}
	b.WriteString("\n\n--- CONVERSATION ---\n")
	for _, m := range history {
		b.WriteString(strings.ToUpper(m.Role) + ": " + m.Content + "\n")
	}
	b.WriteString("ASSISTANT:")

	return b.String(), nil
}

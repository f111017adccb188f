package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memoryd/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show [category]",
		Short: "Print stored facts",
		Long:  "Print one category's markdown file, or every non-empty category when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runShow,
	}
	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	store, err := openMemoryStore()
	if err != nil {
		exitErr("open memory store", err)
	}

	cats := model.Categories()
	if len(args) == 1 {
		cat := model.Category(args[0])
		if !model.ValidCategories[cat] {
			exitErr("show", fmt.Errorf("unknown category %q", args[0]))
		}
		cats = []model.Category{cat}
	}

	for _, cat := range cats {
		b, err := os.ReadFile(store.Path(cat))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			exitErr("show", err)
		}
		content := strings.TrimSpace(string(b))
		// A bare title line means the category is still empty.
		if len(args) == 0 && !strings.Contains(content, "\n") {
			continue
		}
		fmt.Println(content)
		fmt.Println()
	}
}

// Package retrieve selects and loads stored memories for a query. The
// Retriever interface is the pluggable point for smarter strategies; the
// markdown retriever here just returns facts from the requested categories.
package retrieve

import (
	"context"
	"strings"

	"github.com/rcliao/memoryd/internal/memory"
	"github.com/rcliao/memoryd/internal/model"
)

// Retriever loads memory content relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, cats []model.Category) (string, error)
}

// DefaultFactsPerCategory caps how many facts one category contributes.
const DefaultFactsPerCategory = 5

// MarkdownRetriever reads facts straight from the category files, without
// ranking. Relevance quality is deliberately out of scope.
type MarkdownRetriever struct {
	store       *memory.Store
	perCategory int
}

// NewMarkdownRetriever wires a retriever over the memory store.
func NewMarkdownRetriever(store *memory.Store) *MarkdownRetriever {
	return &MarkdownRetriever{store: store, perCategory: DefaultFactsPerCategory}
}

// Retrieve returns up to perCategory facts from each requested category
// under a title heading. An empty category list means all categories.
// Empty categories are skipped; an empty result means nothing relevant.
func (r *MarkdownRetriever) Retrieve(ctx context.Context, query string, cats []model.Category) (string, error) {
	if len(cats) == 0 {
		cats = model.Categories()
	}

	var parts []string
	for _, cat := range cats {
		if !model.ValidCategories[cat] {
			continue
		}
		cs, err := r.store.ReadCategory(cat)
		if err != nil {
			return "", err
		}
		facts := cs.AllFacts()
		if len(facts) == 0 {
			continue
		}
		if len(facts) > r.perCategory {
			facts = facts[:r.perCategory]
		}
		parts = append(parts, "**"+cat.Title()+":**")
		parts = append(parts, facts...)
	}

	return strings.Join(parts, "\n"), nil
}

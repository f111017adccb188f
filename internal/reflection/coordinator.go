// Package reflection implements the consolidation engine: the coordinator that
// distills a message batch into categorized facts, and the scheduler that
// decides when a consolidation run happens.
package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/memoryd/internal/memory"
	"github.com/rcliao/memoryd/internal/model"
	"github.com/rcliao/memoryd/internal/oracle"
)

// Coordinator orchestrates one consolidation: oracle extraction, response
// parsing, normalization, and the duplicate-filtered merge into the
// category store.
type Coordinator struct {
	store     *memory.Store
	oracle    oracle.Oracle
	threshold float64
	log       *zap.Logger

	now func() time.Time
}

// NewCoordinator wires a coordinator. A threshold <= 0 falls back to the
// default duplicate threshold.
func NewCoordinator(store *memory.Store, orc oracle.Oracle, threshold float64, log *zap.Logger) *Coordinator {
	if threshold <= 0 {
		threshold = memory.DefaultDuplicateThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:     store,
		oracle:    orc,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Process extracts facts from the batch and merges them into the store.
// Returns the number of facts accepted per category; categories with zero
// accepted facts are omitted. An unparseable oracle response yields an
// empty result, not an error; oracle transport failures and store I/O
// failures abort with an error and leave the store untouched beyond
// categories already written.
func (c *Coordinator) Process(ctx context.Context, msgs []model.Message) (map[model.Category]int, error) {
	results := make(map[model.Category]int)
	if len(msgs) == 0 {
		return results, nil
	}

	resp, err := c.oracle.Extract(ctx, Transcript(msgs))
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	raw := parseResponse(resp)
	if raw == nil {
		c.log.Warn("extraction response unparseable, treating as empty",
			zap.Int("messages", len(msgs)))
		return results, nil
	}

	normalized := memory.Normalize(raw)
	for _, cat := range model.Categories() {
		buckets, ok := normalized[cat]
		if !ok {
			continue
		}
		added, err := c.merge(cat, buckets)
		if err != nil {
			return nil, err
		}
		if added > 0 {
			results[cat] = added
		}
	}

	return results, nil
}

// merge appends non-duplicate facts to their buckets and writes the
// category back. Candidates are checked against every existing fact in the
// category regardless of subcategory, and accepted candidates immediately
// count as existing for the rest of the batch.
func (c *Coordinator) merge(cat model.Category, buckets map[string][]string) (int, error) {
	existing, err := c.store.ReadCategory(cat)
	if err != nil {
		return 0, err
	}

	all := existing.AllFacts()
	date := c.now().Format("2006-01-02")
	added := 0

	subs := make([]string, 0, len(buckets))
	for sub := range buckets {
		subs = append(subs, sub)
	}
	sort.Strings(subs)

	for _, sub := range subs {
		for _, fact := range buckets[sub] {
			fact = strings.TrimSpace(fact)
			if fact == "" {
				continue
			}
			if !strings.HasPrefix(fact, "- ") {
				fact = "- " + fact
			}
			if !strings.Contains(fact, "(") {
				fact = fact + " (" + date + ")"
			}
			if memory.IsDuplicate(all, fact, c.threshold) {
				continue
			}
			existing.Append(sub, fact)
			all = append(all, fact)
			added++
		}
	}

	if err := c.store.WriteCategory(cat, existing); err != nil {
		return 0, err
	}
	return added, nil
}

// Transcript renders messages as "ROLE: content" lines for the oracle.
func Transcript(msgs []model.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, strings.ToUpper(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

var (
	fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	braceSpan   = regexp.MustCompile(`\{[\s\S]*\}`)
)

// parseResponse extracts a JSON object from the oracle's response using a
// three-tier fallback: direct parse, first fenced code block, first
// top-level brace span. Returns nil when all three fail.
func parseResponse(text string) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		return raw
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &raw); err == nil {
			return raw
		}
	}

	if m := braceSpan.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &raw); err == nil {
			return raw
		}
	}

	return nil
}

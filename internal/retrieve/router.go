package retrieve

import (
	"context"
	"encoding/json"
	"regexp"

	"go.uber.org/zap"

	"github.com/rcliao/memoryd/internal/model"
)

const routerPrompt = `You are a routing agent. Analyze the user's query and decide if it needs personal memory/context to answer well.

Memory categories available: personal_info, preferences, goals, activities, habits, experiences, relationships, work_life, opinions, knowledge.

Queries that NEED memory: personal recommendations, references to past conversations, questions about the user's life, personalized advice.
Queries that DON'T need memory: general knowledge, generic tasks, greetings, factual questions.

Respond with JSON only:
{
  "needs_memory": true/false,
  "reason": "brief explanation",
  "relevant_categories": ["category1", "category2"]
}`

// Generator sends an arbitrary prompt to the language model. Satisfied by
// *oracle.Gemini.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Decision is the router's verdict for one query.
type Decision struct {
	NeedsMemory        bool             `json:"needs_memory"`
	Reason             string           `json:"reason"`
	RelevantCategories []model.Category `json:"relevant_categories"`
}

// Router decides whether a query needs memory retrieval and which
// categories might hold it.
type Router struct {
	gen Generator
	log *zap.Logger
}

// NewRouter wires a router over a generator.
func NewRouter(gen Generator, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{gen: gen, log: log}
}

var routerBraceSpan = regexp.MustCompile(`\{[\s\S]*?\}`)

// Route asks the model whether the query needs memory. Any model or parse
// failure degrades to "no memory needed"; unknown category names are
// filtered out.
func (r *Router) Route(ctx context.Context, query string) Decision {
	resp, err := r.gen.Generate(ctx, routerPrompt+"\n\nUser query: "+query)
	if err != nil {
		r.log.Warn("router call failed", zap.Error(err))
		return Decision{}
	}

	var d Decision
	if err := json.Unmarshal([]byte(resp), &d); err != nil {
		span := routerBraceSpan.FindString(resp)
		if span == "" || json.Unmarshal([]byte(span), &d) != nil {
			r.log.Warn("router response unparseable")
			return Decision{}
		}
	}

	valid := d.RelevantCategories[:0]
	for _, c := range d.RelevantCategories {
		if model.ValidCategories[c] {
			valid = append(valid, c)
		}
	}
	d.RelevantCategories = valid
	return d
}

package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const extractionPrompt = `You are a memory extraction agent. Analyze the following conversation messages and extract meaningful facts, preferences, and insights about the user.

Categorize into these categories:
- personal_info: Name, age, location, identity
- preferences: Likes, dislikes, choices
- goals: Aspirations, plans, objectives
- activities: Hobbies, regular activities
- habits: Routines, patterns
- experiences: Past events, memories
- relationships: People mentioned, connections
- work_life: Job, career, professional info
- opinions: Views, beliefs, stances
- knowledge: Skills, expertise, learnings

Rules:
- Only extract concrete information, not vague statements
- Use third person ("The user...")
- Create subcategories only when 3+ related items naturally group together
- Skip categories with no relevant information
- Each fact should be a single bullet point

Output valid JSON only:
{
  "personal_info": {"null": ["- The user lives in San Francisco"]},
  "work_life": {"Professional": ["- The user works as a software engineer"]},
  "preferences": {"null": ["- The user prefers Python over JavaScript"]}
}

Use "null" as the key for facts without a subcategory. Only include categories that have extracted facts.`

// Gemini is the Google Gemini-backed oracle.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini oracle. Model defaults to gemini-2.0-flash.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Extract runs the fact-extraction prompt over a formatted transcript.
func (g *Gemini) Extract(ctx context.Context, transcript string) (string, error) {
	prompt := extractionPrompt + "\n\n--- CONVERSATION ---\n" + transcript
	return g.Generate(ctx, prompt)
}

// Generate sends an arbitrary prompt and returns the raw response text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

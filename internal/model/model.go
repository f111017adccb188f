// Package model defines the core memory data types.
package model

import (
	"strings"
	"time"
)

// Category is one of the fixed topical buckets facts are filed under.
type Category string

const (
	PersonalInfo  Category = "personal_info"
	Preferences   Category = "preferences"
	Goals         Category = "goals"
	Activities    Category = "activities"
	Habits        Category = "habits"
	Experiences   Category = "experiences"
	Relationships Category = "relationships"
	WorkLife      Category = "work_life"
	Opinions      Category = "opinions"
	Knowledge     Category = "knowledge"
)

// Categories returns the closed category set in canonical order.
func Categories() []Category {
	return []Category{
		PersonalInfo, Preferences, Goals, Activities, Habits,
		Experiences, Relationships, WorkLife, Opinions, Knowledge,
	}
}

// ValidCategories is the category set as a membership map.
var ValidCategories = func() map[Category]bool {
	m := make(map[Category]bool, 10)
	for _, c := range Categories() {
		m[c] = true
	}
	return m
}()

// Title renders a category name for file headings, e.g. "work_life" -> "Work Life".
func (c Category) Title() string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn recorded in the ledger.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Processed bool      `json:"processed"`
}

// ReflectionRun records one completed consolidation run. Append-only.
type ReflectionRun struct {
	ID                string    `json:"id"`
	LastProcessedID   int64     `json:"last_processed_id"`
	MessagesProcessed int       `json:"messages_processed"`
	CategoriesUpdated []string  `json:"categories_updated,omitempty"`
	RanAt             time.Time `json:"ran_at"`
}

package reflection

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcliao/memoryd/internal/memory"
	"github.com/rcliao/memoryd/internal/model"
	"github.com/rcliao/memoryd/internal/oracle"
)

func newTestCoordinator(t *testing.T, orc oracle.Oracle) (*Coordinator, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore(t.TempDir())
	require.NoError(t, err)
	c := NewCoordinator(store, orc, 0, zap.NewNop())
	c.now = func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) }
	return c, store
}

func canned(resp string) oracle.Oracle {
	return oracle.Func(func(ctx context.Context, transcript string) (string, error) {
		return resp, nil
	})
}

func userMsg(id int64, content string) model.Message {
	return model.Message{ID: id, ThreadID: "t", Role: model.RoleUser, Content: content}
}

func TestProcessEmptyBatchSkipsOracle(t *testing.T) {
	called := false
	orc := oracle.Func(func(ctx context.Context, transcript string) (string, error) {
		called = true
		return "{}", nil
	})
	c, _ := newTestCoordinator(t, orc)

	results, err := c.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called, "oracle must not be called for an empty batch")
}

func TestProcessFencedBlockFallback(t *testing.T) {
	resp := "Sure! ```json\n{\"goals\": {\"null\": [\"- wants to learn Rust\"]}}\n```"
	c, store := newTestCoordinator(t, canned(resp))

	results, err := c.Process(context.Background(), []model.Message{userMsg(1, "I want to learn Rust")})
	require.NoError(t, err)
	assert.Equal(t, map[model.Category]int{model.Goals: 1}, results)

	cs, err := store.ReadCategory(model.Goals)
	require.NoError(t, err)
	facts := cs.Bucket(model.NoSubcategory)
	require.Len(t, facts, 1)
	assert.Equal(t, "- wants to learn Rust (2026-08-24)", facts[0])
}

func TestProcessIdempotent(t *testing.T) {
	resp := `{"habits": {"null": ["- The user runs every morning"]}, "work_life": {"Professional": ["- The user manages a small team"]}}`
	c, _ := newTestCoordinator(t, canned(resp))
	batch := []model.Message{userMsg(1, "I run every morning and manage a small team")}

	first, err := c.Process(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, first[model.Habits])
	assert.Equal(t, 1, first[model.WorkLife])

	second, err := c.Process(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, second, "re-processing the same batch must add nothing")
}

func TestProcessUnparseableResponse(t *testing.T) {
	c, store := newTestCoordinator(t, canned("I could not find any structured facts, sorry!"))

	results, err := c.Process(context.Background(), []model.Message{userMsg(1, "hello")})
	require.NoError(t, err, "parse failure is not an error")
	assert.Empty(t, results)

	for _, cat := range model.Categories() {
		cs, err := store.ReadCategory(cat)
		require.NoError(t, err)
		assert.Zero(t, cs.Len())
	}
}

func TestProcessOracleFailure(t *testing.T) {
	orc := oracle.Func(func(ctx context.Context, transcript string) (string, error) {
		return "", fmt.Errorf("deadline exceeded")
	})
	c, _ := newTestCoordinator(t, orc)

	_, err := c.Process(context.Background(), []model.Message{userMsg(1, "hello")})
	assert.Error(t, err, "transport failure must abort the run")
}

func TestDuplicateCheckedAcrossWholeCategory(t *testing.T) {
	resp := `{"personal_info": {"Location": ["- The user lives in Boston"]}}`
	c, store := newTestCoordinator(t, canned(resp))

	seed := model.NewCategoryStore()
	seed.Append(model.NoSubcategory, "- The user lives in Boston (2026-01-01)")
	require.NoError(t, store.WriteCategory(model.PersonalInfo, seed))

	results, err := c.Process(context.Background(), []model.Message{userMsg(1, "I live in Boston")})
	require.NoError(t, err)
	assert.Empty(t, results, "duplicate in another bucket must still be rejected")
}

func TestExistingParentheticalPreserved(t *testing.T) {
	resp := `{"experiences": {"null": ["- The user visited Japan (spring 2024)"]}}`
	c, store := newTestCoordinator(t, canned(resp))

	_, err := c.Process(context.Background(), []model.Message{userMsg(1, "I visited Japan in spring 2024")})
	require.NoError(t, err)

	cs, _ := store.ReadCategory(model.Experiences)
	facts := cs.Bucket(model.NoSubcategory)
	require.Len(t, facts, 1)
	assert.Equal(t, "- The user visited Japan (spring 2024)", facts[0],
		"a fact that already carries a parenthetical is not re-dated")
}

func TestProcessStorageFailure(t *testing.T) {
	resp := `{"goals": {"null": ["- wants to learn Rust"]}}`
	store, err := memory.NewStore(t.TempDir())
	require.NoError(t, err)
	c := NewCoordinator(store, canned(resp), 0, zap.NewNop())

	// Make the goals file unwritable by replacing it with a directory.
	require.NoError(t, os.Mkdir(store.Path(model.Goals), 0o755))

	_, err = c.Process(context.Background(), []model.Message{userMsg(1, "hello")})
	assert.Error(t, err, "store I/O failure is fatal to the run")
}

func TestTranscript(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "Hi, I'm Raj"},
		{Role: model.RoleAssistant, Content: "Nice to meet you!"},
	}
	assert.Equal(t, "USER: Hi, I'm Raj\nASSISTANT: Nice to meet you!", Transcript(msgs))
}

func TestParseResponseTiers(t *testing.T) {
	direct := `{"a": 1}`
	fenced := "noise\n```json\n{\"a\": 1}\n```\ntrailer"
	fencedBare := "```\n{\"a\": 1}\n```"
	braces := "The result is {\"a\": 1} as requested."

	for name, text := range map[string]string{
		"direct": direct, "fenced": fenced, "fenced_bare": fencedBare, "braces": braces,
	} {
		raw := parseResponse(text)
		require.NotNil(t, raw, "tier %s", name)
		assert.Equal(t, float64(1), raw["a"], "tier %s", name)
	}

	assert.Nil(t, parseResponse("no json here"))
	assert.Nil(t, parseResponse("broken {json"))
	assert.Nil(t, parseResponse(strings.Repeat("x", 10)))
}

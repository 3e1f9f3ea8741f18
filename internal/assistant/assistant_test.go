package assistant

import (
	"context"
	"errors"
	"testing"

	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/types"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIndex struct {
	docs  []types.IndexedDocument
	err   error
	k     int
	owner string
}

func (s *staticIndex) Search(_ context.Context, ownerID, _ string, k int) ([]types.IndexedDocument, error) {
	s.k = k
	s.owner = ownerID
	if s.err != nil {
		return nil, s.err
	}
	if len(s.docs) > k {
		return s.docs[:k], nil
	}
	return s.docs, nil
}

func newAdapter(m *enrichment.MockChatModel) *enrichment.Adapter {
	return enrichment.NewAdapter(m, enrichment.WithLogger(zerolog.Nop()), enrichment.WithRetryPolicy(0, 0))
}

func TestAskWithoutDocuments(t *testing.T) {
	model := enrichment.NewMockChatModel("unused")
	a, err := New(&staticIndex{}, newAdapter(model), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	ans, err := a.Ask(context.Background(), "u1", "", "Who knows Go?")
	require.NoError(t, err)
	assert.Equal(t, NoInformationAnswer, ans.Answer)
	assert.NotEmpty(t, ans.SessionID, "a session id is generated")
	assert.Zero(t, model.Calls())
}

func TestAskUsesContextAndHistory(t *testing.T) {
	idx := &staticIndex{docs: []types.IndexedDocument{
		{ID: "1", Text: "Jane knows Go"},
		{ID: "2", Text: "John knows Rust"},
		{ID: "3", Text: "Ann knows SQL"},
		{ID: "4", Text: "Bob knows Java"},
	}}
	model := enrichment.NewMockChatModel("Jane.", "Rust.")
	a, err := New(idx, newAdapter(model), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := a.Ask(ctx, "u1", "s1", "Who knows Go?")
	require.NoError(t, err)
	assert.Equal(t, "Jane.", first.Answer)
	assert.Equal(t, 3, idx.k, "top 3 documents are retrieved")
	assert.Equal(t, "u1", idx.owner, "retrieval is scoped to the asking owner")
	assert.Len(t, first.Sources, 3)

	prompt := model.Received()[0][1].Content
	assert.Contains(t, prompt, "Context:\nJane knows Go\n\nJohn knows Rust\n\nAnn knows SQL")
	assert.Contains(t, prompt, "Question: Who knows Go?")
	assert.NotContains(t, prompt, "Conversation so far")

	_, err = a.Ask(ctx, "u1", "s1", "And John?")
	require.NoError(t, err)
	prompt = model.Received()[1][1].Content
	assert.Contains(t, prompt, "Conversation so far:\nuser: Who knows Go?\nassistant: Jane.")

	history, err := a.History(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, history, 4)

	other, err := a.History(ctx, "u2", "s1")
	require.NoError(t, err)
	assert.Empty(t, other, "sessions are scoped per owner")
}

func TestAskErrors(t *testing.T) {
	a, err := New(&staticIndex{err: errors.New("index down")}, newAdapter(enrichment.NewMockChatModel("x")))
	require.NoError(t, err)
	_, err = a.Ask(context.Background(), "u1", "", "q")
	assert.Error(t, err)

	_, err = a.Ask(context.Background(), "u1", "", "   ")
	assert.Error(t, err)

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestSimilarCVs(t *testing.T) {
	idx := &staticIndex{docs: []types.IndexedDocument{{ID: "1"}, {ID: "2"}}}
	a, err := New(idx, newAdapter(enrichment.NewMockChatModel("x")), WithTopK(5))
	require.NoError(t, err)

	docs, err := a.SimilarCVs(context.Background(), "u7", "cv text", 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, 5, idx.k)
	assert.Equal(t, "u7", idx.owner)

	_, err = a.SimilarCVs(context.Background(), "u7", "", 1)
	assert.Error(t, err)
}

func TestInMemoryChatMemoryTrims(t *testing.T) {
	m := NewInMemoryChatMemory(3)
	ctx := context.Background()
	for _, c := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.AddMessages(ctx, "u1", "s", schema.UserMessage(c)))
	}
	h, err := m.GetHistory(ctx, "u1", "s")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, "b", h[0].Content)

	assert.Error(t, m.AddMessages(ctx, "u1", "s", nil))

	require.NoError(t, m.ClearHistory(ctx, "u1", "s"))
	h, _ = m.GetHistory(ctx, "u1", "s")
	assert.Empty(t, h)
}

func TestNewRedisChatMemoryRequiresClient(t *testing.T) {
	_, err := NewRedisChatMemory(nil, 0, 0)
	assert.Error(t, err)
}

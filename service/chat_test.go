package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractscan/logic/chat/chattest"
	"contractscan/logic/currency"
	"contractscan/types"
)

type stubRetriever struct {
	docs   []*schema.Document
	gotIDs []string
}

func (r *stubRetriever) Enabled() bool { return true }

func (r *stubRetriever) Retrieve(ctx context.Context, q string, ids []string) ([]*schema.Document, error) {
	r.gotIDs = ids
	return r.docs, nil
}

func TestChatRequiresModel(t *testing.T) {
	svc := NewChatService(nil, nil, nil, currency.Converter{}, 0)
	_, err := svc.Chat(context.Background(), types.ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrLLMUnavailable)

	_, err = svc.Chat(context.Background(), types.ChatRequest{Message: "  "})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestChatGeneralQuestion(t *testing.T) {
	fake := &chattest.Fake{Replies: []string{"Ask about the deposit."}}
	svc := NewChatService(nil, fake.Model(), nil, currency.NewConverter(90), 0)

	res, err := svc.Chat(context.Background(), types.ChatRequest{Message: "What should I check?"})
	require.NoError(t, err)
	assert.Equal(t, "Ask about the deposit.", res.Response)

	msgs := fake.Calls()[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "$1 = ₹90")
	assert.Contains(t, msgs[0].Content, "No specific contract loaded")
	assert.Equal(t, "What should I check?", msgs[1].Content)
}

func TestChatWithContractContext(t *testing.T) {
	store := seedThree(t)
	ret := &stubRetriever{docs: []*schema.Document{{Content: "Penalties apply for late checkout."}}}
	fake := &chattest.Fake{Replies: []string{"₹6,50,000"}}
	svc := NewChatService(store, fake.Model(), ret, currency.Converter{}, 0)

	_, err := svc.Chat(context.Background(), types.ChatRequest{Message: "Total cost?", ContractID: idB})
	require.NoError(t, err)
	assert.Equal(t, []string{idB}, ret.gotIDs)

	system := fake.Calls()[0][0].Content
	assert.Contains(t, system, "CURRENT CONTRACT DATA")
	assert.Contains(t, system, "Contract: Lake Resort")
	assert.Contains(t, system, "Total Value: ₹6,50,000")
	assert.Contains(t, system, "- Penalty Clauses (high): Penalties apply.")
	assert.Contains(t, system, "RELEVANT CONTRACT CLAUSES:\n- Penalties apply for late checkout.")

	_, err = svc.Chat(context.Background(), types.ChatRequest{Message: "x", ContractID: idMissing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatExcerptWithoutRetriever(t *testing.T) {
	fake := &chattest.Fake{Replies: []string{"ok"}}
	svc := NewChatService(seedThree(t), fake.Model(), nil, currency.Converter{}, 0)

	_, err := svc.Chat(context.Background(), types.ChatRequest{Message: "x", ContractID: idA})
	require.NoError(t, err)
	assert.Contains(t, fake.Calls()[0][0].Content, "CONTRACT TEXT EXCERPT:")
}

func TestChatModelError(t *testing.T) {
	fake := &chattest.Fake{Err: errors.New("timeout")}
	svc := NewChatService(nil, fake.Model(), nil, currency.Converter{}, 0)
	_, err := svc.Chat(context.Background(), types.ChatRequest{Message: "x"})
	assert.ErrorIs(t, err, ErrLLMUnavailable)
}

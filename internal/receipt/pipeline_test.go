package receipt

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/ai"
)

// scriptedGateway replays canned completions in order and records the
// requests it saw.
type scriptedGateway struct {
	completions []ai.Result
	visions     []ai.Result
	err         error

	completeCalls []ai.Request
	visionCalls   []ai.Request
}

func (g *scriptedGateway) Complete(_ context.Context, req ai.Request) (ai.Result, error) {
	g.completeCalls = append(g.completeCalls, req)
	if g.err != nil {
		return ai.Result{}, g.err
	}
	result := g.completions[0]
	g.completions = g.completions[1:]
	return result, nil
}

func (g *scriptedGateway) CompleteVision(_ context.Context, req ai.Request, _ []byte) (ai.Result, error) {
	g.visionCalls = append(g.visionCalls, req)
	if g.err != nil {
		return ai.Result{}, g.err
	}
	result := g.visions[0]
	g.visions = g.visions[1:]
	return result, nil
}

func (g *scriptedGateway) Moderate(context.Context, string, []byte) (ai.Moderation, error) {
	return ai.Moderation{}, nil
}

func (g *scriptedGateway) GenerateImage(context.Context, ai.ImageRequest) (string, error) {
	return "", nil
}

func (g *scriptedGateway) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", nil
}

func newTestPipeline(g ai.Gateway) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(g, "gpt-4o", "gpt-4o-mini", logger)
}

func TestFromOCRText(t *testing.T) {
	gateway := &scriptedGateway{
		completions: []ai.Result{
			{Text: normalizedReceipt, Tokens: 120},
			{Text: "Dairy:\nMilk x 2 - 3.00 - 6.00\nBakery:\nBread - 2.50 - 2.50", Tokens: 40},
		},
	}

	draft, tokens, err := newTestPipeline(gateway).FromOCRText(context.Background(), "raw ocr text")
	require.NoError(t, err)

	assert.Equal(t, int64(160), tokens)
	assert.Equal(t, "Corner Shop", draft.Header.Store)
	assert.Equal(t, 18.5, draft.Header.Total)
	require.Len(t, draft.Categories, 2)
	assert.Equal(t, "Dairy", draft.Categories[0].Name)
	assert.Equal(t, "Bakery", draft.Categories[1].Name)

	require.Len(t, gateway.completeCalls, 2)
	assert.Equal(t, NormalizePrompt, gateway.completeCalls[0].Messages[0].Content)
	assert.Equal(t, CategorizePrompt, gateway.completeCalls[1].Messages[0].Content)

	records := draft.Records(42)
	require.Len(t, records, 2)
	assert.Equal(t, records[0].CheckID, records[1].CheckID)
	assert.Equal(t, records[0].Total, records[1].Total)
}

func TestFromOCRTextEmptyAnswer(t *testing.T) {
	gateway := &scriptedGateway{completions: []ai.Result{{Text: "  ", Tokens: 5}}}

	_, tokens, err := newTestPipeline(gateway).FromOCRText(context.Background(), "raw")
	assert.ErrorIs(t, err, ErrNoAnswer)
	assert.Equal(t, int64(5), tokens)
}

func TestFromOCRTextPassesBackendErrorThrough(t *testing.T) {
	backendErr := &ai.Error{Status: 429, Message: "slow down"}
	gateway := &scriptedGateway{err: backendErr}

	_, _, err := newTestPipeline(gateway).FromOCRText(context.Background(), "raw")
	require.Error(t, err)
	assert.True(t, ai.IsRateLimited(err))
}

func TestFromManualEntrySkipsNormalize(t *testing.T) {
	gateway := &scriptedGateway{
		completions: []ai.Result{
			{Text: "Dairy:\nMilk x 2 - 3.00 - 6.00", Tokens: 30},
		},
	}

	draft, tokens, err := newTestPipeline(gateway).FromManualEntry(context.Background(), normalizedReceipt)
	require.NoError(t, err)

	assert.Equal(t, int64(30), tokens)
	require.Len(t, gateway.completeCalls, 1)
	assert.Equal(t, CategorizePrompt, gateway.completeCalls[0].Messages[0].Content)
	assert.Equal(t, "Corner Shop", draft.Header.Store)
	require.Len(t, draft.Categories, 1)
}

func TestFromManualEntryHeaderOnly(t *testing.T) {
	gateway := &scriptedGateway{}

	draft, tokens, err := newTestPipeline(gateway).FromManualEntry(context.Background(), "Store: Kiosk\nTotal: 4.00")
	require.NoError(t, err)

	assert.Zero(t, tokens)
	assert.Empty(t, gateway.completeCalls)
	assert.Empty(t, draft.Categories)

	records := draft.Records(7)
	require.Len(t, records, 1)
	assert.Equal(t, "Kiosk", records[0].Store)
}

func TestFromManualEntryKeepsItemsOnSilentCategorizer(t *testing.T) {
	gateway := &scriptedGateway{completions: []ai.Result{{Text: "", Tokens: 3}}}

	draft, _, err := newTestPipeline(gateway).FromManualEntry(context.Background(), normalizedReceipt)
	require.NoError(t, err)
	assert.Equal(t, 3, draft.ItemCount())
}

func TestFromImage(t *testing.T) {
	gateway := &scriptedGateway{
		visions: []ai.Result{{
			Text: "Sure, here it is:\n```json\n" +
				`{"date":"2026-08-30","time":"12:45","store":"Corner Shop","check_id":"FD-8841","currency":"EUR","total":8.5,` +
				`"categories":[{"name":"Dairy","items":[{"product":"Milk","quantity":2,"price":3.0}]},` +
				`{"name":"Bakery","items":[{"product":"Bread","quantity":0,"price":2.5}]}]}` +
				"\n```",
			Tokens: 200,
		}},
	}

	draft, tokens, err := newTestPipeline(gateway).FromImage(context.Background(), []byte{0xff, 0xd8})
	require.NoError(t, err)

	assert.Equal(t, int64(200), tokens)
	assert.Equal(t, "FD-8841", draft.Header.CheckID)
	assert.Equal(t, 8.5, draft.Header.Total)
	require.Len(t, draft.Categories, 2)

	// A zero quantity from the model is normalized to one.
	assert.Equal(t, int64(1), draft.Categories[1].Items[0].Quantity)

	require.Len(t, gateway.visionCalls, 1)
	assert.Equal(t, VisionPrompt, gateway.visionCalls[0].Messages[0].Content)
}

func TestFromImageUnusableReply(t *testing.T) {
	gateway := &scriptedGateway{visions: []ai.Result{{Text: "I cannot read this image.", Tokens: 12}}}

	_, tokens, err := newTestPipeline(gateway).FromImage(context.Background(), []byte{0xff})
	assert.ErrorIs(t, err, ErrNoAnswer)
	assert.Equal(t, int64(12), tokens)
}

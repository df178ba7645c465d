package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/spendlens/spendlens/internal/ai"
)

// ErrNoAnswer is returned when a model reply carries nothing the
// parsers can work with.
var ErrNoAnswer = errors.New("receipt: model returned no usable answer")

// Pipeline turns receipt images and raw receipt text into drafts.
type Pipeline struct {
	gateway         ai.Gateway
	visionModel     string
	categorizeModel string
	logger          *slog.Logger
}

func NewPipeline(gateway ai.Gateway, visionModel, categorizeModel string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		gateway:         gateway,
		visionModel:     visionModel,
		categorizeModel: categorizeModel,
		logger:          logger.With(slog.String("service", "receipt")),
	}
}

type visionItem struct {
	Product  string  `json:"product"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

type visionCategory struct {
	Name  string       `json:"name"`
	Items []visionItem `json:"items"`
}

type visionPayload struct {
	Date       string           `json:"date"`
	Time       string           `json:"time"`
	Store      string           `json:"store"`
	CheckID    string           `json:"check_id"`
	Currency   string           `json:"currency"`
	Total      float64          `json:"total"`
	Categories []visionCategory `json:"categories"`
}

// FromImage reads a photographed receipt with the vision model. The
// reply is expected to carry one JSON object; anything around it is
// discarded by the brace scanner.
func (p *Pipeline) FromImage(ctx context.Context, image []byte) (Draft, int64, error) {
	req := ai.Request{
		Model: p.visionModel,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: VisionPrompt},
			{Role: ai.RoleUser, Content: "Read this receipt."},
		},
	}

	result, err := p.gateway.CompleteVision(ctx, req, image)
	if err != nil {
		return Draft{}, 0, err
	}

	object, err := ExtractObject(result.Text)
	if err != nil {
		p.logger.Warn("vision reply carried no JSON object",
			slog.String("reply", truncate(result.Text, 200)))
		return Draft{}, int64(result.Tokens), ErrNoAnswer
	}

	var payload visionPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		p.logger.Warn("vision reply JSON did not decode", slog.Any("error", err))
		return Draft{}, int64(result.Tokens), ErrNoAnswer
	}

	draft := Draft{
		Header: Header{
			Date:     payload.Date,
			Time:     payload.Time,
			Store:    payload.Store,
			CheckID:  payload.CheckID,
			Currency: payload.Currency,
			Total:    payload.Total,
		},
	}
	for _, category := range payload.Categories {
		group := CategoryGroup{Name: category.Name}
		for _, item := range category.Items {
			quantity := item.Quantity
			if quantity < 1 {
				quantity = 1
			}
			group.Items = append(group.Items, Line{
				Product:  item.Product,
				Quantity: quantity,
				Price:    item.Price,
			})
		}
		if len(group.Items) > 0 {
			draft.Categories = append(draft.Categories, group)
		}
	}
	return draft, int64(result.Tokens), nil
}

// FromOCRText runs the full text pipeline: normalize the raw OCR text
// into the canonical key layout, split it into header fields and the
// product block, categorize the block, then parse item lines.
func (p *Pipeline) FromOCRText(ctx context.Context, raw string) (Draft, int64, error) {
	result, err := p.gateway.Complete(ctx, ai.Request{
		Model: p.categorizeModel,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: NormalizePrompt},
			{Role: ai.RoleUser, Content: raw},
		},
	})
	if err != nil {
		return Draft{}, 0, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return Draft{}, int64(result.Tokens), ErrNoAnswer
	}

	draft, tokens, err := p.fromNormalized(ctx, result.Text)
	return draft, int64(result.Tokens) + tokens, err
}

// FromManualEntry accepts receipt text the user already laid out in
// the canonical key format, so the normalize stage is skipped.
func (p *Pipeline) FromManualEntry(ctx context.Context, text string) (Draft, int64, error) {
	return p.fromNormalized(ctx, text)
}

func (p *Pipeline) fromNormalized(ctx context.Context, text string) (Draft, int64, error) {
	sections := SplitSections(text)
	draft := Draft{Header: HeaderFrom(sections.Fields)}

	if sections.Products == "" {
		return draft, 0, nil
	}

	result, err := p.gateway.Complete(ctx, ai.Request{
		Model: p.categorizeModel,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: CategorizePrompt},
			{Role: ai.RoleUser, Content: sections.Products},
		},
	})
	if err != nil {
		return Draft{}, 0, err
	}

	categorized := result.Text
	if strings.TrimSpace(categorized) == "" {
		// A silent categorizer should not lose the items.
		categorized = sections.Products
	}

	draft.Categories = ParseCategorized(categorized)
	return draft, int64(result.Tokens), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

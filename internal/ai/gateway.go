package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spendlens/spendlens/internal/config"
)

const deepseekDefaultBaseURL = "https://api.deepseek.com"

// Client routes calls to one of two backend families (OpenAI and
// DeepSeek) behind the Gateway interface, selected by model name.
type Client struct {
	openai        *openai.Client
	deepseek      *openai.Client
	openaiKey     string
	moderationURL string
	httpClient    *http.Client
	logger        *slog.Logger
}

var _ Gateway = (*Client)(nil)

func NewClient(log *slog.Logger, cfg config.ProvidersConfig) *Client {
	if log == nil {
		log = slog.Default()
	}

	oaBase := "https://api.openai.com/v1"
	if cfg.OpenAI.BaseURL != "" {
		oaBase = strings.TrimRight(cfg.OpenAI.BaseURL, "/")
	}
	oaCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	oaCfg.BaseURL = oaBase

	dsBase := cfg.DeepSeek.BaseURL
	if dsBase == "" {
		dsBase = deepseekDefaultBaseURL
	}
	dsCfg := openai.DefaultConfig(cfg.DeepSeek.APIKey)
	dsCfg.BaseURL = strings.TrimRight(dsBase, "/")

	return &Client{
		openai:        openai.NewClientWithConfig(oaCfg),
		deepseek:      openai.NewClientWithConfig(dsCfg),
		openaiKey:     cfg.OpenAI.APIKey,
		moderationURL: oaBase + "/moderations",
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		logger:        log.With(slog.String("service", "ai")),
	}
}

func (c *Client) backendFor(model string) *openai.Client {
	if strings.HasPrefix(model, "deepseek") {
		return c.deepseek
	}
	return c.openai
}

// Complete runs a chat completion against the backend family owning
// the model.
func (c *Client) Complete(ctx context.Context, req Request) (Result, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	c.logger.Debug("chat completion", slog.String("model", req.Model))
	resp, err := c.backendFor(req.Model).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Result{}, wrapProviderError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, &Error{Status: 0, Message: "empty completion response"}
	}
	return Result{
		Text:   resp.Choices[0].Message.Content,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

// CompleteVision attaches the image as an inline data URL. Vision
// models live in the OpenAI family only.
func (c *Client) CompleteVision(ctx context.Context, req Request, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, &Error{Status: 400, Message: "vision call without image"}
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	var text strings.Builder
	for _, m := range req.Messages {
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(m.Content)
	}

	resp, err := c.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: text.String()},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return Result{}, wrapProviderError("vision completion", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, &Error{Status: 0, Message: "empty vision response"}
	}
	return Result{
		Text:   resp.Choices[0].Message.Content,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

// moderationLabels maps the result struct onto label strings surfaced
// to users in refusal messages.
func moderationLabels(c openai.ResultCategories) []string {
	var labels []string
	add := func(flagged bool, label string) {
		if flagged {
			labels = append(labels, label)
		}
	}
	add(c.Hate, "hate")
	add(c.HateThreatening, "hate/threatening")
	add(c.Harassment, "harassment")
	add(c.HarassmentThreatening, "harassment/threatening")
	add(c.SelfHarm, "self-harm")
	add(c.SelfHarmIntent, "self-harm/intent")
	add(c.SelfHarmInstructions, "self-harm/instructions")
	add(c.Sexual, "sexual")
	add(c.SexualMinors, "sexual/minors")
	add(c.Violence, "violence")
	add(c.ViolenceGraphic, "violence/graphic")
	return labels
}

// Moderate runs the omni moderation model over text and, when present,
// an inline image. The SDK only models string input, so the image
// variant posts the multimodal payload directly.
func (c *Client) Moderate(ctx context.Context, text string, image []byte) (Moderation, error) {
	if len(image) > 0 {
		return c.moderateWithImage(ctx, text, image)
	}
	resp, err := c.openai.Moderations(ctx, openai.ModerationRequest{
		Model: "omni-moderation-latest",
		Input: text,
	})
	if err != nil {
		return Moderation{}, wrapProviderError("moderation", err)
	}
	if len(resp.Results) == 0 {
		return Moderation{}, &Error{Status: 0, Message: "empty moderation response"}
	}
	result := resp.Results[0]
	return Moderation{
		Flagged:    result.Flagged,
		Categories: moderationLabels(result.Categories),
	}, nil
}

func (c *Client) moderateWithImage(ctx context.Context, text string, image []byte) (Moderation, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	payload := map[string]any{
		"model": "omni-moderation-latest",
		"input": []map[string]any{
			{"type": "text", "text": text},
			{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Moderation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.moderationURL, bytes.NewReader(body))
	if err != nil {
		return Moderation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.openaiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Moderation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Moderation{}, &Error{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(data)),
		}
	}

	var decoded struct {
		Results []struct {
			Flagged    bool            `json:"flagged"`
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Moderation{}, err
	}
	if len(decoded.Results) == 0 {
		return Moderation{}, &Error{Status: 0, Message: "empty moderation response"}
	}

	result := decoded.Results[0]
	var labels []string
	for label, flagged := range result.Categories {
		if flagged {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return Moderation{Flagged: result.Flagged, Categories: labels}, nil
}

// GenerateImage returns the URL of one generated image.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = config.DefaultImageModel
	}
	resp, err := c.openai.CreateImage(ctx, openai.ImageRequest{
		Model:   model,
		Prompt:  req.Prompt,
		N:       1,
		Size:    req.Size,
		Quality: req.Quality,
	})
	if err != nil {
		return "", wrapProviderError("image generation", err)
	}
	if len(resp.Data) == 0 {
		return "", &Error{Status: 0, Message: "empty image response"}
	}
	return resp.Data[0].URL, nil
}

// Transcribe converts speech to text via the speech model.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := c.openai.CreateTranscription(ctx, openai.AudioRequest{
		Model:    config.DefaultSpeechModel,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", wrapProviderError("transcription", err)
	}
	return resp.Text, nil
}

// TokensFor is a coarse token estimate used when a backend does not
// report usage: one token per four characters, minimum one.
func TokensFor(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

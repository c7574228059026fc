package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// TextGenerator turns a prompt into free text. The insight features treat
// its output as opaque.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewTextGenerator picks the provider named in cfg. Providers other than
// ollama need an API key; without one ErrInsightsUnavailable is returned.
// Every generator returned here also implements ChatStreamer.
func NewTextGenerator(cfg config.AIConfig) (TextGenerator, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider != "ollama" && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s api key missing", ErrInsightsUnavailable, cfg.Provider)
	}

	switch provider {
	case "anthropic":
		return &anthropicGenerator{cfg: cfg}, nil
	case "ollama":
		return &ollamaGenerator{cfg: cfg}, nil
	case "gemini":
		return &geminiGenerator{cfg: cfg}, nil
	case "azure":
		return &openAIGenerator{cfg: cfg, azure: true}, nil
	default:
		// openai and other OpenAI-compatible services
		return &openAIGenerator{cfg: cfg}, nil
	}
}

// providerModel falls back to def when the configured model is unset or
// names an OpenAI model, which is the config default.
func providerModel(model, def string) string {
	if model == "" || strings.HasPrefix(model, "gpt") {
		return def
	}
	return model
}

type openAIGenerator struct {
	cfg   config.AIConfig
	azure bool
}

func (g *openAIGenerator) client() *openai.Client {
	var clientConfig openai.ClientConfig
	if g.azure {
		// Model is the Azure deployment name
		clientConfig = openai.DefaultAzureConfig(g.cfg.APIKey, g.cfg.BaseURL)
	} else {
		clientConfig = openai.DefaultConfig(g.cfg.APIKey)
		if g.cfg.BaseURL != "" {
			clientConfig.BaseURL = g.cfg.BaseURL
		}
	}
	return openai.NewClientWithConfig(clientConfig)
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(g.cfg.Temperature),
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	content := resp.Choices[0].Message.Content
	logger.Debug().Int("chars", len(content)).Bool("azure", g.azure).Msg("openai insights generated")
	return content, nil
}

func (g *openAIGenerator) StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) error {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := g.client().CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("openai stream recv: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onChunk(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

type anthropicGenerator struct {
	cfg config.AIConfig
}

func (g *anthropicGenerator) client() anthropic.Client {
	opts := []option.RequestOption{option.WithAPIKey(g.cfg.APIKey)}
	if g.cfg.BaseURL != "" && !strings.Contains(g.cfg.BaseURL, "openai.com") {
		opts = append(opts, option.WithBaseURL(g.cfg.BaseURL))
	}
	return anthropic.NewClient(opts...)
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := int64(g.cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 500
	}

	client := g.client()
	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(providerModel(g.cfg.Model, "claude-sonnet-4-20250514")),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

func (g *anthropicGenerator) StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) error {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	client := g.client()
	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(providerModel(g.cfg.Model, "claude-sonnet-4-20250514")),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages:    messages,
	})
	defer stream.Close()

	for stream.Next() {
		event, ok := stream.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := event.Delta.AsAny().(anthropic.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		if err := onChunk(delta.Text); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}

type ollamaGenerator struct {
	cfg config.AIConfig
}

func (g *ollamaGenerator) client() (*api.Client, error) {
	baseURL := g.cfg.BaseURL
	if baseURL == "" || strings.Contains(baseURL, "openai.com") {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url: %w", err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

func (g *ollamaGenerator) chat(ctx context.Context, messages []api.Message, temperature float64, maxTokens int, fn api.ChatResponseFunc) error {
	client, err := g.client()
	if err != nil {
		return err
	}
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    providerModel(g.cfg.Model, "llama3"),
		Messages: messages,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}, fn)
	if err != nil {
		return fmt.Errorf("ollama chat: %w", err)
	}
	return nil
}

func (g *ollamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var content strings.Builder
	err := g.chat(ctx, []api.Message{{Role: "user", Content: prompt}}, g.cfg.Temperature, g.cfg.MaxTokens,
		func(resp api.ChatResponse) error {
			content.WriteString(resp.Message.Content)
			return nil
		})
	if err != nil {
		return "", err
	}
	return content.String(), nil
}

func (g *ollamaGenerator) StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) error {
	messages := []api.Message{{Role: "system", Content: req.System}}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}
	return g.chat(ctx, messages, req.Temperature, req.MaxTokens, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return onChunk(resp.Message.Content)
	})
}

type geminiGenerator struct {
	cfg config.AIConfig
}

func (g *geminiGenerator) client(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return client, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	temperature := float32(g.cfg.Temperature)
	resp, err := client.Models.GenerateContent(ctx, providerModel(g.cfg.Model, "gemini-2.5-flash"), genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(g.cfg.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func (g *geminiGenerator) StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) error {
	client, err := g.client(ctx)
	if err != nil {
		return err
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temperature := float32(req.Temperature)
	stream := client.Models.GenerateContentStream(ctx, providerModel(g.cfg.Model, "gemini-2.5-flash"), contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temperature,
		MaxOutputTokens:   int32(req.MaxTokens),
	})
	for resp, err := range stream {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		if text := resp.Text(); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
	return nil
}

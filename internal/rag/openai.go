package rag

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Embedder and Answerer against the OpenAI API
// (or any compatible endpoint via baseURL — ollama, vllm, a proxy).
type OpenAIClient struct {
	client     *openai.Client
	embedModel string
	chatModel  string
}

func NewOpenAIClient(apiKey, baseURL, embedModel, chatModel string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:     openai.NewClientWithConfig(cfg),
		embedModel: embedModel,
		chatModel:  chatModel,
	}
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return resp.Data[0].Embedding, nil
}

// Answer asks the chat model to answer from the provided context only.
// The system prompt pins the model to the retrieved text — the retrieval
// layer already decided what this user may read, and the model must not
// widen that with whatever it memorized in training.
func (c *OpenAIClient) Answer(ctx context.Context, question string, blocks []ContextBlock) (string, error) {
	var b strings.Builder
	for i, blk := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[source=%s]\n%s", blk.SourceKey, blk.Text)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Answer using ONLY the provided context. If the context is missing the answer, say you don't know.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", b.String(), question),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiDescriber 使用 Gemini 视觉模型生成描述，客户端在启动时创建一次
type GeminiDescriber struct {
	client *genai.Client
	model  string
}

// NewGeminiDescriber apiKey 为空时返回的实例每次调用都返回 ErrMissingCredential
func NewGeminiDescriber(ctx context.Context, apiKey, model string) (*GeminiDescriber, error) {
	if apiKey == "" {
		return &GeminiDescriber{model: model}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return &GeminiDescriber{client: client, model: model}, nil
}

func (g *GeminiDescriber) Describe(ctx context.Context, data []byte) (string, error) {
	if g.client == nil {
		return "", ErrMissingCredential
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx, genai.ImageData(imageFormat(data), data), genai.Text(describePrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}

func (g *GeminiDescriber) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// imageFormat 返回 genai.ImageData 需要的格式名，如 png、jpeg
func imageFormat(data []byte) string {
	mime := http.DetectContentType(data)
	if format, ok := strings.CutPrefix(mime, "image/"); ok {
		return format
	}
	return "png"
}

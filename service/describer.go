package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/TIANLI0/CutoutKit/config"
	nhttp "github.com/TIANLI0/CutoutKit/utils/http"
)

// describePrompt 让视觉模型给出一句话描述，分类只做子串匹配
const describePrompt = "Describe this image in one short sentence. Mention whether it shows a person or face, or is a map, icon or cartoon."

// Describer 图片描述能力：输入原始字节，返回自由文本
type Describer interface {
	Describe(ctx context.Context, data []byte) (string, error)
}

// NewDescriber 按 provider 创建描述服务
func NewDescriber(ctx context.Context, cfg *config.ClassifierConfig) (Describer, error) {
	cli := nhttp.NewHTTPClientWithTimeout(cfg.Timeout)
	switch cfg.Provider {
	case "", "cloudmersive":
		return NewCloudmersiveDescriber(cfg.Endpoint, cfg.APIKey, cli), nil
	case "gemini":
		return NewGeminiDescriber(ctx, cfg.APIKey, cfg.Model)
	case "ollama":
		return NewOllamaDescriber(cfg.Endpoint, cfg.Model, cli), nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", cfg.Provider)
	}
}

// CloudmersiveDescriber 调用 Cloudmersive 图像描述接口
type CloudmersiveDescriber struct {
	endpoint string
	apiKey   string
	cli      nhttp.IClient
}

func NewCloudmersiveDescriber(endpoint, apiKey string, cli nhttp.IClient) *CloudmersiveDescriber {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &CloudmersiveDescriber{endpoint: endpoint, apiKey: apiKey, cli: cli}
}

type cloudmersiveOutcome struct {
	ConfidenceScore float64 `json:"ConfidenceScore"`
	Description     string  `json:"Description"`
}

type cloudmersiveResp struct {
	Successful      bool                `json:"Successful"`
	BestOutcome     cloudmersiveOutcome `json:"BestOutcome"`
	RunnerUpOutcome cloudmersiveOutcome `json:"RunnerUpOutcome"`
}

func (d *CloudmersiveDescriber) Describe(ctx context.Context, data []byte) (string, error) {
	if d.apiKey == "" {
		return "", ErrMissingCredential
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("imageFile", "image.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var resp cloudmersiveResp
	reqParam := &nhttp.RequestParam{
		RequestURI: d.endpoint,
		Method:     http.MethodPost,
		Header: map[string]string{
			"Content-Type": writer.FormDataContentType(),
			"Apikey":       d.apiKey,
		},
		Body:     body,
		Response: &resp,
	}
	if err := d.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return "", fmt.Errorf("cloudmersive describe: %w", err)
	}
	return resp.BestOutcome.Description, nil
}

// OllamaDescriber 调用本地 Ollama 视觉模型
type OllamaDescriber struct {
	endpoint string
	model    string
	cli      nhttp.IClient
}

func NewOllamaDescriber(endpoint, model string, cli nhttp.IClient) *OllamaDescriber {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &OllamaDescriber{endpoint: strings.TrimRight(endpoint, "/"), model: model, cli: cli}
}

func (d *OllamaDescriber) Describe(ctx context.Context, data []byte) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	reqParam := &nhttp.RequestParam{
		RequestURI: d.endpoint + "/api/generate",
		Method:     http.MethodPost,
		Body: map[string]interface{}{
			"model":  d.model,
			"prompt": describePrompt,
			"images": []string{base64.StdEncoding.EncodeToString(data)},
			"stream": false,
			"options": map[string]interface{}{
				"temperature": 0.1,
			},
		},
		Response: &resp,
	}
	if err := d.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return "", fmt.Errorf("ollama describe: %w", err)
	}
	return resp.Response, nil
}

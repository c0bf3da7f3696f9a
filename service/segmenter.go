package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/TIANLI0/CutoutKit/config"
	nhttp "github.com/TIANLI0/CutoutKit/utils/http"
)

// Segmenter 前景分割能力：输入原始图片字节，返回带 alpha 通道的编码图片
type Segmenter interface {
	Segment(ctx context.Context, data []byte) ([]byte, error)
}

// Pinger 可探活的外部依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewSegmenter 按 backend 创建分割实现，grabcut 需要 gocv 构建标签
func NewSegmenter(cfg *config.SegmenterConfig) (Segmenter, error) {
	switch cfg.Backend {
	case "", "rembg":
		// 客户端超时与 segmenter.timeout 保持一致，避免默认 30s 提前截断
		return NewRembgSegmenter(cfg.Endpoint, cfg.Model, nhttp.NewHTTPClientWithTimeout(cfg.Timeout)), nil
	case "grabcut":
		return NewGrabCutSegmenter(cfg)
	default:
		return nil, fmt.Errorf("unknown segmenter backend %q", cfg.Backend)
	}
}

// RembgSegmenter 调用 rembg HTTP 服务 (rembg s)
type RembgSegmenter struct {
	endpoint string
	model    string
	cli      nhttp.IClient
}

func NewRembgSegmenter(endpoint, model string, cli nhttp.IClient) *RembgSegmenter {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &RembgSegmenter{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		cli:      cli,
	}
}

/*
	curl -X POST "$REMBG_URL/api/remove" \
	  -F "file=@my_image.png" \
	  -F "model=isnet-general-use"
*/
func (s *RembgSegmenter) Segment(ctx context.Context, data []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if s.model != "" {
		_ = writer.WriteField("model", s.model)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var out []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: s.endpoint + "/api/remove",
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   &out,
	}
	if err := s.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("rembg remove: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rembg remove: empty response")
	}
	return out, nil
}

// Ping rembg 服务把文档挂在 /api 下，能打开即认为就绪
func (s *RembgSegmenter) Ping(ctx context.Context) error {
	return s.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: s.endpoint + "/api",
		Method:     http.MethodGet,
	})
}

// SerialSegmenter 限制同时进入分割服务的请求数，默认只允许一个
type SerialSegmenter struct {
	next         Segmenter
	semaphore    chan struct{}
	queueTimeout time.Duration
	callTimeout  time.Duration
}

func NewSerialSegmenter(next Segmenter, cfg *config.SegmenterConfig) *SerialSegmenter {
	slots := cfg.MaxConcurrent
	if slots <= 0 {
		slots = 1
	}
	return &SerialSegmenter{
		next:         next,
		semaphore:    make(chan struct{}, slots),
		queueTimeout: cfg.QueueTimeout,
		callTimeout:  cfg.Timeout,
	}
}

func (s *SerialSegmenter) Segment(ctx context.Context, data []byte) ([]byte, error) {
	waitCtx := ctx
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrSegmenterBusy
	}

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	return s.next.Segment(ctx, data)
}

// Ping 透传给底层实现
func (s *SerialSegmenter) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

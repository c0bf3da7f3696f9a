package http

import (
	"context"
	"time"
)

type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

// RequestParam 描述一次外部调用
//
//	Body: nil、io.Reader、[]byte 直接发送，其他类型按 JSON 编码
//	Response: *[]byte 接收原始响应体，其他非 nil 值按 JSON 解码
type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	Response   interface{}

	Timeout time.Duration
}

package utils

import "github.com/segmentio/ksuid"

// NewRequestID 生成可按时间排序的请求ID
func NewRequestID() string {
	return ksuid.New().String()
}

package service

import (
	"errors"
	"fmt"
)

// 返回给用户的提示语
const (
	MsgUnreadableImage = "unreadable or corrupt image"
	MsgImageTooSmall   = "image too small"
	MsgMattingFailed   = "could not process the image background; try a different image."
)

var (
	// ErrMissingCredential 描述服务没有配置 API key
	ErrMissingCredential = errors.New("classifier credential is not configured")
	// ErrSegmenterBusy 等待分割服务空闲超时
	ErrSegmenterBusy = errors.New("segmenter queue is full")
	// ErrMaskSize 掩码尺寸与原图不一致
	ErrMaskSize = errors.New("mask size does not match image")
)

// ValidationError 用户输入问题，对应 400
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// MattingFailure 照片分支提取失败，只会出现在 photographic 路径
type MattingFailure struct {
	Err error
}

func (e *MattingFailure) Error() string {
	return "matting failed: " + e.Err.Error()
}

func (e *MattingFailure) Unwrap() error { return e.Err }

// InternalError 其余意外错误，对外只返回笼统信息
type InternalError struct {
	Stage Stage
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

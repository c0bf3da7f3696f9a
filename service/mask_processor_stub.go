//go:build !gocv
// +build !gocv

package service

import "errors"

// NewGoCVMaskProcessor 未带 gocv 标签构建时不可用
func NewGoCVMaskProcessor() (MaskFilter, error) {
	return nil, errors.New("gocv build tag is not enabled")
}

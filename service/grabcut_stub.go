//go:build !gocv
// +build !gocv

package service

import (
	"errors"

	"github.com/TIANLI0/CutoutKit/config"
)

// NewGrabCutSegmenter 未带 gocv 标签构建时不可用
func NewGrabCutSegmenter(cfg *config.SegmenterConfig) (Segmenter, error) {
	return nil, errors.New("grabcut segmenter requires the gocv build tag")
}

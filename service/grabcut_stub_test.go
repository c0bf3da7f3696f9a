//go:build !gocv
// +build !gocv

package service

import (
	"testing"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/stretchr/testify/assert"
)

func TestGoCVBackendsRequireBuildTag(t *testing.T) {
	_, err := NewSegmenter(&config.SegmenterConfig{Backend: "grabcut"})
	assert.Error(t, err)

	_, err = NewMaskFilter("gocv")
	assert.Error(t, err)
}

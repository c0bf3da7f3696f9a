//go:build gocv
// +build gocv

package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// GrabCut 掩码取值
const (
	gcBackground         = 0
	gcForeground         = 1
	gcProbableBackground = 2
	gcProbableForeground = 3
)

// GrabCutSegmenter 本地 GrabCut 分割，不依赖外部服务，效果弱于 rembg
type GrabCutSegmenter struct {
	iterations int
	maxSide    int
	saliency   *SaliencyDetector
}

func NewGrabCutSegmenter(cfg *config.SegmenterConfig) (Segmenter, error) {
	return &GrabCutSegmenter{
		iterations: cfg.Iterations,
		maxSide:    cfg.MaxSide,
		saliency:   NewSaliencyDetector(),
	}, nil
}

// Segment 输出与原图同尺寸、带 alpha 的 PNG
func (s *GrabCutSegmenter) Segment(ctx context.Context, data []byte) ([]byte, error) {
	log := utils.FromContext(ctx)
	startTime := time.Now()

	// 忽略 EXIF 方向，保证掩码和 DecodeImage 的像素对齐
	img, err := gocv.IMDecode(data, gocv.IMReadColor|gocv.IMReadIgnoreOrientation)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("failed to read image")
	}

	width, height := img.Cols(), img.Rows()

	// 大图先缩小，GrabCut 耗时与像素数成正比
	scaledImg, scale := s.smartResize(&img)
	defer scaledImg.Close()
	scaledWidth, scaledHeight := scaledImg.Cols(), scaledImg.Rows()

	saliencyMap := s.saliency.Detect(&scaledImg)
	defer saliencyMap.Close()
	mask := s.saliency.CreateMask(&saliencyMap, scaledWidth, scaledHeight)
	defer mask.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()
	gocv.GrabCut(scaledImg, &mask, image.Rectangle{}, &bgdModel, &fgdModel, s.iterations, gocv.GCInitWithMask)

	fgMask := foregroundMask(mask)
	defer fgMask.Close()

	if scale != 1.0 {
		resized := gocv.NewMat()
		gocv.Resize(fgMask, &resized, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)
		gocv.Threshold(resized, &resized, 127, 255, gocv.ThresholdBinary)
		fgMask.Close()
		fgMask = resized
	}

	src, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	out, err := Composite(src, matToGray(fgMask))
	if err != nil {
		return nil, err
	}

	log.Debug("grabcut finished",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("scale", scale),
		zap.Duration("duration", time.Since(startTime)))

	return EncodePNG(out)
}

// foregroundMask 确定前景和可能前景记为 255
func foregroundMask(mask gocv.Mat) gocv.Mat {
	data := mask.ToBytes()
	for i, v := range data {
		if v == gcForeground || v == gcProbableForeground {
			data[i] = 255
		} else {
			data[i] = 0
		}
	}
	out, err := gocv.NewMatFromBytes(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	}
	return out
}

func (s *GrabCutSegmenter) smartResize(img *gocv.Mat) (gocv.Mat, float64) {
	width, height := img.Cols(), img.Rows()
	maxDim := max(width, height)
	if s.maxSide <= 0 || maxDim <= s.maxSide {
		return img.Clone(), 1.0
	}

	scale := float64(s.maxSide) / float64(maxDim)
	resized := gocv.NewMat()
	gocv.Resize(*img, &resized, image.Point{X: int(float64(width) * scale), Y: int(float64(height) * scale)}, 0, 0, gocv.InterpolationArea)
	return resized, scale
}

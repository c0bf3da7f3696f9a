//go:build gocv
// +build gocv

package service

import (
	"image"

	"gocv.io/x/gocv"
)

// SaliencyDetector 用梯度图估计主体位置，作为 GrabCut 的初始掩码
type SaliencyDetector struct{}

func NewSaliencyDetector() *SaliencyDetector {
	return &SaliencyDetector{}
}

// Detect 计算图像的显著性图 (Sobel 梯度 + 大核模糊 + Otsu)
func (sd *SaliencyDetector) Detect(img *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*img, &gray, gocv.ColorBGRToGray)

	gradX := gocv.NewMat()
	gradY := gocv.NewMat()
	defer gradX.Close()
	defer gradY.Close()

	gocv.Sobel(gray, &gradX, gocv.MatTypeCV16S, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gradY, gocv.MatTypeCV16S, 0, 1, 3, 1, 0, gocv.BorderDefault)

	absGradX := gocv.NewMat()
	absGradY := gocv.NewMat()
	defer absGradX.Close()
	defer absGradY.Close()

	gocv.ConvertScaleAbs(gradX, &absGradX, 1, 0)
	gocv.ConvertScaleAbs(gradY, &absGradY, 1, 0)

	gradient := gocv.NewMat()
	defer gradient.Close()
	gocv.AddWeighted(absGradX, 0.5, absGradY, 0.5, 0, &gradient)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gradient, &blurred, image.Point{X: 21, Y: 21}, 0, 0, gocv.BorderDefault)

	saliency := gocv.NewMat()
	gocv.Threshold(blurred, &saliency, 0, 255, gocv.ThresholdOtsu)

	return saliency
}

// CreateMask 边框一圈标记为确定背景，显著区域标记为可能前景，其余为可能背景
func (sd *SaliencyDetector) CreateMask(saliency *gocv.Mat, width, height int) gocv.Mat {
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	mask.SetTo(gocv.NewScalar(gcProbableBackground, 0, 0, 0))

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: 11, Y: 11})
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(*saliency, &dilated, kernel)

	borderSize := max(1, int(float64(width)*0.03))
	hasForeground := false
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x < borderSize || x >= width-borderSize || y < borderSize || y >= height-borderSize:
				mask.SetUCharAt(y, x, gcBackground)
			case dilated.GetUCharAt(y, x) > 128:
				mask.SetUCharAt(y, x, gcProbableForeground)
				hasForeground = true
			}
		}
	}

	// 没有显著区域时退回到中心矩形，否则 GrabCut 缺少前景样本
	if !hasForeground {
		border := int(float64(width) * 0.1)
		for y := border; y < height-border; y++ {
			for x := border; x < width-border; x++ {
				mask.SetUCharAt(y, x, gcProbableForeground)
			}
		}
	}

	return mask
}

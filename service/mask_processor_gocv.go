//go:build gocv
// +build gocv

package service

import (
	"image"

	"gocv.io/x/gocv"
)

// GoCVMaskProcessor 使用 OpenCV 实现 MaskFilter
type GoCVMaskProcessor struct{}

func NewGoCVMaskProcessor() (MaskFilter, error) {
	return &GoCVMaskProcessor{}, nil
}

// Gray 手动拼出 RGB 三通道，避免 ImageToMat 按预乘 alpha 取色
func (mp *GoCVMaskProcessor) Gray(img *image.NRGBA) (*image.Gray, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rgb := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			rgb = append(rgb, row[x*4], row[x*4+1], row[x*4+2])
		}
	}

	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, rgb)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)

	return matToGray(gray), nil
}

func (mp *GoCVMaskProcessor) Threshold(src *image.Gray, thresh uint8, mode ThresholdMode) (*image.Gray, error) {
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	typ := gocv.ThresholdBinary
	if mode == ThresholdBinaryInv {
		typ = gocv.ThresholdBinaryInv
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Threshold(mat, &dst, float32(thresh), 255, typ)

	return matToGray(dst), nil
}

func (mp *GoCVMaskProcessor) MedianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if err := checkKernel(ksize); err != nil {
		return nil, err
	}
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.MedianBlur(mat, &dst, ksize)

	return matToGray(dst), nil
}

func (mp *GoCVMaskProcessor) GaussianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if err := checkKernel(ksize); err != nil {
		return nil, err
	}
	mat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.GaussianBlur(mat, &dst, image.Point{X: ksize, Y: ksize}, 0, 0, gocv.BorderDefault)

	return matToGray(dst), nil
}

func grayToMat(img *image.Gray) (gocv.Mat, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	data := make([]byte, 0, w*h)
	for y := 0; y < h; y++ {
		data = append(data, img.Pix[y*img.Stride:y*img.Stride+w]...)
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
}

func matToGray(mat gocv.Mat) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	copy(gray.Pix, mat.ToBytes())
	return gray
}

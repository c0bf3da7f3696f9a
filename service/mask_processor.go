package service

import (
	"fmt"
	"image"
	"math"
	"slices"
)

// ThresholdMode 与 OpenCV 的 THRESH_BINARY / THRESH_BINARY_INV 一致
type ThresholdMode int

const (
	// ThresholdBinary src > thresh 时取 255，否则取 0
	ThresholdBinary ThresholdMode = iota
	// ThresholdBinaryInv src > thresh 时取 0，否则取 255
	ThresholdBinaryInv
)

// MaskFilter 掩码相关的像素运算
type MaskFilter interface {
	Gray(img *image.NRGBA) (*image.Gray, error)
	Threshold(src *image.Gray, thresh uint8, mode ThresholdMode) (*image.Gray, error)
	MedianBlur(src *image.Gray, ksize int) (*image.Gray, error)
	GaussianBlur(src *image.Gray, ksize int) (*image.Gray, error)
}

// NewMaskFilter 按配置选择实现，gocv 需要带 gocv 构建标签
func NewMaskFilter(backend string) (MaskFilter, error) {
	switch backend {
	case "", "go":
		return NewMaskProcessor(), nil
	case "gocv":
		return NewGoCVMaskProcessor()
	default:
		return nil, fmt.Errorf("unknown mask filter backend %q", backend)
	}
}

// MaskProcessor 纯 Go 实现，边界处理与取整方式对齐 OpenCV
type MaskProcessor struct{}

func NewMaskProcessor() *MaskProcessor {
	return &MaskProcessor{}
}

// Gray 丢弃 alpha 后按 BT.601 权重转灰度（与 cv2 的定点系数相同）
func (mp *MaskProcessor) Gray(img *image.NRGBA) (*image.Gray, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			r, g, b := uint32(src[x*4]), uint32(src[x*4+1]), uint32(src[x*4+2])
			dst[x] = uint8((r*4899 + g*9617 + b*1868 + 1<<13) >> 14)
		}
	}
	return gray, nil
}

// Threshold 二值化
func (mp *MaskProcessor) Threshold(src *image.Gray, thresh uint8, mode ThresholdMode) (*image.Gray, error) {
	hi, lo := uint8(255), uint8(0)
	if mode == ThresholdBinaryInv {
		hi, lo = lo, hi
	}
	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		if v > thresh {
			dst.Pix[i] = hi
		} else {
			dst.Pix[i] = lo
		}
	}
	return dst, nil
}

// MedianBlur 中值滤波，边界复制最外层像素
func (mp *MaskProcessor) MedianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if err := checkKernel(ksize); err != nil {
		return nil, err
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	r := ksize / 2
	dst := image.NewGray(src.Rect)
	window := make([]uint8, ksize*ksize)
	mid := len(window) / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -r; dy <= r; dy++ {
				row := clamp(y+dy, h) * src.Stride
				for dx := -r; dx <= r; dx++ {
					window[n] = src.Pix[row+clamp(x+dx, w)]
					n++
				}
			}
			slices.Sort(window)
			dst.Pix[y*dst.Stride+x] = window[mid]
		}
	}
	return dst, nil
}

// GaussianBlur 可分离高斯模糊，sigma 由核大小推导，边界按 reflect101 处理
func (mp *MaskProcessor) GaussianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if err := checkKernel(ksize); err != nil {
		return nil, err
	}
	kernel := gaussianKernel(ksize)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	r := ksize / 2

	// 先横向再纵向
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += float64(row[reflect101(x+k, w)]) * kernel[k+r]
			}
			tmp[y*w+x] = sum
		}
	}

	dst := image.NewGray(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += tmp[reflect101(y+k, h)*w+x] * kernel[k+r]
			}
			dst.Pix[y*dst.Stride+x] = saturate(sum)
		}
	}
	return dst, nil
}

// gaussianKernel 对应 cv::getGaussianKernel(ksize, 0)
func gaussianKernel(ksize int) []float64 {
	switch ksize {
	case 3:
		return []float64{0.25, 0.5, 0.25}
	case 5:
		return []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}
	case 7:
		return []float64{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125}
	}

	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	kernel := make([]float64, ksize)
	var sum float64
	for i := range kernel {
		x := float64(i - ksize/2)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func checkKernel(ksize int) error {
	if ksize < 1 || ksize%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number, got %d", ksize)
	}
	return nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// reflect101 gfedcb|abcdefgh|gfedcba
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

package service

import (
	"fmt"
	"image"
)

// Refine 把两条提取路径的输出统一成与原图同尺寸、只含 0/255 的掩码
func Refine(mask *image.Gray, size image.Point) (*image.Gray, error) {
	if mask == nil {
		return nil, fmt.Errorf("%w: nil mask", ErrMaskSize)
	}
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	if w != size.X || h != size.Y {
		return nil, fmt.Errorf("%w: mask %dx%d, image %dx%d", ErrMaskSize, w, h, size.X, size.Y)
	}

	binary := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		dst := binary.Pix[y*binary.Stride : y*binary.Stride+w]
		for x, v := range src {
			if v > 0 {
				dst[x] = 255
			}
		}
	}
	return binary, nil
}

package service

import (
	"image"
)

// Composite 按掩码合成 RGBA：掩码为 0 的像素 RGB 也清零，alpha 直接取掩码值
//
// 透明像素下的颜色清零沿用了旧行为，若以后改成预乘 alpha 语义可以重新评估
func Composite(src *image.NRGBA, mask *image.Gray) (*image.NRGBA, error) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if mask.Rect.Dx() != w || mask.Rect.Dy() != h {
		return nil, ErrMaskSize
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+w*4]
		m := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		d := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x, a := range m {
			if a > 0 {
				d[x*4] = s[x*4]
				d[x*4+1] = s[x*4+1]
				d[x*4+2] = s[x*4+2]
			}
			d[x*4+3] = a
		}
	}
	return out, nil
}

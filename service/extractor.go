package service

import (
	"context"
	"fmt"
	"image"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/model"
	"github.com/nfnt/resize"
)

// Source 一次请求的输入：原始字节和解码后的像素
type Source struct {
	Data  []byte
	Image *image.NRGBA
}

// Extractor 前景提取算法，输出与原图同尺寸的单通道掩码
type Extractor interface {
	Extract(ctx context.Context, src *Source) (*image.Gray, error)
}

// FlatExtractor 浅色底平面图形：灰度阈值 + 中值滤波，不依赖外部服务
type FlatExtractor struct {
	filter    MaskFilter
	threshold uint8
	kernel    int
}

func NewFlatExtractor(filter MaskFilter, cfg *config.MattingConfig) *FlatExtractor {
	return &FlatExtractor{
		filter:    filter,
		threshold: uint8(cfg.FlatThreshold),
		kernel:    cfg.MedianKernel,
	}
}

// Extract 亮度高于阈值的近白像素视为背景
func (e *FlatExtractor) Extract(ctx context.Context, src *Source) (*image.Gray, error) {
	gray, err := e.filter.Gray(src.Image)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	mask, err := e.filter.Threshold(gray, e.threshold, ThresholdBinaryInv)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	mask, err = e.filter.MedianBlur(mask, e.kernel)
	if err != nil {
		return nil, fmt.Errorf("median blur: %w", err)
	}
	return mask, nil
}

// PhotoExtractor 照片：调用分割服务取 alpha，高斯平滑后用低阈值二值化
type PhotoExtractor struct {
	segmenter Segmenter
	filter    MaskFilter
	threshold uint8
	kernel    int
}

func NewPhotoExtractor(segmenter Segmenter, filter MaskFilter, cfg *config.MattingConfig) *PhotoExtractor {
	return &PhotoExtractor{
		segmenter: segmenter,
		filter:    filter,
		threshold: uint8(cfg.PhotoThreshold),
		kernel:    cfg.GaussianKernel,
	}
}

// Extract 任何失败都包装为 MattingFailure
func (e *PhotoExtractor) Extract(ctx context.Context, src *Source) (*image.Gray, error) {
	mask, err := e.extract(ctx, src)
	if err != nil {
		return nil, &MattingFailure{Err: err}
	}
	return mask, nil
}

func (e *PhotoExtractor) extract(ctx context.Context, src *Source) (*image.Gray, error) {
	out, err := e.segmenter.Segment(ctx, src.Data)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	segmented, err := DecodeImage(out)
	if err != nil {
		return nil, fmt.Errorf("decode segmentation output: %w", err)
	}

	alpha := AlphaMask(segmented)
	w, h := src.Image.Rect.Dx(), src.Image.Rect.Dy()
	if alpha.Rect.Dx() != w || alpha.Rect.Dy() != h {
		// 部分后端会缩放输出，按原图尺寸还原
		resized, ok := resize.Resize(uint(w), uint(h), alpha, resize.Bilinear).(*image.Gray)
		if !ok {
			return nil, fmt.Errorf("%w: resize returned unexpected type", ErrMaskSize)
		}
		alpha = resized
	}

	blurred, err := e.filter.GaussianBlur(alpha, e.kernel)
	if err != nil {
		return nil, fmt.Errorf("gaussian blur: %w", err)
	}
	binary, err := e.filter.Threshold(blurred, e.threshold, ThresholdBinary)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	return binary, nil
}

// AlphaMask 取出 alpha 通道作为前景置信度
func AlphaMask(img *image.NRGBA) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			mask.Pix[y*mask.Stride+x] = row[x*4+3]
		}
	}
	return mask
}

// Router 按类别选择提取算法
type Router struct {
	extractors map[model.Category]Extractor
}

func NewRouter(flat, photo Extractor) *Router {
	return &Router{
		extractors: map[model.Category]Extractor{
			model.CategoryFlatGraphic:  flat,
			model.CategoryPhotographic: photo,
		},
	}
}

func (r *Router) Route(category model.Category) (Extractor, error) {
	e, ok := r.extractors[category]
	if !ok || e == nil {
		return nil, fmt.Errorf("no extractor for category %q", category)
	}
	return e, nil
}

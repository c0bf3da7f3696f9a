package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/TIANLI0/CutoutKit/model"
	"github.com/TIANLI0/CutoutKit/utils"
	"go.uber.org/zap"
)

// Stage 流水线阶段，只前进不回退，任何阶段都可能直接失败
type Stage string

const (
	StageValidating  Stage = "validating"
	StageClassifying Stage = "classifying"
	StageExtracting  Stage = "extracting"
	StageRefining    Stage = "refining"
	StageCompositing Stage = "compositing"
	StageDone        Stage = "done"
)

// CategoryClassifier 分类能力，实现方自行吞掉错误
type CategoryClassifier interface {
	Classify(ctx context.Context, data []byte) model.Category
}

// Result 一次抠图的产物
type Result struct {
	Category model.Category
	Mask     *image.Gray
	Image    *image.NRGBA
	PNG      []byte
}

// Pipeline 校验 -> 分类 -> 提取 -> 细化 -> 合成，启动时创建一次并在请求间共享
type Pipeline struct {
	classifier CategoryClassifier
	router     *Router
	minSide    int
}

func NewPipeline(classifier CategoryClassifier, router *Router, minSide int) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		router:     router,
		minSide:    minSide,
	}
}

// Process 返回的错误只有 *ValidationError 和 *InternalError 两种
func (p *Pipeline) Process(ctx context.Context, data []byte) (*Result, error) {
	return p.run(ctx, data, "")
}

// ProcessAs 跳过分类，直接使用指定类别
func (p *Pipeline) ProcessAs(ctx context.Context, data []byte, category model.Category) (*Result, error) {
	if !category.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown category %q", category)}
	}
	return p.run(ctx, data, category)
}

func (p *Pipeline) run(ctx context.Context, data []byte, forced model.Category) (result *Result, err error) {
	log := utils.FromContext(ctx)
	start := time.Now()
	stage := StageValidating

	enter := func(next Stage) {
		stage = next
		log.Debug("pipeline stage", zap.String("stage", string(stage)))
	}

	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			log.Warn("pipeline failed",
				zap.String("stage", string(stage)),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
		}
	}()

	enter(StageValidating)
	img, err := DecodeImage(data)
	if err != nil {
		return nil, &ValidationError{Message: MsgUnreadableImage, Cause: err}
	}
	size := img.Rect.Size()
	if size.X < p.minSide || size.Y < p.minSide {
		return nil, &ValidationError{Message: MsgImageTooSmall}
	}

	enter(StageClassifying)
	category := forced
	if category == "" {
		category = p.classifier.Classify(ctx, data)
	}

	enter(StageExtracting)
	extractor, err := p.router.Route(category)
	if err != nil {
		return nil, &InternalError{Stage: stage, Err: err}
	}
	raw, err := extractor.Extract(ctx, &Source{Data: data, Image: img})
	if err != nil {
		return nil, mapExtractError(stage, err)
	}

	enter(StageRefining)
	mask, err := Refine(raw, size)
	if err != nil {
		return nil, &InternalError{Stage: stage, Err: err}
	}

	enter(StageCompositing)
	out, err := Composite(img, mask)
	if err != nil {
		return nil, &InternalError{Stage: stage, Err: err}
	}
	encoded, err := EncodePNG(out)
	if err != nil {
		return nil, &InternalError{Stage: stage, Err: fmt.Errorf("encode png: %w", err)}
	}

	enter(StageDone)
	log.Info("image processed successfully",
		zap.String("category", category.String()),
		zap.Int("width", size.X),
		zap.Int("height", size.Y),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		Category: category,
		Mask:     mask,
		Image:    out,
		PNG:      encoded,
	}, nil
}

// mapExtractError 提取阶段的 MattingFailure 转成用户可读的校验错误
func mapExtractError(stage Stage, err error) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}
	var mErr *MattingFailure
	if errors.As(err, &mErr) {
		return &ValidationError{Message: MsgMattingFailed, Cause: mErr}
	}
	return &InternalError{Stage: stage, Err: err}
}

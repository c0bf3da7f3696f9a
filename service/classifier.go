package service

import (
	"context"
	"strings"
	"time"

	"github.com/TIANLI0/CutoutKit/model"
	"github.com/TIANLI0/CutoutKit/utils"
	"go.uber.org/zap"
)

var (
	photographicTokens = []string{"person", "face"}
	flatGraphicTokens  = []string{"map", "icon", "cartoon"}
)

// Outcome 描述调用的结果，所有失败都折叠为 Known=false
type Outcome struct {
	Known       bool
	Description string
}

// Classifier 把图片分为 flat-graphic / photographic，对外永不失败
type Classifier struct {
	describer Describer
	cache     CategoryCache
	timeout   time.Duration
}

// NewClassifier cache 可以为 nil
func NewClassifier(describer Describer, cache CategoryCache, timeout time.Duration) *Classifier {
	return &Classifier{
		describer: describer,
		cache:     cache,
		timeout:   timeout,
	}
}

// Classify 每次最多调用一次描述服务，不重试
func (c *Classifier) Classify(ctx context.Context, data []byte) model.Category {
	log := utils.FromContext(ctx)
	md5 := utils.BytesMD5(data)

	if c.cache != nil {
		category, ok, err := c.cache.GetCategory(ctx, md5)
		if err != nil {
			log.Warn("failed to get category cache", zap.Error(err))
		} else if ok {
			log.Debug("category cache hit", zap.String("md5", md5), zap.String("category", category.String()))
			return category
		}
	}

	outcome := c.describe(ctx, data)
	if !outcome.Known {
		// 失败的结果不写缓存，下次仍然会重新分类
		return model.DefaultCategory
	}

	category := CategoryFromDescription(outcome.Description)
	log.Info("image classified",
		zap.String("md5", md5),
		zap.String("description", outcome.Description),
		zap.String("category", category.String()))

	if c.cache != nil {
		if err := c.cache.SetCategory(ctx, md5, category); err != nil {
			log.Warn("failed to set category cache", zap.Error(err))
		}
	}
	return category
}

func (c *Classifier) describe(ctx context.Context, data []byte) Outcome {
	if c.describer == nil {
		return Outcome{}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	desc, err := c.describer.Describe(ctx, data)
	if err != nil {
		utils.FromContext(ctx).Warn("image classification failed, using default category",
			zap.String("default", model.DefaultCategory.String()),
			zap.Error(err))
		return Outcome{}
	}
	return Outcome{Known: true, Description: desc}
}

// CategoryFromDescription 人物/人脸优先于地图/图标/卡通，其余归为照片
func CategoryFromDescription(desc string) model.Category {
	desc = strings.ToLower(desc)
	if containsAny(desc, photographicTokens) {
		return model.CategoryPhotographic
	}
	if containsAny(desc, flatGraphicTokens) {
		return model.CategoryFlatGraphic
	}
	return model.DefaultCategory
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

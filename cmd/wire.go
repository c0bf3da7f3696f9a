package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/service"
	"github.com/TIANLI0/CutoutKit/utils"
	"go.uber.org/zap"
)

// app 进程级依赖，启动时创建一次
type app struct {
	pipeline *service.Pipeline
	monitor  *service.HealthMonitor
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	filter, err := service.NewMaskFilter(cfg.Matting.Backend)
	if err != nil {
		return nil, err
	}

	describer, err := service.NewDescriber(ctx, &cfg.Classifier)
	if err != nil {
		return nil, err
	}
	if closer, ok := describer.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}
	if cfg.Classifier.APIKey == "" && cfg.Classifier.Provider != "ollama" {
		utils.Logger.Warn("classifier api key is not configured, every image will be treated as photographic",
			zap.String("provider", cfg.Classifier.Provider))
	}

	classifier := service.NewClassifier(describer, a.categoryCache(ctx, cfg), cfg.Classifier.Timeout)

	backend, err := service.NewSegmenter(&cfg.Segmenter)
	if err != nil {
		return nil, err
	}
	segmenter := service.NewSerialSegmenter(backend, &cfg.Segmenter)

	router := service.NewRouter(
		service.NewFlatExtractor(filter, &cfg.Matting),
		service.NewPhotoExtractor(segmenter, filter, &cfg.Matting),
	)
	a.pipeline = service.NewPipeline(classifier, router, cfg.Matting.MinSide)
	a.monitor = service.NewHealthMonitor(segmenter, cfg.Segmenter.Timeout)

	utils.Logger.Info("pipeline ready",
		zap.String("filter_backend", cfg.Matting.Backend),
		zap.String("classifier", cfg.Classifier.Provider),
		zap.String("segmenter", cfg.Segmenter.Backend),
		zap.String("segmenter_endpoint", cfg.Segmenter.Endpoint),
		zap.Int("segmenter_slots", cfg.Segmenter.MaxConcurrent))
	return a, nil
}

// categoryCache redis 不可用时返回 nil，分类照常进行
func (a *app) categoryCache(ctx context.Context, cfg *config.Config) service.CategoryCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	redisService := service.NewRedisService(&cfg.Redis, cfg.Classifier.CacheTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisService.Ping(pingCtx); err != nil {
		utils.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		_ = redisService.Close()
		return nil
	}
	utils.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
	a.closers = append(a.closers, redisService.Close)
	return redisService
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %w", errors.Join(errs...))
	}
	return nil
}

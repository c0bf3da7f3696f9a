package service

import (
	"context"
	"errors"
	"time"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/model"
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CategoryCache 按图片 MD5 缓存分类结果，省掉重复的描述服务调用
type CategoryCache interface {
	GetCategory(ctx context.Context, md5 string) (model.Category, bool, error)
	SetCategory(ctx context.Context, md5 string, category model.Category) error
}

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig, ttl time.Duration) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetCategory 从缓存获取分类，未命中时返回 false
func (s *RedisService) GetCategory(ctx context.Context, md5 string) (model.Category, bool, error) {
	val, err := s.client.Get(ctx, categoryKey(md5)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	category, ok := model.ParseCategory(val)
	if !ok {
		utils.Logger.Warn("dropping unknown cached category",
			zap.String("md5", md5), zap.String("value", val))
		return "", false, nil
	}
	return category, true, nil
}

// SetCategory 写入分类缓存
func (s *RedisService) SetCategory(ctx context.Context, md5 string, category model.Category) error {
	return s.client.Set(ctx, categoryKey(md5), category.String(), s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func categoryKey(md5 string) string {
	return "category:" + md5
}

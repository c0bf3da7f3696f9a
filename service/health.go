package service

import (
	"context"
	"sync"
	"time"

	"github.com/TIANLI0/CutoutKit/model"
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HealthMonitor 定时探测分割服务，结果供 /health 使用
type HealthMonitor struct {
	target  Pinger
	timeout time.Duration
	cron    *cron.Cron

	mu     sync.RWMutex
	status model.SegmenterStatus
}

func NewHealthMonitor(target Pinger, timeout time.Duration) *HealthMonitor {
	return &HealthMonitor{
		target:  target,
		timeout: timeout,
		cron:    cron.New(),
	}
}

// Start 先同步探测一次，再按 schedule 周期执行
func (m *HealthMonitor) Start(schedule string) error {
	m.Check(context.Background())
	if _, err := m.cron.AddFunc(schedule, func() { m.Check(context.Background()) }); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
}

// Check 执行一次探测并记录结果
func (m *HealthMonitor) Check(ctx context.Context) model.SegmenterStatus {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	status := model.SegmenterStatus{Ready: true, CheckedAt: time.Now().Unix()}
	if err := m.target.Ping(ctx); err != nil {
		status.Ready = false
		status.Error = err.Error()
	}

	m.mu.Lock()
	changed := m.status.Ready != status.Ready || m.status.CheckedAt == 0
	m.status = status
	m.mu.Unlock()

	if changed {
		if status.Ready {
			utils.Logger.Info("segmenter is ready")
		} else {
			utils.Logger.Warn("segmenter is not reachable", zap.String("error", status.Error))
		}
	}
	return status
}

func (m *HealthMonitor) Status() model.SegmenterStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

package handler

import (
	"net/http"

	"github.com/TIANLI0/CutoutKit/model"
	"github.com/gin-gonic/gin"
)

// StatusReporter 分割服务的最近一次探测结果
type StatusReporter interface {
	Status() model.SegmenterStatus
}

type HealthHandler struct {
	build   model.VersionResponse
	monitor StatusReporter
}

// NewHealthHandler monitor 可以为 nil
func NewHealthHandler(build model.VersionResponse, monitor StatusReporter) *HealthHandler {
	return &HealthHandler{build: build, monitor: monitor}
}

// Health 分割服务不可用时仍返回 200，status 为 degraded
func (h *HealthHandler) Health(c *gin.Context) {
	resp := model.HealthResponse{
		Status:  "ok",
		Version: h.build.Version,
	}
	if h.monitor != nil {
		resp.Segmenter = h.monitor.Status()
		if !resp.Segmenter.Ready {
			resp.Status = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}

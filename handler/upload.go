package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/TIANLI0/CutoutKit/config"
	"github.com/TIANLI0/CutoutKit/service"
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgNoFileUploaded = "No file uploaded"
	msgNoFileSelected = "No file selected"
	msgInternalError  = "Internal server error"

	// multipart 边界和其他字段的余量
	formOverhead = 1 << 20
)

// Processor 抠图流水线
type Processor interface {
	Process(ctx context.Context, data []byte) (*service.Result, error)
}

type UploadHandler struct {
	cfg      *config.UploadConfig
	pipeline Processor
}

func NewUploadHandler(cfg *config.UploadConfig, pipeline Processor) *UploadHandler {
	return &UploadHandler{
		cfg:      cfg,
		pipeline: pipeline,
	}
}

// Upload 接收图片并返回透明背景的 PNG，类别总是由分类器决定
func (h *UploadHandler) Upload(c *gin.Context) {
	log := utils.FromContext(c.Request.Context())

	if h.cfg.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxSize+formOverhead)
	}

	file, err := c.FormFile(h.cfg.FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.tooLarge(c)
		case h.hasEmptyFilename(c):
			c.String(http.StatusBadRequest, msgNoFileSelected)
		default:
			log.Debug("no file in request", zap.Error(err))
			c.String(http.StatusBadRequest, msgNoFileUploaded)
		}
		return
	}
	if file.Filename == "" {
		c.String(http.StatusBadRequest, msgNoFileSelected)
		return
	}
	if h.cfg.MaxSize > 0 && file.Size > h.cfg.MaxSize {
		h.tooLarge(c)
		return
	}

	f, err := file.Open()
	if err != nil {
		log.Error("failed to open uploaded file", zap.Error(err))
		c.String(http.StatusInternalServerError, msgInternalError)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Error("failed to read uploaded file", zap.Error(err))
		c.String(http.StatusInternalServerError, msgInternalError)
		return
	}

	log.Info("file uploaded",
		zap.String("filename", file.Filename),
		zap.String("md5", utils.BytesMD5(data)),
		zap.Int64("size", file.Size))

	result, err := h.pipeline.Process(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("X-Image-Category", result.Category.String())
	c.Data(http.StatusOK, "image/png", result.PNG)
}

// fail 校验错误原样返回提示语，其余一律 500
func (h *UploadHandler) fail(c *gin.Context, err error) {
	log := utils.FromContext(c.Request.Context())

	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("image rejected", zap.String("reason", vErr.Message), zap.Error(err))
		c.String(http.StatusBadRequest, vErr.Message)
		return
	}

	log.Error("failed to process image", zap.Error(err))
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, msgInternalError)
}

func (h *UploadHandler) tooLarge(c *gin.Context) {
	c.String(http.StatusBadRequest, fmt.Sprintf("File too large (max %d MB)", h.cfg.MaxSize/(1024*1024)))
}

// hasEmptyFilename 标准库把 filename 为空的文件字段当作普通表单值
func (h *UploadHandler) hasEmptyFilename(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[h.cfg.FormField]
	return ok
}

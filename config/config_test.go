package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "CLASSIFIER_PROVIDER", "CLASSIFIER_ENDPOINT", "OLLAMA_URL", "REMBG_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Port)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxSize)
	assert.Equal(t, "image", cfg.Upload.FormField)
	assert.Equal(t, 100, cfg.Matting.MinSide)
	assert.Equal(t, 250, cfg.Matting.FlatThreshold)
	assert.Equal(t, 3, cfg.Matting.MedianKernel)
	assert.Equal(t, 5, cfg.Matting.GaussianKernel)
	assert.Equal(t, 30, cfg.Matting.PhotoThreshold)
	assert.Equal(t, "cloudmersive", cfg.Classifier.Provider)
	assert.Equal(t, "https://api.cloudmersive.com/image/recognize/describe", cfg.Classifier.Endpoint)
	assert.Equal(t, 1, cfg.Segmenter.MaxConcurrent)
	assert.Equal(t, "isnet-general-use", cfg.Segmenter.Model)
	assert.Equal(t, "rembg", cfg.Segmenter.Backend)
	assert.Equal(t, 5, cfg.Segmenter.Iterations)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  mode: release
classifier:
  provider: ollama
  timeout: 3s
segmenter:
  backend: GrabCut
  endpoint: http://rembg:7000
  max_concurrent: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CLOUDMERSIVE_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "ollama", cfg.Classifier.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Classifier.Endpoint)
	assert.Equal(t, "llava", cfg.Classifier.Model)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "secret", cfg.Classifier.APIKey)
	assert.Equal(t, "http://rembg:7000", cfg.Segmenter.Endpoint)
	assert.Equal(t, 2, cfg.Segmenter.MaxConcurrent)
	assert.Equal(t, "grabcut", cfg.Segmenter.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Matting.MinSide)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matting:\n  median_kernel: 4\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "median_kernel")

	cfg := New(path)
	assert.Equal(t, 3, cfg.Matting.MedianKernel)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Classifier.Provider = "watson"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Matting.Backend = "cuda"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Segmenter.Backend = "sam"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Segmenter.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Matting.FlatThreshold = 256
	assert.ErrorContains(t, cfg.Validate(), "flat_threshold")

	cfg = Default()
	cfg.Matting.PhotoThreshold = -1
	assert.ErrorContains(t, cfg.Validate(), "photo_threshold")

	cfg = Default()
	cfg.Matting.FlatThreshold = 255
	cfg.Matting.PhotoThreshold = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ThresholdOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matting:\n  flat_threshold: 300\n"), 0o644))
	clearEnv(t)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flat_threshold")
	assert.Contains(t, err.Error(), "300")
}

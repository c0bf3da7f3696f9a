package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Matting    MattingConfig    `mapstructure:"matting"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Segmenter  SegmenterConfig  `mapstructure:"segmenter"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StaticDir    string        `mapstructure:"static_dir"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type UploadConfig struct {
	MaxSize   int64  `mapstructure:"max_size"`
	FormField string `mapstructure:"form_field"`
}

// MattingConfig 抠图各阶段的固定参数
type MattingConfig struct {
	Backend        string `mapstructure:"backend"` // go 或 gocv
	MinSide        int    `mapstructure:"min_side"`
	FlatThreshold  int    `mapstructure:"flat_threshold"`
	MedianKernel   int    `mapstructure:"median_kernel"`
	GaussianKernel int    `mapstructure:"gaussian_kernel"`
	PhotoThreshold int    `mapstructure:"photo_threshold"`
}

type ClassifierConfig struct {
	Provider string        `mapstructure:"provider"` // cloudmersive, gemini, ollama
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type SegmenterConfig struct {
	Backend        string        `mapstructure:"backend"` // rembg 或 grabcut
	Endpoint       string        `mapstructure:"endpoint"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	QueueTimeout   time.Duration `mapstructure:"queue_timeout"`
	HealthSchedule string        `mapstructure:"health_schedule"`
	// 以下只对 grabcut 生效
	Iterations int `mapstructure:"iterations"`
	MaxSide    int `mapstructure:"max_side"`
}

// Load 从 YAML 文件和环境变量加载配置，configPath 为空或文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New 使用指定路径加载配置，失败时退回默认配置
func New(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		cfg, err = Load("")
		if err != nil {
			return Default()
		}
	}
	return cfg
}

// Default 返回不读取文件和环境变量的默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.normalize()
	return &cfg
}

// Validate 检查会导致流水线行为异常的配置
func (c *Config) Validate() error {
	if c.Matting.MinSide <= 0 {
		return fmt.Errorf("matting.min_side must be positive, got %d", c.Matting.MinSide)
	}
	// 阈值作用在 8 位灰度上
	if c.Matting.FlatThreshold < 0 || c.Matting.FlatThreshold > 255 {
		return fmt.Errorf("matting.flat_threshold must be in [0, 255], got %d", c.Matting.FlatThreshold)
	}
	if c.Matting.PhotoThreshold < 0 || c.Matting.PhotoThreshold > 255 {
		return fmt.Errorf("matting.photo_threshold must be in [0, 255], got %d", c.Matting.PhotoThreshold)
	}
	if c.Matting.MedianKernel < 3 || c.Matting.MedianKernel%2 == 0 {
		return fmt.Errorf("matting.median_kernel must be odd and >= 3, got %d", c.Matting.MedianKernel)
	}
	if c.Matting.GaussianKernel < 3 || c.Matting.GaussianKernel%2 == 0 {
		return fmt.Errorf("matting.gaussian_kernel must be odd and >= 3, got %d", c.Matting.GaussianKernel)
	}
	switch c.Matting.Backend {
	case "go", "gocv":
	default:
		return fmt.Errorf("unknown matting.backend %q", c.Matting.Backend)
	}
	switch c.Classifier.Provider {
	case "cloudmersive", "gemini", "ollama":
	default:
		return fmt.Errorf("unknown classifier.provider %q", c.Classifier.Provider)
	}
	switch c.Segmenter.Backend {
	case "rembg", "grabcut":
	default:
		return fmt.Errorf("unknown segmenter.backend %q", c.Segmenter.Backend)
	}
	if c.Segmenter.MaxConcurrent <= 0 {
		return fmt.Errorf("segmenter.max_concurrent must be positive, got %d", c.Segmenter.MaxConcurrent)
	}
	return nil
}

func (c *Config) normalize() {
	if c.Server.Port != "" && !strings.Contains(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	c.Matting.Backend = strings.ToLower(strings.TrimSpace(c.Matting.Backend))
	c.Classifier.Provider = strings.ToLower(strings.TrimSpace(c.Classifier.Provider))
	c.Segmenter.Backend = strings.ToLower(strings.TrimSpace(c.Segmenter.Backend))
	if c.Classifier.Endpoint == "" {
		c.Classifier.Endpoint = defaultClassifierEndpoint(c.Classifier.Provider)
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel(c.Classifier.Provider)
	}
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":         {"PORT"},
		"server.mode":         {"GIN_MODE"},
		"classifier.provider": {"CLASSIFIER_PROVIDER"},
		"classifier.api_key":  {"CLASSIFIER_API_KEY", "CLOUDMERSIVE_API_KEY", "GEMINI_API_KEY"},
		"classifier.endpoint": {"CLASSIFIER_ENDPOINT", "OLLAMA_URL"},
		"classifier.model":    {"CLASSIFIER_MODEL"},
		"segmenter.endpoint":  {"REMBG_URL"},
		"redis.addr":          {"REDIS_ADDR"},
		"redis.password":      {"REDIS_PASSWORD"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.static_dir", "./static")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.form_field", "image")

	v.SetDefault("matting.backend", "go")
	v.SetDefault("matting.min_side", 100)
	v.SetDefault("matting.flat_threshold", 250)
	v.SetDefault("matting.median_kernel", 3)
	v.SetDefault("matting.gaussian_kernel", 5)
	v.SetDefault("matting.photo_threshold", 30)

	v.SetDefault("classifier.provider", "cloudmersive")
	v.SetDefault("classifier.endpoint", "")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.model", "")
	v.SetDefault("classifier.timeout", 15*time.Second)
	v.SetDefault("classifier.cache_ttl", 24*time.Hour)

	v.SetDefault("segmenter.backend", "rembg")
	v.SetDefault("segmenter.endpoint", "http://localhost:7000")
	v.SetDefault("segmenter.model", "isnet-general-use")
	v.SetDefault("segmenter.timeout", 60*time.Second)
	v.SetDefault("segmenter.max_concurrent", 1)
	v.SetDefault("segmenter.queue_timeout", 30*time.Second)
	v.SetDefault("segmenter.health_schedule", "@every 30s")
	v.SetDefault("segmenter.iterations", 5)
	v.SetDefault("segmenter.max_side", 1200)
}

func defaultClassifierEndpoint(provider string) string {
	switch provider {
	case "cloudmersive":
		return "https://api.cloudmersive.com/image/recognize/describe"
	case "ollama":
		return "http://localhost:11434"
	default:
		return ""
	}
}

func defaultClassifierModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-1.5-flash"
	case "ollama":
		return "llava"
	default:
		return ""
	}
}

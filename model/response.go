package model

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Segmenter SegmenterStatus `json:"segmenter"`
}

// SegmenterStatus 分割服务的最近一次探测结果
type SegmenterStatus struct {
	Ready     bool   `json:"ready"`
	CheckedAt int64  `json:"checked_at"`
	Error     string `json:"error,omitempty"`
}

// VersionResponse 构建信息
type VersionResponse struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	BuildID   string `json:"build_id"`
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
}

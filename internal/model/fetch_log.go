package model

import "time"

// FetchLog 网关请求日志
type FetchLog struct {
	ID          string    `gorm:"primaryKey;size:50" json:"id"`
	Operation   string    `gorm:"index;size:100" json:"operation"`
	Fingerprint string    `gorm:"index;size:64" json:"fingerprint"`
	Outcome     string    `gorm:"size:20" json:"outcome"` // "success" | "partial_success" | "failure"
	SubItems    int       `json:"sub_items"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	CacheHit    bool      `json:"cache_hit"`
	Latency     int64     `json:"latency"` // 延迟(毫秒)
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (FetchLog) TableName() string {
	return "fetch_logs"
}

package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsre/zenstat/internal/database"
	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/model"
)

// FetchLogService 网关请求日志服务
type FetchLogService struct {
	db *gorm.DB
}

// NewFetchLogService 创建请求日志服务
func NewFetchLogService(db *gorm.DB) *FetchLogService {
	if db == nil {
		db = database.GetDB()
	}
	return &FetchLogService{db: db}
}

// LogFetch 记录一次逻辑请求
func (s *FetchLogService) LogFetch(spec *gateway.RequestSpec, result *gateway.CanonicalResult, cacheHit bool, latency time.Duration) (*model.FetchLog, error) {
	entry := &model.FetchLog{
		ID:          uuid.NewString(),
		Operation:   spec.Operation,
		Fingerprint: spec.Fingerprint(),
		SubItems:    len(spec.Params),
		CacheHit:    cacheHit,
		Latency:     latency.Milliseconds(),
	}

	if result != nil {
		entry.Outcome = string(result.Outcome)
		entry.Succeeded = result.Succeeded
		entry.Failed = result.Failed
	} else {
		entry.Outcome = string(gateway.OutcomeFailure)
	}

	if err := s.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListFetchLogs 查询请求日志列表
func (s *FetchLogService) ListFetchLogs(operation, outcome string, limit, offset int) ([]model.FetchLog, int64, error) {
	var logs []model.FetchLog
	query := s.db.Model(&model.FetchLog{})

	if operation != "" {
		query = query.Where("operation = ?", operation)
	}
	if outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}

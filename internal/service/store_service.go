package service

import (
	"encoding/json"
	"fmt"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsre/zenstat/internal/database"
	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/model"
)

// StoreService 离线存储服务
// 把网关取回的规范化结果落进 sqlite,供后续 SQL 查询
type StoreService struct {
	db *gorm.DB
}

// NewStoreService 创建离线存储服务
func NewStoreService(db *gorm.DB) *StoreService {
	if db == nil {
		db = database.GetDB()
	}
	return &StoreService{db: db}
}

// seriesPayload 上游序列数据载荷中入库关心的字段
type seriesPayload struct {
	VectorID      int64  `json:"vectorId"`
	ProductID     int64  `json:"productId"`
	Coordinate    string `json:"coordinate"`
	SeriesTitleEn string `json:"SERIESTITLEEN"`
	FrequencyCode int    `json:"frequencyCode"`

	VectorDataPoint []struct {
		RefPer           string   `json:"refPer"`
		Value            *float64 `json:"value"`
		Decimals         int      `json:"decimals"`
		ScalarFactorCode int      `json:"scalarFactorCode"`
		SymbolCode       int      `json:"symbolCode"`
		StatusCode       int      `json:"statusCode"`
	} `json:"vectorDataPoint"`
}

// SaveSeriesResult 把一次序列数据请求的成功条目入库
// 失败条目跳过;返回入库的序列数与观测值数
func (s *StoreService) SaveSeriesResult(result *gateway.CanonicalResult) (int, int, error) {
	var seriesCount, obsCount int

	for _, item := range result.Items {
		if !item.OK() || len(item.Payload) == 0 {
			continue
		}

		var payload seriesPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			logx.Warn("Skipping unparseable series payload, item %d: %v", item.Index, err)
			continue
		}
		if payload.VectorID == 0 {
			continue
		}

		series := &model.StoredSeries{
			VectorID:      payload.VectorID,
			ProductID:     payload.ProductID,
			Coordinate:    payload.Coordinate,
			Title:         payload.SeriesTitleEn,
			FrequencyCode: payload.FrequencyCode,
		}
		// 同一向量重复入库时更新序列信息
		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vector_id"}},
			UpdateAll: true,
		}).Create(series).Error
		if err != nil {
			return seriesCount, obsCount, fmt.Errorf("failed to store series %d: %w", payload.VectorID, err)
		}
		seriesCount++

		for _, dp := range payload.VectorDataPoint {
			obs := &model.StoredObservation{
				VectorID:     payload.VectorID,
				RefPer:       dp.RefPer,
				Value:        dp.Value,
				Decimals:     dp.Decimals,
				ScalarFactor: dp.ScalarFactorCode,
				Symbol:       dp.SymbolCode,
				StatusCode:   dp.StatusCode,
			}
			err := s.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "vector_id"}, {Name: "ref_per"}},
				UpdateAll: true,
			}).Create(obs).Error
			if err != nil {
				return seriesCount, obsCount, fmt.Errorf("failed to store observation %d/%s: %w",
					payload.VectorID, dp.RefPer, err)
			}
			obsCount++
		}
	}

	logx.Info("Stored series data, series %d, observations %d", seriesCount, obsCount)
	return seriesCount, obsCount, nil
}

// Query 只读 SQL 查询透传
func (s *StoreService) Query(sqlText string) ([]map[string]any, error) {
	return database.Query(s.db, sqlText)
}

// CreateTable 按行数据建表并写入
func (s *StoreService) CreateTable(tableName string, rows []map[string]any) error {
	return database.CreateTable(s.db, tableName, rows)
}

// AppendRows 向既有表追加行
func (s *StoreService) AppendRows(tableName string, rows []map[string]any) error {
	return database.AppendRows(s.db, tableName, rows)
}

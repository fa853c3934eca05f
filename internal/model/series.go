package model

import "time"

// StoredSeries 落库的序列信息
type StoredSeries struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	VectorID      int64     `gorm:"uniqueIndex;not null" json:"vector_id"`
	ProductID     int64     `gorm:"index" json:"product_id"`
	Coordinate    string    `gorm:"size:100" json:"coordinate"`
	Title         string    `gorm:"type:text" json:"title"`
	FrequencyCode int       `json:"frequency_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (StoredSeries) TableName() string {
	return "stored_series"
}

// StoredObservation 落库的观测值
// 一条记录对应一个参考期内的一个数据点
type StoredObservation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	VectorID     int64     `gorm:"index:idx_vector_refper,unique;not null" json:"vector_id"`
	RefPer       string    `gorm:"index:idx_vector_refper,unique;size:20;not null" json:"ref_per"`
	Value        *float64  `json:"value"`
	Decimals     int       `json:"decimals"`
	ScalarFactor int       `json:"scalar_factor"`
	Symbol       int       `json:"symbol"`
	StatusCode   int       `json:"status_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (StoredObservation) TableName() string {
	return "stored_observations"
}

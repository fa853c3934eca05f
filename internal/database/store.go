package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// identPattern 合法表名/列名,防止拼接注入
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CreateTable 按首行的键建表并写入全部行
// 动态数据集落库用:列类型从值推断,表已存在时直接追加
func CreateTable(db *gorm.DB, tableName string, rows []map[string]any) error {
	if !identPattern.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q", tableName)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows to create table %s from", tableName)
	}

	columns := sortedKeys(rows[0])
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
		defs = append(defs, fmt.Sprintf("%s %s", col, columnType(rows[0][col])))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(defs, ", "))
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return AppendRows(db, tableName, rows)
}

// AppendRows 向既有表追加行
func AppendRows(db *gorm.DB, tableName string, rows []map[string]any) error {
	if !identPattern.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q", tableName)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := db.Table(tableName).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to insert rows into %s: %w", tableName, err)
	}
	return nil
}

// Query 只读查询,返回行的键值表示
// 只放行 SELECT,写语句一律拒绝
func Query(db *gorm.DB, sqlText string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(sqlText)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, fmt.Errorf("only SELECT statements are allowed")
	}

	rows, err := db.Raw(trimmed).Rows()
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// sqlite 驱动把文本列扫成 []byte,统一转字符串
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// columnType 从示例值推断 sqlite 列类型
func columnType(value any) string {
	switch value.(type) {
	case int, int32, int64, uint, uint32, uint64, bool:
		return "INTEGER"
	case float32, float64:
		return "REAL"
	default:
		return "TEXT"
	}
}

// sortedKeys 排序后的键,保证建表列顺序确定
func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package codeset 提供上游编码表的静态译码
// 这些是查表数据而非逻辑,响应格式化时按需查询
package codeset

import "fmt"

// frequencyCodes 频率编码表
var frequencyCodes = map[int]string{
	1:  "Daily",
	2:  "Weekly",
	4:  "Biweekly",
	6:  "Monthly",
	7:  "Bimonthly",
	9:  "Quarterly",
	11: "Semi-annual",
	12: "Annual",
	13: "Every 2 years",
	14: "Every 3 years",
	15: "Every 4 years",
	16: "Every 5 years",
	17: "Every 10 years",
	18: "Occasional",
	19: "Occasional quarterly",
	20: "Occasional monthly",
	21: "Occasional daily",
}

// scalarFactorCodes 数量级编码表
var scalarFactorCodes = map[int]string{
	0: "units",
	1: "tens",
	2: "hundreds",
	3: "thousands",
	4: "tens of thousands",
	5: "hundreds of thousands",
	6: "millions",
	7: "tens of millions",
	8: "hundreds of millions",
	9: "billions",
}

// symbolCodes 数据点符号编码表
var symbolCodes = map[int]string{
	0: "",
	1: "preliminary",
	2: "revised",
	3: "terminated",
}

// statusCodes 数据点状态编码表
var statusCodes = map[int]string{
	0: "normal",
	1: "data quality: excellent",
	2: "data quality: very good",
	3: "data quality: good",
	4: "data quality: acceptable",
	5: "use with caution",
	6: "too unreliable to be published",
	7: "not available for a specific reference period",
	8: "confidential",
	9: "not applicable",
}

// FrequencyLabel 频率编码译码
func FrequencyLabel(code int) string {
	return lookup(frequencyCodes, code)
}

// ScalarFactorLabel 数量级编码译码
func ScalarFactorLabel(code int) string {
	return lookup(scalarFactorCodes, code)
}

// SymbolLabel 符号编码译码
func SymbolLabel(code int) string {
	return lookup(symbolCodes, code)
}

// StatusLabel 状态编码译码
func StatusLabel(code int) string {
	return lookup(statusCodes, code)
}

// lookup 查表,未知编码返回可读的兜底文本
func lookup(table map[int]string, code int) string {
	if label, ok := table[code]; ok {
		return label
	}
	return fmt.Sprintf("unknown (%d)", code)
}

package upstream

import (
	"fmt"

	"github.com/opsre/zenstat/internal/gateway"
)

// Operation 一个上游操作的调用方式
// GET 操作将参数值拼进路径后缀,POST 操作携带参数对象的 JSON 数组
type Operation struct {
	Name string
	// Method GET 或 POST
	Method string
	// Path 相对 base URL 的路径
	Path string
	// PathParams GET 操作按序拼接到路径的参数键
	PathParams []string
	// Batchable POST 操作是否支持一次携带全部子项
	// 不支持批量输入的操作由调度器逐子项展开
	Batchable bool
	// Shape 结果形状提示,决定交付策略
	Shape gateway.ShapeHint
}

// operations 上游操作表
// 同一逻辑操作的响应形状并不稳定(单对象/状态数组/裸数组混用),
// 形状差异统一交给规范化器,这里只登记调用方式
var operations = map[string]Operation{
	"getDataFromVectorsAndLatestNPeriods": {
		Name:      "getDataFromVectorsAndLatestNPeriods",
		Method:    "POST",
		Path:      "getDataFromVectorsAndLatestNPeriods",
		Batchable: true,
		Shape:     gateway.ShapeBulk,
	},
	"getBulkVectorDataByRange": {
		Name:      "getBulkVectorDataByRange",
		Method:    "POST",
		Path:      "getBulkVectorDataByRange",
		Batchable: true,
		Shape:     gateway.ShapeBulk,
	},
	"getSeriesInfoFromVector": {
		Name:      "getSeriesInfoFromVector",
		Method:    "POST",
		Path:      "getSeriesInfoFromVector",
		Batchable: true,
		Shape:     gateway.ShapeBulk,
	},
	"getDataFromCubePidCoordAndLatestNPeriods": {
		Name:      "getDataFromCubePidCoordAndLatestNPeriods",
		Method:    "POST",
		Path:      "getDataFromCubePidCoordAndLatestNPeriods",
		Batchable: false,
		Shape:     gateway.ShapeBulk,
	},
	"getCubeMetadata": {
		Name:      "getCubeMetadata",
		Method:    "POST",
		Path:      "getCubeMetadata",
		Batchable: true,
		Shape:     gateway.ShapeHierarchical,
	},
	"getAllCubesListLite": {
		Name:   "getAllCubesListLite",
		Method: "GET",
		Path:   "getAllCubesListLite",
		Shape:  gateway.ShapeBulk,
	},
	"getAllCubesList": {
		Name:   "getAllCubesList",
		Method: "GET",
		Path:   "getAllCubesList",
		Shape:  gateway.ShapeBulk,
	},
	"getChangedSeriesList": {
		Name:       "getChangedSeriesList",
		Method:     "GET",
		Path:       "getChangedSeriesList",
		PathParams: []string{"date"},
		Shape:      gateway.ShapeBulk,
	},
	"getChangedCubeList": {
		Name:       "getChangedCubeList",
		Method:     "GET",
		Path:       "getChangedCubeList",
		PathParams: []string{"date"},
		Shape:      gateway.ShapeBulk,
	},
	"getCodeSets": {
		Name:   "getCodeSets",
		Method: "GET",
		Path:   "getCodeSets",
		Shape:  gateway.ShapeSingle,
	},
}

// Lookup 查询操作定义
func Lookup(name string) (Operation, error) {
	op, ok := operations[name]
	if !ok {
		return Operation{}, fmt.Errorf("unknown upstream operation %s", name)
	}
	return op, nil
}

// Operations 列出所有已登记的操作名
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	return names
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/opsre/zenstat/internal/codeset"
	"github.com/opsre/zenstat/internal/gateway"
)

var (
	seriesVectors    string
	seriesLatestN    int
	seriesOffset     int
	seriesLimit      int
	seriesOutputType string
)

// seriesCmd 序列查询命令组
var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "查询向量序列",
	Long:  `按向量 ID 查询序列数据和序列信息。`,
}

// seriesDataCmd 查询序列数据
var seriesDataCmd = &cobra.Command{
	Use:   "data",
	Short: "查询序列最近 N 期数据",
	Long:  `查询一个或多个向量的最近 N 期数据,超出预算的部分按 offset/limit 分页。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vectors, err := parseVectorFlag(seriesVectors)
		if err != nil {
			return err
		}

		gw, _ := buildGateway(cfg, nil)

		limit := seriesLimit
		if limit <= 0 {
			limit = gw.Engine().DefaultLimit()
		}

		params := make([]map[string]any, len(vectors))
		for i, v := range vectors {
			params[i] = map[string]any{"vectorId": v, "latestN": seriesLatestN}
		}

		view, _, err := gw.Fetch(context.Background(), &gateway.RequestSpec{
			Operation: "getDataFromVectorsAndLatestNPeriods",
			Params:    params,
			Shape:     gateway.ShapeBulk,
		}, gateway.Budget{Offset: seriesOffset, Limit: limit})
		if err != nil {
			return fmt.Errorf("failed to fetch series data: %w", err)
		}

		if seriesOutputType == "json" {
			data, _ := json.MarshalIndent(view, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		// 使用 lipgloss/table 表格输出
		rows := [][]string{}
		for _, record := range decodeSeriesRecords(view.Preview) {
			for _, dp := range record.VectorDataPoint {
				value := ""
				if dp.Value != nil {
					value = strconv.FormatFloat(*dp.Value, 'f', -1, 64)
				}
				rows = append(rows, []string{
					strconv.FormatInt(record.VectorID, 10),
					dp.RefPer,
					value,
					codeset.ScalarFactorLabel(dp.ScalarFactorCode),
					codeset.SymbolLabel(dp.SymbolCode),
				})
			}
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Vector", "Ref Period", "Value", "Scalar", "Symbol").
			Rows(rows...)

		fmt.Println(t)
		fmt.Println()
		printViewFooter(view)
		return nil
	},
}

// seriesInfoCmd 查询序列信息
var seriesInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "查询序列信息",
	Long:  `查询向量对应的序列标题、坐标和频率等信息。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vectors, err := parseVectorFlag(seriesVectors)
		if err != nil {
			return err
		}

		gw, _ := buildGateway(cfg, nil)

		params := make([]map[string]any, len(vectors))
		for i, v := range vectors {
			params[i] = map[string]any{"vectorId": v}
		}

		view, _, err := gw.Fetch(context.Background(), &gateway.RequestSpec{
			Operation: "getSeriesInfoFromVector",
			Params:    params,
			Shape:     gateway.ShapeBulk,
		}, gateway.Budget{Limit: len(vectors)})
		if err != nil {
			return fmt.Errorf("failed to fetch series info: %w", err)
		}

		data, _ := json.MarshalIndent(view, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

// seriesRecord 序列数据记录,字段与上游载荷对应
type seriesRecord struct {
	VectorID        int64 `json:"vectorId"`
	VectorDataPoint []struct {
		RefPer           string   `json:"refPer"`
		Value            *float64 `json:"value"`
		ScalarFactorCode int      `json:"scalarFactorCode"`
		SymbolCode       int      `json:"symbolCode"`
	} `json:"vectorDataPoint"`
}

// decodeSeriesRecords 把有界视图里的记录解码成序列结构
// 解不开的记录跳过,表格输出容忍个别坏记录
func decodeSeriesRecords(preview json.RawMessage) []seriesRecord {
	var raw []json.RawMessage
	if err := json.Unmarshal(preview, &raw); err != nil {
		return nil
	}

	records := make([]seriesRecord, 0, len(raw))
	for _, element := range raw {
		var record seriesRecord
		if err := json.Unmarshal(element, &record); err != nil {
			logx.Debug("Skipping undecodable record: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records
}

// parseVectorFlag 解析逗号分隔的向量 ID
func parseVectorFlag(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	vectors := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimPrefix(strings.TrimSpace(part), "v")
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector id: %q", part)
		}
		vectors = append(vectors, v)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vector id given, use --vectors 32164132,32164133")
	}
	return vectors, nil
}

// printViewFooter 输出截断与续取信息
func printViewFooter(view *gateway.BoundedView) {
	if view.Truncated && view.Guidance != "" {
		fmt.Println(view.Guidance)
	}
	logx.Info("Query completed, outcome %s, truncated %v", view.Outcome, view.Truncated)
}

func init() {
	seriesCmd.PersistentFlags().StringVar(&seriesVectors, "vectors", "", "向量 ID,逗号分隔")
	seriesDataCmd.Flags().IntVar(&seriesLatestN, "latest-n", 10, "每个向量取最近几期")
	seriesDataCmd.Flags().IntVar(&seriesOffset, "offset", 0, "分页起点")
	seriesDataCmd.Flags().IntVar(&seriesLimit, "limit", 0, "本页条数,0 表示取配置默认值")
	seriesDataCmd.Flags().StringVarP(&seriesOutputType, "output", "o", "table", "输出格式 (table/json)")

	seriesCmd.AddCommand(seriesDataCmd)
	seriesCmd.AddCommand(seriesInfoCmd)
	queryCmd.AddCommand(seriesCmd)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/opsre/zenstat/internal/gateway"
)

var (
	cubeKeyword    string
	cubeOffset     int
	cubeLimit      int
	cubeMemberCap  int
	cubeOutputType string
)

// cubeCmd 数据立方查询命令组
var cubeCmd = &cobra.Command{
	Use:   "cube",
	Short: "查询数据立方",
	Long:  `查询数据立方列表和维度/成员元数据。`,
}

// cubeListCmd 列出数据立方
var cubeListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出数据立方",
	Long:  `列出数据立方,可按标题关键词过滤。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, _ := buildGateway(cfg, nil)

		limit := cubeLimit
		if limit <= 0 {
			limit = gw.Engine().DefaultLimit()
		}

		view, _, err := gw.Fetch(context.Background(), &gateway.RequestSpec{
			Operation: "getAllCubesListLite",
			Shape:     gateway.ShapeBulk,
		}, gateway.Budget{Offset: cubeOffset, Limit: limit})
		if err != nil {
			return fmt.Errorf("failed to fetch cube list: %w", err)
		}

		if cubeOutputType == "json" {
			data, _ := json.MarshalIndent(view, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		// 使用 lipgloss/table 表格输出
		rows := [][]string{}
		for _, cube := range decodeCubeRecords(view.Preview) {
			if cubeKeyword != "" && !strings.Contains(strings.ToLower(cube.CubeTitleEn), strings.ToLower(cubeKeyword)) {
				continue
			}
			rows = append(rows, []string{
				strconv.FormatInt(cube.ProductID, 10),
				cube.CubeTitleEn,
				cube.CubeStartDate,
				cube.CubeEndDate,
			})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Product ID", "Title", "Start", "End").
			Rows(rows...)

		fmt.Println(t)
		fmt.Println()
		printViewFooter(view)
		return nil
	},
}

// cubeMetadataCmd 查询数据立方元数据
var cubeMetadataCmd = &cobra.Command{
	Use:   "metadata <product-id>",
	Short: "查询数据立方元数据",
	Long:  `查询数据立方的维度/成员元数据树,超长成员列表会按上限截短。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id: %q", args[0])
		}

		gw, _ := buildGateway(cfg, nil)

		view, _, err := gw.Fetch(context.Background(), &gateway.RequestSpec{
			Operation: "getCubeMetadata",
			Params:    []map[string]any{{"productId": product}},
			Shape:     gateway.ShapeHierarchical,
		}, gateway.Budget{MemberCap: cubeMemberCap})
		if err != nil {
			return fmt.Errorf("failed to fetch cube metadata: %w", err)
		}

		data, _ := json.MarshalIndent(view, "", "  ")
		fmt.Println(string(data))
		return nil
	},
}

// cubeRecord 数据立方列表记录
type cubeRecord struct {
	ProductID     int64  `json:"productId"`
	CubeTitleEn   string `json:"cubeTitleEn"`
	CubeStartDate string `json:"cubeStartDate"`
	CubeEndDate   string `json:"cubeEndDate"`
}

// decodeCubeRecords 把有界视图里的记录解码成立方结构
func decodeCubeRecords(preview json.RawMessage) []cubeRecord {
	var records []cubeRecord
	if err := json.Unmarshal(preview, &records); err != nil {
		return nil
	}
	return records
}

func init() {
	cubeListCmd.Flags().StringVar(&cubeKeyword, "keyword", "", "标题关键词")
	cubeListCmd.Flags().IntVar(&cubeOffset, "offset", 0, "分页起点")
	cubeListCmd.Flags().IntVar(&cubeLimit, "limit", 0, "本页条数,0 表示取配置默认值")
	cubeListCmd.Flags().StringVarP(&cubeOutputType, "output", "o", "table", "输出格式 (table/json)")
	cubeMetadataCmd.Flags().IntVar(&cubeMemberCap, "member-cap", 0, "每个列表字段保留的最大成员数,0 表示取配置默认值")

	cubeCmd.AddCommand(cubeListCmd)
	cubeCmd.AddCommand(cubeMetadataCmd)
	queryCmd.AddCommand(cubeCmd)
}

package model

// Response 通用响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PageInfo 分页信息
type PageInfo struct {
	Offset         int  `json:"offset"`
	Limit          int  `json:"limit"`
	TotalAvailable int  `json:"total_available"`
	Truncated      bool `json:"truncated"`
}

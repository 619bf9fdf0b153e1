package dto

// 列表接口的分页约定
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationRequest 列表分页参数，嵌入各列表查询请求
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码，缺省为 1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 每页条数；未经绑定校验构造的请求也不会超过 MaxPageSize
func (p *PaginationRequest) GetPageSize() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// GetOffset 当前页首条记录的偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Window 仓储查询用的 offset / limit
func (p *PaginationRequest) Window() (offset, limit int) {
	return p.GetOffset(), p.GetPageSize()
}

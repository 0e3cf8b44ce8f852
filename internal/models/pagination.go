package models

// Pagination describes paging metadata returned in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes page counts from totals.
func NewPagination(page, pageSize, totalItems int) *Pagination {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		totalPages++
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalItems: totalItems, TotalPages: totalPages}
}

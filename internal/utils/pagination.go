package utils

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a validated 1-based page request.
type Page struct {
	Page int
	Size int
}

// ParsePage reads page/size query values, applying defaults and clamping
// size to MaxPageSize.
func ParsePage(pageRaw, sizeRaw string) Page {
	p := Page{Page: DefaultPage, Size: DefaultPageSize}
	if n, err := strconv.Atoi(strings.TrimSpace(pageRaw)); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(sizeRaw)); err == nil && n >= 1 {
		p.Size = n
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.Size }

// Paged is the list envelope used by every paginated endpoint.
type Paged[T any] struct {
	Content       []T    `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Sort          string `json:"sort,omitempty"`
}

// NewPaged assembles a Paged value. A nil slice is rendered as [].
func NewPaged[T any](items []T, p Page, total int64, sort string) Paged[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Size)))
	}
	return Paged[T]{
		Content:       items,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    pages,
		Sort:          sort,
	}
}

// Sort is a resolved ORDER BY clause.
type Sort struct {
	Column string
	Desc   bool
	Label  string
}

// Clause renders the sort for gorm's Order.
func (s Sort) Clause() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// ParseSort resolves "field,dir" against allowed (API field -> column).
// Unknown fields fall back to def; dir defaults to desc.
func ParseSort(raw string, allowed map[string]string, def string) Sort {
	field, dir, _ := strings.Cut(strings.TrimSpace(raw), ",")
	field = strings.TrimSpace(field)
	col, ok := allowed[field]
	if !ok {
		field = def
		col = allowed[def]
	}
	desc := !strings.EqualFold(strings.TrimSpace(dir), "asc")
	label := field + ",desc"
	if !desc {
		label = field + ",asc"
	}
	return Sort{Column: col, Desc: desc, Label: label}
}

// Package defect 缺陷代码目录（只读参考数据）
package defect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
)

// CategoryAll 伪分类：全部缺陷
const CategoryAll = "all"

// 缺陷分类
const (
	CategoryAppearance  = "外观类"
	CategoryDimension   = "尺寸类"
	CategoryPerformance = "性能类"
	CategoryAssembly    = "装配类"
	CategoryElectrical  = "电气类"
)

// Categories lists the named categories in display order.
var Categories = []string{
	CategoryAppearance,
	CategoryDimension,
	CategoryPerformance,
	CategoryAssembly,
	CategoryElectrical,
}

// ErrUnknownDefect 缺陷代码不存在
var ErrUnknownDefect = errors.New("unknown defect code")

// Code 缺陷代码
type Code struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CategoryCount 分类及缺陷数量
type CategoryCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Catalog is an immutable defect lookup table.
type Catalog struct {
	codes []Code
	byID  map[string]Code
}

func NewCatalog(codes []Code) *Catalog {
	c := &Catalog{
		codes: append([]Code{}, codes...),
		byID:  make(map[string]Code, len(codes)),
	}
	for _, d := range codes {
		c.byID[d.ID] = d
	}
	return c
}

// Categories returns "all" followed by every named category with its size.
// Categories found in the data but not in the fixed list are appended last.
func (c *Catalog) Categories() []CategoryCount {
	counts := make(map[string]int)
	for _, d := range c.codes {
		counts[d.Category]++
	}
	out := []CategoryCount{{Key: CategoryAll, Count: len(c.codes)}}
	seen := make(map[string]bool)
	for _, cat := range Categories {
		out = append(out, CategoryCount{Key: cat, Count: counts[cat]})
		seen[cat] = true
	}
	for _, d := range c.codes {
		if !seen[d.Category] {
			out = append(out, CategoryCount{Key: d.Category, Count: counts[d.Category]})
			seen[d.Category] = true
		}
	}
	return out
}

// Filter 按分类和关键字过滤，关键字匹配名称或代码（不区分大小写）
func (c *Catalog) Filter(category, keyword string) []Code {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	out := []Code{}
	for _, d := range c.codes {
		if category != "" && category != CategoryAll && d.Category != category {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(d.Name), keyword) &&
			!strings.Contains(strings.ToLower(d.Code), keyword) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Find 根据ID查找缺陷
func (c *Catalog) Find(id string) (Code, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Selection 缺陷选择请求项
type Selection struct {
	DefectID string `json:"defect_id" binding:"required"`
	Count    int    `json:"count"`
}

// Resolve turns catalog ids and counts into selected defects. A missing count
// means 1; unknown ids are rejected.
func (c *Catalog) Resolve(sel []Selection) ([]engine.SelectedDefect, error) {
	out := make([]engine.SelectedDefect, 0, len(sel))
	for _, s := range sel {
		d, ok := c.byID[s.DefectID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDefect, s.DefectID)
		}
		count := s.Count
		if count == 0 {
			count = 1
		}
		out = append(out, engine.SelectedDefect{
			DefectID: d.ID,
			Code:     d.Code,
			Name:     d.Name,
			Category: d.Category,
			Count:    count,
		})
	}
	return out, nil
}

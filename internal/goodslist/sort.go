package goodslist

import (
	"cmp"
	"slices"
	"strings"

	"github.com/iurnickita/goodsreserv/internal/model"
)

// SortField колонка сортировки
type SortField string

const (
	SortNone     SortField = ""
	SortID       SortField = "id"
	SortName     SortField = "name"
	SortCategory SortField = "category"
	SortArticle  SortField = "article"
	SortURL      SortField = "url"
	SortPrice    SortField = "price"
	SortActive   SortField = "is_active"
)

func (f SortField) Valid() bool {
	switch f {
	case SortNone, SortID, SortName, SortCategory, SortArticle, SortURL, SortPrice, SortActive:
		return true
	default:
		return false
	}
}

type Sort struct {
	Field SortField
	Desc  bool
}

// SortBy сортировка по колонке; повторный выбор той же колонки меняет направление
func (e *Engine) SortBy(field SortField) Sort {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sort.Field == field {
		e.sort.Desc = !e.sort.Desc
	} else {
		e.sort = Sort{Field: field}
	}
	return e.sort
}

// sortedLocked копия списка в порядке сортировки; равные остаются в порядке загрузки
func (e *Engine) sortedLocked() []model.Goods {
	items := slices.Clone(e.items)
	if e.sort.Field == SortNone {
		return items
	}
	slices.SortStableFunc(items, func(a, b model.Goods) int {
		c := compare(e.sort.Field, a, b)
		if e.sort.Desc {
			return -c
		}
		return c
	})
	return items
}

func compare(field SortField, a, b model.Goods) int {
	switch field {
	case SortID:
		return cmp.Compare(a.ID, b.ID)
	case SortName:
		return compareText(a.Name, b.Name)
	case SortCategory:
		return compareText(categoryName(a), categoryName(b))
	case SortArticle:
		return compareText(a.Article, b.Article)
	case SortURL:
		return compareText(a.URL, b.URL)
	case SortPrice:
		return cmp.Compare(a.Price, b.Price)
	case SortActive:
		return compareBool(a.IsActive, b.IsActive)
	default:
		return 0
	}
}

func compareText(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func categoryName(g model.Goods) string {
	if g.Category == nil {
		return ""
	}
	return g.Category.Name
}

package calendar

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest: номер страницы с 1 и её размер. Нули заменяются дефолтами.
type PageRequest struct {
	Page int
	Size int
}

func (r PageRequest) normalized() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	switch {
	case r.Size <= 0:
		r.Size = DefaultPageSize
	case r.Size > MaxPageSize:
		r.Size = MaxPageSize
	}
	return r
}

// Page — срез выборки и её общий размер.
type Page[T any] struct {
	PageRequest
	Items []T
	Total int
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }

func (p Page[T]) HasNext() bool { return p.Page*p.Size < p.Total }

// Paginate вырезает страницу из уже упорядоченной выборки.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	req = req.normalized()
	total := len(items)

	lo := min((req.Page-1)*req.Size, total)
	hi := min(lo+req.Size, total)

	return Page[T]{PageRequest: req, Items: items[lo:hi], Total: total}
}

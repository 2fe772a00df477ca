package shared

// Filter selects one page of a listing. Filters holds column equality
// matches; each repository decides which keys it honours.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// DefaultFilter is the first page of 20, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20, OrderBy: "created_at", OrderDir: "desc", Filters: map[string]any{}}
}

func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.PageSize
}

// Match returns the string match for key, or "" when unset
func (f Filter) Match(key string) string {
	s, _ := f.Filters[key].(string)
	return s
}

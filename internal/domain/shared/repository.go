package shared

// Filter carries the pagination and ordering options list queries accept.
// OrderBy is validated against a per-table column whitelist at the repository
// layer before it reaches SQL.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Offset converts the 1-based page into a row offset.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

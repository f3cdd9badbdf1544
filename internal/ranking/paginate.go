package ranking

// ページングのデフォルト値
const (
	DefaultPageSize        = 15
	DefaultCandidateWindow = 600
)

// Page はページングの結果。
type Page[T any] struct {
	Items     []T
	PageIndex int
	PageSize  int
	Total     int
	// HasMore はスライス終端が総件数未満の場合にtrue。
	HasMore bool
}

// Paginate はソート済みの集合から [pageIndex*pageSize, (pageIndex+1)*pageSize) を切り出す。
// 同じ集合に対して0..kページを連結すると、重複も欠落もなく min((k+1)*pageSize, 総件数) 件になる。
func Paginate[T any](items []T, pageSize, pageIndex int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	total := len(items)
	start := min(pageIndex*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:     items[start:end],
		PageIndex: pageIndex,
		PageSize:  pageSize,
		Total:     total,
		HasMore:   end < total,
	}
}

// CandidateWindow はソート前に取得する候補集合の件数を返す。
// ページ番号によらず一定で、全ページが同じ集合の上でランク付けされる。
// window件を超える候補は一覧に現れず、最終ページのHasMoreはfalseになる。
func CandidateWindow(window int) int {
	if window <= 0 {
		return DefaultCandidateWindow
	}
	return window
}

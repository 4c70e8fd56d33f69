package sitemap

// VisitedSet records sitemap URLs already fetched during one discovery.
// It is not safe for concurrent use.
type VisitedSet struct {
	seen  map[string]struct{}
	order []string
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Contains reports whether url was added.
func (v *VisitedSet) Contains(url string) bool {
	_, ok := v.seen[url]
	return ok
}

// Add inserts url and reports whether it was new.
func (v *VisitedSet) Add(url string) bool {
	if v.Contains(url) {
		return false
	}
	v.seen[url] = struct{}{}
	v.order = append(v.order, url)
	return true
}

// Len is the number of visited URLs.
func (v *VisitedSet) Len() int {
	return len(v.order)
}

// URLs returns the visited URLs in visit order.
func (v *VisitedSet) URLs() []string {
	return append([]string(nil), v.order...)
}

package models

// Page is a resolved window over an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// PageIndex converts a from/size pair into a page number. from is not a row
// offset: any value in [k*size, (k+1)*size) selects page k.
func PageIndex(from, size int) int {
	if from > 0 && size > 0 {
		return from / size
	}
	return 0
}

// NewPage builds the offset/limit window for from/size.
func NewPage(from, size int) Page {
	return Page{Offset: PageIndex(from, size) * size, Limit: size}
}

package models

// PageRequest is a zero-based page window request. The store computes the
// window; the query service passes the resulting metadata through unmodified.
type PageRequest struct {
	Number int
	Size   int
}

// Offset returns the first element index of the requested window.
func (r PageRequest) Offset() int {
	return r.Number * r.Size
}

// Page is one window of complaints plus the metadata the store produced.
type Page struct {
	Content       []*Complaint
	TotalElements int64
	TotalPages    int
	Number        int
	Size          int
}

// NewPage assembles a page from a window's content and the total match count.
func NewPage(content []*Complaint, total int64, req PageRequest) *Page {
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        req.Number,
		Size:          req.Size,
	}
}

package models

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Page describes one slice of a paginated listing.
type Page struct {
	Number     int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Offset is the number of rows preceding this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Paginate clamps page to at least 1 and always reports one or more pages.
func Paginate(total, page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return Page{
		Number:     page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

package domain

// Book is a catalog entry. Availability is owned by the library service.
type Book struct {
	ID         int64  `json:"id,omitzero"`
	BookName   string `json:"bookName"`
	Author     string `json:"author"`
	Copies     int    `json:"copies,omitzero"`
	IsIssued   bool   `json:"isIssued"`
	IssuedDate Date   `json:"issuedDate,omitzero"`
	ReturnDate Date   `json:"returnDate,omitzero"`
}

// Available reports whether the service marks the book as on the shelf.
func (b Book) Available() bool {
	return !b.IsIssued
}

// BookInput is the add/edit book form.
type BookInput struct {
	BookName string `json:"bookName" validate:"notblank,max=200"`
	Author   string `json:"author" validate:"notblank,max=120"`
	Copies   int    `json:"copies,omitzero" validate:"gte=0,lte=10000"`
}

// Apply returns b with the editable fields replaced by in.
func (in BookInput) Apply(b Book) Book {
	b.BookName = in.BookName
	b.Author = in.Author
	if in.Copies > 0 {
		b.Copies = in.Copies
	}
	return b
}

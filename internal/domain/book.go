package domain

// Book represents a single copy of a title in the catalog.
// Availability is the one piece of mutable state the loan and reservation
// engines react to: false means the copy is currently out on loan.
type Book struct {
	// ID is the unique identifier for the book (auto-generated).
	ID int64 `json:"id"`

	// Title of the book.
	Title string `json:"title"`

	// Author of the book.
	Author string `json:"author"`

	// ISBN is the international standard book number.
	ISBN string `json:"isbn"`

	// Genre classifies the book for catalog searches.
	Genre string `json:"genre"`

	// Edition of this printing, if known.
	Edition string `json:"edition"`

	// Publisher of this printing.
	Publisher string `json:"publisher"`

	// PublicationYear is the year of publication.
	PublicationYear int `json:"publicationYear"`

	// Available is true when the book can be issued.
	// Only the loan engine flips this flag.
	Available bool `json:"available"`
}

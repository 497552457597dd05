package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRolePatron        UserRole = "PATRON"
	UserRoleLibrarian     UserRole = "LIBRARIAN"
	UserRoleAdministrator UserRole = "ADMINISTRATOR"
)

type ItemKind string

const (
	ItemKindFictionBook    ItemKind = "FICTION_BOOK"
	ItemKindNonFictionBook ItemKind = "NONFICTION_BOOK"
	ItemKindMagazine       ItemKind = "MAGAZINE"
	ItemKindMovie          ItemKind = "MOVIE"
	ItemKindVideoGame      ItemKind = "VIDEO_GAME"
)

type ItemStatus string

const (
	ItemStatusAvailable  ItemStatus = "AVAILABLE"
	ItemStatusCheckedOut ItemStatus = "CHECKED_OUT"
)

type User struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Role UserRole  `gorm:"type:user_role;not null" json:"role"`
}

// Item is a single circulating copy in the catalogue. Kind-specific attributes
// are nullable columns; which ones are set depends on Kind.
type Item struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind            ItemKind   `gorm:"type:item_kind;not null;index" json:"kind"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Creator         string     `gorm:"size:255;not null" json:"creator"`
	PublicationYear int        `gorm:"not null" json:"publication_year"`
	Dewey           *string    `gorm:"size:32" json:"dewey,omitempty"`
	ISBN            *string    `gorm:"size:32" json:"isbn,omitempty"`
	IssueNumber     *int       `json:"issue_number,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Genre           *string    `gorm:"size:64" json:"genre,omitempty"`
	Rating          *string    `gorm:"size:16" json:"rating,omitempty"`
	Status          ItemStatus `gorm:"type:item_status;not null;index" json:"status"`
}

// Loan is an active loan; at most one exists per item at any time. Returned
// loans are deleted rather than kept as history.
type Loan struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"item_id"`
	Item         Item      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	PatronID     uuid.UUID `gorm:"type:uuid;not null;index" json:"patron_id"`
	Patron       User      `gorm:"foreignKey:PatronID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CheckoutDate time.Time `gorm:"not null" json:"checkout_date"`
	DueDate      time.Time `gorm:"not null" json:"due_date"`
}

// Hold is an entry in an item's FIFO queue. Queue position is never stored:
// order is (created_at, id) and positions are computed when read.
type Hold struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_hold_item_patron,unique" json:"item_id"`
	Item      Item      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PatronID  uuid.UUID `gorm:"type:uuid;not null;index:idx_hold_item_patron,unique" json:"patron_id"`
	Patron    User      `gorm:"foreignKey:PatronID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

// TypeName returns the human-readable kind label shown in the catalogue.
func (i *Item) TypeName() string {
	switch i.Kind {
	case ItemKindFictionBook:
		return "Fiction Book"
	case ItemKindNonFictionBook:
		return "Non-Fiction Book"
	case ItemKindMagazine:
		return "Magazine"
	case ItemKindMovie:
		return "Movie"
	case ItemKindVideoGame:
		return "Video Game"
	default:
		return string(i.Kind)
	}
}

// DetailsSummary formats the kind-specific attributes for catalogue display.
func (i *Item) DetailsSummary() string {
	var parts []string
	switch i.Kind {
	case ItemKindFictionBook, ItemKindNonFictionBook:
		if i.Dewey != nil {
			parts = append(parts, "Dewey "+*i.Dewey)
		}
		if i.ISBN != nil {
			parts = append(parts, "ISBN "+*i.ISBN)
		}
	case ItemKindMagazine:
		if i.IssueNumber != nil {
			parts = append(parts, fmt.Sprintf("Issue %d", *i.IssueNumber))
		}
		if i.PublicationDate != nil {
			parts = append(parts, i.PublicationDate.Format("2006-01-02"))
		}
	case ItemKindMovie, ItemKindVideoGame:
		if i.Genre != nil {
			parts = append(parts, *i.Genre)
		}
		if i.Rating != nil {
			parts = append(parts, "Rated "+*i.Rating)
		}
	}
	if len(parts) == 0 {
		return i.TypeName()
	}
	return i.TypeName() + ": " + strings.Join(parts, ", ")
}

package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hinlibs/internal/models"
	"hinlibs/internal/repositories"
)

// ItemInput carries the fields of a new catalogue record. Optional fields are
// read per kind; the rest are ignored.
type ItemInput struct {
	Kind            models.ItemKind
	Title           string
	Creator         string
	PublicationYear int

	Dewey           *string
	ISBN            *string
	IssueNumber     *int
	PublicationDate *time.Time
	Genre           *string
	Rating          *string
}

// CatalogService covers catalogue maintenance and display: simple validated
// writes gated on the Librarian role, plus the read surface the presentation
// layer uses for listings and login lookups.
type CatalogService interface {
	AddItem(librarianID uuid.UUID, input ItemInput) (*models.Item, error)
	RemoveItem(librarianID, itemID uuid.UUID) error
	ListItems() ([]models.Item, error)
	GetItem(itemID uuid.UUID) (*models.Item, error)
	FindUserByName(name string) (*models.User, error)
}

type catalogService struct {
	db       TxManager
	userRepo repositories.UserRepository
	itemRepo repositories.ItemRepository
	loanRepo repositories.LoanRepository
	holdRepo repositories.HoldRepository
}

// NewCatalogService wires up all dependencies and returns a CatalogService.
func NewCatalogService(
	db TxManager,
	userRepo repositories.UserRepository,
	itemRepo repositories.ItemRepository,
	loanRepo repositories.LoanRepository,
	holdRepo repositories.HoldRepository,
) CatalogService {
	return &catalogService{
		db:       db,
		userRepo: userRepo,
		itemRepo: itemRepo,
		loanRepo: loanRepo,
		holdRepo: holdRepo,
	}
}

// AddItem creates a catalogue record. New items start Available.
func (s *catalogService) AddItem(librarianID uuid.UUID, input ItemInput) (*models.Item, error) {
	if err := s.requireLibrarian(librarianID); err != nil {
		return nil, err
	}
	if err := validateItemInput(input); err != nil {
		return nil, err
	}

	item := &models.Item{
		Kind:            input.Kind,
		Title:           input.Title,
		Creator:         input.Creator,
		PublicationYear: input.PublicationYear,
		Status:          models.ItemStatusAvailable,
	}
	switch input.Kind {
	case models.ItemKindFictionBook, models.ItemKindNonFictionBook:
		item.Dewey = input.Dewey
		item.ISBN = input.ISBN
	case models.ItemKindMagazine:
		item.IssueNumber = input.IssueNumber
		item.PublicationDate = input.PublicationDate
	case models.ItemKindMovie, models.ItemKindVideoGame:
		item.Genre = input.Genre
		item.Rating = input.Rating
	}

	if err := s.itemRepo.Create(nil, item); err != nil {
		log.Printf("[ERROR] AddItem: failed to create item %q: %v", input.Title, err)
		return nil, persistenceErr(err)
	}
	log.Printf("[INFO] AddItem: librarian %s added %s %q (id=%s)", librarianID, item.TypeName(), item.Title, item.ID)
	return item, nil
}

// RemoveItem deletes a catalogue record. An item may only be removed while it
// is Available and its hold queue is empty.
func (s *catalogService) RemoveItem(librarianID, itemID uuid.UUID) error {
	if err := s.requireLibrarian(librarianID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.GetByIDForUpdate(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return persistenceErr(err)
		}
		if item.Status != models.ItemStatusAvailable {
			return ErrItemInCirculation
		}
		queued, err := s.holdRepo.CountForItem(tx, itemID)
		if err != nil {
			return persistenceErr(err)
		}
		if queued > 0 {
			return ErrItemInCirculation
		}

		if err := s.itemRepo.Delete(tx, itemID); err != nil {
			return persistenceErr(err)
		}
		log.Printf("[INFO] RemoveItem: librarian %s removed item %s (%q)", librarianID, itemID, item.Title)
		return nil
	})
}

// ListItems returns the whole catalogue.
func (s *catalogService) ListItems() ([]models.Item, error) {
	items, err := s.itemRepo.List(nil)
	if err != nil {
		return nil, persistenceErr(err)
	}
	return items, nil
}

// GetItem returns a single catalogue record.
func (s *catalogService) GetItem(itemID uuid.UUID) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(nil, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, persistenceErr(err)
	}
	return item, nil
}

// FindUserByName looks up a user by exact display name. The presentation
// layer uses this as its login lookup.
func (s *catalogService) FindUserByName(name string) (*models.User, error) {
	user, err := s.userRepo.GetByName(nil, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceErr(err)
	}
	return user, nil
}

func (s *catalogService) requireLibrarian(librarianID uuid.UUID) error {
	user, err := s.userRepo.GetByID(nil, librarianID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return persistenceErr(err)
	}
	if user.Role != models.UserRoleLibrarian {
		return ErrNotALibrarian
	}
	return nil
}

func validateItemInput(input ItemInput) error {
	switch input.Kind {
	case models.ItemKindFictionBook, models.ItemKindNonFictionBook,
		models.ItemKindMagazine, models.ItemKindMovie, models.ItemKindVideoGame:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, input.Kind)
	}
	if input.Title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidItem)
	}
	if input.Creator == "" {
		return fmt.Errorf("%w: creator must not be empty", ErrInvalidItem)
	}
	if input.PublicationYear <= 0 {
		return fmt.Errorf("%w: publication year must be positive", ErrInvalidItem)
	}
	return nil
}

package services

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hinlibs/internal/models"
	"hinlibs/internal/repositories"
)

// ─── Circulation Constants ────────────────────────────────────────────────────

const (
	// LoanPeriodDays is the fixed loan period; dueDate = checkoutDate + LoanPeriodDays.
	LoanPeriodDays = 14

	// MaxActiveLoans is the maximum number of simultaneous active loans per patron.
	MaxActiveLoans = 3
)

// ─── Service Interface ────────────────────────────────────────────────────────

// AccountLoan is a patron-facing summary of one active loan.
type AccountLoan struct {
	ItemID        uuid.UUID `json:"item_id"`
	Title         string    `json:"title"`
	DueDate       time.Time `json:"due_date"`
	DaysRemaining int       `json:"days_remaining"` // negative when overdue
}

// AccountHold is a patron-facing summary of one queued hold.
type AccountHold struct {
	ItemID        uuid.UUID `json:"item_id"`
	Title         string    `json:"title"`
	QueuePosition int       `json:"queue_position"` // 1-based
}

// CirculationService owns the circulation state transitions: who may borrow
// what, for how long, and who is queued to receive an item next.
//
// Hold eligibility uses the richer rule: a hold may be placed while the item
// is checked out, or while it is available but already has queued holds. The
// stricter "checked out only" variant is a documented alternative policy, not
// implemented here.
type CirculationService interface {
	Borrow(patronID, itemID uuid.UUID) (*models.Loan, error)
	Return(patronID, itemID uuid.UUID) error
	PlaceHold(patronID, itemID uuid.UUID) (*models.Hold, error)
	CancelHold(patronID, itemID uuid.UUID) error

	AccountLoans(patronID uuid.UUID, today time.Time) ([]AccountLoan, error)
	AccountHolds(patronID uuid.UUID) ([]AccountHold, error)
}

// TxManager runs a function inside one transaction; *gorm.DB satisfies it.
// Every mutating operation executes as a single atomic unit through it.
type TxManager interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// ─── Implementation ───────────────────────────────────────────────────────────

type circulationService struct {
	db       TxManager
	userRepo repositories.UserRepository
	itemRepo repositories.ItemRepository
	loanRepo repositories.LoanRepository
	holdRepo repositories.HoldRepository
}

// NewCirculationService wires up all dependencies and returns a CirculationService.
func NewCirculationService(
	db TxManager,
	userRepo repositories.UserRepository,
	itemRepo repositories.ItemRepository,
	loanRepo repositories.LoanRepository,
	holdRepo repositories.HoldRepository,
) CirculationService {
	return &circulationService{
		db:       db,
		userRepo: userRepo,
		itemRepo: itemRepo,
		loanRepo: loanRepo,
		holdRepo: holdRepo,
	}
}

// ─── Borrow ───────────────────────────────────────────────────────────────────

// Borrow checks an item out to a patron.
//
// Preconditions, in order (the first failing check aborts with no side effects):
//  1. patronID resolves to a user with the Patron role.
//  2. itemID resolves to an existing item (row locked for the transaction).
//  3. The patron has fewer than MaxActiveLoans active loans.
//  4. The item is Available.
//  5. If the hold queue is non-empty, the patron must be at its head; their
//     hold is consumed as part of the borrow.
//  6. The patron has no active loan on this item.
//
// On success the item is CheckedOut and exactly one active loan exists for it,
// due LoanPeriodDays from today. Status update, loan insert and hold delete
// commit together or not at all.
func (s *circulationService) Borrow(patronID, itemID uuid.UUID) (*models.Loan, error) {
	var loan *models.Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		patron, err := s.requirePatron(tx, patronID)
		if err != nil {
			return err
		}

		item, err := s.itemRepo.GetByIDForUpdate(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return persistenceErr(err)
		}

		count, err := s.loanRepo.CountActiveByPatron(tx, patronID)
		if err != nil {
			return persistenceErr(err)
		}
		if count >= MaxActiveLoans {
			log.Printf("[WARN] Borrow: patron %s at loan limit (%d)", patronID, count)
			return ErrLoanLimitReached
		}

		if item.Status != models.ItemStatusAvailable {
			return ErrItemUnavailable
		}

		// Queue fairness: a non-empty queue reserves the item for its head.
		queue, err := s.holdRepo.ListQueue(tx, itemID)
		if err != nil {
			return persistenceErr(err)
		}
		consumedHold := false
		if len(queue) > 0 {
			if queue[0].PatronID != patronID {
				log.Printf("[INFO] Borrow: item %s reserved for patron %s, rejecting patron %s",
					itemID, queue[0].PatronID, patronID)
				return ErrReservedForAnother
			}
			consumedHold = true
		}

		borrowed, err := s.loanRepo.HasActiveLoan(tx, patronID, itemID)
		if err != nil {
			return persistenceErr(err)
		}
		if borrowed {
			return ErrAlreadyBorrowed
		}

		if consumedHold {
			if err := s.holdRepo.Delete(tx, patronID, itemID); err != nil {
				return persistenceErr(err)
			}
		}

		if err := s.itemRepo.UpdateStatus(tx, itemID, models.ItemStatusCheckedOut); err != nil {
			return persistenceErr(err)
		}

		now := time.Now().UTC()
		loan = &models.Loan{
			ItemID:       itemID,
			PatronID:     patronID,
			CheckoutDate: now,
			DueDate:      now.AddDate(0, 0, LoanPeriodDays),
		}
		if err := s.loanRepo.Create(tx, loan); err != nil {
			return persistenceErr(err)
		}

		log.Printf("[INFO] Borrow: patron %s (%s) borrowed item %s, due %s (hold consumed: %v)",
			patronID, patron.Name, itemID, loan.DueDate.Format("2006-01-02"), consumedHold)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ─── Return ───────────────────────────────────────────────────────────────────

// Return ends the caller's active loan on an item and marks it Available.
//
// The hold queue is deliberately left untouched: the head-of-queue patron must
// still call Borrow, the queue only gates the next borrow attempt.
func (s *circulationService) Return(patronID, itemID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.itemRepo.GetByIDForUpdate(tx, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return persistenceErr(err)
		}

		loan, err := s.loanRepo.GetActiveByItem(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotBorrowed
			}
			return persistenceErr(err)
		}
		if loan.PatronID != patronID {
			return ErrNotBorrowed
		}

		if err := s.loanRepo.Delete(tx, patronID, itemID); err != nil {
			return persistenceErr(err)
		}
		if err := s.itemRepo.UpdateStatus(tx, itemID, models.ItemStatusAvailable); err != nil {
			return persistenceErr(err)
		}

		log.Printf("[INFO] Return: patron %s returned item %s", patronID, itemID)
		return nil
	})
}

// ─── Place Hold ───────────────────────────────────────────────────────────────

// PlaceHold appends the patron to the tail of an item's FIFO hold queue.
//
// A hold may be placed while the item is checked out, or while it is available
// with a non-empty queue (a reservation is in flight even though the item has
// not been picked up yet). Holding a freely available item is rejected; the
// patron should borrow it directly.
func (s *circulationService) PlaceHold(patronID, itemID uuid.UUID) (*models.Hold, error) {
	var hold *models.Hold

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.requirePatron(tx, patronID); err != nil {
			return err
		}

		item, err := s.itemRepo.GetByIDForUpdate(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return persistenceErr(err)
		}

		borrowed, err := s.loanRepo.HasActiveLoan(tx, patronID, itemID)
		if err != nil {
			return persistenceErr(err)
		}
		if borrowed {
			return ErrAlreadyBorrowed
		}

		if item.Status == models.ItemStatusAvailable {
			queued, err := s.holdRepo.CountForItem(tx, itemID)
			if err != nil {
				return persistenceErr(err)
			}
			if queued == 0 {
				return ErrHoldNotAllowed
			}
		}

		exists, err := s.holdRepo.Exists(tx, patronID, itemID)
		if err != nil {
			return persistenceErr(err)
		}
		if exists {
			return ErrDuplicateHold
		}

		hold = &models.Hold{
			ItemID:    itemID,
			PatronID:  patronID,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.holdRepo.Insert(tx, hold); err != nil {
			return persistenceErr(err)
		}

		log.Printf("[INFO] PlaceHold: patron %s queued for item %s", patronID, itemID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// ─── Cancel Hold ──────────────────────────────────────────────────────────────

// CancelHold removes the patron's entry from an item's hold queue. Entries
// behind it shift forward implicitly since positions are computed from order.
func (s *circulationService) CancelHold(patronID, itemID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		exists, err := s.holdRepo.Exists(tx, patronID, itemID)
		if err != nil {
			return persistenceErr(err)
		}
		if !exists {
			return ErrHoldNotFound
		}

		if err := s.holdRepo.Delete(tx, patronID, itemID); err != nil {
			return persistenceErr(err)
		}

		log.Printf("[INFO] CancelHold: patron %s left the queue for item %s", patronID, itemID)
		return nil
	})
}

// ─── Account Views ────────────────────────────────────────────────────────────

// AccountLoans derives the patron's active-loan summary. DaysRemaining counts
// calendar days from today to the due date and goes negative once overdue.
func (s *circulationService) AccountLoans(patronID uuid.UUID, today time.Time) ([]AccountLoan, error) {
	loans, err := s.loanRepo.ListActiveByPatron(nil, patronID)
	if err != nil {
		return nil, persistenceErr(err)
	}

	out := make([]AccountLoan, 0, len(loans))
	for _, loan := range loans {
		item, err := s.itemRepo.GetByID(nil, loan.ItemID)
		if err != nil {
			return nil, persistenceErr(err)
		}
		out = append(out, AccountLoan{
			ItemID:        loan.ItemID,
			Title:         item.Title,
			DueDate:       loan.DueDate,
			DaysRemaining: daysBetween(today, loan.DueDate),
		})
	}
	return out, nil
}

// AccountHolds derives the patron's hold summary with 1-based queue positions.
func (s *circulationService) AccountHolds(patronID uuid.UUID) ([]AccountHold, error) {
	holds, err := s.holdRepo.ListByPatron(nil, patronID)
	if err != nil {
		return nil, persistenceErr(err)
	}

	out := make([]AccountHold, 0, len(holds))
	for _, hold := range holds {
		queue, err := s.holdRepo.ListQueue(nil, hold.ItemID)
		if err != nil {
			return nil, persistenceErr(err)
		}
		position := 0
		for i, entry := range queue {
			if entry.PatronID == patronID {
				position = i + 1
				break
			}
		}
		if position == 0 {
			// The hold vanished between the two reads; skip it.
			continue
		}

		item, err := s.itemRepo.GetByID(nil, hold.ItemID)
		if err != nil {
			return nil, persistenceErr(err)
		}
		out = append(out, AccountHold{
			ItemID:        hold.ItemID,
			Title:         item.Title,
			QueuePosition: position,
		})
	}
	return out, nil
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

// requirePatron resolves the acting user and checks the Patron role.
func (s *circulationService) requirePatron(tx *gorm.DB, patronID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(tx, patronID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceErr(err)
	}
	if user.Role != models.UserRolePatron {
		return nil, ErrNotAPatron
	}
	return user, nil
}

// daysBetween counts full calendar days from a to b, truncating both to
// midnight UTC so a loan due later today still reports zero days remaining.
func daysBetween(a, b time.Time) int {
	aMidnight := a.UTC().Truncate(24 * time.Hour)
	bMidnight := b.UTC().Truncate(24 * time.Hour)
	return int(bMidnight.Sub(aMidnight).Hours() / 24)
}

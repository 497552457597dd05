package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hinlibs/internal/models"
)

type UserRepository interface {
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetByName(db *gorm.DB, name string) (*models.User, error)
}

type ItemRepository interface {
	Create(db *gorm.DB, item *models.Item) error
	GetByID(db *gorm.DB, id uuid.UUID) (*models.Item, error)
	GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Item, error)
	List(db *gorm.DB) ([]models.Item, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status models.ItemStatus) error
	Delete(db *gorm.DB, id uuid.UUID) error
}

type LoanRepository interface {
	Create(db *gorm.DB, loan *models.Loan) error
	Delete(db *gorm.DB, patronID, itemID uuid.UUID) error
	GetActiveByItem(db *gorm.DB, itemID uuid.UUID) (*models.Loan, error)
	CountActiveByPatron(db *gorm.DB, patronID uuid.UUID) (int64, error)
	HasActiveLoan(db *gorm.DB, patronID, itemID uuid.UUID) (bool, error)
	ListActiveByPatron(db *gorm.DB, patronID uuid.UUID) ([]models.Loan, error)
}

type HoldRepository interface {
	Insert(db *gorm.DB, hold *models.Hold) error
	Delete(db *gorm.DB, patronID, itemID uuid.UUID) error
	Exists(db *gorm.DB, patronID, itemID uuid.UUID) (bool, error)
	ListQueue(db *gorm.DB, itemID uuid.UUID) ([]models.Hold, error)
	ListByPatron(db *gorm.DB, patronID uuid.UUID) ([]models.Hold, error)
	CountForItem(db *gorm.DB, itemID uuid.UUID) (int64, error)
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByName(db *gorm.DB, name string) (*models.User, error) {
	if db == nil {
		db = r.db
	}
	var user models.User
	if err := db.First(&user, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(db *gorm.DB, item *models.Item) error {
	if db == nil {
		db = r.db
	}
	return db.Create(item).Error
}

func (r *itemRepository) GetByID(db *gorm.DB, id uuid.UUID) (*models.Item, error) {
	if db == nil {
		db = r.db
	}
	var item models.Item
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDForUpdate locks the item row (SELECT ... FOR UPDATE) so a mutating
// operation's check and act phases cannot interleave with another writer's.
func (r *itemRepository) GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Item, error) {
	if db == nil {
		db = r.db
	}
	var item models.Item
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(db *gorm.DB) ([]models.Item, error) {
	if db == nil {
		db = r.db
	}
	var items []models.Item
	if err := db.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, status models.ItemStatus) error {
	if db == nil {
		db = r.db
	}
	return db.Model(&models.Item{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *itemRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Item{}, "id = ?", id).Error
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(db *gorm.DB, loan *models.Loan) error {
	if db == nil {
		db = r.db
	}
	return db.Create(loan).Error
}

func (r *loanRepository) Delete(db *gorm.DB, patronID, itemID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Loan{}, "patron_id = ? AND item_id = ?", patronID, itemID).Error
}

func (r *loanRepository) GetActiveByItem(db *gorm.DB, itemID uuid.UUID) (*models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loan models.Loan
	if err := db.First(&loan, "item_id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) CountActiveByPatron(db *gorm.DB, patronID uuid.UUID) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.Model(&models.Loan{}).
		Where("patron_id = ?", patronID).
		Count(&count).Error
	return count, err
}

func (r *loanRepository) HasActiveLoan(db *gorm.DB, patronID, itemID uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.Model(&models.Loan{}).
		Where("patron_id = ? AND item_id = ?", patronID, itemID).
		Count(&count).Error
	return count > 0, err
}

func (r *loanRepository) ListActiveByPatron(db *gorm.DB, patronID uuid.UUID) ([]models.Loan, error) {
	if db == nil {
		db = r.db
	}
	var loans []models.Loan
	err := db.Where("patron_id = ?", patronID).
		Order("checkout_date ASC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

type holdRepository struct {
	db *gorm.DB
}

func NewHoldRepository(db *gorm.DB) HoldRepository {
	return &holdRepository{db: db}
}

func (r *holdRepository) Insert(db *gorm.DB, hold *models.Hold) error {
	if db == nil {
		db = r.db
	}
	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = time.Now().UTC()
	}
	return db.Create(hold).Error
}

func (r *holdRepository) Delete(db *gorm.DB, patronID, itemID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.Hold{}, "patron_id = ? AND item_id = ?", patronID, itemID).Error
}

func (r *holdRepository) Exists(db *gorm.DB, patronID, itemID uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.Model(&models.Hold{}).
		Where("patron_id = ? AND item_id = ?", patronID, itemID).
		Count(&count).Error
	return count > 0, err
}

// ListQueue returns an item's holds in FIFO order. The id tiebreak keeps the
// order deterministic when two holds share a timestamp.
func (r *holdRepository) ListQueue(db *gorm.DB, itemID uuid.UUID) ([]models.Hold, error) {
	if db == nil {
		db = r.db
	}
	var holds []models.Hold
	err := db.Where("item_id = ?", itemID).
		Order("created_at ASC, id ASC").
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	return holds, nil
}

func (r *holdRepository) ListByPatron(db *gorm.DB, patronID uuid.UUID) ([]models.Hold, error) {
	if db == nil {
		db = r.db
	}
	var holds []models.Hold
	err := db.Where("patron_id = ?", patronID).
		Order("created_at ASC").
		Find(&holds).Error
	if err != nil {
		return nil, err
	}
	return holds, nil
}

func (r *holdRepository) CountForItem(db *gorm.DB, itemID uuid.UUID) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.Model(&models.Hold{}).
		Where("item_id = ?", itemID).
		Count(&count).Error
	return count, err
}

package services_test

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hinlibs/internal/models"
	"hinlibs/internal/repositories"
	"hinlibs/internal/services"
)

// In-memory repository fakes backing the service tests. They ignore the
// optional *gorm.DB argument, so running them under fakeTx exercises the
// same code paths the gorm repositories take inside a real transaction.

type memState struct {
	users map[uuid.UUID]models.User
	items map[uuid.UUID]models.Item
	loans []models.Loan
	holds []models.Hold
	clock time.Time
}

func newMemState() *memState {
	return &memState{
		users: make(map[uuid.UUID]models.User),
		items: make(map[uuid.UUID]models.Item),
		clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so consecutive holds get distinct timestamps.
func (s *memState) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memState) addUser(name string, role models.UserRole) uuid.UUID {
	u := models.User{ID: uuid.New(), Name: name, Role: role}
	s.users[u.ID] = u
	return u.ID
}

func (s *memState) addItem(title string, status models.ItemStatus) uuid.UUID {
	i := models.Item{
		ID:              uuid.New(),
		Kind:            models.ItemKindFictionBook,
		Title:           title,
		Creator:         "Author",
		PublicationYear: 2020,
		Status:          status,
	}
	s.items[i.ID] = i
	return i.ID
}

func (s *memState) addLoan(patronID, itemID uuid.UUID, due time.Time) {
	s.loans = append(s.loans, models.Loan{
		ID:           uuid.New(),
		ItemID:       itemID,
		PatronID:     patronID,
		CheckoutDate: due.AddDate(0, 0, -services.LoanPeriodDays),
		DueDate:      due,
	})
	item := s.items[itemID]
	item.Status = models.ItemStatusCheckedOut
	s.items[itemID] = item
}

func (s *memState) queueFor(itemID uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, h := range s.holds {
		if h.ItemID == itemID {
			out = append(out, h.PatronID)
		}
	}
	return out
}

type fakeTx struct{}

func (fakeTx) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	return fc(nil)
}

// ─── Users ────────────────────────────────────────────────────────────────────

type memUsers struct{ s *memState }

func (r memUsers) GetByID(_ *gorm.DB, id uuid.UUID) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUsers) GetByName(_ *gorm.DB, name string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Name == name {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ─── Items ────────────────────────────────────────────────────────────────────

type memItems struct{ s *memState }

func (r memItems) Create(_ *gorm.DB, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memItems) GetByID(_ *gorm.DB, id uuid.UUID) (*models.Item, error) {
	i, ok := r.s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &i, nil
}

func (r memItems) GetByIDForUpdate(db *gorm.DB, id uuid.UUID) (*models.Item, error) {
	return r.GetByID(db, id)
}

func (r memItems) List(_ *gorm.DB) ([]models.Item, error) {
	out := make([]models.Item, 0, len(r.s.items))
	for _, i := range r.s.items {
		out = append(out, i)
	}
	return out, nil
}

func (r memItems) UpdateStatus(_ *gorm.DB, id uuid.UUID, status models.ItemStatus) error {
	i, ok := r.s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.Status = status
	r.s.items[id] = i
	return nil
}

func (r memItems) Delete(_ *gorm.DB, id uuid.UUID) error {
	delete(r.s.items, id)
	return nil
}

// ─── Loans ────────────────────────────────────────────────────────────────────

type memLoans struct{ s *memState }

func (r memLoans) Create(_ *gorm.DB, loan *models.Loan) error {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	r.s.loans = append(r.s.loans, *loan)
	return nil
}

func (r memLoans) Delete(_ *gorm.DB, patronID, itemID uuid.UUID) error {
	kept := r.s.loans[:0]
	for _, l := range r.s.loans {
		if l.PatronID != patronID || l.ItemID != itemID {
			kept = append(kept, l)
		}
	}
	r.s.loans = kept
	return nil
}

func (r memLoans) GetActiveByItem(_ *gorm.DB, itemID uuid.UUID) (*models.Loan, error) {
	for _, l := range r.s.loans {
		if l.ItemID == itemID {
			l := l
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memLoans) CountActiveByPatron(_ *gorm.DB, patronID uuid.UUID) (int64, error) {
	var n int64
	for _, l := range r.s.loans {
		if l.PatronID == patronID {
			n++
		}
	}
	return n, nil
}

func (r memLoans) HasActiveLoan(_ *gorm.DB, patronID, itemID uuid.UUID) (bool, error) {
	for _, l := range r.s.loans {
		if l.PatronID == patronID && l.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (r memLoans) ListActiveByPatron(_ *gorm.DB, patronID uuid.UUID) ([]models.Loan, error) {
	var out []models.Loan
	for _, l := range r.s.loans {
		if l.PatronID == patronID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ─── Holds ────────────────────────────────────────────────────────────────────

type memHolds struct{ s *memState }

func (r memHolds) Insert(_ *gorm.DB, hold *models.Hold) error {
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = r.s.tick()
	}
	r.s.holds = append(r.s.holds, *hold)
	return nil
}

func (r memHolds) Delete(_ *gorm.DB, patronID, itemID uuid.UUID) error {
	kept := r.s.holds[:0]
	for _, h := range r.s.holds {
		if h.PatronID != patronID || h.ItemID != itemID {
			kept = append(kept, h)
		}
	}
	r.s.holds = kept
	return nil
}

func (r memHolds) Exists(_ *gorm.DB, patronID, itemID uuid.UUID) (bool, error) {
	for _, h := range r.s.holds {
		if h.PatronID == patronID && h.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (r memHolds) ListQueue(_ *gorm.DB, itemID uuid.UUID) ([]models.Hold, error) {
	var out []models.Hold
	for _, h := range r.s.holds {
		if h.ItemID == itemID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r memHolds) ListByPatron(_ *gorm.DB, patronID uuid.UUID) ([]models.Hold, error) {
	var out []models.Hold
	for _, h := range r.s.holds {
		if h.PatronID == patronID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r memHolds) CountForItem(_ *gorm.DB, itemID uuid.UUID) (int64, error) {
	var n int64
	for _, h := range r.s.holds {
		if h.ItemID == itemID {
			n++
		}
	}
	return n, nil
}

var (
	_ repositories.UserRepository = memUsers{}
	_ repositories.ItemRepository = memItems{}
	_ repositories.LoanRepository = memLoans{}
	_ repositories.HoldRepository = memHolds{}
)

// fixture bundles a fresh state with services wired against it.
type fixture struct {
	state   *memState
	circ    services.CirculationService
	catalog services.CatalogService
}

func newFixture() *fixture {
	s := newMemState()
	return &fixture{
		state:   s,
		circ:    services.NewCirculationService(fakeTx{}, memUsers{s}, memItems{s}, memLoans{s}, memHolds{s}),
		catalog: services.NewCatalogService(fakeTx{}, memUsers{s}, memItems{s}, memLoans{s}, memHolds{s}),
	}
}

package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"sigebi-web/internal/core/domain"

	"github.com/google/uuid"
)

// -------------------------
// In-memory repositories
// -------------------------

type memStore struct {
	mu        sync.Mutex
	loans     map[uuid.UUID]*domain.Loan
	books     map[uuid.UUID]*domain.Book
	users     map[uuid.UUID]*domain.User
	penalties map[uuid.UUID]*domain.Penalty
}

func newMemStore() *memStore {
	return &memStore{
		loans:     map[uuid.UUID]*domain.Loan{},
		books:     map[uuid.UUID]*domain.Book{},
		users:     map[uuid.UUID]*domain.User{},
		penalties: map[uuid.UUID]*domain.Penalty{},
	}
}

func (m *memStore) addBook(status domain.BookStatus) *domain.Book {
	b := &domain.Book{ID: uuid.New(), Title: "Rayuela", Author: "Julio Cortázar", Status: status}
	m.books[b.ID] = b
	return b
}

func (m *memStore) addUser(active bool) *domain.User {
	u := &domain.User{ID: uuid.New(), Name: "Ana Pérez", Email: uuid.NewString() + "@sigebi.edu", Role: domain.RoleReader, Active: active}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addLoan(userID uuid.UUID, status domain.LoanStatus, start, due time.Time) *domain.Loan {
	l := &domain.Loan{
		ID:     uuid.New(),
		BookID: uuid.New(),
		UserID: userID,
		Status: status,
		Period: domain.LoanPeriod{StartUTC: start, DueUTC: due},
	}
	m.loans[l.ID] = l
	return l
}

type fakeLoanRepo struct {
	*memStore
	createCalls int
	err         error
}

func (r *fakeLoanRepo) Create(ctx context.Context, loan *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.err != nil {
		return r.err
	}
	book, ok := r.books[loan.BookID]
	if !ok || book.Status != domain.BookAvailable {
		return domain.Conflict("El libro %s no está disponible para préstamo.", loan.BookID)
	}
	book.Status = domain.BookLoaned
	cp := *loan
	r.loans[loan.ID] = &cp
	return nil
}

func (r *fakeLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return nil, domain.NotFound("El préstamo %s no existe.", id)
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLoanRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Loan{}
	for _, l := range r.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.StartUTC.After(out[j].Period.StartUTC) })
	return out, nil
}

func (r *fakeLoanRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*domain.Loan{}
	for _, l := range r.loans {
		if l.IsOverdueAt(asOf) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ListActiveDueBefore(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Loan{}
	for _, l := range r.loans {
		if l.Status == domain.LoanActive && l.Period.DueUTC.Before(asOf) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) ActivateStarted(ctx context.Context, asOf time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.loans {
		if l.Status == domain.LoanPending && !l.Period.StartUTC.After(asOf) {
			l.Status = domain.LoanActive
			n++
		}
	}
	return n, nil
}

func (r *fakeLoanRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LoanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return domain.NotFound("El préstamo %s no existe.", id)
	}
	l.Status = status
	return nil
}

func (r *fakeLoanRepo) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return domain.NotFound("El préstamo %s no existe.", id)
	}
	l.Status = domain.LoanReturned
	l.ReturnedAtUTC = &at
	if b, ok := r.books[l.BookID]; ok {
		b.Status = domain.BookAvailable
	}
	return nil
}

func (r *fakeLoanRepo) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := map[domain.LoanStatus]int{}
	for _, l := range r.loans {
		out[l.Status]++
	}
	return out, nil
}

func (r *fakeLoanRepo) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.loans {
		if l.UserID == userID && l.Status.IsOpen() {
			n++
		}
	}
	return n, nil
}

type fakeBookRepo struct{ *memStore }

func (r *fakeBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, domain.NotFound("El libro %s no existe.", id)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookRepo) Create(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[book.ID] = book
	return nil
}

func (r *fakeBookRepo) CountByStatus(ctx context.Context) (map[domain.BookStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[domain.BookStatus]int{}
	for _, b := range r.books {
		out[b.Status]++
	}
	return out, nil
}

type fakeUserRepo struct{ *memStore }

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFound("El usuario %s no existe.", id)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.NotFound("No existe un usuario con el correo %s.", email)
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeUserRepo) CountActive(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.Active {
			n++
		}
	}
	return n, nil
}

type fakePenaltyRepo struct{ *memStore }

func (r *fakePenaltyRepo) Create(ctx context.Context, p *domain.Penalty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.penalties[p.ID] = p
	return nil
}

func (r *fakePenaltyRepo) ExistsForLoan(ctx context.Context, loanID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.penalties {
		if p.LoanID == loanID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePenaltyRepo) HasActiveForUser(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.penalties {
		if p.UserID == userID && p.IsActiveAt(asOf) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePenaltyRepo) CountActive(ctx context.Context, asOf time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.penalties {
		if p.IsActiveAt(asOf) {
			n++
		}
	}
	return n, nil
}

type repoSet struct {
	store     *memStore
	loans     *fakeLoanRepo
	books     *fakeBookRepo
	users     *fakeUserRepo
	penalties *fakePenaltyRepo
}

func newRepoSet() *repoSet {
	store := newMemStore()
	return &repoSet{
		store:     store,
		loans:     &fakeLoanRepo{memStore: store},
		books:     &fakeBookRepo{memStore: store},
		users:     &fakeUserRepo{memStore: store},
		penalties: &fakePenaltyRepo{memStore: store},
	}
}

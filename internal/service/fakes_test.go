package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/repository"
	"github.com/agrolink/agrolink_api/pkg/imagegen"
)

type memUsers struct {
	mu      sync.Mutex
	byPhone map[string]models.User
	updates int
}

func newMemUsers() *memUsers {
	return &memUsers{byPhone: make(map[string]models.User)}
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byPhone[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byPhone[u.Phone]; ok {
		return repository.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Version = 1
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byPhone[u.Phone] = *u
	return nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byPhone[u.Phone]
	if !ok || cur.Version != u.Version {
		return repository.ErrConflict
	}
	u.Version++
	u.UpdatedAt = time.Now()
	m.byPhone[u.Phone] = *u
	m.updates++
	return nil
}

func (m *memUsers) get(phone string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byPhone[phone]
}

type attemptRow struct {
	id    int64
	phone string
	kind  models.AttemptKind
	at    time.Time
}

type memAttempts struct {
	mu     sync.Mutex
	rows   []attemptRow
	nextID int64
}

func (m *memAttempts) Record(_ context.Context, phone string, kind models.AttemptKind, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.rows = append(m.rows, attemptRow{m.nextID, phone, kind, at})
	return m.nextID, nil
}

func (m *memAttempts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.id == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memAttempts) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memAttempts) CountSince(_ context.Context, phone string, kind models.AttemptKind, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.phone == phone && r.kind == kind && !r.at.Before(since) {
			n++
		}
	}
	return n, nil
}

type memProducts struct {
	mu       sync.Mutex
	byID     map[string]*models.Product
	attempts map[string]int
	createFn func(*models.Product) error
}

func newMemProducts() *memProducts {
	return &memProducts{byID: make(map[string]*models.Product), attempts: make(map[string]int)}
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	if m.createFn != nil {
		if err := m.createFn(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) SetImageURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.ImageURL = &url
	return nil
}

func (m *memProducts) IncrementImageAttempts(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[id]++
	return nil
}

type sentSMS struct {
	phone   string
	message string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentSMS
	fail bool
}

func (f *fakeMessenger) Send(_ context.Context, phone, message string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentSMS{phone, message})
	return !f.fail
}

func (f *fakeMessenger) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.message)
	}
	return out
}

func (f *fakeMessenger) last() string {
	msgs := f.messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type fakeEvents struct {
	mu         sync.Mutex
	products   []string
	registered []string
}

func (f *fakeEvents) NotifyProductListed(p *models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, p.ID)
}

func (f *fakeEvents) NotifyUserRegistered(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, u.ID)
}

type fakeQueue struct {
	ids  []string
	full bool
}

func (f *fakeQueue) Enqueue(id string) bool {
	if f.full {
		return false
	}
	f.ids = append(f.ids, id)
	return true
}

type fakeImageGen struct {
	img    *imagegen.Image
	err    error
	prompt string
}

func (f *fakeImageGen) Generate(_ context.Context, prompt string) (*imagegen.Image, error) {
	f.prompt = prompt
	return f.img, f.err
}

type fakeStorage struct {
	keys []string
	err  error
}

func (f *fakeStorage) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.test/" + key, nil
}

func (f *fakeStorage) Backend() string { return "fake" }

package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/flickvault/flickvault/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// --- in-memory UserRepo ---

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *memUsers) Insert(ctx context.Context, u *models.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.UsernameKey == u.UsernameKey || existing.Email == u.Email {
			return primitive.NilObjectID, errors.New("duplicate key")
		}
	}
	cp := *u
	cp.ID = primitive.NewObjectID()
	m.users[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) ByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(username))
	for _, u := range m.users {
		if u.UsernameKey == key {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == key {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memUsers) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) SetEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	return m.update(id, func(u *models.User) { u.Email = strings.ToLower(strings.TrimSpace(email)) })
}

func (m *memUsers) SetEmailConfirmed(ctx context.Context, id primitive.ObjectID, confirmed bool) error {
	return m.update(id, func(u *models.User) { u.EmailConfirmed = confirmed })
}

func (m *memUsers) SetProfilePicturePath(ctx context.Context, id primitive.ObjectID, path string) error {
	return m.update(id, func(u *models.User) { u.ProfilePicturePath = path })
}

func (m *memUsers) AdminsCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.HasRole(models.RoleAdmin) {
			n++
		}
	}
	return n, nil
}

func (m *memUsers) update(id primitive.ObjectID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.New("no such user")
	}
	fn(u)
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// --- in-memory TokenRepo ---

type memTokens struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]*models.PasswordResetToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[primitive.ObjectID]*models.PasswordResetToken)}
}

func (m *memTokens) Insert(ctx context.Context, t *models.PasswordResetToken) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.ID = primitive.NewObjectID()
	m.tokens[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memTokens) ByDigest(ctx context.Context, digest string) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Digest == digest {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTokens) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *memTokens) DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// --- in-memory RecordRepo ---

type memRecords struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]*models.Record
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[primitive.ObjectID]*models.Record)}
}

func (m *memRecords) Insert(ctx context.Context, r *models.Record) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.ID = primitive.NewObjectID()
	m.records[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRecords) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRecords) UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return errors.New("no such record")
	}
	if v, ok := set["name"].(string); ok {
		r.Name = v
	}
	if v, ok := set["year"].(int); ok {
		r.Year = v
	}
	if v, ok := set["type"].(string); ok {
		r.Type = v
	}
	return nil
}

func (m *memRecords) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memRecords) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Record
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRecords) ListAll(ctx context.Context) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRecords) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.records {
		if r.UserID == userID {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memRecords) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// --- in-memory ObjectStore ---

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	deletes int
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.puts++
	return nil
}

func (m *memObjects) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deletes++
	return nil
}

func (m *memObjects) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// --- capture mailer ---

type captureMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *captureMailer) SendPasswordReset(to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *captureMailer) lastLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		return ""
	}
	return m.links[len(m.links)-1]
}

package access

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/models"
)

// fakeUserRepo is an in-memory UserRepository with the same contracts as
// the postgres store: tenant-mismatched reads return nil, promotion is
// atomic under the mutex. Shared mutable state lives behind one lock so
// the concurrency test exercises real interleavings.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User

	// Per-tenant bootstrap locks, mirroring the postgres store's
	// pg_advisory_xact_lock: promotion attempts in the same tenant
	// serialize, so only the first sees "no admin yet".
	bootMu    sync.Mutex
	bootLocks map[string]*sync.Mutex
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[uuid.UUID]*models.User),
		bootLocks: make(map[string]*sync.Mutex),
	}
}

func (f *fakeUserRepo) bootstrapLock(tenantID string) *sync.Mutex {
	f.bootMu.Lock()
	defer f.bootMu.Unlock()
	l, ok := f.bootLocks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		f.bootLocks[tenantID] = l
	}
	return l
}

func (f *fakeUserRepo) seed(tenantID, email string, role models.Role, sources ...models.SourceKey) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Email:          email,
		Role:           role,
		AllowedSources: sources,
		CreatedAt:      time.Now(),
	}
	if u.AllowedSources == nil {
		u.AllowedSources = []models.SourceKey{}
	}
	f.users[u.ID] = u
	return copyUser(u)
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.AllowedSources = append([]models.SourceKey{}, u.AllowedSources...)
	return &c
}

func (f *fakeUserRepo) Create(ctx context.Context, tenantID, email, passwordHash string) (*models.User, error) {
	u := f.seed(tenantID, email, models.RoleMember)
	u.PasswordHash = passwordHash
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tenantID string, userID uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, nil
	}
	return copyUser(u), nil
}

func (f *fakeUserRepo) GetByIDAnyTenant(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, tenantID string, userID uuid.UUID, role models.Role) (*models.User, error) {
	return f.Update(ctx, tenantID, userID, &role, nil)
}

func (f *fakeUserRepo) UpdateSources(ctx context.Context, tenantID string, userID uuid.UUID, sources []models.SourceKey) (*models.User, error) {
	if sources == nil {
		sources = []models.SourceKey{}
	}
	return f.Update(ctx, tenantID, userID, nil, sources)
}

func (f *fakeUserRepo) Update(ctx context.Context, tenantID string, userID uuid.UUID, role *models.Role, sources []models.SourceKey) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, nil
	}
	if role != nil {
		u.Role = *role
	}
	if sources != nil {
		u.AllowedSources = append([]models.SourceKey{}, sources...)
	}
	return copyUser(u), nil
}

// PromoteFirstAdmin has the same shape as the store: take the tenant's
// bootstrap lock, check for an existing admin, then write. The check and
// the write are separate steps on purpose — the lock is what makes the
// pair safe, exactly as in postgres.
func (f *fakeUserRepo) PromoteFirstAdmin(ctx context.Context, tenantID string, userID uuid.UUID) (bool, error) {
	lock := f.bootstrapLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Role == models.RoleAdmin {
			return false, nil
		}
	}
	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return false, nil
	}
	u.Role = models.RoleAdmin
	return true, nil
}

// snapshot returns a deep copy of all users, for before/after comparisons
// in "no state change" assertions.
func (f *fakeUserRepo) snapshot() map[uuid.UUID]models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]models.User, len(f.users))
	for id, u := range f.users {
		out[id] = *copyUser(u)
	}
	return out
}

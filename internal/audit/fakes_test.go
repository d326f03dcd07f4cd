package audit

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/models"
)

// In-memory stores with the same contracts as the postgres ones:
// tenant-mismatched reads return nil, inserts assign ascending ids,
// lists page newest-first.

type fakeLogRepo struct {
	nextID int64
	logs   map[int64]*models.QueryLog
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{nextID: 1, logs: make(map[int64]*models.QueryLog)}
}

func (f *fakeLogRepo) Insert(ctx context.Context, log *models.QueryLog) (*models.QueryLog, error) {
	stored := *log
	stored.ID = f.nextID
	stored.CreatedAt = time.Now()
	f.nextID++
	f.logs[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeLogRepo) GetByID(ctx context.Context, tenantID string, logID int64) (*models.QueryLog, error) {
	log, ok := f.logs[logID]
	if !ok || log.TenantID != tenantID {
		return nil, nil
	}
	out := *log
	return &out, nil
}

func (f *fakeLogRepo) ListByUser(ctx context.Context, tenantID string, userID uuid.UUID, before int64, limit int) ([]models.QueryLog, error) {
	return f.list(func(l *models.QueryLog) bool {
		return l.TenantID == tenantID && l.UserID == userID
	}, before, limit), nil
}

func (f *fakeLogRepo) ListByTenant(ctx context.Context, tenantID string, before int64, limit int) ([]models.QueryLog, error) {
	return f.list(func(l *models.QueryLog) bool {
		return l.TenantID == tenantID
	}, before, limit), nil
}

func (f *fakeLogRepo) list(match func(*models.QueryLog) bool, before int64, limit int) []models.QueryLog {
	out := make([]models.QueryLog, 0)
	for _, l := range f.logs {
		if !match(l) {
			continue
		}
		if before > 0 && l.ID >= before {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type fakeFeedbackRepo struct {
	nextID  int64
	records []models.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{nextID: 1}
}

func (f *fakeFeedbackRepo) Insert(ctx context.Context, logID int64, userID uuid.UUID, helpful bool, comment string) (*models.Feedback, error) {
	rec := models.Feedback{
		ID:        f.nextID,
		LogID:     logID,
		UserID:    userID,
		Helpful:   helpful,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.records = append(f.records, rec)
	out := rec
	return &out, nil
}

func (f *fakeFeedbackRepo) ListByLog(ctx context.Context, logID int64) ([]models.Feedback, error) {
	out := make([]models.Feedback, 0)
	for _, rec := range f.records {
		if rec.LogID == logID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fakeUserRepo implements only the reads the audit service uses; the
// mutation methods are never reached from here.
type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) seed(tenantID, email string, role models.Role) *models.User {
	u := &models.User{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Email:          email,
		Role:           role,
		AllowedSources: []models.SourceKey{},
		CreatedAt:      time.Now(),
	}
	f.users[u.ID] = u
	out := *u
	return &out
}

func (f *fakeUserRepo) Create(ctx context.Context, tenantID, email, passwordHash string) (*models.User, error) {
	return f.seed(tenantID, email, models.RoleMember), nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tenantID string, userID uuid.UUID) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByIDAnyTenant(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	out := make([]models.User, 0)
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, tenantID string, userID uuid.UUID, role models.Role) (*models.User, error) {
	return f.Update(ctx, tenantID, userID, &role, nil)
}

func (f *fakeUserRepo) UpdateSources(ctx context.Context, tenantID string, userID uuid.UUID, sources []models.SourceKey) (*models.User, error) {
	return f.Update(ctx, tenantID, userID, nil, sources)
}

func (f *fakeUserRepo) Update(ctx context.Context, tenantID string, userID uuid.UUID, role *models.Role, sources []models.SourceKey) (*models.User, error) {
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
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) PromoteFirstAdmin(ctx context.Context, tenantID string, userID uuid.UUID) (bool, error) {
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

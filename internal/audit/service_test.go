package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type auditFixture struct {
	svc      *Service
	logs     *fakeLogRepo
	feedback *fakeFeedbackRepo
	users    *fakeUserRepo
}

func newFixture() *auditFixture {
	logs := newFakeLogRepo()
	feedback := newFakeFeedbackRepo()
	users := newFakeUserRepo()
	return &auditFixture{
		svc:      NewService(logs, feedback, users, zap.NewNop()),
		logs:     logs,
		feedback: feedback,
		users:    users,
	}
}

func TestRecordQuerySnapshotsGrant(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	userID := uuid.New()
	grant := []models.SourceKey{models.SourceGDrive, models.SourceSlack}
	hits := []models.RetrievedHit{
		{SourceKey: models.SourceGDrive, Score: 0.91, DocID: uuid.New(), DocTitle: "Q2 notes", ChunkID: uuid.New(), ChunkIndex: 0},
	}

	log, err := fx.svc.RecordQuery(ctx, "acme", userID, "what changed in Q2?", "Revenue grew.", grant, hits)
	require.NoError(t, err)
	assert.NotZero(t, log.ID)
	assert.Equal(t, "acme", log.TenantID)
	assert.Equal(t, userID, log.UserID)
	assert.Equal(t, grant, log.AllowedSources)
	assert.Equal(t, hits, log.Retrieved)

	// Nil retrieval and grant are stored as empty, never null.
	empty, err := fx.svc.RecordQuery(ctx, "acme", userID, "hello", "Hi.", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty.AllowedSources)
	assert.Empty(t, empty.AllowedSources)
	assert.NotNil(t, empty.Retrieved)
	assert.Empty(t, empty.Retrieved)
}

func TestRecordFeedbackOwner(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	owner := fx.users.seed("acme", "owner@acme.com", models.RoleMember)
	log, err := fx.svc.RecordQuery(ctx, "acme", owner.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	f, err := fx.svc.RecordFeedback(ctx, "acme", owner.ID, log.ID, true, "spot on")
	require.NoError(t, err)
	assert.Equal(t, log.ID, f.LogID)
	assert.Equal(t, owner.ID, f.UserID)
	assert.True(t, f.Helpful)
	assert.Equal(t, "spot on", f.Comment)
}

func TestRecordFeedbackAdminOverride(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	owner := fx.users.seed("acme", "owner@acme.com", models.RoleMember)
	admin := fx.users.seed("acme", "admin@acme.com", models.RoleAdmin)
	log, err := fx.svc.RecordQuery(ctx, "acme", owner.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	f, err := fx.svc.RecordFeedback(ctx, "acme", admin.ID, log.ID, false, "hallucinated")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, f.UserID)
}

func TestRecordFeedbackOtherMemberDenied(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	owner := fx.users.seed("acme", "owner@acme.com", models.RoleMember)
	other := fx.users.seed("acme", "other@acme.com", models.RoleMember)
	log, err := fx.svc.RecordQuery(ctx, "acme", owner.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	_, err = fx.svc.RecordFeedback(ctx, "acme", other.ID, log.ID, true, "")
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	// Denied means nothing written.
	records, err := fx.feedback.ListByLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordFeedbackMissingLog(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	user := fx.users.seed("acme", "u@acme.com", models.RoleMember)
	_, err := fx.svc.RecordFeedback(ctx, "acme", user.ID, 999, true, "")
	assert.ErrorIs(t, err, access.ErrLogNotFound)
}

func TestRecordFeedbackForeignTenantLogLooksAbsent(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	// Even an admin can't reach a log outside their own tenant.
	outsider := fx.users.seed("initech", "eve@initech.com", models.RoleMember)
	admin := fx.users.seed("acme", "admin@acme.com", models.RoleAdmin)
	log, err := fx.svc.RecordQuery(ctx, "initech", outsider.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	_, err = fx.svc.RecordFeedback(ctx, "acme", admin.ID, log.ID, true, "")
	assert.ErrorIs(t, err, access.ErrLogNotFound)
}

func TestRecordFeedbackMissingUser(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	owner := fx.users.seed("acme", "owner@acme.com", models.RoleMember)
	log, err := fx.svc.RecordQuery(ctx, "acme", owner.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	_, err = fx.svc.RecordFeedback(ctx, "acme", uuid.New(), log.ID, true, "")
	assert.ErrorIs(t, err, access.ErrUserNotFound)
}

func TestRecordFeedbackAccumulates(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	owner := fx.users.seed("acme", "owner@acme.com", models.RoleMember)
	log, err := fx.svc.RecordQuery(ctx, "acme", owner.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	_, err = fx.svc.RecordFeedback(ctx, "acme", owner.ID, log.ID, true, "first take")
	require.NoError(t, err)
	_, err = fx.svc.RecordFeedback(ctx, "acme", owner.ID, log.ID, false, "changed my mind")
	require.NoError(t, err)

	records, err := fx.feedback.ListByLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestListLogsMemberSeesOwnOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	alice := fx.users.seed("acme", "alice@acme.com", models.RoleMember)
	bob := fx.users.seed("acme", "bob@acme.com", models.RoleMember)

	for i := 0; i < 3; i++ {
		_, err := fx.svc.RecordQuery(ctx, "acme", alice.ID, "q", "a", nil, nil)
		require.NoError(t, err)
	}
	_, err := fx.svc.RecordQuery(ctx, "acme", bob.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	logs, err := fx.svc.ListLogs(ctx, alice, 0, 50)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Equal(t, alice.ID, l.UserID)
	}
}

func TestListLogsAdminSeesTenantNotBeyond(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	admin := fx.users.seed("acme", "admin@acme.com", models.RoleAdmin)
	alice := fx.users.seed("acme", "alice@acme.com", models.RoleMember)
	eve := fx.users.seed("initech", "eve@initech.com", models.RoleMember)

	_, err := fx.svc.RecordQuery(ctx, "acme", alice.ID, "q", "a", nil, nil)
	require.NoError(t, err)
	_, err = fx.svc.RecordQuery(ctx, "acme", admin.ID, "q", "a", nil, nil)
	require.NoError(t, err)
	_, err = fx.svc.RecordQuery(ctx, "initech", eve.ID, "q", "a", nil, nil)
	require.NoError(t, err)

	logs, err := fx.svc.ListLogs(ctx, admin, 0, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, "acme", l.TenantID)
	}
}

func TestListLogsPagination(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	alice := fx.users.seed("acme", "alice@acme.com", models.RoleMember)
	ids := make([]int64, 0, 5)
	for i := 0; i < 5; i++ {
		log, err := fx.svc.RecordQuery(ctx, "acme", alice.ID, "q", "a", nil, nil)
		require.NoError(t, err)
		ids = append(ids, log.ID)
	}

	// First page: newest two.
	page, err := fx.svc.ListLogs(ctx, alice, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)

	// Cursor continues strictly before the last seen id.
	page, err = fx.svc.ListLogs(ctx, alice, page[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)
}

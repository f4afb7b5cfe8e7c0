package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"groupmanager/internal/mail/mailmock"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/internal/testutil"
	"groupmanager/internal/validation"
)

type recordedEvent struct {
	name string
	data interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingPublisher) Publish(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: event, data: data})
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.name)
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	mailer *mailmock.MockMailer
	events *recordingPublisher

	userRepo   repository.UserRepository
	groupRepo  repository.GroupRepository
	memberRepo repository.MemberRepository
	auditRepo  repository.AuditRepository
	tx         repository.TransactionManager
	authz      *policy.Evaluator
	invites    *Invites

	users   UserService
	groups  GroupService
	members MemberService
	audit   AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	ctrl := gomock.NewController(t)

	f := &fixture{
		db:         db,
		mailer:     mailmock.NewMockMailer(ctrl),
		events:     &recordingPublisher{},
		userRepo:   repository.NewUserRepository(db),
		groupRepo:  repository.NewGroupRepository(db),
		memberRepo: repository.NewMemberRepository(db),
		auditRepo:  repository.NewAuditRepository(db),
		tx:         repository.NewTransactionManager(db),
	}
	f.authz = policy.NewEvaluator(f.groupRepo)
	f.invites = NewInvites(f.mailer, "http://app.local")

	f.users = NewUserService(f.userRepo, f.auditRepo, f.tx, validation.NewUserValidator(f.userRepo), f.authz, f.invites, f.events)
	f.groups = NewGroupService(f.groupRepo, f.userRepo, f.auditRepo, f.tx, f.authz, f.invites, f.events)
	f.members = NewMemberService(f.memberRepo, f.groupRepo, f.userRepo, f.auditRepo, f.tx, f.authz, f.invites, f.events)
	f.audit = NewAuditService(f.auditRepo, f.authz)
	return f
}

func (f *fixture) user(t *testing.T, name, email string, role model.Role) (*model.User, policy.Principal) {
	t.Helper()
	u := testutil.CreateUser(t, f.db, name, email, role)
	return u, policy.Principal{ID: u.ID.String(), Role: role}
}

func (f *fixture) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&model.AuditLog{}).Where("action = ?", action).Count(&n).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	return n
}

var missingID = uuid.MustParse("0b8f3d52-5f39-4b53-8d0c-8a4d6a2f1e77").String()

var bg = context.Background()

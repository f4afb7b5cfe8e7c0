package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/pkg/pagination"
)

// MemberRepository stores members and their group links.
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	Attach(ctx context.Context, memberID, groupID uuid.UUID) error
	ListByGroup(ctx context.Context, groupID string, page, limit int) ([]model.Member, int64, error)
	GetInGroup(ctx context.Context, groupID, memberID string) (*model.Member, error)
	Update(ctx context.Context, memberID string, fields map[string]interface{}) error
	DeleteFromGroup(ctx context.Context, groupID, memberID string) error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *model.Member) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(member).Error
}

func (r *memberRepository) Attach(ctx context.Context, memberID, groupID uuid.UUID) error {
	link := &model.MemberHasGroup{MemberID: memberID, GroupID: groupID}
	if err := GetDB(ctx, r.db).Omit(clause.Associations).Create(link).Error; err != nil {
		return duplicate(err, "Membro já vinculado ao grupo")
	}
	return nil
}

func (r *memberRepository) inGroup(db *gorm.DB, groupID uuid.UUID) *gorm.DB {
	return db.Model(&model.Member{}).
		Joins("JOIN member_has_groups ON member_has_groups.member_id = members.id").
		Where("member_has_groups.group_id = ?", groupID)
}

func (r *memberRepository) ListByGroup(ctx context.Context, groupID string, page, limit int) ([]model.Member, int64, error) {
	gid, err := parseID(groupID, apperror.EntityGroup)
	if err != nil {
		return nil, 0, err
	}
	var members []model.Member
	var total int64

	q := r.inGroup(GetDB(ctx, r.db), gid)
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Order("members.name asc").Scopes(pagination.Paginate(page, limit)).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *memberRepository) GetInGroup(ctx context.Context, groupID, memberID string) (*model.Member, error) {
	gid, err := parseID(groupID, apperror.EntityGroup)
	if err != nil {
		return nil, err
	}
	mid, err := parseID(memberID, apperror.EntityMember)
	if err != nil {
		return nil, err
	}
	var member model.Member
	if err := r.inGroup(GetDB(ctx, r.db), gid).Where("members.id = ?", mid).First(&member).Error; err != nil {
		return nil, notFound(err, apperror.EntityMember)
	}
	return &member, nil
}

func (r *memberRepository) Update(ctx context.Context, memberID string, fields map[string]interface{}) error {
	mid, err := parseID(memberID, apperror.EntityMember)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	res := GetDB(ctx, r.db).Model(&model.Member{}).Where("id = ?", mid).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(apperror.EntityMember)
	}
	return nil
}

// DeleteFromGroup drops the link and soft-deletes the member once it no
// longer belongs to any group.
func (r *memberRepository) DeleteFromGroup(ctx context.Context, groupID, memberID string) error {
	gid, err := parseID(groupID, apperror.EntityGroup)
	if err != nil {
		return err
	}
	mid, err := parseID(memberID, apperror.EntityMember)
	if err != nil {
		return err
	}

	db := GetDB(ctx, r.db)
	res := db.Where("group_id = ? AND member_id = ?", gid, mid).Delete(&model.MemberHasGroup{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(apperror.EntityMember)
	}

	var remaining int64
	if err := db.Model(&model.MemberHasGroup{}).Where("member_id = ?", mid).Count(&remaining).Error; err != nil {
		return err
	}
	if remaining == 0 {
		return db.Where("id = ?", mid).Delete(&model.Member{}).Error
	}
	return nil
}

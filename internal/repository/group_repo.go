package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/pkg/pagination"
)

// GroupFilter narrows List. Zero values are ignored.
type GroupFilter struct {
	CreatorUserID string
	Status        string
}

// GroupRepository persists groups together with their type and representative
// rows. It also answers ownership questions for the policy evaluator.
type GroupRepository interface {
	policy.GroupLookup

	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	List(ctx context.Context, filter GroupFilter, page, limit int) ([]model.Group, int64, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error

	CreateTypeGroup(ctx context.Context, tg *model.TypeGroup) error
	UpdateTypeGroup(ctx context.Context, tg *model.TypeGroup) error
	DeleteTypeGroup(ctx context.Context, id string) error
	CreateRepresentative(ctx context.Context, rep *model.Representative) error
	DeleteRepresentative(ctx context.Context, id string) error
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Creator.TypeUser").Preload("TypeGroup").Preload("Representative")
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	gid, err := parseID(id, apperror.EntityGroup)
	if err != nil {
		return nil, err
	}
	var group model.Group
	if err := r.withRelations(GetDB(ctx, r.db)).First(&group, "id = ?", gid).Error; err != nil {
		return nil, notFound(err, apperror.EntityGroup)
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context, filter GroupFilter, page, limit int) ([]model.Group, int64, error) {
	var groups []model.Group
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Group{})
	if filter.CreatorUserID != "" {
		q = q.Where("creator_user_id = ?", filter.CreatorUserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.withRelations(q).Order("created_at desc").Scopes(pagination.Paginate(page, limit)).Find(&groups).Error; err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *groupRepository) Update(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(group).Error
}

// Delete removes the group and its member links. Members linked to no other
// group are soft-deleted in the same call.
func (r *groupRepository) Delete(ctx context.Context, id string) error {
	gid, err := parseID(id, apperror.EntityGroup)
	if err != nil {
		return err
	}
	db := GetDB(ctx, r.db)
	// Members left without any group go with it.
	linked := db.Model(&model.MemberHasGroup{}).Select("member_id").Where("group_id = ?", gid)
	elsewhere := db.Model(&model.MemberHasGroup{}).Select("member_id").Where("group_id <> ?", gid)
	if err := db.Where("id IN (?) AND id NOT IN (?)", linked, elsewhere).Delete(&model.Member{}).Error; err != nil {
		return err
	}
	if err := db.Where("group_id = ?", gid).Delete(&model.MemberHasGroup{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", gid).Delete(&model.Group{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(apperror.EntityGroup)
	}
	return nil
}

// GroupOwnership reports the creator and, when the representative is a
// registered user, that user's id.
func (r *groupRepository) GroupOwnership(ctx context.Context, groupID string) (policy.GroupOwnership, error) {
	gid, err := parseID(groupID, apperror.EntityGroup)
	if err != nil {
		return policy.GroupOwnership{}, err
	}
	var group model.Group
	err = GetDB(ctx, r.db).
		Select("id", "creator_user_id", "representative_id").
		Preload("Representative").
		Take(&group, "id = ?", gid).Error
	if err != nil {
		return policy.GroupOwnership{}, notFound(err, apperror.EntityGroup)
	}

	owner := policy.GroupOwnership{CreatorUserID: group.CreatorUserID.String()}
	if group.Representative != nil && group.Representative.UserID != nil {
		owner.RepresentativeUserID = group.Representative.UserID.String()
	}
	return owner, nil
}

func (r *groupRepository) CreateTypeGroup(ctx context.Context, tg *model.TypeGroup) error {
	return GetDB(ctx, r.db).Create(tg).Error
}

func (r *groupRepository) UpdateTypeGroup(ctx context.Context, tg *model.TypeGroup) error {
	return GetDB(ctx, r.db).Save(tg).Error
}

func (r *groupRepository) DeleteTypeGroup(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TypeGroup{}).Error
}

func (r *groupRepository) CreateRepresentative(ctx context.Context, rep *model.Representative) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(rep).Error
}

func (r *groupRepository) DeleteRepresentative(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Representative{}).Error
}

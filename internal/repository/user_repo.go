package repository

import (
	"context"

	"ReviewGuard/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户与公司查询（核心只读身份，注册在网关侧）
type UserRepository interface {
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.User, error)
	GetCompanyByID(ctx context.Context, id uint64) (*model.Company, error)
	UpdateCompanyStatus(ctx context.Context, id uint64, status string) error
	GetCompaniesByIDs(ctx context.Context, ids []uint64) ([]*model.Company, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.User, error) {
	result := make(map[uint64]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []*model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *userRepository) GetCompanyByID(ctx context.Context, id uint64) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *userRepository) UpdateCompanyStatus(ctx context.Context, id uint64, status string) error {
	return r.db.WithContext(ctx).Model(&model.Company{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *userRepository) GetCompaniesByIDs(ctx context.Context, ids []uint64) ([]*model.Company, error) {
	if len(ids) == 0 {
		return []*model.Company{}, nil
	}
	var companies []*model.Company
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefectRepository 缺陷代码仓库
type DefectRepository struct {
	db *gorm.DB
}

func NewDefectRepository(db *gorm.DB) *DefectRepository {
	return &DefectRepository{db: db}
}

// FindAll 查询全部缺陷代码
func (r *DefectRepository) FindAll(ctx context.Context) ([]entity.DefectCode, error) {
	var items []entity.DefectCode
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, code ASC").
		Find(&items).Error
	return items, err
}

// Count 缺陷代码数量
func (r *DefectRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.DefectCode{}).Count(&total).Error
	return total, err
}

// BatchCreate inserts defect codes; codes that already exist are skipped.
func (r *DefectRepository) BatchCreate(ctx context.Context, items []entity.DefectCode) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&items).Error
}

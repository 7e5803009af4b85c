package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create 创建操作日志
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByTask 查询任务的操作日志，可按检验项过滤
func (r *ActivityLogRepository) FindByTask(ctx context.Context, taskID, itemID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("task_id = ?", taskID)
	if itemID != "" {
		query = query.Where("item_id = ?", itemID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// LogActivity 便捷记录操作日志
func (r *ActivityLogRepository) LogActivity(ctx context.Context, taskID, itemID, action, fromResult, toResult, content, operatorID string, metadata entity.JSONB) error {
	return r.Create(ctx, &entity.ActivityLog{
		ID:         uuid.New().String()[:32],
		TaskID:     taskID,
		ItemID:     itemID,
		Action:     action,
		FromResult: fromResult,
		ToResult:   toResult,
		Content:    content,
		Metadata:   metadata,
		OperatorID: operatorID,
		CreatedAt:  time.Now(),
	})
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// TaskRepository 检验任务仓库
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindAll 查询检验任务列表（不含检验明细）
func (r *TaskRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionTask, int64, error) {
	var items []entity.InspectionTask
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.InspectionTask{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if result := filters["result"]; result != "" {
		query = query.Where("result = ?", result)
	}
	if workOrder := filters["work_order_no"]; workOrder != "" {
		query = query.Where("work_order_no = ?", workOrder)
	}
	if keyword := filters["keyword"]; keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("task_code LIKE ? OR product_name LIKE ? OR batch_no LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Omit("detail").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找检验任务（含检验明细）
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*entity.InspectionTask, error) {
	var task entity.InspectionTask
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Create 创建检验任务
func (r *TaskRepository) Create(ctx context.Context, task *entity.InspectionTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update 更新检验任务
func (r *TaskRepository) Update(ctx context.Context, task *entity.InspectionTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// SaveDetail stores the in-progress detail of an open task. Completed tasks
// keep the detail written on submit.
func (r *TaskRepository) SaveDetail(ctx context.Context, id string, detail entity.InspectionDetail) error {
	return r.db.WithContext(ctx).
		Model(&entity.InspectionTask{}).
		Where("id = ? AND status <> ?", id, entity.TaskStatusCompleted).
		Update("detail", detail).Error
}

// MarkInProgress moves a pending task to in_progress and assigns the inspector.
// Tasks in any other status are left alone.
func (r *TaskRepository) MarkInProgress(ctx context.Context, id, inspectorID string) error {
	updates := map[string]interface{}{"status": entity.TaskStatusInProgress}
	if inspectorID != "" {
		updates["inspector_id"] = inspectorID
	}
	return r.db.WithContext(ctx).
		Model(&entity.InspectionTask{}).
		Where("id = ? AND status = ?", id, entity.TaskStatusPending).
		Updates(updates).Error
}

// GenerateCode 生成检验任务编码 FQC-{year}-{4位}
func (r *TaskRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("FQC-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.InspectionTask{}).
		Select("COALESCE(MAX(task_code), '')").
		Where("task_code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "FQC-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("FQC-%s-%04d", year, seq), nil
}

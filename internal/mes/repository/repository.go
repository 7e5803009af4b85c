package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories MES仓库集合
type Repositories struct {
	Task        *TaskRepository
	Defect      *DefectRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建MES仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Task:        NewTaskRepository(db),
		Defect:      NewDefectRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}

package entity

import "time"

// ActivityLog 检验操作日志
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	TaskID     string `json:"task_id" gorm:"size:32;not null;index:idx_mes_activity_task"`
	ItemID     string `json:"item_id" gorm:"size:64;index:idx_mes_activity_task"`
	Action     string `json:"action" gorm:"size:50;not null"` // judge_ok/judge_ng/measure/photo_add/photo_remove/submit
	FromResult string `json:"from_result" gorm:"size:20"`
	ToResult   string `json:"to_result" gorm:"size:20"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	OperatorID string    `json:"operator_id" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "mes_activity_logs"
}

// 操作类型
const (
	ActionJudgeOK     = "judge_ok"
	ActionJudgeNG     = "judge_ng"
	ActionMeasure     = "measure"
	ActionPhotoAdd    = "photo_add"
	ActionPhotoRemove = "photo_remove"
	ActionSubmit      = "submit"
)

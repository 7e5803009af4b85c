package entity

import "time"

// InspectionTask FQC检验任务
type InspectionTask struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	TaskCode    string `json:"task_code" gorm:"size:32;uniqueIndex;not null"`
	WorkOrderNo string `json:"work_order_no" gorm:"size:50"`

	ProductCode string  `json:"product_code" gorm:"size:50"`
	ProductName string  `json:"product_name" gorm:"size:200"`
	BatchNo     string  `json:"batch_no" gorm:"size:50"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(10,2)"`
	SampleQty   int     `json:"sample_qty"`

	Status string `json:"status" gorm:"size:20;default:pending"` // pending/in_progress/completed
	Result string `json:"result" gorm:"size:20"`                 // passed/failed

	Detail InspectionDetail `json:"-" gorm:"type:jsonb"`

	InspectorID *string    `json:"inspector_id" gorm:"size:32"`
	InspectedAt *time.Time `json:"inspected_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (InspectionTask) TableName() string {
	return "mes_inspection_tasks"
}

// 检验任务状态
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// 检验任务结果
const (
	TaskResultPassed = "passed"
	TaskResultFailed = "failed"
)

// DefectCode 缺陷代码
type DefectCode struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Category  string    `json:"category" gorm:"size:50;not null;index"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (DefectCode) TableName() string {
	return "mes_defect_codes"
}

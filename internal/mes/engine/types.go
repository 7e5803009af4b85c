package engine

import "time"

// Kind 检验项类型（定性/定量）
type Kind string

const (
	KindQualitative  Kind = "qualitative"
	KindQuantitative Kind = "quantitative"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindQualitative || k == KindQuantitative
}

// Result 检验项判定结果，空字符串表示未判定
type Result string

const (
	ResultUnset Result = ""
	ResultOK    Result = "OK"
	ResultNG    Result = "NG"
)

// GroupStatus 检验组进度状态
type GroupStatus string

const (
	GroupStatusPending    GroupStatus = "pending"
	GroupStatusInProgress GroupStatus = "in_progress"
	GroupStatusCompleted  GroupStatus = "completed"
)

// GroupResult 检验组汇总结果
type GroupResult string

const (
	GroupResultPass GroupResult = "pass"
	GroupResultFail GroupResult = "fail"
	GroupResultNone GroupResult = "none"
)

// Photo 检验项现场照片
type Photo struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	URL        string    `json:"url"`
	ObjectKey  string    `json:"object_key,omitempty"`
}

// SelectedDefect 已选缺陷及其数量
type SelectedDefect struct {
	DefectID string `json:"defect_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Quantitative holds the fields that only exist on quantitative items.
// MeasuredValues always has SampleCount entries; "" marks an unfilled sample.
type Quantitative struct {
	SampleCount    int      `json:"sample_count"`
	LowerLimit     float64  `json:"lower_limit"`
	UpperLimit     float64  `json:"upper_limit"`
	Unit           string   `json:"unit,omitempty"`
	MeasuredValues []string `json:"measured_values"`
}

// Item 检验项
type Item struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Requirement   string           `json:"requirement"`
	Kind          Kind             `json:"kind"`
	PhotoRequired bool             `json:"is_photo_required"`
	Mandatory     bool             `json:"is_mandatory"`
	Quantitative  *Quantitative    `json:"quantitative,omitempty"`
	Result        Result           `json:"result"`
	Photos        []Photo          `json:"photos"`
	Defects       []SelectedDefect `json:"defects"`
}

// Group 检验组
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Items []Item `json:"items"`
}

// AttachmentRef 任务级附件引用（图纸、作业指导书等）
type AttachmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// DetailData is the per-task payload supplied by the task repository.
type DetailData struct {
	Groups      []Group         `json:"groups"`
	Attachments []AttachmentRef `json:"attachments"`
}

// GroupState 检验组派生状态
type GroupState struct {
	Status           GroupStatus `json:"status"`
	Result           GroupResult `json:"group_result"`
	Progress         int         `json:"progress"`
	Total            int         `json:"total"`
	MandatoryPending int         `json:"mandatory_pending"`
}

// GroupView is a group together with its derived state, as handed to renderers.
type GroupView struct {
	Group
	GroupState
}

// Snapshot 任务检验快照（只读副本）
type Snapshot struct {
	TaskID      string          `json:"task_id"`
	Groups      []GroupView     `json:"groups"`
	Attachments []AttachmentRef `json:"attachments"`
	Summary     GroupState      `json:"summary"`
	Pending     []PendingView   `json:"pending_defect_selections,omitempty"`
}

// PendingView is the read-only form of an open defect selection.
type PendingView struct {
	ItemID   string           `json:"item_id"`
	Selected []SelectedDefect `json:"selected"`
}

func (it Item) clone() Item {
	out := it
	if it.Quantitative != nil {
		q := *it.Quantitative
		q.MeasuredValues = append([]string(nil), it.Quantitative.MeasuredValues...)
		out.Quantitative = &q
	}
	out.Photos = append([]Photo{}, it.Photos...)
	out.Defects = append([]SelectedDefect{}, it.Defects...)
	return out
}

func (g Group) clone() Group {
	out := g
	out.Items = make([]Item, len(g.Items))
	for i, it := range g.Items {
		out.Items[i] = it.clone()
	}
	return out
}

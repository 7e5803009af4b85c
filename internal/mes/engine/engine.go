// Package engine holds the inspection item workflow of one FQC task: result
// judgement, measurements, photos and defect tagging, plus the derived
// group/task rollups.
//
// An Engine is not safe for concurrent use; callers serialise access.
package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type itemRef struct {
	group int
	item  int
}

// Engine 单个检验任务的检验项工作流
type Engine struct {
	taskID      string
	groups      []Group
	attachments []AttachmentRef
	index       map[string]itemRef
	pending     map[string]*PendingDefectSelection

	deriveResult bool
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimitDerivation makes quantitative results follow the measured values:
// OK when every filled sample lies within [LowerLimit, UpperLimit], NG
// otherwise, unset while no sample is filled. Manual judgement of
// quantitative items is then rejected.
func WithLimitDerivation() Option {
	return func(e *Engine) {
		e.deriveResult = true
	}
}

// WithClock overrides the time source used for photos without a capture time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New builds an engine from the task's inspection detail payload. The payload
// is copied; item ids must be unique across the whole task.
func New(taskID string, detail DetailData, opts ...Option) (*Engine, error) {
	e := &Engine{
		taskID:      taskID,
		groups:      make([]Group, len(detail.Groups)),
		attachments: append([]AttachmentRef{}, detail.Attachments...),
		index:       make(map[string]itemRef),
		pending:     make(map[string]*PendingDefectSelection),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	for gi, g := range detail.Groups {
		if !g.Kind.Valid() {
			return nil, fmt.Errorf("%w: group %s has kind %q", ErrInvalidDetail, g.ID, g.Kind)
		}
		g = g.clone()
		for ii := range g.Items {
			it := &g.Items[ii]
			if it.ID == "" {
				return nil, fmt.Errorf("%w: item without id in group %s", ErrInvalidDetail, g.ID)
			}
			if _, dup := e.index[it.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate item id %s", ErrInvalidDetail, it.ID)
			}
			if err := normalizeItem(it); err != nil {
				return nil, err
			}
			e.index[it.ID] = itemRef{group: gi, item: ii}
		}
		e.groups[gi] = g
	}

	if e.deriveResult {
		for _, ref := range e.index {
			it := &e.groups[ref.group].Items[ref.item]
			if it.Kind == KindQuantitative {
				deriveFromLimits(it)
			}
		}
	}
	return e, nil
}

func normalizeItem(it *Item) error {
	switch it.Kind {
	case KindQualitative:
		if it.Quantitative != nil {
			return fmt.Errorf("%w: qualitative item %s carries sample data", ErrInvalidDetail, it.ID)
		}
	case KindQuantitative:
		q := it.Quantitative
		if q == nil {
			return fmt.Errorf("%w: quantitative item %s has no sample data", ErrInvalidDetail, it.ID)
		}
		if q.SampleCount < 1 {
			return fmt.Errorf("%w: item %s sample count %d", ErrInvalidDetail, it.ID, q.SampleCount)
		}
		if q.LowerLimit > q.UpperLimit {
			return fmt.Errorf("%w: item %s lower limit above upper limit", ErrInvalidDetail, it.ID)
		}
		if len(q.MeasuredValues) > q.SampleCount {
			return fmt.Errorf("%w: item %s has more values than samples", ErrInvalidDetail, it.ID)
		}
		for len(q.MeasuredValues) < q.SampleCount {
			q.MeasuredValues = append(q.MeasuredValues, "")
		}
	default:
		return fmt.Errorf("%w: item %s has kind %q", ErrInvalidDetail, it.ID, it.Kind)
	}

	switch it.Result {
	case ResultUnset, ResultOK:
		it.Defects = []SelectedDefect{}
	case ResultNG:
		for _, d := range it.Defects {
			if d.Count < 1 {
				return fmt.Errorf("%w: item %s defect %s", ErrInvalidDefectCount, it.ID, d.Code)
			}
		}
	default:
		return fmt.Errorf("%w: item %s result %q", ErrInvalidDetail, it.ID, it.Result)
	}
	sortPhotos(it.Photos)
	return nil
}

// TaskID 所属任务ID
func (e *Engine) TaskID() string {
	return e.taskID
}

// DerivesResults reports whether quantitative results follow the limits.
func (e *Engine) DerivesResults() bool {
	return e.deriveResult
}

func (e *Engine) item(itemID string) (*Item, error) {
	ref, ok := e.index[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	return &e.groups[ref.group].Items[ref.item], nil
}

// SetQualitativeResult judges a qualitative item. OK is committed at once and
// clears the defect list. NG commits nothing: it opens a defect selection that
// must be confirmed with ConfirmDefects or ConfirmPending.
func (e *Engine) SetQualitativeResult(itemID string, result Result) (*PendingDefectSelection, error) {
	it, err := e.item(itemID)
	if err != nil {
		return nil, err
	}
	if it.Kind != KindQualitative {
		return nil, fmt.Errorf("%w: item %s is %s", ErrKindMismatch, itemID, it.Kind)
	}
	return e.judge(it, result)
}

// SetQuantitativeResult is the manual judgement of a quantitative item, with
// the same two-phase NG flow as SetQualitativeResult.
func (e *Engine) SetQuantitativeResult(itemID string, result Result) (*PendingDefectSelection, error) {
	it, err := e.item(itemID)
	if err != nil {
		return nil, err
	}
	if it.Kind != KindQuantitative {
		return nil, fmt.Errorf("%w: item %s is %s", ErrKindMismatch, itemID, it.Kind)
	}
	if e.deriveResult {
		return nil, fmt.Errorf("%w: item %s", ErrResultDerived, itemID)
	}
	return e.judge(it, result)
}

func (e *Engine) judge(it *Item, result Result) (*PendingDefectSelection, error) {
	switch result {
	case ResultOK:
		it.Result = ResultOK
		it.Defects = []SelectedDefect{}
		delete(e.pending, it.ID)
		return nil, nil
	case ResultNG:
		p := newPendingSelection(it.ID, it.Defects)
		e.pending[it.ID] = p
		return p, nil
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidResult, result)
	}
}

// PendingSelection 获取检验项当前打开的缺陷选择
func (e *Engine) PendingSelection(itemID string) (*PendingDefectSelection, bool) {
	p, ok := e.pending[itemID]
	return p, ok
}

// CancelDefectSelection drops the open selection of an item, if any. The item
// keeps its previous result and defects.
func (e *Engine) CancelDefectSelection(itemID string) error {
	if _, err := e.item(itemID); err != nil {
		return err
	}
	delete(e.pending, itemID)
	return nil
}

// ConfirmDefects commits NG with exactly the given defects, replacing any
// previous list. An empty list is accepted.
func (e *Engine) ConfirmDefects(itemID string, defects []SelectedDefect) error {
	it, err := e.item(itemID)
	if err != nil {
		return err
	}
	for _, d := range defects {
		if d.Count < 1 {
			return fmt.Errorf("%w: defect %s count %d", ErrInvalidDefectCount, d.Code, d.Count)
		}
	}
	if e.deriveResult && it.Kind == KindQuantitative && it.Result != ResultNG {
		return fmt.Errorf("%w: item %s is not out of limits", ErrResultDerived, itemID)
	}

	it.Result = ResultNG
	it.Defects = append([]SelectedDefect{}, defects...)
	delete(e.pending, itemID)
	return nil
}

// ConfirmPending commits the item's open selection as its defect list.
func (e *Engine) ConfirmPending(itemID string) error {
	p, ok := e.pending[itemID]
	if !ok {
		if _, err := e.item(itemID); err != nil {
			return err
		}
		return fmt.Errorf("%w: item %s", ErrNoPendingSelection, itemID)
	}
	return e.ConfirmDefects(itemID, p.Selected())
}

// RecordMeasurement stores one sample value of a quantitative item. An empty
// value clears the sample.
func (e *Engine) RecordMeasurement(itemID string, sampleIndex int, value string) error {
	it, err := e.item(itemID)
	if err != nil {
		return err
	}
	if it.Kind != KindQuantitative {
		return fmt.Errorf("%w: item %s is %s", ErrKindMismatch, itemID, it.Kind)
	}
	q := it.Quantitative
	if sampleIndex < 0 || sampleIndex >= q.SampleCount {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidSampleIndex, sampleIndex, q.SampleCount)
	}
	value = strings.TrimSpace(value)
	if value != "" {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMeasurement, value)
		}
	}

	q.MeasuredValues[sampleIndex] = value
	if e.deriveResult {
		deriveFromLimits(it)
	}
	return nil
}

func deriveFromLimits(it *Item) {
	q := it.Quantitative
	filled, within := 0, true
	for _, v := range q.MeasuredValues {
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		filled++
		if err != nil || f < q.LowerLimit || f > q.UpperLimit {
			within = false
		}
	}

	switch {
	case filled == 0:
		it.Result = ResultUnset
	case within:
		it.Result = ResultOK
	default:
		it.Result = ResultNG
	}
	if it.Result != ResultNG {
		it.Defects = []SelectedDefect{}
	}
}

// AttachPhoto 添加检验项照片，按拍摄时间排序
func (e *Engine) AttachPhoto(itemID string, photo Photo) error {
	it, err := e.item(itemID)
	if err != nil {
		return err
	}
	if !it.PhotoRequired {
		return fmt.Errorf("%w: item %s", ErrPhotoNotRequired, itemID)
	}
	if photo.ID == "" {
		return fmt.Errorf("%w: photo without id", ErrInvalidDetail)
	}
	for _, p := range it.Photos {
		if p.ID == photo.ID {
			return nil
		}
	}
	if photo.CapturedAt.IsZero() {
		photo.CapturedAt = e.now()
	}

	at := sort.Search(len(it.Photos), func(i int) bool {
		return it.Photos[i].CapturedAt.After(photo.CapturedAt)
	})
	it.Photos = append(it.Photos, Photo{})
	copy(it.Photos[at+1:], it.Photos[at:])
	it.Photos[at] = photo
	return nil
}

// RemovePhoto 删除检验项照片，返回被删除的照片
func (e *Engine) RemovePhoto(itemID, photoID string) (Photo, error) {
	it, err := e.item(itemID)
	if err != nil {
		return Photo{}, err
	}
	for i, p := range it.Photos {
		if p.ID == photoID {
			it.Photos = append(it.Photos[:i], it.Photos[i+1:]...)
			return p, nil
		}
	}
	return Photo{}, fmt.Errorf("%w: photo %s on item %s", ErrNotFound, photoID, itemID)
}

func sortPhotos(photos []Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].CapturedAt.Before(photos[j].CapturedAt)
	})
}

// Item 获取检验项副本
func (e *Engine) Item(itemID string) (Item, error) {
	it, err := e.item(itemID)
	if err != nil {
		return Item{}, err
	}
	return it.clone(), nil
}

// Group returns a copy of a group with freshly derived state.
func (e *Engine) Group(groupID string) (GroupView, error) {
	for _, g := range e.groups {
		if g.ID == groupID {
			return GroupView{Group: g.clone(), GroupState: DeriveGroupState(g)}, nil
		}
	}
	return GroupView{}, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
}

// Groups 获取全部检验组副本
func (e *Engine) Groups() []GroupView {
	out := make([]GroupView, len(e.groups))
	for i, g := range e.groups {
		out[i] = GroupView{Group: g.clone(), GroupState: DeriveGroupState(g)}
	}
	return out
}

// Summary 任务级汇总
func (e *Engine) Summary() GroupState {
	return Summarize(e.groups)
}

// Detail returns the current state in payload form, for persisting.
func (e *Engine) Detail() DetailData {
	groups := make([]Group, len(e.groups))
	for i, g := range e.groups {
		groups[i] = g.clone()
	}
	return DetailData{
		Groups:      groups,
		Attachments: append([]AttachmentRef{}, e.attachments...),
	}
}

// Snapshot 获取任务只读快照
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		TaskID:      e.taskID,
		Groups:      e.Groups(),
		Attachments: append([]AttachmentRef{}, e.attachments...),
		Summary:     e.Summary(),
	}
	for _, g := range e.groups {
		for _, it := range g.Items {
			if p, ok := e.pending[it.ID]; ok {
				snap.Pending = append(snap.Pending, p.view())
			}
		}
	}
	return snap
}

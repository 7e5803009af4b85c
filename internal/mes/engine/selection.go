package engine

// PendingDefectSelection is the interim state between choosing NG for an item
// and confirming its defect list. It is held outside the committed item record;
// cancelling it leaves the item untouched.
type PendingDefectSelection struct {
	ItemID   string
	selected []SelectedDefect
}

func newPendingSelection(itemID string, current []SelectedDefect) *PendingDefectSelection {
	return &PendingDefectSelection{
		ItemID:   itemID,
		selected: append([]SelectedDefect{}, current...),
	}
}

// Selected 返回当前已选缺陷副本
func (p *PendingDefectSelection) Selected() []SelectedDefect {
	return append([]SelectedDefect{}, p.selected...)
}

// Toggle 勾选/取消勾选缺陷，新勾选的数量为1
func (p *PendingDefectSelection) Toggle(d SelectedDefect) {
	if i := p.indexOf(d.DefectID); i >= 0 {
		p.selected = append(p.selected[:i], p.selected[i+1:]...)
		return
	}
	d.Count = 1
	p.selected = append(p.selected, d)
}

// Increment 缺陷数量+1
func (p *PendingDefectSelection) Increment(defectID string) {
	if i := p.indexOf(defectID); i >= 0 {
		p.selected[i].Count++
	}
}

// Decrement lowers the count of a selected defect. The count never drops below 1.
func (p *PendingDefectSelection) Decrement(defectID string) {
	if i := p.indexOf(defectID); i >= 0 && p.selected[i].Count > 1 {
		p.selected[i].Count--
	}
}

// Remove 移除已选缺陷
func (p *PendingDefectSelection) Remove(defectID string) {
	if i := p.indexOf(defectID); i >= 0 {
		p.selected = append(p.selected[:i], p.selected[i+1:]...)
	}
}

// Clear 清空已选缺陷
func (p *PendingDefectSelection) Clear() {
	p.selected = p.selected[:0]
}

func (p *PendingDefectSelection) indexOf(defectID string) int {
	for i, d := range p.selected {
		if d.DefectID == defectID {
			return i
		}
	}
	return -1
}

func (p *PendingDefectSelection) view() PendingView {
	return PendingView{ItemID: p.ItemID, Selected: p.Selected()}
}

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fqcDetail() DetailData {
	return DetailData{
		Groups: []Group{
			{
				ID:   "grp-appearance",
				Name: "外观检验",
				Kind: KindQualitative,
				Items: []Item{
					{ID: "itm-scratch", Name: "表面划伤", Requirement: "无明显划伤", Kind: KindQualitative, PhotoRequired: true, Mandatory: true},
					{ID: "itm-label", Name: "铭牌标识", Requirement: "字迹清晰", Kind: KindQualitative},
				},
			},
			{
				ID:   "grp-dimension",
				Name: "尺寸检验",
				Kind: KindQuantitative,
				Items: []Item{
					{
						ID: "itm-length", Name: "总长", Requirement: "1050~1118mm", Kind: KindQuantitative, Mandatory: true,
						Quantitative: &Quantitative{SampleCount: 3, LowerLimit: 1050, UpperLimit: 1118, Unit: "mm"},
					},
				},
			},
		},
		Attachments: []AttachmentRef{{ID: "att-1", Name: "检验规范.pdf", URL: "/uploads/spec.pdf"}},
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New("task-001", fqcDetail(), opts...)
	require.NoError(t, err)
	return e
}

var scratchDefect = SelectedDefect{DefectID: "def-1", Code: "WG001", Name: "划伤", Category: "外观类", Count: 2}

func TestNewNormalizesMeasuredValues(t *testing.T) {
	e := newTestEngine(t)
	it, err := e.Item("itm-length")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", ""}, it.Quantitative.MeasuredValues)
	assert.Empty(t, it.Defects)
}

func TestNewRejectsInvalidDetail(t *testing.T) {
	cases := map[string]func(d *DetailData){
		"duplicate id": func(d *DetailData) {
			d.Groups[1].Items[0].ID = "itm-scratch"
		},
		"limits inverted": func(d *DetailData) {
			d.Groups[1].Items[0].Quantitative.LowerLimit = 2000
		},
		"zero samples": func(d *DetailData) {
			d.Groups[1].Items[0].Quantitative.SampleCount = 0
		},
		"quantitative without samples": func(d *DetailData) {
			d.Groups[1].Items[0].Quantitative = nil
		},
		"unknown kind": func(d *DetailData) {
			d.Groups[0].Items[1].Kind = "visual"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := fqcDetail()
			mutate(&d)
			_, err := New("task-001", d)
			assert.ErrorIs(t, err, ErrInvalidDetail)
		})
	}
}

func TestNewDoesNotAliasPayload(t *testing.T) {
	d := fqcDetail()
	e, err := New("task-001", d)
	require.NoError(t, err)
	require.NoError(t, e.RecordMeasurement("itm-length", 0, "1060"))
	assert.Nil(t, d.Groups[1].Items[0].Quantitative.MeasuredValues)
}

func TestSetQualitativeResultOKClearsDefects(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.ConfirmDefects("itm-scratch", []SelectedDefect{scratchDefect}))

	p, err := e.SetQualitativeResult("itm-scratch", ResultOK)
	require.NoError(t, err)
	assert.Nil(t, p)

	it, _ := e.Item("itm-scratch")
	assert.Equal(t, ResultOK, it.Result)
	assert.Empty(t, it.Defects)
}

func TestSetQualitativeResultOKIdempotent(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.SetQualitativeResult("itm-label", ResultOK)
	require.NoError(t, err)
	once := e.Snapshot()

	_, err = e.SetQualitativeResult("itm-label", ResultOK)
	require.NoError(t, err)
	assert.Equal(t, once, e.Snapshot())
}

func TestSetQualitativeResultNGDoesNotCommit(t *testing.T) {
	for _, prior := range []Result{ResultUnset, ResultOK, ResultNG} {
		t.Run(string(prior)+"-prior", func(t *testing.T) {
			e := newTestEngine(t)
			switch prior {
			case ResultOK:
				_, err := e.SetQualitativeResult("itm-scratch", ResultOK)
				require.NoError(t, err)
			case ResultNG:
				require.NoError(t, e.ConfirmDefects("itm-scratch", []SelectedDefect{scratchDefect}))
			}
			before, _ := e.Item("itm-scratch")

			p, err := e.SetQualitativeResult("itm-scratch", ResultNG)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, "itm-scratch", p.ItemID)
			assert.Equal(t, before.Defects, p.Selected())

			after, _ := e.Item("itm-scratch")
			assert.Equal(t, before, after)
		})
	}
}

func TestCancelDefectSelectionKeepsPriorState(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.SetQualitativeResult("itm-scratch", ResultOK)
	require.NoError(t, err)

	p, err := e.SetQualitativeResult("itm-scratch", ResultNG)
	require.NoError(t, err)
	p.Toggle(scratchDefect)
	require.NoError(t, e.CancelDefectSelection("itm-scratch"))

	it, _ := e.Item("itm-scratch")
	assert.Equal(t, ResultOK, it.Result)
	assert.Empty(t, it.Defects)
	_, open := e.PendingSelection("itm-scratch")
	assert.False(t, open)
	assert.Empty(t, e.Snapshot().Pending)
}

func TestConfirmDefectsCommitsExactList(t *testing.T) {
	lists := map[string][]SelectedDefect{
		"empty":  {},
		"single": {scratchDefect},
		"multiple": {
			scratchDefect,
			{DefectID: "def-2", Code: "CC003", Name: "尺寸超差", Category: "尺寸类", Count: 1},
		},
	}
	for name, defects := range lists {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t)
			_, err := e.SetQualitativeResult("itm-scratch", ResultNG)
			require.NoError(t, err)

			require.NoError(t, e.ConfirmDefects("itm-scratch", defects))
			it, _ := e.Item("itm-scratch")
			assert.Equal(t, ResultNG, it.Result)
			assert.Equal(t, defects, it.Defects)
			_, open := e.PendingSelection("itm-scratch")
			assert.False(t, open)
		})
	}
}

func TestConfirmDefectsReplacesPreviousList(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.ConfirmDefects("itm-scratch", []SelectedDefect{scratchDefect}))
	require.NoError(t, e.ConfirmDefects("itm-scratch", nil))

	it, _ := e.Item("itm-scratch")
	assert.Equal(t, ResultNG, it.Result)
	assert.Empty(t, it.Defects)
}

func TestConfirmDefectsRejectsZeroCount(t *testing.T) {
	e := newTestEngine(t)
	bad := scratchDefect
	bad.Count = 0

	err := e.ConfirmDefects("itm-scratch", []SelectedDefect{bad})
	assert.ErrorIs(t, err, ErrInvalidDefectCount)
	it, _ := e.Item("itm-scratch")
	assert.Equal(t, ResultUnset, it.Result)
}

func TestConfirmPending(t *testing.T) {
	e := newTestEngine(t)
	assert.ErrorIs(t, e.ConfirmPending("itm-scratch"), ErrNoPendingSelection)

	p, err := e.SetQualitativeResult("itm-scratch", ResultNG)
	require.NoError(t, err)
	p.Toggle(scratchDefect)
	p.Increment(scratchDefect.DefectID)
	require.NoError(t, e.ConfirmPending("itm-scratch"))

	it, _ := e.Item("itm-scratch")
	assert.Equal(t, ResultNG, it.Result)
	require.Len(t, it.Defects, 1)
	assert.Equal(t, 2, it.Defects[0].Count)
}

func TestSetQualitativeResultErrors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.SetQualitativeResult("missing", ResultOK)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.SetQualitativeResult("itm-length", ResultOK)
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = e.SetQualitativeResult("itm-label", ResultUnset)
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestRecordMeasurement(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RecordMeasurement("itm-length", 1, " 1060 "))

	it, _ := e.Item("itm-length")
	assert.Equal(t, []string{"", "1060", ""}, it.Quantitative.MeasuredValues)

	assert.ErrorIs(t, e.RecordMeasurement("itm-scratch", 0, "1"), ErrKindMismatch)
	assert.ErrorIs(t, e.RecordMeasurement("itm-length", 0, "abc"), ErrInvalidMeasurement)
	assert.ErrorIs(t, e.RecordMeasurement("missing", 0, "1"), ErrNotFound)
}

func TestRecordMeasurementRejectsOutOfRangeIndex(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.RecordMeasurement("itm-length", 0, "1060"))

	for _, idx := range []int{3, -1} {
		err := e.RecordMeasurement("itm-length", idx, "1070")
		assert.ErrorIs(t, err, ErrInvalidSampleIndex)
	}
	it, _ := e.Item("itm-length")
	assert.Equal(t, []string{"1060", "", ""}, it.Quantitative.MeasuredValues)
}

func TestMeasurementsDoNotDeriveResultByDefault(t *testing.T) {
	e := newTestEngine(t)
	for i, v := range []string{"1004", "1005", "1002"} {
		require.NoError(t, e.RecordMeasurement("itm-length", i, v))
	}
	it, _ := e.Item("itm-length")
	assert.Equal(t, ResultUnset, it.Result)

	_, err := e.SetQuantitativeResult("itm-length", ResultOK)
	require.NoError(t, err)
	it, _ = e.Item("itm-length")
	assert.Equal(t, ResultOK, it.Result)
}

func TestMeasurementsDeriveResultWhenEnabled(t *testing.T) {
	e := newTestEngine(t, WithLimitDerivation())
	for i, v := range []string{"1004", "1005", "1002"} {
		require.NoError(t, e.RecordMeasurement("itm-length", i, v))
	}
	it, _ := e.Item("itm-length")
	assert.Equal(t, ResultNG, it.Result)

	require.NoError(t, e.ConfirmDefects("itm-length", []SelectedDefect{{DefectID: "def-2", Code: "CC003", Name: "尺寸超差", Category: "尺寸类", Count: 3}}))

	for i, v := range []string{"1060", "1118", "1050"} {
		require.NoError(t, e.RecordMeasurement("itm-length", i, v))
	}
	it, _ = e.Item("itm-length")
	assert.Equal(t, ResultOK, it.Result)
	assert.Empty(t, it.Defects)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.RecordMeasurement("itm-length", i, ""))
	}
	it, _ = e.Item("itm-length")
	assert.Equal(t, ResultUnset, it.Result)

	_, err := e.SetQuantitativeResult("itm-length", ResultOK)
	assert.ErrorIs(t, err, ErrResultDerived)
	assert.ErrorIs(t, e.ConfirmDefects("itm-length", nil), ErrResultDerived)
}

func TestPartialSamplesDeriveFromFilledValues(t *testing.T) {
	e := newTestEngine(t, WithLimitDerivation())
	require.NoError(t, e.RecordMeasurement("itm-length", 2, "1100"))

	it, _ := e.Item("itm-length")
	assert.Equal(t, ResultOK, it.Result)
}

func TestAttachPhotoKeepsCaptureOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	e := newTestEngine(t, WithClock(func() time.Time { return base.Add(time.Hour) }))

	require.NoError(t, e.AttachPhoto("itm-scratch", Photo{ID: "p2", CapturedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, e.AttachPhoto("itm-scratch", Photo{ID: "p1", CapturedAt: base}))
	require.NoError(t, e.AttachPhoto("itm-scratch", Photo{ID: "p3"}))
	require.NoError(t, e.AttachPhoto("itm-scratch", Photo{ID: "p1", CapturedAt: base}))

	it, _ := e.Item("itm-scratch")
	require.Len(t, it.Photos, 3)
	assert.Equal(t, "p1", it.Photos[0].ID)
	assert.Equal(t, "p2", it.Photos[1].ID)
	assert.Equal(t, "p3", it.Photos[2].ID)
	assert.Equal(t, base.Add(time.Hour), it.Photos[2].CapturedAt)
}

func TestAttachPhotoRejectedWhenNotRequired(t *testing.T) {
	e := newTestEngine(t)
	err := e.AttachPhoto("itm-label", Photo{ID: "p1"})
	assert.ErrorIs(t, err, ErrPhotoNotRequired)

	it, _ := e.Item("itm-label")
	assert.Empty(t, it.Photos)
}

func TestRemovePhoto(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.AttachPhoto("itm-scratch", Photo{ID: "p1", ObjectKey: "photos/p1.jpg"}))

	removed, err := e.RemovePhoto("itm-scratch", "p1")
	require.NoError(t, err)
	assert.Equal(t, "photos/p1.jpg", removed.ObjectKey)

	_, err = e.RemovePhoto("itm-scratch", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotIsACopy(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Snapshot()
	snap.Groups[1].Items[0].Quantitative.MeasuredValues[0] = "999"
	snap.Groups[0].Items[0].Result = ResultNG

	it, _ := e.Item("itm-length")
	assert.Equal(t, "", it.Quantitative.MeasuredValues[0])
	it, _ = e.Item("itm-scratch")
	assert.Equal(t, ResultUnset, it.Result)
}

func TestSnapshotTracksRollups(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Snapshot()
	assert.Equal(t, GroupStatusPending, snap.Summary.Status)
	assert.Equal(t, 2, snap.Summary.MandatoryPending)

	_, err := e.SetQualitativeResult("itm-scratch", ResultOK)
	require.NoError(t, err)
	_, err = e.SetQualitativeResult("itm-label", ResultNG)
	require.NoError(t, err)

	snap = e.Snapshot()
	assert.Equal(t, GroupStatusInProgress, snap.Groups[0].Status)
	assert.Equal(t, 1, snap.Groups[0].Progress)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, "itm-label", snap.Pending[0].ItemID)

	require.NoError(t, e.ConfirmDefects("itm-label", nil))
	g, err := e.Group("grp-appearance")
	require.NoError(t, err)
	assert.Equal(t, GroupStatusCompleted, g.Status)
	assert.Equal(t, GroupResultFail, g.Result)
	assert.Equal(t, 1, e.Summary().MandatoryPending)
}

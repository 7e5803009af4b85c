package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/defect"
	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/bitfantasy/nimo-mes/internal/mes/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// session holds the engine of one opened task. Its mutex serialises every
// operator working on that task.
type session struct {
	mu     sync.Mutex
	task   entity.InspectionTask
	engine *engine.Engine
}

// InspectionService FQC检验服务
type InspectionService struct {
	taskRepo        *repository.TaskRepository
	activityLogRepo *repository.ActivityLogRepository
	defectSvc       *DefectService
	store           storage.PhotoStore
	hub             *sse.Hub
	logger          *zap.Logger
	deriveResults   bool

	mu       sync.Mutex
	sessions map[string]*session
}

// NewInspectionService 创建检验服务
func NewInspectionService(taskRepo *repository.TaskRepository, defectSvc *DefectService, logger *zap.Logger) *InspectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionService{
		taskRepo:  taskRepo,
		defectSvc: defectSvc,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

// SetActivityLogRepo 注入操作日志仓库
func (s *InspectionService) SetActivityLogRepo(repo *repository.ActivityLogRepository) {
	s.activityLogRepo = repo
}

// SetPhotoStore 注入照片存储
func (s *InspectionService) SetPhotoStore(store storage.PhotoStore) {
	s.store = store
}

// SetHub 注入SSE Hub
func (s *InspectionService) SetHub(hub *sse.Hub) {
	s.hub = hub
}

// SetDeriveQuantitativeResult switches quantitative items to limit-derived
// results. It only affects sessions opened afterwards.
func (s *InspectionService) SetDeriveQuantitativeResult(on bool) {
	s.deriveResults = on
}

// TaskView 任务详情（任务头 + 检验快照）
type TaskView struct {
	Task           entity.InspectionTask `json:"task"`
	Inspection     engine.Snapshot       `json:"inspection"`
	DerivesResults bool                  `json:"derives_results"`
}

// JudgeOutcome 判定结果；NG 时 Pending 为待确认的缺陷选择
type JudgeOutcome struct {
	Inspection engine.Snapshot     `json:"inspection"`
	Pending    *engine.PendingView `json:"pending_defect_selection,omitempty"`
}

// PhotoOutcome 照片上传结果
type PhotoOutcome struct {
	Photo      engine.Photo    `json:"photo"`
	Inspection engine.Snapshot `json:"inspection"`
}

// ListTasks 检验任务列表
func (s *InspectionService) ListTasks(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.InspectionTask, int64, error) {
	return s.taskRepo.FindAll(ctx, page, pageSize, filters)
}

// session returns the engine for a task, building it from the stored detail
// the first time the task is touched.
func (s *InspectionService) session(ctx context.Context, taskID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ss, ok := s.sessions[taskID]; ok {
		return ss, nil
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var opts []engine.Option
	if s.deriveResults {
		opts = append(opts, engine.WithLimitDerivation())
	}
	eng, err := engine.New(task.ID, engine.DetailData(task.Detail), opts...)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", task.TaskCode, err)
	}

	ss := &session{task: *task, engine: eng}
	s.sessions[taskID] = ss
	return ss, nil
}

// mutate runs fn on an open, not yet submitted task and returns the snapshot
// taken right after it.
func (s *InspectionService) mutate(ctx context.Context, taskID string, fn func(ss *session) error) (engine.Snapshot, error) {
	ss, err := s.session(ctx, taskID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.task.Status == entity.TaskStatusCompleted {
		return engine.Snapshot{}, fmt.Errorf("%w: %s", ErrTaskCompleted, ss.task.TaskCode)
	}
	if err := fn(ss); err != nil {
		return engine.Snapshot{}, err
	}
	if ss.task.Status != entity.TaskStatusCompleted {
		s.checkpoint(ctx, ss)
	}
	return ss.engine.Snapshot(), nil
}

// checkpoint writes the committed detail back so a restart resumes where the
// operator left off. An open defect selection is not part of it.
func (s *InspectionService) checkpoint(ctx context.Context, ss *session) {
	detail := entity.InspectionDetail(ss.engine.Detail())
	if err := s.taskRepo.SaveDetail(ctx, ss.task.ID, detail); err != nil {
		s.logger.Warn("Failed to save inspection progress",
			zap.String("task_code", ss.task.TaskCode),
			zap.Error(err),
		)
		return
	}
	ss.task.Detail = detail
}

// evict drops a session; the next access reloads the task from the database.
func (s *InspectionService) evict(taskID string) {
	s.mu.Lock()
	delete(s.sessions, taskID)
	s.mu.Unlock()
}

// OpenTask loads a task for inspection. A pending task moves to in_progress and
// is assigned to the operator.
func (s *InspectionService) OpenTask(ctx context.Context, taskID, operatorID string) (*TaskView, error) {
	ss, err := s.session(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.task.Status == entity.TaskStatusPending {
		if err := s.taskRepo.MarkInProgress(ctx, taskID, operatorID); err != nil {
			return nil, fmt.Errorf("start task %s: %w", ss.task.TaskCode, err)
		}
		ss.task.Status = entity.TaskStatusInProgress
		if operatorID != "" {
			op := operatorID
			ss.task.InspectorID = &op
		}
		s.logger.Info("Inspection task started",
			zap.String("task_code", ss.task.TaskCode),
			zap.String("operator_id", operatorID),
		)
		s.publishTask(taskID, "started")
	}

	return &TaskView{
		Task:           ss.task,
		Inspection:     ss.engine.Snapshot(),
		DerivesResults: ss.engine.DerivesResults(),
	}, nil
}

// ListItems returns the rows of one group under a sub-tab. An empty tab means
// the group's own kind.
func (s *InspectionService) ListItems(ctx context.Context, taskID, groupID string, tab engine.Kind) ([]engine.Item, error) {
	ss, err := s.session(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	g, err := ss.engine.Group(groupID)
	if err != nil {
		return nil, err
	}
	if tab == "" {
		tab = g.Kind
	}
	if !tab.Valid() {
		return nil, fmt.Errorf("%w: tab %q", engine.ErrKindMismatch, tab)
	}
	return engine.FilterItems(g.Group, tab), nil
}

// SetResult judges an item. OK is committed at once; NG returns the opened
// defect selection and commits nothing until ConfirmDefects.
func (s *InspectionService) SetResult(ctx context.Context, taskID, itemID string, result engine.Result, operatorID string) (*JudgeOutcome, error) {
	var (
		before  engine.Item
		pending *engine.PendingView
	)
	snap, err := s.mutate(ctx, taskID, func(ss *session) error {
		it, err := ss.engine.Item(itemID)
		if err != nil {
			return err
		}
		before = it

		var p *engine.PendingDefectSelection
		if it.Kind == engine.KindQuantitative {
			p, err = ss.engine.SetQuantitativeResult(itemID, result)
		} else {
			p, err = ss.engine.SetQualitativeResult(itemID, result)
		}
		if err != nil {
			return err
		}
		if p != nil {
			pending = &engine.PendingView{ItemID: p.ItemID, Selected: p.Selected()}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pending == nil {
		s.logActivity(ctx, taskID, itemID, entity.ActionJudgeOK, string(before.Result), string(engine.ResultOK),
			fmt.Sprintf("%s 判定为合格", before.Name), operatorID, nil)
		s.publishItem(taskID, itemID, entity.ActionJudgeOK)
	}
	return &JudgeOutcome{Inspection: snap, Pending: pending}, nil
}

// ConfirmDefects commits NG with the chosen catalog defects.
func (s *InspectionService) ConfirmDefects(ctx context.Context, taskID, itemID string, selections []defect.Selection, operatorID string) (engine.Snapshot, error) {
	catalog, err := s.defectSvc.Catalog(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	defects, err := catalog.Resolve(selections)
	if err != nil {
		return engine.Snapshot{}, err
	}

	var before engine.Item
	snap, err := s.mutate(ctx, taskID, func(ss *session) error {
		it, err := ss.engine.Item(itemID)
		if err != nil {
			return err
		}
		before = it
		return ss.engine.ConfirmDefects(itemID, defects)
	})
	if err != nil {
		return engine.Snapshot{}, err
	}

	codes := make([]string, 0, len(defects))
	total := 0
	for _, d := range defects {
		codes = append(codes, fmt.Sprintf("%s×%d", d.Code, d.Count))
		total += d.Count
	}
	s.logActivity(ctx, taskID, itemID, entity.ActionJudgeNG, string(before.Result), string(engine.ResultNG),
		fmt.Sprintf("%s 判定为不合格，缺陷 %d 处", before.Name, total), operatorID,
		entity.JSONB{"defects": codes})
	s.logger.Info("Inspection item rejected",
		zap.String("task_id", taskID),
		zap.String("item_id", itemID),
		zap.Strings("defects", codes),
	)
	s.publishItem(taskID, itemID, entity.ActionJudgeNG)
	return snap, nil
}

// CancelDefectSelection 取消缺陷选择，检验项保持原状
func (s *InspectionService) CancelDefectSelection(ctx context.Context, taskID, itemID string) (engine.Snapshot, error) {
	return s.mutate(ctx, taskID, func(ss *session) error {
		return ss.engine.CancelDefectSelection(itemID)
	})
}

// RecordMeasurement 录入定量检验项实测值
func (s *InspectionService) RecordMeasurement(ctx context.Context, taskID, itemID string, index int, value, operatorID string) (engine.Snapshot, error) {
	var before, after engine.Item
	snap, err := s.mutate(ctx, taskID, func(ss *session) error {
		var err error
		if before, err = ss.engine.Item(itemID); err != nil {
			return err
		}
		if err := ss.engine.RecordMeasurement(itemID, index, value); err != nil {
			return err
		}
		after, err = ss.engine.Item(itemID)
		return err
	})
	if err != nil {
		return engine.Snapshot{}, err
	}

	recorded := after.Quantitative.MeasuredValues[index]
	s.logActivity(ctx, taskID, itemID, entity.ActionMeasure, string(before.Result), string(after.Result),
		fmt.Sprintf("%s 样本%d 实测值 %s", after.Name, index+1, displayValue(recorded)), operatorID,
		entity.JSONB{"index": index, "value": recorded, "previous": before.Quantitative.MeasuredValues[index]})
	s.publishItem(taskID, itemID, entity.ActionMeasure)
	return snap, nil
}

func displayValue(v string) string {
	if v == "" {
		return "(清空)"
	}
	return v
}

// AttachPhoto uploads a captured photo and attaches it to the item. The object
// is removed again when the item rejects it.
func (s *InspectionService) AttachPhoto(ctx context.Context, taskID, itemID, filename string, r io.Reader, size int64, contentType, operatorID string) (*PhotoOutcome, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if _, err := s.mutate(ctx, taskID, func(ss *session) error {
		it, err := ss.engine.Item(itemID)
		if err != nil {
			return err
		}
		if !it.PhotoRequired {
			return fmt.Errorf("%w: item %s", engine.ErrPhotoNotRequired, itemID)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	photoID := uuid.New().String()[:32]
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("photos/%s/%s/%s%s", taskID, itemID, photoID, ext)

	url, err := s.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	photo := engine.Photo{ID: photoID, CapturedAt: time.Now(), URL: url, ObjectKey: key}

	snap, err := s.mutate(ctx, taskID, func(ss *session) error {
		return ss.engine.AttachPhoto(itemID, photo)
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove rejected photo", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.logActivity(ctx, taskID, itemID, entity.ActionPhotoAdd, "", "", "上传照片 "+filename, operatorID,
		entity.JSONB{"photo_id": photoID, "object_key": key})
	s.publishItem(taskID, itemID, entity.ActionPhotoAdd)
	return &PhotoOutcome{Photo: photo, Inspection: snap}, nil
}

// RemovePhoto 删除检验项照片及其存储对象
func (s *InspectionService) RemovePhoto(ctx context.Context, taskID, itemID, photoID, operatorID string) (engine.Snapshot, error) {
	var removed engine.Photo
	snap, err := s.mutate(ctx, taskID, func(ss *session) error {
		var err error
		removed, err = ss.engine.RemovePhoto(itemID, photoID)
		return err
	})
	if err != nil {
		return engine.Snapshot{}, err
	}

	if removed.ObjectKey != "" && s.store != nil {
		if err := s.store.Delete(ctx, removed.ObjectKey); err != nil {
			s.logger.Warn("Failed to delete photo object", zap.String("key", removed.ObjectKey), zap.Error(err))
		}
	}
	s.logActivity(ctx, taskID, itemID, entity.ActionPhotoRemove, "", "", "删除照片", operatorID,
		entity.JSONB{"photo_id": photoID})
	s.publishItem(taskID, itemID, entity.ActionPhotoRemove)
	return snap, nil
}

// SubmitRequest 提交检验结果请求
type SubmitRequest struct {
	Notes string `json:"notes"`
}

// Submit finalises a task: every mandatory item must be judged. The task row
// receives the final detail, status completed and result passed or failed.
func (s *InspectionService) Submit(ctx context.Context, taskID, operatorID string, req SubmitRequest) (*TaskView, error) {
	var view *TaskView
	_, err := s.mutate(ctx, taskID, func(ss *session) error {
		summary := ss.engine.Summary()
		if summary.MandatoryPending > 0 {
			return fmt.Errorf("%w: %d remaining", ErrMandatoryPending, summary.MandatoryPending)
		}

		task := ss.task
		now := time.Now()
		task.Status = entity.TaskStatusCompleted
		task.Result = entity.TaskResultPassed
		if summary.Result == engine.GroupResultFail {
			task.Result = entity.TaskResultFailed
		}
		task.Detail = entity.InspectionDetail(ss.engine.Detail())
		task.InspectedAt = &now
		if operatorID != "" {
			op := operatorID
			task.InspectorID = &op
		}
		if req.Notes != "" {
			task.Notes = req.Notes
		}
		if err := s.taskRepo.Update(ctx, &task); err != nil {
			return fmt.Errorf("save task %s: %w", task.TaskCode, err)
		}
		ss.task = task

		view = &TaskView{Task: task, Inspection: ss.engine.Snapshot(), DerivesResults: ss.engine.DerivesResults()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.evict(taskID)

	s.logActivity(ctx, taskID, "", entity.ActionSubmit, "", view.Task.Result,
		fmt.Sprintf("提交检验结果：%s", view.Task.Result), operatorID,
		entity.JSONB{"progress": view.Inspection.Summary.Progress, "total": view.Inspection.Summary.Total})
	s.logger.Info("Inspection task submitted",
		zap.String("task_code", view.Task.TaskCode),
		zap.String("result", view.Task.Result),
		zap.String("operator_id", operatorID),
	)
	s.publishTask(taskID, entity.ActionSubmit)
	return view, nil
}

// Report returns the task header and a snapshot for exporting.
func (s *InspectionService) Report(ctx context.Context, taskID string) (*TaskView, error) {
	ss, err := s.session(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return &TaskView{Task: ss.task, Inspection: ss.engine.Snapshot(), DerivesResults: ss.engine.DerivesResults()}, nil
}

// Activities 检验操作日志
func (s *InspectionService) Activities(ctx context.Context, taskID, itemID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	if s.activityLogRepo == nil {
		return []entity.ActivityLog{}, 0, nil
	}
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, 0, err
	}
	return s.activityLogRepo.FindByTask(ctx, taskID, itemID, page, pageSize)
}

func (s *InspectionService) logActivity(ctx context.Context, taskID, itemID, action, from, to, content, operatorID string, metadata entity.JSONB) {
	if s.activityLogRepo == nil {
		return
	}
	if err := s.activityLogRepo.LogActivity(ctx, taskID, itemID, action, from, to, content, operatorID, metadata); err != nil {
		s.logger.Warn("Failed to record inspection activity",
			zap.String("task_id", taskID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *InspectionService) publishItem(taskID, itemID, action string) {
	if s.hub != nil {
		s.hub.PublishItemUpdate(taskID, itemID, action)
	}
}

func (s *InspectionService) publishTask(taskID, action string) {
	if s.hub != nil {
		s.hub.PublishTaskUpdate(taskID, action)
	}
}

package service

import (
	"errors"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/bitfantasy/nimo-mes/internal/mes/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrTaskCompleted      = errors.New("inspection task already submitted")
	ErrMandatoryPending   = errors.New("mandatory inspection items not judged")
	ErrStorageUnavailable = errors.New("photo storage not configured")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
)

// Services MES服务集合
type Services struct {
	Inspection *InspectionService
	Defect     *DefectService
	Export     *ExportService
}

// NewServices 创建服务集合。rdb 和 store 可以为 nil。
func NewServices(repos *repository.Repositories, rdb *redis.Client, store storage.PhotoStore, hub *sse.Hub, cfg *config.Config, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	defectSvc := NewDefectService(repos.Defect, rdb, logger)
	if cfg != nil && cfg.Redis.CacheTTL > 0 {
		defectSvc.SetCacheTTL(cfg.Redis.CacheTTL)
	}

	inspectionSvc := NewInspectionService(repos.Task, defectSvc, logger)
	inspectionSvc.SetActivityLogRepo(repos.ActivityLog)
	inspectionSvc.SetPhotoStore(store)
	inspectionSvc.SetHub(hub)
	if cfg != nil {
		inspectionSvc.SetDeriveQuantitativeResult(cfg.Inspection.DeriveQuantitativeResult)
	}

	return &Services{
		Inspection: inspectionSvc,
		Defect:     defectSvc,
		Export:     NewExportService(inspectionSvc),
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/defect"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defectCatalogCacheKey = "mes:defects:catalog"

// DefectService 缺陷代码服务
type DefectService struct {
	repo   *repository.DefectRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewDefectService 创建缺陷代码服务
func NewDefectService(repo *repository.DefectRepository, rdb *redis.Client, logger *zap.Logger) *DefectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefectService{
		repo:   repo,
		rdb:    rdb,
		ttl:    10 * time.Minute,
		logger: logger,
	}
}

// SetCacheTTL 设置目录缓存有效期
func (s *DefectService) SetCacheTTL(ttl time.Duration) {
	s.ttl = ttl
}

// Catalog loads the defect catalog, from redis when a fresh copy is cached.
// Redis failures fall through to the database.
func (s *DefectService) Catalog(ctx context.Context) (*defect.Catalog, error) {
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, defectCatalogCacheKey).Bytes()
		switch {
		case err == nil:
			var codes []defect.Code
			if err := json.Unmarshal(data, &codes); err == nil {
				return defect.NewCatalog(codes), nil
			}
			s.logger.Warn("Discarding corrupt defect catalog cache")
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("Defect catalog cache read failed", zap.Error(err))
		}
	}

	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load defect codes: %w", err)
	}
	codes := make([]defect.Code, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, defect.Code{ID: r.ID, Code: r.Code, Name: r.Name, Category: r.Category})
	}

	if s.rdb != nil {
		data, _ := json.Marshal(codes)
		if err := s.rdb.Set(ctx, defectCatalogCacheKey, data, s.ttl).Err(); err != nil {
			s.logger.Warn("Defect catalog cache write failed", zap.Error(err))
		}
	}
	return defect.NewCatalog(codes), nil
}

// Search 按分类和关键字查询缺陷代码
func (s *DefectService) Search(ctx context.Context, category, keyword string) ([]defect.Code, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(category, keyword), nil
}

// Categories 分类及数量
func (s *DefectService) Categories(ctx context.Context) ([]defect.CategoryCount, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Categories(), nil
}

// Invalidate 清除目录缓存
func (s *DefectService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, defectCatalogCacheKey).Err(); err != nil {
		s.logger.Warn("Defect catalog cache invalidation failed", zap.Error(err))
	}
}

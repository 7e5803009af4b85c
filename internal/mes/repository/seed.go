package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/defect"
	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// AutoMigrate 创建/更新MES表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.InspectionTask{},
		&entity.DefectCode{},
		&entity.ActivityLog{},
	)
}

// Seed fills empty tables with the default defect catalog and demo FQC tasks.
// Tables that already hold rows are left alone.
func Seed(ctx context.Context, repos *Repositories) error {
	n, err := repos.Defect.Count(ctx)
	if err != nil {
		return fmt.Errorf("count defect codes: %w", err)
	}
	if n == 0 {
		var rows []entity.DefectCode
		for i, d := range defect.DefaultCodes() {
			rows = append(rows, entity.DefectCode{
				ID:        d.ID,
				Code:      d.Code,
				Name:      d.Name,
				Category:  d.Category,
				SortOrder: i,
				CreatedAt: time.Now(),
			})
		}
		if err := repos.Defect.BatchCreate(ctx, rows); err != nil {
			return fmt.Errorf("seed defect codes: %w", err)
		}
	}

	_, total, err := repos.Task.FindAll(ctx, 1, 1, nil)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if total > 0 {
		return nil
	}
	for _, task := range DemoTasks() {
		task := task
		if task.TaskCode == "" {
			if task.TaskCode, err = repos.Task.GenerateCode(ctx); err != nil {
				return fmt.Errorf("generate task code: %w", err)
			}
		}
		if err := repos.Task.Create(ctx, &task); err != nil {
			return fmt.Errorf("seed task %s: %w", task.TaskCode, err)
		}
	}
	return nil
}

func quant(samples int, lower, upper float64, unit string) *engine.Quantitative {
	return &engine.Quantitative{SampleCount: samples, LowerLimit: lower, UpperLimit: upper, Unit: unit}
}

// DemoTasks 演示用FQC检验任务
func DemoTasks() []entity.InspectionTask {
	now := time.Now()

	cabinet := engine.DetailData{
		Groups: []engine.Group{
			{
				ID: "grp-appearance", Name: "外观检验", Kind: engine.KindQualitative,
				Items: []engine.Item{
					{ID: "itm-surface", Name: "表面质量", Requirement: "无划伤、无脏污、无色差", Kind: engine.KindQualitative, PhotoRequired: true, Mandatory: true},
					{ID: "itm-nameplate", Name: "铭牌标识", Requirement: "铭牌内容正确、字迹清晰", Kind: engine.KindQualitative, Mandatory: true},
					{ID: "itm-package", Name: "包装完整性", Requirement: "包装无破损，附件齐全", Kind: engine.KindQualitative, PhotoRequired: true},
				},
			},
			{
				ID: "grp-dimension", Name: "尺寸检验", Kind: engine.KindQuantitative,
				Items: []engine.Item{
					{ID: "itm-length", Name: "柜体总长", Requirement: "1050~1118 mm", Kind: engine.KindQuantitative, Mandatory: true, Quantitative: quant(3, 1050, 1118, "mm")},
					{ID: "itm-hole-pitch", Name: "安装孔距", Requirement: "200.0~200.5 mm", Kind: engine.KindQuantitative, Quantitative: quant(5, 200.0, 200.5, "mm")},
					{ID: "itm-thread", Name: "螺纹检查", Requirement: "通止规检验合格", Kind: engine.KindQualitative},
				},
			},
			{
				ID: "grp-performance", Name: "性能检验", Kind: engine.KindQualitative,
				Items: []engine.Item{
					{ID: "itm-power-on", Name: "通电测试", Requirement: "上电正常，指示灯正常", Kind: engine.KindQualitative, Mandatory: true},
					{ID: "itm-hipot", Name: "耐压测试", Requirement: "漏电流 0~5 mA", Kind: engine.KindQuantitative, PhotoRequired: true, Quantitative: quant(1, 0, 5, "mA")},
				},
			},
		},
		Attachments: []engine.AttachmentRef{
			{ID: "att-sop", Name: "FQC检验作业指导书.pdf", URL: "/uploads/docs/fqc-sop.pdf", Size: 245760},
		},
	}

	bracket := engine.DetailData{
		Groups: []engine.Group{
			{
				ID: "grp-appearance", Name: "外观检验", Kind: engine.KindQualitative,
				Items: []engine.Item{
					{ID: "itm-coating", Name: "涂层外观", Requirement: "涂层均匀，无流挂、无起泡", Kind: engine.KindQualitative, PhotoRequired: true, Mandatory: true},
				},
			},
			{
				ID: "grp-dimension", Name: "尺寸检验", Kind: engine.KindQuantitative,
				Items: []engine.Item{
					{ID: "itm-thickness", Name: "板厚", Requirement: "2.9~3.1 mm", Kind: engine.KindQuantitative, Mandatory: true, Quantitative: quant(3, 2.9, 3.1, "mm")},
				},
			},
		},
	}

	return []entity.InspectionTask{
		{
			ID:          "task-fqc-0001",
			WorkOrderNo: "WO-20260301-001",
			ProductCode: "CAB-1100",
			ProductName: "储能柜体 1100型",
			BatchNo:     "B20260301",
			Quantity:    120,
			SampleQty:   3,
			Status:      entity.TaskStatusPending,
			Detail:      entity.InspectionDetail(cabinet),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "task-fqc-0002",
			WorkOrderNo: "WO-20260302-004",
			ProductCode: "BRK-300",
			ProductName: "安装支架 300型",
			BatchNo:     "B20260302",
			Quantity:    500,
			SampleQty:   3,
			Status:      entity.TaskStatusPending,
			Detail:      entity.InspectionDetail(bracket),
			CreatedAt:   now.Add(time.Minute),
			UpdatedAt:   now.Add(time.Minute),
		},
	}
}

package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 技能需求模块业务错误 ──

var ErrRequirementNotFound = errors.New("技能需求不存在")

// RequirementService 技能需求业务接口。
// 薪酬变化触发级联：仅更新自动生成、且薪酬未被手工覆盖的班次。
// 级联失败回滚整个需求更新——薪酬正确性是关键路径，不做尽力而为。
type RequirementService interface {
	GetByID(ctx context.Context, id string) (*dto.RequirementResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRequirementRequest, actorID string) (*dto.RequirementResponse, *dto.CascadeResponse, error)
}

type requirementService struct {
	repo   *repository.Repository
	totals TotalsService
	logger *zap.Logger
}

// NewRequirementService 创建 RequirementService 实例
func NewRequirementService(repo *repository.Repository, totals TotalsService, logger *zap.Logger) RequirementService {
	return &requirementService{repo: repo, totals: totals, logger: logger}
}

func (s *requirementService) GetByID(ctx context.Context, id string) (*dto.RequirementResponse, error) {
	requirement, err := s.repo.Requirement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequirementNotFound
		}
		s.logger.Error("查询技能需求失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRequirementResponse(requirement), nil
}

func (s *requirementService) Update(ctx context.Context, id string, req *dto.UpdateRequirementRequest, actorID string) (*dto.RequirementResponse, *dto.CascadeResponse, error) {
	var updated *model.EventSkillRequirement
	cascade := &dto.CascadeResponse{}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		requirement, err := tx.Requirement.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequirementNotFound
			}
			return err
		}

		before := requirementSnapshot(requirement)
		oldRate := requirement.PayRate

		requirement.NeededWorkers = req.NeededWorkers
		requirement.PayRate = req.PayRate
		requirement.RequiredCertificationID = req.RequiredCertificationID
		requirement.Description = req.Description
		requirement.Version = req.Version
		requirement.UpdatedBy = &actorID
		if err := tx.Requirement.Update(ctx, requirement); err != nil {
			return err
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityRequirement,
			EntityID:   id,
			Action:     model.ActionUpdated,
			BeforeJSON: before,
			AfterJSON:  requirementSnapshot(requirement),
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		// 级联仅在薪酬实际变化时触发
		if !oldRate.Equal(req.PayRate) {
			count, err := tx.Shift.BulkUpdatePayRate(ctx, id, oldRate, req.PayRate, actorID)
			if err != nil {
				s.logger.Error("薪酬级联失败，回滚需求更新",
					zap.String("requirement_id", id), zap.Error(err))
				return err
			}
			cascade.UpdatedShifts = count

			if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
				EntityType: EntityRequirement,
				EntityID:   id,
				Action:     model.ActionRateCascaded,
				AfterJSON: model.Snapshot{
					"new_rate":       req.PayRate.String(),
					"updated_shifts": count,
				},
				ActorID: actorID,
			}); err != nil {
				return err
			}

			if _, err := s.totals.RecalculateIn(ctx, tx, requirement.EventID); err != nil {
				return err
			}
		}

		updated = requirement
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return toRequirementResponse(updated), cascade, nil
}

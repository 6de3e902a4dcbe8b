package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 用户模块业务错误 ──

var ErrEmailExists = errors.New("邮箱已被使用")

// UserService 操作员账户业务接口
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, actorID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error)
	Delete(ctx context.Context, id string, actorID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, actorID string) (*dto.UserResponse, error) {
	existing, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	user.CreatedBy = &actorID
	user.UpdatedBy = &actorID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			s.logger.Error("创建用户失败", zap.Error(err))
			return err
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityUser,
			EntityID:   user.UserID,
			Action:     model.ActionCreated,
			AfterJSON:  model.Snapshot{"name": user.Name, "email": user.Email, "role": user.Role},
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *userService) Delete(ctx context.Context, id string, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.User.Delete(ctx, id, actorID); err != nil {
			s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
			return err
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityUser,
			EntityID:   id,
			Action:     model.ActionDeleted,
			BeforeJSON: model.Snapshot{"name": user.Name, "email": user.Email, "role": user.Role},
			ActorID:    actorID,
		})
	})
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:    u.UserID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

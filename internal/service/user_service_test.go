package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
)

func setupUserService() (UserService, *mockStore) {
	repo, st := newMockRepository()
	return NewUserService(repo, zap.NewNop()), st
}

func TestUserService_Create_Success(t *testing.T) {
	svc, st := setupUserService()

	req := &dto.CreateUserRequest{
		Name:     "李协调",
		Email:    "lee@example.com",
		Password: "password123",
		Role:     model.RoleCoordinator,
	}
	resp, err := svc.Create(context.Background(), req, "actor-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Role != model.RoleCoordinator {
		t.Errorf("期望role=coordinator，实际=%s", resp.Role)
	}

	// 密码以bcrypt哈希落库，明文不可出现
	stored := st.users[resp.ID]
	if stored.PasswordHash == "password123" {
		t.Fatal("密码不应明文存储")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("哈希应与原密码匹配: %v", err)
	}
	if n := st.countLogs(EntityUser, model.ActionCreated); n != 1 {
		t.Errorf("期望1条创建日志，实际%d条", n)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	svc, _ := setupUserService()

	req := &dto.CreateUserRequest{
		Name:     "李协调",
		Email:    "lee@example.com",
		Password: "password123",
		Role:     model.RoleCoordinator,
	}
	if _, err := svc.Create(context.Background(), req, "actor-1"); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}
	_, err := svc.Create(context.Background(), req, "actor-1")
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("重复邮箱应返回 ErrEmailExists，实际: %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	svc, st := setupUserService()

	resp, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Name: "临时账号", Email: "temp@example.com", Password: "password123", Role: model.RoleViewer,
	}, "actor-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if err := svc.Delete(context.Background(), resp.ID, "actor-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := st.users[resp.ID]; ok {
		t.Error("账号应已删除")
	}
	if n := st.countLogs(EntityUser, model.ActionDeleted); n != 1 {
		t.Errorf("期望1条删除日志，实际%d条", n)
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupUserService()

	_, err := svc.GetByID(context.Background(), "no-such-user")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

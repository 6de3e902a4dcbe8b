package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	pkgerrors "crewdesk/backend/pkg/errors"
)

func setupWorkerService() (WorkerService, *mockStore) {
	repo, st := newMockRepository()
	return NewWorkerService(repo, zap.NewNop()), st
}

func boolPtr(b bool) *bool { return &b }

// ── 员工 CRUD 测试 ──

func TestWorkerService_Create_Success(t *testing.T) {
	svc, st := setupWorkerService()

	req := &dto.CreateWorkerRequest{
		FirstName: "小明",
		LastName:  "王",
		Email:     "xiaoming@example.com",
		Skills:    []string{"服务员", "传菜"},
	}
	resp, err := svc.Create(context.Background(), req, "actor-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !resp.Active {
		t.Error("新建员工应默认在职")
	}
	if len(resp.Skills) != 2 {
		t.Errorf("期望2项技能，实际%d项", len(resp.Skills))
	}
	if n := st.countLogs(EntityWorker, model.ActionCreated); n != 1 {
		t.Errorf("期望1条创建日志，实际%d条", n)
	}
}

func TestWorkerService_Update_Success(t *testing.T) {
	svc, st := setupWorkerService()

	worker := seedWorker(st, "服务员")
	req := &dto.UpdateWorkerRequest{
		FirstName: worker.FirstName,
		LastName:  worker.LastName,
		Active:    boolPtr(false),
		Skills:    []string{"服务员", "调酒师"},
		Version:   1,
	}
	resp, err := svc.Update(context.Background(), worker.WorkerID, req, "actor-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Active {
		t.Error("期望员工转为离职")
	}
	if len(resp.Skills) != 2 {
		t.Errorf("期望2项技能，实际%d项", len(resp.Skills))
	}
}

func TestWorkerService_Update_StaleVersion(t *testing.T) {
	svc, st := setupWorkerService()

	worker := seedWorker(st, "服务员")
	worker.Version = 3

	req := &dto.UpdateWorkerRequest{
		FirstName: worker.FirstName,
		LastName:  worker.LastName,
		Active:    boolPtr(true),
		Version:   1,
	}
	_, err := svc.Update(context.Background(), worker.WorkerID, req, "actor-1")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("过期版本应返回 ErrOptimisticLock，实际: %v", err)
	}
}

func TestWorkerService_Delete_BlockedByActiveAssignments(t *testing.T) {
	svc, st := setupWorkerService()

	worker := seedWorker(st, "服务员")
	shift := seedShift(st, nil, nil, "服务员", testStart, testEnd, 1, nil, false)
	seedAssignment(st, shift.ShiftID, worker.WorkerID, model.AssignmentStatusAssigned)

	err := svc.Delete(context.Background(), worker.WorkerID, "actor-1")
	if !errors.Is(err, ErrWorkerHasAssignments) {
		t.Errorf("有有效指派时应拒绝删除，实际: %v", err)
	}
}

func TestWorkerService_Delete_AllowedWhenOnlyCancelled(t *testing.T) {
	svc, st := setupWorkerService()

	worker := seedWorker(st, "服务员")
	shift := seedShift(st, nil, nil, "服务员", testStart, testEnd, 1, nil, false)
	seedAssignment(st, shift.ShiftID, worker.WorkerID, model.AssignmentStatusCancelled)

	if err := svc.Delete(context.Background(), worker.WorkerID, "actor-1"); err != nil {
		t.Fatalf("仅有已取消指派时应可删除: %v", err)
	}
	if _, ok := st.workers[worker.WorkerID]; ok {
		t.Error("员工应已被删除")
	}
}

// ── 证书测试 ──

func TestWorkerService_GrantAndRevokeCertification(t *testing.T) {
	svc, st := setupWorkerService()

	worker := seedWorker(st, "服务员")
	cert, err := svc.CreateCertification(context.Background(), &dto.CreateCertificationRequest{Name: "食品安全证"}, "actor-1")
	if err != nil {
		t.Fatalf("CreateCertification 应成功: %v", err)
	}

	expires := testEnd.Add(90 * 24 * time.Hour)
	grant := &dto.GrantCertificationRequest{CertificationID: cert.ID, ExpiresAtUTC: &expires}
	if err := svc.GrantCertification(context.Background(), worker.WorkerID, grant, "actor-1"); err != nil {
		t.Fatalf("GrantCertification 应成功: %v", err)
	}
	if len(st.workerCerts) != 1 {
		t.Fatalf("期望1条持证记录，实际%d条", len(st.workerCerts))
	}

	if err := svc.RevokeCertification(context.Background(), worker.WorkerID, cert.ID, "actor-1"); err != nil {
		t.Fatalf("RevokeCertification 应成功: %v", err)
	}
	if len(st.workerCerts) != 0 {
		t.Errorf("撤销后持证记录应清空，实际%d条", len(st.workerCerts))
	}
}

func TestWorkerService_GrantCertification_CertNotFound(t *testing.T) {
	svc, st := setupWorkerService()

	worker := seedWorker(st, "服务员")
	grant := &dto.GrantCertificationRequest{CertificationID: "no-such-cert"}
	err := svc.GrantCertification(context.Background(), worker.WorkerID, grant, "actor-1")
	if !errors.Is(err, ErrCertificationNotFound) {
		t.Errorf("期望 ErrCertificationNotFound，实际: %v", err)
	}
}

func TestWorkerService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupWorkerService()

	_, err := svc.GetByID(context.Background(), "no-such-worker")
	if !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("期望 ErrWorkerNotFound，实际: %v", err)
	}
}

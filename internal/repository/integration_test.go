//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "crewdesk/backend/pkg/errors"

	"crewdesk/backend/config"
	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
	"crewdesk/backend/internal/service"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=crewdesk password=crewdesk_password dbname=crewdesk_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	err = testDB.AutoMigrate(
		&model.User{},
		&model.Worker{},
		&model.Certification{},
		&model.WorkerCertification{},
		&model.Event{},
		&model.EventSchedule{},
		&model.EventSkillRequirement{},
		&model.Shift{},
		&model.Assignment{},
		&model.ActivityLog{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (event *model.Event, worker *model.Worker, shift *model.Shift, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	actor := uuid.New().String()

	event = &model.Event{
		Title:  fmt.Sprintf("测试活动-%d", time.Now().UnixNano()),
		Status: model.EventStatusPublished,
	}
	event.CreatedBy = &actor
	if err := testDB.WithContext(ctx).Create(event).Error; err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}

	worker = &model.Worker{
		FirstName: "测试",
		LastName:  "员工",
		Active:    true,
		Skills:    model.StringArray{"服务员"},
	}
	if err := testDB.WithContext(ctx).Create(worker).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}

	start := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	shift = &model.Shift{
		EventID:       &event.EventID,
		RoleNeeded:    "服务员",
		StartTimeUTC:  start,
		EndTimeUTC:    start.Add(8 * time.Hour),
		Capacity:      1,
		AutoGenerated: true,
	}
	shift.PayRate = decimal.NewNullDecimal(decimal.RequireFromString("20"))
	if err := testDB.WithContext(ctx).Create(shift).Error; err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("shift_id = ?", shift.ShiftID).Delete(&model.Assignment{})
		testDB.Where("shift_id = ?", shift.ShiftID).Delete(&model.Shift{})
		testDB.Where("worker_id = ?", worker.WorkerID).Delete(&model.Worker{})
		testDB.Where("event_id = ?", event.EventID).Delete(&model.Event{})
	}
	return
}

func seedTestAssignment(t *testing.T, shiftID, workerID, status string) *model.Assignment {
	t.Helper()
	a := &model.Assignment{
		ShiftID:    shiftID,
		WorkerID:   workerID,
		AssignedBy: uuid.New().String(),
		Status:     status,
	}
	a.Version = 1
	if err := testDB.Create(a).Error; err != nil {
		t.Fatalf("创建指派失败: %v", err)
	}
	return a
}

// ═══════════════════════════════════════════════════════════
// 乐观锁
// ═══════════════════════════════════════════════════════════

func TestIntegration_EventOptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	event, _, _, cleanup := setupTestData(t)
	defer cleanup()

	// 两个副本读同一行
	first, err := repo.Event.GetByID(ctx, event.EventID)
	if err != nil {
		t.Fatalf("读取活动失败: %v", err)
	}
	second, err := repo.Event.GetByID(ctx, event.EventID)
	if err != nil {
		t.Fatalf("读取活动失败: %v", err)
	}

	first.Title = "第一次修改"
	if err := repo.Event.Update(ctx, first); err != nil {
		t.Fatalf("首次更新应成功: %v", err)
	}
	if first.Version != second.Version+1 {
		t.Errorf("更新后版本应+1：期望%d，实际%d", second.Version+1, first.Version)
	}

	// 过期副本再写：版本比对失败
	second.Title = "第二次修改"
	err = repo.Event.Update(ctx, second)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("过期版本应返回 ErrOptimisticLock，实际: %v", err)
	}
}

func TestIntegration_ShiftOptimisticLock(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	_, _, shift, cleanup := setupTestData(t)
	defer cleanup()

	stale, err := repo.Shift.GetByID(ctx, shift.ShiftID)
	if err != nil {
		t.Fatalf("读取班次失败: %v", err)
	}

	fresh, err := repo.Shift.GetByID(ctx, shift.ShiftID)
	if err != nil {
		t.Fatalf("读取班次失败: %v", err)
	}
	fresh.Capacity = 2
	if err := repo.Shift.Update(ctx, fresh); err != nil {
		t.Fatalf("更新应成功: %v", err)
	}

	stale.Capacity = 3
	if err := repo.Shift.Update(ctx, stale); err != pkgerrors.ErrOptimisticLock {
		t.Errorf("过期版本应返回 ErrOptimisticLock，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// 数据库侧聚合
// ═══════════════════════════════════════════════════════════

// 数据库聚合 SQL 必须与应用侧逐行累加口径一致：
// 排除 cancelled/no_show，登记值优先回退到班次时长/时薪
func TestIntegration_AggregateByEvent(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	event, worker, shift, cleanup := setupTestData(t)
	defer cleanup()

	// 有效指派：登记 6.5h × 25
	active := seedTestAssignment(t, shift.ShiftID, worker.WorkerID, model.AssignmentStatusCompleted)
	active.HoursWorked = decimal.NewNullDecimal(decimal.RequireFromString("6.5"))
	active.HourlyRate = decimal.NewNullDecimal(decimal.RequireFromString("25"))
	if err := repo.Assignment.Update(ctx, active); err != nil {
		t.Fatalf("更新指派失败: %v", err)
	}
	// 已取消指派：不计入
	seedTestAssignment(t, shift.ShiftID, worker.WorkerID, model.AssignmentStatusCancelled)

	agg, err := repo.Assignment.AggregateByEvent(ctx, event.EventID)
	if err != nil {
		t.Fatalf("聚合查询失败: %v", err)
	}
	if !agg.Hours.Equal(decimal.RequireFromString("6.5")) {
		t.Errorf("期望总工时=6.5，实际=%s", agg.Hours)
	}
	if !agg.Pay.Equal(decimal.RequireFromString("162.5")) {
		t.Errorf("期望总薪酬=162.5，实际=%s", agg.Pay)
	}

	count, err := repo.Assignment.CountShiftsWithActiveAssignment(ctx, event.EventID)
	if err != nil {
		t.Fatalf("计数查询失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望1个有有效指派的班次，实际%d", count)
	}
}

// 无登记值时回退到班次时长与班次时薪
func TestIntegration_AggregateByEvent_Fallback(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	event, worker, shift, cleanup := setupTestData(t)
	defer cleanup()

	seedTestAssignment(t, shift.ShiftID, worker.WorkerID, model.AssignmentStatusAssigned)

	agg, err := repo.Assignment.AggregateByEvent(ctx, event.EventID)
	if err != nil {
		t.Fatalf("聚合查询失败: %v", err)
	}
	// 班次8小时 × 20
	if !agg.Hours.Equal(decimal.RequireFromString("8")) {
		t.Errorf("期望总工时=8，实际=%s", agg.Hours)
	}
	if !agg.Pay.Equal(decimal.RequireFromString("160")) {
		t.Errorf("期望总薪酬=160，实际=%s", agg.Pay)
	}
}

// ═══════════════════════════════════════════════════════════
// BulkApprove 幂等
// ═══════════════════════════════════════════════════════════

func TestIntegration_BulkApproveIdempotent(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	_, worker, shift, cleanup := setupTestData(t)
	defer cleanup()

	a := seedTestAssignment(t, shift.ShiftID, worker.WorkerID, model.AssignmentStatusConfirmed)
	actor := uuid.New().String()

	flipped, err := repo.Assignment.BulkApprove(ctx, []string{a.AssignmentID}, actor)
	if err != nil {
		t.Fatalf("首次审批应成功: %v", err)
	}
	if len(flipped) != 1 {
		t.Fatalf("期望翻转1条，实际%d条", len(flipped))
	}

	replay, err := repo.Assignment.BulkApprove(ctx, []string{a.AssignmentID}, actor)
	if err != nil {
		t.Fatalf("重放应成功: %v", err)
	}
	if len(replay) != 0 {
		t.Errorf("重放不应再翻转任何记录，实际%d条", len(replay))
	}
}

// ═══════════════════════════════════════════════════════════
// 角色差异缩减
// ═══════════════════════════════════════════════════════════

// 缩减已占用角色：班次移除走软删除，留存的已取消指派仍能引用原班次行。
// assignments.shift_id 外键在真实库中强制，物理删除会使整个事务失败。
func TestIntegration_RoleDiffRemoveKeepsCancelledAssignments(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	actor := uuid.New().String()

	cfg := &config.Config{}
	cfg.Staffing.BulkAssignMaxPairs = 100
	cfg.Staffing.RoleDiffMaxWorkers = 200
	totals := service.NewTotalsService(repo, zap.NewNop())
	svc := service.NewRoleDiffService(cfg, repo, totals, zap.NewNop())

	event := &model.Event{
		Title:  fmt.Sprintf("缩编活动-%d", time.Now().UnixNano()),
		Status: model.EventStatusPublished,
	}
	if err := testDB.WithContext(ctx).Create(event).Error; err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}

	start := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Hour)
	schedule := &model.EventSchedule{
		EventID:      event.EventID,
		StartTimeUTC: start,
		EndTimeUTC:   start.Add(8 * time.Hour),
	}
	schedule.Version = 1
	if err := testDB.WithContext(ctx).Create(schedule).Error; err != nil {
		t.Fatalf("创建时间窗失败: %v", err)
	}

	requirement := &model.EventSkillRequirement{
		EventID:       event.EventID,
		SkillName:     "服务员",
		NeededWorkers: 2,
		PayRate:       decimal.RequireFromString("20"),
	}
	requirement.Version = 1
	if err := testDB.WithContext(ctx).Create(requirement).Error; err != nil {
		t.Fatalf("创建技能需求失败: %v", err)
	}

	worker := &model.Worker{
		FirstName: "缩编",
		LastName:  "对象",
		Active:    true,
		Skills:    model.StringArray{"服务员"},
	}
	if err := testDB.WithContext(ctx).Create(worker).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}

	shiftIDs := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		shift := &model.Shift{
			EventID:       &event.EventID,
			RequirementID: &requirement.RequirementID,
			RoleNeeded:    "服务员",
			StartTimeUTC:  start,
			EndTimeUTC:    start.Add(8 * time.Hour),
			Capacity:      1,
			AutoGenerated: true,
		}
		shift.PayRate = decimal.NewNullDecimal(decimal.RequireFromString("20"))
		shift.Version = 1
		if err := testDB.WithContext(ctx).Create(shift).Error; err != nil {
			t.Fatalf("创建班次失败: %v", err)
		}
		shiftIDs = append(shiftIDs, shift.ShiftID)
		seedTestAssignment(t, shift.ShiftID, worker.WorkerID, model.AssignmentStatusAssigned)
	}

	defer func() {
		testDB.Where("actor_id = ?", actor).Delete(&model.ActivityLog{})
		testDB.Where("shift_id IN ?", shiftIDs).Delete(&model.Assignment{})
		testDB.Unscoped().Where("requirement_id = ?", requirement.RequirementID).Delete(&model.Shift{})
		testDB.Unscoped().Where("requirement_id = ?", requirement.RequirementID).Delete(&model.EventSkillRequirement{})
		testDB.Unscoped().Where("event_id = ?", event.EventID).Delete(&model.EventSchedule{})
		testDB.Unscoped().Where("worker_id = ?", worker.WorkerID).Delete(&model.Worker{})
		testDB.Unscoped().Where("event_id = ?", event.EventID).Delete(&model.Event{})
	}()

	summary, err := svc.Apply(ctx, event.EventID, &dto.ApplyRolesRequest{
		Roles: []dto.RoleInput{
			{SkillName: "服务员", NeededWorkers: 0, PayRate: decimal.RequireFromString("20")},
		},
		Force:  true,
		Reason: "活动缩编",
	}, actor)
	if err != nil {
		t.Fatalf("force=true 缩减应成功: %v", err)
	}
	if summary.Removed != 2 {
		t.Fatalf("期望移除2个班次，实际%d", summary.Removed)
	}

	// 常规读路径不再看到被移除班次
	live, err := repo.Shift.ListByRequirement(ctx, requirement.RequirementID)
	if err != nil {
		t.Fatalf("查询班次失败: %v", err)
	}
	if len(live) != 0 {
		t.Errorf("移除后不应再查到班次，实际%d个", len(live))
	}

	// 行仍在：软删除标记 + 删除人
	var removed []model.Shift
	if err := testDB.Unscoped().
		Where("requirement_id = ?", requirement.RequirementID).
		Find(&removed).Error; err != nil {
		t.Fatalf("查询已移除班次失败: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("被移除班次行应保留，期望2行，实际%d行", len(removed))
	}
	for _, sh := range removed {
		if !sh.DeletedAt.Valid {
			t.Errorf("班次 %s 应标记软删除", sh.ShiftID)
		}
		if sh.DeletedBy == nil || *sh.DeletedBy != actor {
			t.Errorf("班次 %s 应记录删除人", sh.ShiftID)
		}
	}

	// 已取消指派存活且仍指向原班次
	var cancelled []model.Assignment
	if err := testDB.
		Where("shift_id IN ?", shiftIDs).
		Find(&cancelled).Error; err != nil {
		t.Fatalf("查询指派失败: %v", err)
	}
	if len(cancelled) != 2 {
		t.Fatalf("已取消指派应保留，期望2条，实际%d条", len(cancelled))
	}
	for _, a := range cancelled {
		if a.Status != model.AssignmentStatusCancelled {
			t.Errorf("指派 %s 期望状态 cancelled，实际 %s", a.AssignmentID, a.Status)
		}
	}
}

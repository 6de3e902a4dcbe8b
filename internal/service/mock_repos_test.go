package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
	pkgerrors "crewdesk/backend/pkg/errors"
)

// ── 共享内存存储 ──
//
// 读取返回副本：服务层先读后改再 Update 的流程里，
// 只有副本才能让乐观锁的版本比对真正生效。

type mockStore struct {
	seq          int
	users        map[string]*model.User
	workers      map[string]*model.Worker
	certs        map[string]*model.Certification
	workerCerts  map[string]*model.WorkerCertification
	events       map[string]*model.Event
	schedules    map[string]*model.EventSchedule
	requirements map[string]*model.EventSkillRequirement
	shifts       map[string]*model.Shift
	assignments  map[string]*model.Assignment
	logs         []model.ActivityLog

	// 故障注入：非 nil 时 BulkUpdateTimes 直接失败
	bulkUpdateTimesErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:        make(map[string]*model.User),
		workers:      make(map[string]*model.Worker),
		certs:        make(map[string]*model.Certification),
		workerCerts:  make(map[string]*model.WorkerCertification),
		events:       make(map[string]*model.Event),
		schedules:    make(map[string]*model.EventSchedule),
		requirements: make(map[string]*model.EventSkillRequirement),
		shifts:       make(map[string]*model.Shift),
		assignments:  make(map[string]*model.Assignment),
	}
}

func (st *mockStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%d", prefix, st.seq)
}

// newMockRepository 构造 mock 仓库聚合（db 为 nil，事务降级为直接执行）
func newMockRepository() (*repository.Repository, *mockStore) {
	st := newMockStore()
	return &repository.Repository{
		User:                &mockUserRepo{st},
		Worker:              &mockWorkerRepo{st},
		Certification:       &mockCertificationRepo{st},
		WorkerCertification: &mockWorkerCertificationRepo{st},
		Event:               &mockEventRepo{st},
		EventSchedule:       &mockEventScheduleRepo{st},
		Requirement:         &mockRequirementRepo{st},
		Shift:               &mockShiftRepo{st},
		Assignment:          &mockAssignmentRepo{st},
		ActivityLog:         &mockActivityLogRepo{st},
	}, st
}

// ── Mock UserRepository ──

type mockUserRepo struct{ st *mockStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = m.st.nextID("user")
	}
	user.Version = 1
	cp := *user
	m.st.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.st.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.st.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.st.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.st.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID, passwordHash, _ string) error {
	if u, ok := m.st.users[userID]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.st.users, id)
	return nil
}

// ── Mock WorkerRepository ──

type mockWorkerRepo struct{ st *mockStore }

func (m *mockWorkerRepo) Create(_ context.Context, worker *model.Worker) error {
	if worker.WorkerID == "" {
		worker.WorkerID = m.st.nextID("wkr")
	}
	worker.Version = 1
	cp := *worker
	m.st.workers[worker.WorkerID] = &cp
	return nil
}

func (m *mockWorkerRepo) GetByID(_ context.Context, id string) (*model.Worker, error) {
	w, ok := m.st.workers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *w
	for _, wc := range m.st.workerCerts {
		if wc.WorkerID == id {
			wcp := *wc
			if c, ok := m.st.certs[wc.CertificationID]; ok {
				ccp := *c
				wcp.Certification = &ccp
			}
			cp.Certifications = append(cp.Certifications, wcp)
		}
	}
	return &cp, nil
}

func (m *mockWorkerRepo) List(_ context.Context, activeOnly bool, _, _ int) ([]model.Worker, int64, error) {
	var result []model.Worker
	for _, w := range m.st.workers {
		if activeOnly && !w.Active {
			continue
		}
		result = append(result, *w)
	}
	return result, int64(len(result)), nil
}

func (m *mockWorkerRepo) Update(_ context.Context, worker *model.Worker) error {
	stored, ok := m.st.workers[worker.WorkerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != worker.Version {
		return pkgerrors.ErrOptimisticLock
	}
	worker.Version++
	cp := *worker
	cp.Certifications = nil
	m.st.workers[worker.WorkerID] = &cp
	return nil
}

func (m *mockWorkerRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.st.workers, id)
	return nil
}

// ── Mock CertificationRepository ──

type mockCertificationRepo struct{ st *mockStore }

func (m *mockCertificationRepo) Create(_ context.Context, cert *model.Certification) error {
	if cert.CertificationID == "" {
		cert.CertificationID = m.st.nextID("cert")
	}
	cert.Version = 1
	cp := *cert
	m.st.certs[cert.CertificationID] = &cp
	return nil
}

func (m *mockCertificationRepo) GetByID(_ context.Context, id string) (*model.Certification, error) {
	if c, ok := m.st.certs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificationRepo) List(_ context.Context) ([]model.Certification, error) {
	var result []model.Certification
	for _, c := range m.st.certs {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockCertificationRepo) Update(_ context.Context, cert *model.Certification) error {
	stored, ok := m.st.certs[cert.CertificationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != cert.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cert.Version++
	cp := *cert
	m.st.certs[cert.CertificationID] = &cp
	return nil
}

func (m *mockCertificationRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.st.certs, id)
	return nil
}

// ── Mock WorkerCertificationRepository ──

type mockWorkerCertificationRepo struct{ st *mockStore }

func (m *mockWorkerCertificationRepo) Grant(_ context.Context, wc *model.WorkerCertification) error {
	// upsert：同一 worker+cert 只保留一条
	for _, existing := range m.st.workerCerts {
		if existing.WorkerID == wc.WorkerID && existing.CertificationID == wc.CertificationID {
			existing.ExpiresAtUTC = wc.ExpiresAtUTC
			return nil
		}
	}
	if wc.WorkerCertificationID == "" {
		wc.WorkerCertificationID = m.st.nextID("wc")
	}
	cp := *wc
	m.st.workerCerts[wc.WorkerCertificationID] = &cp
	return nil
}

func (m *mockWorkerCertificationRepo) Revoke(_ context.Context, workerID, certificationID string) error {
	for id, wc := range m.st.workerCerts {
		if wc.WorkerID == workerID && wc.CertificationID == certificationID {
			delete(m.st.workerCerts, id)
			return nil
		}
	}
	return nil
}

func (m *mockWorkerCertificationRepo) ListByWorker(_ context.Context, workerID string) ([]model.WorkerCertification, error) {
	var result []model.WorkerCertification
	for _, wc := range m.st.workerCerts {
		if wc.WorkerID != workerID {
			continue
		}
		cp := *wc
		if c, ok := m.st.certs[wc.CertificationID]; ok {
			ccp := *c
			cp.Certification = &ccp
		}
		result = append(result, cp)
	}
	return result, nil
}

// ── Mock EventRepository ──

type mockEventRepo struct{ st *mockStore }

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	if event.EventID == "" {
		event.EventID = m.st.nextID("evt")
	}
	event.Version = 1
	cp := *event
	m.st.events[event.EventID] = &cp
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.st.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	for _, sc := range m.st.schedules {
		if sc.EventID == id {
			scp := *sc
			cp.Schedule = &scp
			break
		}
	}
	for _, r := range m.st.requirements {
		if r.EventID == id {
			cp.Requirements = append(cp.Requirements, *r)
		}
	}
	return &cp, nil
}

func (m *mockEventRepo) GetForUpdate(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.st.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) List(_ context.Context, status string, _, _ int) ([]model.Event, int64, error) {
	var result []model.Event
	for _, e := range m.st.events {
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, *e)
	}
	return result, int64(len(result)), nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event) error {
	stored, ok := m.st.events[event.EventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != event.Version {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version++
	cp := *event
	cp.Schedule = nil
	cp.Requirements = nil
	cp.Shifts = nil
	m.st.events[event.EventID] = &cp
	return nil
}

func (m *mockEventRepo) UpdateTotals(_ context.Context, eventID string, hours, pay decimal.Decimal, assignedCount, totalCount int, status string) error {
	e, ok := m.st.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.TotalHoursWorked = hours
	e.TotalPayAmount = pay
	e.AssignedShiftsCount = assignedCount
	e.TotalShiftsCount = totalCount
	if status != "" {
		e.Status = status
	}
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string, _ string) error {
	if e, ok := m.st.events[id]; ok {
		e.Status = model.EventStatusDeleted
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock EventScheduleRepository ──

type mockEventScheduleRepo struct{ st *mockStore }

func (m *mockEventScheduleRepo) Create(_ context.Context, schedule *model.EventSchedule) error {
	if schedule.EventScheduleID == "" {
		schedule.EventScheduleID = m.st.nextID("sch")
	}
	schedule.Version = 1
	cp := *schedule
	m.st.schedules[schedule.EventScheduleID] = &cp
	return nil
}

func (m *mockEventScheduleRepo) GetByEvent(_ context.Context, eventID string) (*model.EventSchedule, error) {
	for _, sc := range m.st.schedules {
		if sc.EventID == eventID {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventScheduleRepo) Update(_ context.Context, schedule *model.EventSchedule) error {
	stored, ok := m.st.schedules[schedule.EventScheduleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != schedule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version++
	cp := *schedule
	m.st.schedules[schedule.EventScheduleID] = &cp
	return nil
}

// ── Mock EventSkillRequirementRepository ──

type mockRequirementRepo struct{ st *mockStore }

func (m *mockRequirementRepo) Create(_ context.Context, req *model.EventSkillRequirement) error {
	if req.RequirementID == "" {
		req.RequirementID = m.st.nextID("req")
	}
	req.Version = 1
	cp := *req
	m.st.requirements[req.RequirementID] = &cp
	return nil
}

func (m *mockRequirementRepo) GetByID(_ context.Context, id string) (*model.EventSkillRequirement, error) {
	if r, ok := m.st.requirements[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequirementRepo) ListByEvent(_ context.Context, eventID string) ([]model.EventSkillRequirement, error) {
	var result []model.EventSkillRequirement
	for _, r := range m.st.requirements {
		if r.EventID == eventID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRequirementRepo) Update(_ context.Context, req *model.EventSkillRequirement) error {
	stored, ok := m.st.requirements[req.RequirementID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	m.st.requirements[req.RequirementID] = &cp
	return nil
}

func (m *mockRequirementRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.st.requirements, id)
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ st *mockStore }

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = m.st.nextID("sft")
	}
	shift.Version = 1
	cp := *shift
	m.st.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) BatchCreate(ctx context.Context, shifts []model.Shift) error {
	for i := range shifts {
		if err := m.Create(ctx, &shifts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	sh, ok := m.st.shifts[id]
	if !ok || sh.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sh
	cp.Assignments = m.assignmentsOf(id, true)
	return &cp, nil
}

// assignmentsOf 班次的指派副本，withWorker 时附带员工
func (m *mockShiftRepo) assignmentsOf(shiftID string, withWorker bool) []model.Assignment {
	var result []model.Assignment
	for _, a := range m.st.assignments {
		if a.ShiftID != shiftID {
			continue
		}
		cp := *a
		if withWorker {
			if w, ok := m.st.workers[a.WorkerID]; ok {
				wcp := *w
				cp.Worker = &wcp
			}
		}
		result = append(result, cp)
	}
	return result
}

func (m *mockShiftRepo) ListByEvent(_ context.Context, eventID string) ([]model.Shift, error) {
	var result []model.Shift
	for _, sh := range m.st.shifts {
		if sh.DeletedAt.Valid || sh.EventID == nil || *sh.EventID != eventID {
			continue
		}
		cp := *sh
		cp.Assignments = m.assignmentsOf(sh.ShiftID, false)
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockShiftRepo) ListByRequirement(_ context.Context, requirementID string) ([]model.Shift, error) {
	var result []model.Shift
	for _, sh := range m.st.shifts {
		if sh.DeletedAt.Valid || sh.RequirementID == nil || *sh.RequirementID != requirementID {
			continue
		}
		cp := *sh
		cp.Assignments = m.assignmentsOf(sh.ShiftID, false)
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	stored, ok := m.st.shifts[shift.ShiftID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version++
	cp := *shift
	cp.Assignments = nil
	m.st.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) DeleteByIDs(_ context.Context, ids []string, deletedBy string) error {
	for _, id := range ids {
		sh, ok := m.st.shifts[id]
		if !ok {
			continue
		}
		sh.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		sh.DeletedBy = &deletedBy
	}
	return nil
}

func (m *mockShiftRepo) BulkUpdateTimes(_ context.Context, eventID string, start, end time.Time, _ string) (int64, error) {
	if m.st.bulkUpdateTimesErr != nil {
		return 0, m.st.bulkUpdateTimesErr
	}
	var count int64
	for _, sh := range m.st.shifts {
		if !sh.DeletedAt.Valid && sh.EventID != nil && *sh.EventID == eventID {
			sh.StartTimeUTC = start
			sh.EndTimeUTC = end
			count++
		}
	}
	return count, nil
}

func (m *mockShiftRepo) BulkUpdatePayRate(_ context.Context, requirementID string, oldRate, newRate decimal.Decimal, _ string) (int64, error) {
	var count int64
	for _, sh := range m.st.shifts {
		if sh.DeletedAt.Valid || sh.RequirementID == nil || *sh.RequirementID != requirementID || !sh.AutoGenerated {
			continue
		}
		if sh.PayRate.Valid && !sh.PayRate.Decimal.Equal(oldRate) {
			continue
		}
		sh.PayRate.Decimal = newRate
		sh.PayRate.Valid = true
		count++
	}
	return count, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ st *mockStore }

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	if assignment.AssignmentID == "" {
		assignment.AssignmentID = m.st.nextID("asg")
	}
	assignment.Version = 1
	if assignment.AssignedAtUTC.IsZero() {
		assignment.AssignedAtUTC = time.Now().UTC()
	}
	cp := *assignment
	cp.Shift = nil
	cp.Worker = nil
	m.st.assignments[assignment.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := m.st.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	if sh, ok := m.st.shifts[a.ShiftID]; ok && !sh.DeletedAt.Valid {
		scp := *sh
		cp.Shift = &scp
	}
	if w, ok := m.st.workers[a.WorkerID]; ok {
		wcp := *w
		cp.Worker = &wcp
	}
	return &cp, nil
}

func (m *mockAssignmentRepo) ListByShift(_ context.Context, shiftID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.st.assignments {
		if a.ShiftID == shiftID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListActiveByWorker(_ context.Context, workerID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.st.assignments {
		if a.WorkerID != workerID || !a.IsActive() {
			continue
		}
		cp := *a
		if sh, ok := m.st.shifts[a.ShiftID]; ok && !sh.DeletedAt.Valid {
			scp := *sh
			cp.Shift = &scp
		}
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByEvent(_ context.Context, eventID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.st.assignments {
		sh, ok := m.st.shifts[a.ShiftID]
		if !ok || sh.DeletedAt.Valid || sh.EventID == nil || *sh.EventID != eventID {
			continue
		}
		cp := *a
		scp := *sh
		cp.Shift = &scp
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *model.Assignment) error {
	stored, ok := m.st.assignments[assignment.AssignmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != assignment.Version {
		return pkgerrors.ErrOptimisticLock
	}
	assignment.Version++
	cp := *assignment
	cp.Shift = nil
	cp.Worker = nil
	m.st.assignments[assignment.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) HardDelete(_ context.Context, id string) error {
	delete(m.st.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) BulkApprove(_ context.Context, ids []string, updatedBy string) ([]string, error) {
	var flipped []string
	for _, id := range ids {
		a, ok := m.st.assignments[id]
		if !ok || a.Approved {
			continue
		}
		a.Approved = true
		a.UpdatedBy = &updatedBy
		flipped = append(flipped, id)
	}
	return flipped, nil
}

func (m *mockAssignmentRepo) AggregateByEvent(ctx context.Context, eventID string) (*repository.EventAggregates, error) {
	assignments, err := m.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	hours := decimal.Zero
	pay := decimal.Zero
	for i := range assignments {
		a := &assignments[i]
		if !a.IsActive() || a.Shift == nil {
			continue
		}
		h := a.EffectiveHours(a.Shift)
		hours = hours.Add(h)
		pay = pay.Add(h.Mul(a.EffectiveHourlyRate(a.Shift)))
	}
	return &repository.EventAggregates{Hours: hours.Round(2), Pay: pay.Round(2)}, nil
}

func (m *mockAssignmentRepo) CountShiftsWithActiveAssignment(ctx context.Context, eventID string) (int64, error) {
	assignments, err := m.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{})
	for i := range assignments {
		if assignments[i].IsActive() {
			seen[assignments[i].ShiftID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct{ st *mockStore }

func (m *mockActivityLogRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	if entry.ActivityLogID == "" {
		entry.ActivityLogID = m.st.nextID("log")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.st.logs = append(m.st.logs, *entry)
	return nil
}

func (m *mockActivityLogRepo) BatchCreate(ctx context.Context, entries []model.ActivityLog) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockActivityLogRepo) ListByEntity(_ context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	var matched []model.ActivityLog
	for _, l := range m.st.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── 测试夹具辅助 ──

// countLogs 统计指定实体+动作的日志条数
// countLiveShifts 未被软删除的班次数
func (st *mockStore) countLiveShifts() int {
	n := 0
	for _, sh := range st.shifts {
		if !sh.DeletedAt.Valid {
			n++
		}
	}
	return n
}

func (st *mockStore) countLogs(entityType, action string) int {
	n := 0
	for _, l := range st.logs {
		if l.EntityType == entityType && l.Action == action {
			n++
		}
	}
	return n
}

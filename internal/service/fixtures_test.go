package service

import (
	"time"

	"github.com/shopspring/decimal"

	"crewdesk/backend/config"
	"crewdesk/backend/internal/model"
)

// ── 测试数据构造 ──

// 测试用活动时间窗（未来时间，满足"未开始"前置条件）
var (
	testStart = time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
)

func testConfig() *config.Config {
	return &config.Config{
		Staffing: config.StaffingConfig{
			BulkAssignMaxPairs: 100,
			RoleDiffMaxWorkers: 200,
		},
	}
}

func seedWorker(st *mockStore, skills ...string) *model.Worker {
	w := &model.Worker{
		WorkerID:  st.nextID("wkr"),
		FirstName: "测试",
		LastName:  "员工",
		Active:    true,
		Skills:    model.StringArray(skills),
	}
	w.Version = 1
	st.workers[w.WorkerID] = w
	return w
}

func seedEvent(st *mockStore, status string) *model.Event {
	e := &model.Event{
		EventID: st.nextID("evt"),
		Title:   "测试活动",
		Status:  status,
	}
	e.Version = 1
	st.events[e.EventID] = e
	return e
}

func seedSchedule(st *mockStore, eventID string, start, end time.Time) *model.EventSchedule {
	sc := &model.EventSchedule{
		EventScheduleID: st.nextID("sch"),
		EventID:         eventID,
		StartTimeUTC:    start,
		EndTimeUTC:      end,
	}
	sc.Version = 1
	st.schedules[sc.EventScheduleID] = sc
	return sc
}

func seedRequirement(st *mockStore, eventID, skill string, needed int, rate decimal.Decimal) *model.EventSkillRequirement {
	r := &model.EventSkillRequirement{
		RequirementID: st.nextID("req"),
		EventID:       eventID,
		SkillName:     skill,
		NeededWorkers: needed,
		PayRate:       rate,
	}
	r.Version = 1
	st.requirements[r.RequirementID] = r
	return r
}

func seedShift(st *mockStore, eventID, requirementID *string, role string, start, end time.Time, capacity int, rate *decimal.Decimal, autoGenerated bool) *model.Shift {
	sh := &model.Shift{
		ShiftID:       st.nextID("sft"),
		EventID:       eventID,
		RequirementID: requirementID,
		RoleNeeded:    role,
		StartTimeUTC:  start,
		EndTimeUTC:    end,
		Capacity:      capacity,
		AutoGenerated: autoGenerated,
	}
	if rate != nil {
		sh.PayRate.Decimal = *rate
		sh.PayRate.Valid = true
	}
	sh.Version = 1
	st.shifts[sh.ShiftID] = sh
	return sh
}

func seedAssignment(st *mockStore, shiftID, workerID, status string) *model.Assignment {
	a := &model.Assignment{
		AssignmentID:  st.nextID("asg"),
		ShiftID:       shiftID,
		WorkerID:      workerID,
		AssignedBy:    "actor-1",
		AssignedAtUTC: time.Now().UTC(),
		Status:        status,
	}
	a.Version = 1
	st.assignments[a.AssignmentID] = a
	return a
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

package service

import (
	"fmt"

	"crewdesk/backend/internal/model"
)

// 冲突类别
const (
	ConflictSkillMismatch        = "skill_mismatch"
	ConflictCapacityExceeded     = "capacity_exceeded"
	ConflictTimeOverlap          = "time_overlap"
	ConflictCertificationMissing = "certification_missing"
	ConflictCertificationExpired = "certification_expired"
)

// Conflict 单条排班冲突
type Conflict struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ConflictError 指派被冲突阻止时的结构化错误，携带完整冲突清单
type ConflictError struct {
	Conflicts []Conflict
}

// Error 返回首个阻断原因
func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "排班冲突"
	}
	return e.Conflicts[0].Message
}

// ConflictChecker 排班冲突检测器。
// 对候选 (员工, 班次) 组合依次评估技能匹配、容量余额、时间重叠、
// 认证持有与有效期。输入必须来自同一一致性快照；
// 检测器总是计算完整冲突清单，由调用方决定呈现全部还是首个。
type ConflictChecker struct{}

// NewConflictChecker 创建 ConflictChecker 实例
func NewConflictChecker() *ConflictChecker {
	return &ConflictChecker{}
}

// Check 返回有序冲突清单，空清单表示可指派。
// shiftAssignments 为候选班次的现有指派（用于容量判断），
// workerAssignments 为员工当前有效指派及其班次（用于时间重叠判断）。
func (c *ConflictChecker) Check(
	worker *model.Worker,
	shift *model.Shift,
	shiftAssignments []model.Assignment,
	workerAssignments []model.Assignment,
	workerCerts []model.WorkerCertification,
) []Conflict {
	var conflicts []Conflict

	// 1. 技能匹配
	if shift.RoleNeeded != "" && !worker.HasSkill(shift.RoleNeeded) {
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictSkillMismatch,
			Message: fmt.Sprintf("员工不具备班次所需技能 %s", shift.RoleNeeded),
		})
	}

	// 2. 容量余额：有效（非终态）指派数达到容量即满
	active := 0
	for i := range shiftAssignments {
		if shiftAssignments[i].IsActive() {
			active++
		}
	}
	if active >= shift.Capacity {
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictCapacityExceeded,
			Message: fmt.Sprintf("班次容量已满（%d/%d）", active, shift.Capacity),
		})
	}

	// 3. 时间重叠：遍历员工全部有效指派，不止最近一条
	for i := range workerAssignments {
		a := &workerAssignments[i]
		if !a.IsActive() || a.Shift == nil {
			continue
		}
		if Overlaps(a.Shift.StartTimeUTC, a.Shift.EndTimeUTC, shift.StartTimeUTC, shift.EndTimeUTC) {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictTimeOverlap,
				Message: fmt.Sprintf("员工在 %s ~ %s 已有有效指派",
					a.Shift.StartTimeUTC.Format("2006-01-02 15:04:05"),
					a.Shift.EndTimeUTC.Format("2006-01-02 15:04:05")),
			})
			break
		}
	}

	// 4. 认证要求：缺证 → missing；到期时间早于班次结束 → expired
	if shift.RequiredCertID != nil {
		var held *model.WorkerCertification
		for i := range workerCerts {
			if workerCerts[i].CertificationID == *shift.RequiredCertID {
				held = &workerCerts[i]
				break
			}
		}
		switch {
		case held == nil:
			conflicts = append(conflicts, Conflict{
				Kind:    ConflictCertificationMissing,
				Message: "员工未持有班次要求的认证",
			})
		case !held.ValidAt(shift.EndTimeUTC):
			conflicts = append(conflicts, Conflict{
				Kind:    ConflictCertificationExpired,
				Message: "员工持有的认证在班次结束前已过期",
			})
		}
	}

	return conflicts
}

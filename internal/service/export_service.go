package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoShifts     = errors.New("该活动暂无班次")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 花名册导出为 Excel (.xlsx)：每行一个班次槽位，含指派员工与实际工时薪酬
//   - 员工日历导出为 iCalendar (.ics)：员工的有效指派作为日历事件，可订阅
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRoster 导出活动花名册为 Excel
	ExportRoster(ctx context.Context, eventID string) (*bytes.Buffer, string, error)
	// ExportWorkerCalendar 导出员工排班日历为 ICS
	ExportWorkerCalendar(ctx context.Context, workerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRoster — 导出活动花名册为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "花名册"
//   - 表头: | 角色 | 开始时间 | 结束时间 | 员工 | 状态 | 工时 | 时薪 | 薪酬 |
//   - 未指派的班次槽位员工列显示 "未指派"
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportRoster(ctx context.Context, eventID string) (*bytes.Buffer, string, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.Error(err))
		return nil, "", err
	}

	shifts, err := s.repo.Shift.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询活动班次失败", zap.Error(err))
		return nil, "", err
	}
	if len(shifts) == 0 {
		return nil, "", ErrExportNoShifts
	}

	assignments, err := s.repo.Assignment.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询活动指派失败", zap.Error(err))
		return nil, "", err
	}
	byShift := make(map[string][]*model.Assignment)
	for i := range assignments {
		a := &assignments[i]
		byShift[a.ShiftID] = append(byShift[a.ShiftID], a)
	}

	workerNames, err := s.workerNameIndex(ctx, assignments)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "花名册"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "C", 20)
	f.SetColWidth(sheetName, "D", "D", 16)
	f.SetColWidth(sheetName, "E", "H", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 花名册", event.Title))
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"角色", "开始时间", "结束时间", "员工", "状态", "工时", "时薪", "薪酬"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, fmt.Sprintf("%s2", col), h)
	}

	row := 3
	for i := range shifts {
		shift := &shifts[i]
		shiftAssignments := byShift[shift.ShiftID]

		if len(shiftAssignments) == 0 {
			s.writeRosterRow(f, sheetName, row, shift, nil, workerNames)
			row++
			continue
		}
		for _, a := range shiftAssignments {
			s.writeRosterRow(f, sheetName, row, shift, a, workerNames)
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("花名册_%s.xlsx", event.Title)
	return buf, filename, nil
}

func (s *exportService) writeRosterRow(f *excelize.File, sheet string, row int, shift *model.Shift, a *model.Assignment, workerNames map[string]string) {
	set := func(col string, v interface{}) {
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
	}
	set("A", shift.RoleNeeded)
	set("B", shift.StartTimeUTC.Format("2006-01-02 15:04"))
	set("C", shift.EndTimeUTC.Format("2006-01-02 15:04"))

	if a == nil {
		set("D", "未指派")
		set("E", "-")
		return
	}
	name := workerNames[a.WorkerID]
	if name == "" {
		name = a.WorkerID
	}
	set("D", name)
	set("E", a.Status)
	if a.IsActive() {
		hours := a.EffectiveHours(shift)
		set("F", hours.InexactFloat64())
		set("G", a.EffectiveHourlyRate(shift).InexactFloat64())
		set("H", a.EffectivePay(shift).InexactFloat64())
	}
}

func (s *exportService) workerNameIndex(ctx context.Context, assignments []model.Assignment) (map[string]string, error) {
	names := make(map[string]string)
	for i := range assignments {
		a := &assignments[i]
		if _, ok := names[a.WorkerID]; ok {
			continue
		}
		if a.Worker != nil {
			names[a.WorkerID] = a.Worker.FullName()
			continue
		}
		worker, err := s.repo.Worker.GetByID(ctx, a.WorkerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		names[a.WorkerID] = worker.FullName()
	}
	return names, nil
}

// ═══════════════════════════════════════════════════════════
// ExportWorkerCalendar — 导出员工排班日历为 ICS
// ═══════════════════════════════════════════════════════════
//
// 每个有效指派生成一个 VEVENT：
//   - UID 取 assignment_id（稳定，重复导入不产生重复事件）
//   - 时间取班次起止（UTC）
//   - SUMMARY 为班次角色，DESCRIPTION 标注指派状态

func (s *exportService) ExportWorkerCalendar(ctx context.Context, workerID string) (*bytes.Buffer, string, error) {
	worker, err := s.repo.Worker.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrWorkerNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, "", err
	}

	assignments, err := s.repo.Assignment.ListActiveByWorker(ctx, workerID)
	if err != nil {
		s.logger.Error("查询员工指派失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//crewdesk//staffing//ZH")

	for i := range assignments {
		a := &assignments[i]
		if a.Shift == nil {
			continue
		}
		evt := cal.AddEvent(a.AssignmentID)
		evt.SetStartAt(a.Shift.StartTimeUTC)
		evt.SetEndAt(a.Shift.EndTimeUTC)
		evt.SetSummary(a.Shift.RoleNeeded)
		evt.SetDescription(fmt.Sprintf("状态: %s", a.Status))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("排班_%s.ics", worker.FullName())
	return buf, filename, nil
}

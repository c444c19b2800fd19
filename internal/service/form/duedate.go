package form

import (
	"time"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// CalculateDueDate 按规则从基准时间推算到期时间
// days_from_creation / days_from_assignment 与 calendar_days 算法相同，
// 区别只在调用方传入哪个基准时间；未知规则类型回落到自然日算法，永不报错
func CalculateDueDate(rule model.DueDateRule, base time.Time) time.Time {
	switch rule.Type {
	case model.DueDateBusinessDays:
		return addBusinessDays(base, rule.Value)
	case model.DueDateCalendarDays, model.DueDateFromCreation, model.DueDateFromAssignment:
		return base.AddDate(0, 0, rule.Value)
	default:
		return base.AddDate(0, 0, rule.Value)
	}
}

// addBusinessDays 逐日推进，只有周一到周五计数，周末跳过但日期仍前进
func addBusinessDays(base time.Time, days int) time.Time {
	result := base
	added := 0
	for added < days {
		result = result.AddDate(0, 0, 1)
		if wd := result.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return result
}

// ResolveDueDate 到期时间优先级：显式指定 > 模板规则 > 无
func ResolveDueDate(explicit *time.Time, rule *model.DueDateRule, base time.Time) *time.Time {
	if explicit != nil {
		return explicit
	}
	if rule == nil {
		return nil
	}
	due := CalculateDueDate(*rule, base)
	return &due
}

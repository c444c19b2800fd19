package form

import (
	"testing"
	"time"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// TestCalculateDueDate 测试到期时间推算
func TestCalculateDueDate(t *testing.T) {
	// 2026-08-24 周一
	monday := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	// 2026-08-28 周五
	friday := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rule     model.DueDateRule
		base     time.Time
		expected time.Time
	}{
		{
			"自然日直接相加",
			model.DueDateRule{Type: model.DueDateCalendarDays, Value: 5},
			monday,
			monday.AddDate(0, 0, 5),
		},
		{
			"工作日周中不跨周末",
			model.DueDateRule{Type: model.DueDateBusinessDays, Value: 2},
			monday,
			time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC), // 周三
		},
		{
			"工作日从周五起跳过周末",
			model.DueDateRule{Type: model.DueDateBusinessDays, Value: 3},
			friday,
			time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), // 下周三
		},
		{
			"工作日零天保持原位",
			model.DueDateRule{Type: model.DueDateBusinessDays, Value: 0},
			friday,
			friday,
		},
		{
			"days_from_creation按自然日",
			model.DueDateRule{Type: model.DueDateFromCreation, Value: 7},
			monday,
			monday.AddDate(0, 0, 7),
		},
		{
			"days_from_assignment按自然日",
			model.DueDateRule{Type: model.DueDateFromAssignment, Value: 3},
			monday,
			monday.AddDate(0, 0, 3),
		},
		{
			"未知类型回落到自然日",
			model.DueDateRule{Type: "lunar_days", Value: 4},
			monday,
			monday.AddDate(0, 0, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateDueDate(tt.rule, tt.base); !got.Equal(tt.expected) {
				t.Errorf("CalculateDueDate() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

// TestResolveDueDate 测试到期时间优先级
func TestResolveDueDate(t *testing.T) {
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	explicit := base.AddDate(0, 0, 30)
	rule := &model.DueDateRule{Type: model.DueDateCalendarDays, Value: 5}

	t.Run("显式指定优先于模板规则", func(t *testing.T) {
		got := ResolveDueDate(&explicit, rule, base)
		if got == nil || !got.Equal(explicit) {
			t.Errorf("ResolveDueDate() = %v, expected %v", got, explicit)
		}
	})

	t.Run("无显式指定时用模板规则", func(t *testing.T) {
		got := ResolveDueDate(nil, rule, base)
		want := base.AddDate(0, 0, 5)
		if got == nil || !got.Equal(want) {
			t.Errorf("ResolveDueDate() = %v, expected %v", got, want)
		}
	})

	t.Run("两者都没有时无到期时间", func(t *testing.T) {
		if got := ResolveDueDate(nil, nil, base); got != nil {
			t.Errorf("ResolveDueDate() = %v, expected nil", got)
		}
	})
}

package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

// IsVisible 判断题目在当前答案集下是否可见
// 无条件规则恒可见；有规则时全部为真才可见（AND，没有 OR 语义）
// 纯函数，对任何输入都不会 panic
func IsVisible(question model.Question, responses map[string]interface{}) bool {
	if len(question.ConditionalLogic) == 0 {
		return true
	}
	for _, rule := range question.ConditionalLogic {
		if !evalRule(rule, responses) {
			return false
		}
	}
	return true
}

// ResponseMap 将答案列表折叠为 questionID → value 的映射
func ResponseMap(responses []model.Response) map[string]interface{} {
	m := make(map[string]interface{}, len(responses))
	for _, r := range responses {
		m[r.QuestionID] = r.Value
	}
	return m
}

// SortQuestions 按 order 升序稳定排序（相同 order 保持原数组位置）
func SortQuestions(questions []model.Question) []model.Question {
	sorted := make([]model.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// evalRule 对单条条件规则求值，操作符是封闭集合
func evalRule(rule model.ConditionalRule, responses map[string]interface{}) bool {
	current, present := responses[rule.TargetQuestionID]
	if !present {
		current = nil
	}

	switch rule.Operator {
	case model.OperatorEquals:
		return valueEquals(current, rule.Value)
	case model.OperatorNotEquals:
		return !valueEquals(current, rule.Value)
	case model.OperatorContains:
		// 目标值必须是数组，缺失视为空数组，非数组视为不匹配
		return arrayContains(current, rule.Value)
	case model.OperatorNotContains:
		return !arrayContains(current, rule.Value)
	case model.OperatorGreaterThan:
		a, b, ok := numericPair(current, rule.Value)
		return ok && a > b
	case model.OperatorLessThan:
		a, b, ok := numericPair(current, rule.Value)
		return ok && a < b
	case model.OperatorIsEmpty:
		return isEmptyValue(current)
	case model.OperatorIsNotEmpty:
		return !isEmptyValue(current)
	default:
		// 未知操作符不匹配
		return false
	}
}

// valueEquals 字符串化后比较，数值按数值比较（"5" 与 5 相等）
func valueEquals(a, b interface{}) bool {
	if fa, fb, ok := numericPair(a, b); ok {
		return fa == fb
	}
	return stringify(a) == stringify(b)
}

func arrayContains(current, target interface{}) bool {
	if isEmptyValue(current) {
		return false
	}
	arr, ok := current.([]interface{})
	if !ok {
		return false
	}
	want := stringify(target)
	for _, item := range arr {
		if stringify(item) == want {
			return true
		}
	}
	return false
}

// numericPair 两侧都能解析为数值时返回 (a, b, true)
func numericPair(a, b interface{}) (float64, float64, bool) {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	return fa, fb, okA && okB
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

package form

import (
	"regexp"

	"github.com/codesidh/chc-insight-crm-sub000/internal/model"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s]{7,20}$`)
)

// ValidateResponses 提交前校验答案集：
// 必填且当前可见的题目必须有答案（隐藏的必填题不阻塞提交），
// 已作答且可见的题目逐条应用校验规则
func ValidateResponses(questions []model.Question, responses []model.Response) *Error {
	values := ResponseMap(responses)
	for _, question := range questions {
		if !IsVisible(question, values) {
			continue
		}
		value, answered := values[question.ID]
		if !answered || isEmptyValue(value) {
			if question.Required {
				return ValidationError(CodeValidationFailed, "题目 %s 必填", question.ID)
			}
			continue
		}
		for _, rule := range question.Validation {
			if err := applyValidationRule(question, rule, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyValidationRule(question model.Question, rule model.ValidationRule, value interface{}) *Error {
	fail := func() *Error {
		msg := rule.Message
		if msg == "" {
			msg = "校验失败"
		}
		return ValidationError(CodeValidationFailed, "题目 %s: %s", question.ID, msg)
	}

	switch rule.Type {
	case model.ValidationRequired:
		if isEmptyValue(value) {
			return fail()
		}
	case model.ValidationMinLength:
		if limit, ok := toFloat(rule.Value); ok {
			if float64(len([]rune(stringify(value)))) < limit {
				return fail()
			}
		}
	case model.ValidationMaxLength:
		if limit, ok := toFloat(rule.Value); ok {
			if float64(len([]rune(stringify(value)))) > limit {
				return fail()
			}
		}
	case model.ValidationPattern:
		pattern, err := regexp.Compile(stringify(rule.Value))
		if err != nil {
			// 配置里的非法正则不拦截提交
			return nil
		}
		if !pattern.MatchString(stringify(value)) {
			return fail()
		}
	case model.ValidationMin:
		v, okV := toFloat(value)
		limit, okL := toFloat(rule.Value)
		if okV && okL && v < limit {
			return fail()
		}
	case model.ValidationMax:
		v, okV := toFloat(value)
		limit, okL := toFloat(rule.Value)
		if okV && okL && v > limit {
			return fail()
		}
	case model.ValidationEmail:
		if !emailPattern.MatchString(stringify(value)) {
			return fail()
		}
	case model.ValidationPhone:
		if !phonePattern.MatchString(stringify(value)) {
			return fail()
		}
	}
	return nil
}

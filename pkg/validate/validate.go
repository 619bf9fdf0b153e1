// Package validate 注册业务校验规则，并把校验错误格式化为可读文本
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// 自定义规则
var rules = map[string]validator.Func{
	"award_type": func(fl validator.FieldLevel) bool {
		switch model.AwardType(fl.Field().String()) {
		case model.AwardLatinHonor, model.AwardAcademicAchievement, model.AwardDepartment,
			model.AwardSpecialRecognition, model.AwardOther:
			return true
		}
		return false
	},
	"doc_category": func(fl validator.FieldLevel) bool {
		switch model.DocumentType(fl.Field().String()) {
		case model.DocumentPSA, model.DocumentPhoto:
			return true
		}
		return false
	},
	"decision": func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "approve" || v == "reject"
	},
}

// Register 把规则注册到 gin 的默认校验器
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	return configure(v)
}

// New 创建带有业务规则的独立校验器
func New() (*validator.Validate, error) {
	v := validator.New()
	if err := configure(v); err != nil {
		return nil, err
	}
	return v, nil
}

func configure(v *validator.Validate) error {
	// 错误信息使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// FormatErrors 将校验错误转为 "字段 说明; 字段 说明" 形式，非校验错误原样返回
func FormatErrors(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}

	msgs := make([]string, 0, len(ves))
	for _, e := range ves {
		field := e.Field()
		switch e.Tag() {
		case "required", "required_with":
			msgs = append(msgs, field+" 不能为空")
		case "email":
			msgs = append(msgs, field+" 必须是合法邮箱")
		case "min":
			msgs = append(msgs, field+" 不能小于 "+e.Param())
		case "max":
			msgs = append(msgs, field+" 不能大于 "+e.Param())
		case "oneof":
			msgs = append(msgs, field+" 必须是以下之一: "+e.Param())
		case "datetime":
			msgs = append(msgs, field+" 日期格式应为 "+e.Param())
		case "award_type":
			msgs = append(msgs, field+" 必须是 latin_honor/academic_achievement/department_award/special_recognition/other")
		case "doc_category":
			msgs = append(msgs, field+" 必须是 psa 或 photo")
		case "decision":
			msgs = append(msgs, field+" 必须是 approve 或 reject")
		default:
			msgs = append(msgs, field+" 不合法")
		}
	}
	return strings.Join(msgs, "; ")
}

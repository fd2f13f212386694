// Package validation はgo-playground/validatorによる入力構造体の検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーメッセージにはGoのフィールド名ではなくフォーム/JSONのキー名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError は1フィールド分の検証エラー。
type FieldError struct {
	Field string
	Tag   string
	Param string
	Value string
}

// Message は利用者向けのエラーメッセージを返す。
func (e FieldError) Message() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("Path `%s` is required.", e.Field)
	case "oneof":
		return fmt.Sprintf("`%s` is not a valid enum value for path `%s`.", e.Value, e.Field)
	case "max":
		return fmt.Sprintf("Path `%s` must be at most %s characters.", e.Field, e.Param)
	case "email":
		return fmt.Sprintf("Path `%s` must be a valid email address.", e.Field)
	default:
		return fmt.Sprintf("Path `%s` is invalid (%s).", e.Field, e.Tag)
	}
}

// Errors は構造体全体の検証エラー。フィールド名順に並ぶ。
type Errors []FieldError

// Error はerrorインターフェースを実装する。
// mongooseの "Validation failed: a: ..., b: ..." 形式に揃える。
func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Field + ": " + e.Message()
	}
	return "Validation failed: " + strings.Join(parts, ", ")
}

// Has は指定フィールドが指定タグで失敗しているかを判定する。
func (es Errors) Has(field, tag string) bool {
	for _, e := range es {
		if e.Field == field && e.Tag == tag {
			return true
		}
	}
	return false
}

// Struct は構造体のvalidateタグを検証する。
// 検証エラーがある場合はErrorsを、検証対象として不正な値の場合はそのエラーを返す。
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	result := make(Errors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		result = append(result, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
			Value: fmt.Sprint(fe.Value()),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Field < result[j].Field
	})
	return result
}

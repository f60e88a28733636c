package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	apierrors "bhavcli/internal/errors"
	"bhavcli/pkg/contracts/domain"
)

// Validator checks request structs declared with `validate` tags. Besides the
// built in rules it knows "exchange" (NSE or BSE, any case) and "civildate"
// (YYYY-MM-DD calendar date). Field names in errors follow the json or
// query tag.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom rules registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("exchange", isExchange)
	v.RegisterValidation("civildate", isCivilDate)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{validate: v}
}

// ValidateStruct returns nil or a 400 APIError listing every rejected field
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

func formatValidationError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", field)
	case "exchange":
		return fmt.Sprintf("%s must be NSE or BSE", field)
	case "civildate":
		return fmt.Sprintf("%s must be a calendar date formatted YYYY-MM-DD", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func isExchange(fl validator.FieldLevel) bool {
	_, err := domain.ParseExchange(fl.Field().String())
	return err == nil
}

func isCivilDate(fl validator.FieldLevel) bool {
	d, err := civil.ParseDate(fl.Field().String())
	return err == nil && d.IsValid()
}

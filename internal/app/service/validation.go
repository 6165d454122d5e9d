package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return model.Language(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// validateStruct runs the struct tags on req and folds any failure into
// ErrValidation, naming the offending fields.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Errorf("invalid request: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s: %w", strings.Join(fields, ", "), common.ErrValidation)
}

// timestamp is the store's clock: UTC at the precision Postgres keeps.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

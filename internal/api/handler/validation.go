// internal/api/handler/validation.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"ledger-core/internal/domain"
	"ledger-core/internal/util"
)

// newValidator creates the request validator. Field names in errors follow the JSON tags.
func newValidator() *validator.Validate {
	vld := validator.New(validator.WithRequiredStructEnabled())
	vld.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// An amount is a whole number of minor units; its sign is checked by the ledger.
	if err := vld.RegisterValidation("minor_units", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		if str == "" {
			return true // Let required tag handle empty values
		}
		_, err := strconv.ParseInt(str, 10, 64)
		return err == nil || errors.Is(err, strconv.ErrRange)
	}); err != nil {
		panic(fmt.Sprintf("register minor_units validation: %v", err))
	}
	return vld
}

// validate checks the payload and maps failures onto the ledger's error taxonomy.
func (h *LedgerHandler) validate(payload any) ([]string, error) {
	err := h.validator.Struct(payload)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, fmt.Errorf("%w: %w", util.ErrInvalidInput, err)
	}

	details := make([]string, 0, len(validationErrors))
	cause := util.ErrInvalidInput
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "minor_units":
			cause = util.ErrInvalidAmount
			details = append(details, fmt.Sprintf("'%s' must be a whole number of minor units", fe.Field()))
		case "required":
			details = append(details, fmt.Sprintf("'%s' is required", fe.Field()))
		default:
			details = append(details, fmt.Sprintf("'%s' failed on '%s %s'", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return details, cause
}

// minorUnits converts a validated JSON number into Money. Whole numbers beyond the int64
// range are above any ceiling, or not positive when negative.
func minorUnits(n json.Number) (domain.Money, error) {
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(n.String(), "-") {
			return 0, util.ErrInvalidAmount
		}
		return 0, fmt.Errorf("%w: %s minor units", util.ErrAmountTooLarge, n)
	}
	if err != nil {
		return 0, util.ErrInvalidAmount
	}
	return domain.Money(v), nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// Field order here is the order checks are reported in.
type purchaseInput struct {
	UserID       string          `validate:"required"`
	BTCAmount    string          `validate:"positive_amount"`
	BaseCurrency models.Currency `validate:"supported_currency"`
}

// ValidationFilter checks the raw purchase fields. It consults no collaborator.
type ValidationFilter struct {
	validate *validator.Validate
	messages map[string]string
}

func NewValidationFilter(policy Policy) (*ValidationFilter, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	if err := vld.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return d.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("register positive_amount: %w", err)
	}

	if err := vld.RegisterValidation("supported_currency", func(fl validator.FieldLevel) bool {
		return policy.Supports(models.Currency(fl.Field().String()))
	}); err != nil {
		return nil, fmt.Errorf("register supported_currency: %w", err)
	}

	names := make([]string, 0, len(policy.SupportedCurrencies))
	for _, c := range policy.SupportedCurrencies {
		names = append(names, string(c))
	}

	return &ValidationFilter{
		validate: vld,
		messages: map[string]string{
			"UserID":       "user_id is required",
			"BTCAmount":    "btc_amount must be greater than 0",
			"BaseCurrency": "base_currency must be one of " + strings.Join(names, ", "),
		},
	}, nil
}

func (f *ValidationFilter) Name() string { return StageValidation }

func (f *ValidationFilter) Apply(_ context.Context, record models.TransactionRecord) Result {
	err := f.validate.Struct(purchaseInput{
		UserID:       record.UserID,
		BTCAmount:    record.BTCAmount.String(),
		BaseCurrency: record.BaseCurrency,
	})
	if err == nil {
		return Continue(record)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		// only the first violation is reported
		if msg, ok := f.messages[fieldErrs[0].StructField()]; ok {
			return Fail(ValidationError, msg, record)
		}
	}
	return Fail(ValidationError, err.Error(), record)
}

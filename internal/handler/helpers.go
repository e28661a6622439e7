package handler

import (
	"errors"
	"net/http"
	"reflect"

	"drawerledger/internal/apierror"
	"drawerledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, ledger.ErrInvalidState):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, ledger.ErrInsufficientBalance):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, ledger.ErrPersistence):
		// Storage faults are server-side; never surface driver details.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("storage unavailable"))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

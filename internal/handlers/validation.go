package handlers

import (
	"errors"
	"sync"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by the request DTOs.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		err = v.RegisterValidation("phone10", validatePhone10)
	})
	return err
}

// phone10: exactly ten digits once separators are stripped.
func validatePhone10(fl validator.FieldLevel) bool {
	return len(models.NormalizeContactNo(fl.Field().String())) == 10
}

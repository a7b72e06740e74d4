// Package validation validates configuration records using struct tags.
//
//	type Settings struct {
//	    Mode int `mapstructure:"mode" validate:"oneof=0 1"`
//	}
//	err := validation.Validate(settings)
//
// Failures are returned as *errors.AppError with code INVALID_CONFIG and the
// offending fields listed under the "fields" detail.
package validation

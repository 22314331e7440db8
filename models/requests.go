package models

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	estranslations "github.com/go-playground/validator/v10/translations/es"
	errs "github.com/infieles/reportes/errors"
	"github.com/leebenson/conform"
)

const (
	MinAge = 0
	MaxAge = 150
)

var validate, trans = newValidator()

func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New()
	// report the wire name of a field instead of the Go one
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	spanish := es.New()
	trans, _ := ut.New(spanish, spanish).GetTranslator("es")
	if err := estranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}
	return v, trans
}

// CreateReportRequest is the multipart form submitted to create a report.
type CreateReportRequest struct {
	FullName   string `form:"nombre" conform:"trim" validate:"max=100"`
	Age        string `form:"edad" conform:"trim"`
	Department string `form:"departamento" conform:"trim" validate:"max=50"`
	Occupation string `form:"ocupacion" conform:"trim" validate:"max=100"`
	Motive     string `form:"motivo" conform:"trim"`
}

// ToReport validates the form and builds the report to persist. Empty
// optional fields are stored as NULL.
func (r *CreateReportRequest) ToReport() (*Report, error) {
	if err := conform.Strings(r); err != nil {
		return nil, errs.Wrap(errs.KindValidation, err, "datos inválidos")
	}
	if r.FullName == "" {
		return nil, errs.ErrMissingName
	}
	if err := validate.Struct(r); err != nil {
		return nil, translateError(err)
	}

	report := &Report{
		FullName:   r.FullName,
		Department: optionalString(r.Department),
		Occupation: optionalString(r.Occupation),
		Motive:     optionalString(r.Motive),
	}
	if r.Age != "" {
		age, err := ParseAge(r.Age)
		if err != nil {
			return nil, err
		}
		report.Age = &age
	}
	return report, nil
}

// UpdateReportRequest is the JSON body accepted by the admin update. Fields
// left out (or null) keep their stored value.
type UpdateReportRequest struct {
	FullName   *string `json:"nombre_completo" validate:"omitempty,max=100"`
	Age        *int    `json:"edad" validate:"omitempty,min=0,max=150"`
	Department *string `json:"departamento" validate:"omitempty,max=50"`
	Occupation *string `json:"ocupacion" validate:"omitempty,max=100"`
	Motive     *string `json:"motivo"`
}

func (r *UpdateReportRequest) ToUpdate() (ReportUpdate, error) {
	r.FullName = trimPtr(r.FullName)
	r.Department = trimPtr(r.Department)
	r.Occupation = trimPtr(r.Occupation)
	r.Motive = trimPtr(r.Motive)

	if r.FullName != nil && *r.FullName == "" {
		return ReportUpdate{}, errs.ErrMissingName
	}
	if err := validate.Struct(r); err != nil {
		return ReportUpdate{}, translateError(err)
	}
	return ReportUpdate{
		FullName:   r.FullName,
		Age:        r.Age,
		Department: r.Department,
		Occupation: r.Occupation,
		Motive:     r.Motive,
	}, nil
}

// ParseAge accepts an optional integer age within [MinAge, MaxAge].
func ParseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errs.Validation("edad debe ser un número entero")
	}
	if age < MinAge || age > MaxAge {
		return 0, errs.Validation(fmt.Sprintf("edad debe estar entre %d y %d", MinAge, MaxAge))
	}
	return age, nil
}

func translateError(err error) error {
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.Wrap(errs.KindValidation, err, "datos inválidos")
	}
	msgs := make([]string, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		msgs = append(msgs, e.Translate(trans))
	}
	return errs.Validation(strings.Join(msgs, "; "))
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

package models

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 20

	// MaxEvidencePerReport caps the photos attached when a report is created.
	MaxEvidencePerReport = 2
)

// Report is a submitted complaint. Column and table names follow the schema
// the service has always used so existing databases keep working.
type Report struct {
	ID         uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	FullName   string     `json:"nombre_completo" gorm:"column:nombre_completo;size:100;not null"`
	Age        *int       `json:"edad" gorm:"column:edad"`
	Department *string    `json:"departamento" gorm:"column:departamento;size:50"`
	Occupation *string    `json:"ocupacion" gorm:"column:ocupacion;size:100"`
	Motive     *string    `json:"motivo" gorm:"column:motivo;type:text"`
	CreatedAt  time.Time  `json:"fecha" gorm:"column:fecha_registro;autoCreateTime"`
	Evidence   []Evidence `json:"-" gorm:"foreignKey:ReportID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Report) TableName() string {
	return "reportes"
}

// HasName reports whether the required full name is present.
func (r *Report) HasName() bool {
	return strings.TrimSpace(r.FullName) != ""
}

// ReportResponse is the record dict returned by the detail and list endpoints.
type ReportResponse struct {
	ID         uint      `json:"id"`
	FullName   string    `json:"nombre_completo"`
	Age        *int      `json:"edad"`
	Department *string   `json:"departamento"`
	Occupation *string   `json:"ocupacion"`
	Motive     *string   `json:"motivo"`
	Date       time.Time `json:"fecha"`
	Photos     []string  `json:"fotos"`
}

func (r *Report) ToResponse() ReportResponse {
	photos := make([]string, 0, len(r.Evidence))
	for _, e := range r.Evidence {
		photos = append(photos, e.URL)
	}
	return ReportResponse{
		ID:         r.ID,
		FullName:   r.FullName,
		Age:        r.Age,
		Department: r.Department,
		Occupation: r.Occupation,
		Motive:     r.Motive,
		Date:       r.CreatedAt,
		Photos:     photos,
	}
}

// ReportUpdate carries a partial update; nil fields are left untouched.
type ReportUpdate struct {
	FullName   *string
	Age        *int
	Department *string
	Occupation *string
	Motive     *string
}

func (u ReportUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Age == nil && u.Department == nil && u.Occupation == nil && u.Motive == nil
}

// Apply copies the supplied fields onto r.
func (u ReportUpdate) Apply(r *Report) {
	if u.FullName != nil {
		r.FullName = *u.FullName
	}
	if u.Age != nil {
		r.Age = u.Age
	}
	if u.Department != nil {
		r.Department = u.Department
	}
	if u.Occupation != nil {
		r.Occupation = u.Occupation
	}
	if u.Motive != nil {
		r.Motive = u.Motive
	}
}

// Columns returns the column/value pairs for a gorm Updates call.
func (u ReportUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.FullName != nil {
		cols["nombre_completo"] = *u.FullName
	}
	if u.Age != nil {
		cols["edad"] = *u.Age
	}
	if u.Department != nil {
		cols["departamento"] = *u.Department
	}
	if u.Occupation != nil {
		cols["ocupacion"] = *u.Occupation
	}
	if u.Motive != nil {
		cols["motivo"] = *u.Motive
	}
	return cols
}

type ReportPage struct {
	Items      []Report
	TotalCount int64
	TotalPages int
	Page       int
	PerPage    int
}

// NormalizePage applies the listing defaults: page below 1 becomes 1, a
// non-positive size becomes DefaultPerPage and sizes above max are capped.
func NormalizePage(page, perPage, max int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if max > 0 && perPage > max {
		perPage = max
	}
	return page, perPage
}

func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

type ReportListResponse struct {
	TotalCount int64            `json:"total_registros"`
	TotalPages int              `json:"total_paginas"`
	Page       int              `json:"pagina_actual"`
	PerPage    int              `json:"registros_por_pagina"`
	Data       []ReportResponse `json:"data"`
}

func (p *ReportPage) ToResponse() ReportListResponse {
	data := make([]ReportResponse, 0, len(p.Items))
	for i := range p.Items {
		data = append(data, p.Items[i].ToResponse())
	}
	return ReportListResponse{
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
		Page:       p.Page,
		PerPage:    p.PerPage,
		Data:       data,
	}
}

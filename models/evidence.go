package models

// Evidence is one uploaded photo attached to a report. URL holds the public
// address of the stored file.
type Evidence struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	ReportID uint   `json:"reporte_id" gorm:"column:reporte_id;not null;index"`
	URL      string `json:"filename" gorm:"column:filename;size:255"`
}

func (Evidence) TableName() string {
	return "evidencias"
}

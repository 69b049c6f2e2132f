package models

import "time"

// NotFound is the placeholder shown for a field the extractor could not fill.
const NotFound = "Not found"

// Application is a finalized loan application. Rows are inserted once and
// never updated or deleted.
type Application struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Reference  string    `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Income     string    `json:"income"`
	LoanAmount string    `json:"loan_amount"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Application) TableName() string { return "applications" }

// ExtractedFields holds the candidate values pulled from OCR text, shown on
// the review page for correction.
type ExtractedFields struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Income     string `json:"income"`
	LoanAmount string `json:"loan_amount"`
	FullText   string `json:"full_text"`
}

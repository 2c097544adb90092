// internal/models/document.go
package models

import "time"

// Document classification against the schema's lists.
const (
	DocumentCategoryRequired = "required"
	DocumentCategoryOptional = "optional"
	DocumentCategoryOther    = "other"
)

// Document expiry status bands.
const (
	DocumentStatusValid              = "valid"
	DocumentStatusRenewalRecommended = "renewal_recommended"
	DocumentStatusExpiringSoon       = "expiring_soon"
	DocumentStatusExpired            = "expired"
	DocumentStatusNotExpiryChecked   = "not_expiry_checked"
)

// Suggestion urgency tags.
const (
	UrgencyCritical = "critical"
	UrgencyNormal   = "normal"
)

// SubmittedDocument is one uploaded artifact's metadata. File bytes live in
// external storage and never reach the engines.
type SubmittedDocument struct {
	DocumentType string     `json:"documentType"`
	OriginalName string     `json:"originalName"`
	IssueDate    *time.Time `json:"issueDate,omitempty"`
	SizeBytes    int64      `json:"sizeBytes,omitempty"`
	MimeType     string     `json:"mimeType,omitempty"`
}

// ClassifiedDocument is a submitted document with its schema category.
type ClassifiedDocument struct {
	Document SubmittedDocument `json:"document"`
	Category string            `json:"category"`
}

// DocumentExpiry describes one document's position in its validity window.
type DocumentExpiry struct {
	DocumentType  string    `json:"documentType"`
	Status        string    `json:"status"`
	ExpiryDate    time.Time `json:"expiryDate"`
	DaysRemaining int       `json:"daysRemaining"`
}

// Suggestion is an actionable gap: a missing required document with its
// accepted substitutes.
type Suggestion struct {
	DocumentType string   `json:"documentType"`
	Alternatives []string `json:"alternatives,omitempty"`
	Urgency      string   `json:"urgency"`
	Message      string   `json:"message"`
}

type Completeness struct {
	Overall  int `json:"overall"`
	Required int `json:"required"`
	Optional int `json:"optional"`
}

// DocumentSetValidation is derived from a document set; it is recomputed
// whenever the set changes, never stored independently.
type DocumentSetValidation struct {
	IsComplete        bool                 `json:"isComplete"`
	Completeness      Completeness         `json:"completeness"`
	MissingRequired   []string             `json:"missingRequired"`
	AvailableOptional []string             `json:"availableOptional"`
	Documents         []ClassifiedDocument `json:"documents"`
	Expiries          []DocumentExpiry     `json:"expiries,omitempty"`
	Suggestions       []Suggestion         `json:"suggestions,omitempty"`
	SchemaVersion     string               `json:"schemaVersion"`
	EvaluatedAt       time.Time            `json:"evaluatedAt"`
}

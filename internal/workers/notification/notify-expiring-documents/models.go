// internal/workers/notification/notify-expiring-documents/models.go
package notifyexpiringdocuments

import "immigration-workers/internal/models"

type Input struct {
	ApplicationID  string                  `json:"applicationId"`
	ApplicantName  string                  `json:"applicantName,omitempty"`
	RecipientEmail string                  `json:"recipientEmail,omitempty"`
	RecipientPhone string                  `json:"recipientPhone,omitempty"`
	Expiries       []models.DocumentExpiry `json:"expiries"`
}

type Output struct {
	NotificationID    string   `json:"notificationId"`
	NotifiedDocuments []string `json:"notifiedDocuments"`
	EmailMessageID    string   `json:"emailMessageId,omitempty"`
	SMSMessageID      string   `json:"smsMessageId,omitempty"`
	Skipped           bool     `json:"skipped"`
}

package models

import "time"

// NotificationType identifies the event a notification reports.
type NotificationType string

const (
	NotificationBudgetExceeded   NotificationType = "BUDGET_EXCEEDED"
	NotificationBudgetWarning    NotificationType = "BUDGET_WARNING"
	NotificationBudgetOnTrack    NotificationType = "BUDGET_ON_TRACK"
	NotificationLargeTransaction NotificationType = "LARGE_TRANSACTION"
)

// AllNotificationTypes is the fixed enumeration of notification types.
// Preference updates for types outside this list are ignored.
var AllNotificationTypes = []NotificationType{
	NotificationBudgetExceeded,
	NotificationBudgetWarning,
	NotificationBudgetOnTrack,
	NotificationLargeTransaction,
}

// ValidNotificationType reports whether t is a known notification type.
func ValidNotificationType(t NotificationType) bool {
	for _, known := range AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NotificationPriority represents how urgent a notification is.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityMedium NotificationPriority = "MEDIUM"
	PriorityHigh   NotificationPriority = "HIGH"
)

// ReferenceType identifies what entity a notification points at.
type ReferenceType string

const (
	ReferenceBudget      ReferenceType = "BUDGET"
	ReferenceTransaction ReferenceType = "TRANSACTION"
	ReferenceCategory    ReferenceType = "CATEGORY"
	ReferenceNone        ReferenceType = "NONE"
)

// Notification is a user-facing alert produced by the budget engine or
// the large-transaction rule. Users never create notifications directly;
// they only mark them read or delete them. References are weak: the
// referenced budget or transaction may no longer exist.
type Notification struct {
	Base
	UserID        string                 `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          NotificationType       `gorm:"not null;index" json:"type"`
	Title         string                 `gorm:"not null" json:"title"`
	Message       string                 `gorm:"not null" json:"message"`
	Priority      NotificationPriority   `gorm:"not null;default:LOW" json:"priority"`
	ReferenceType ReferenceType          `gorm:"not null;default:NONE" json:"reference_type"`
	ReferenceID   *string                `gorm:"type:uuid" json:"reference_id,omitempty"`
	Metadata      map[string]interface{} `gorm:"serializer:json" json:"metadata,omitempty"`
	IsRead        bool                   `gorm:"default:false;index" json:"is_read"`
	ReadAt        *time.Time             `json:"read_at,omitempty"`
}

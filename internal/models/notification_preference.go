package models

// NotificationPreference is a per-user, per-type switch that suppresses
// an otherwise-due notification. A missing row means enabled: rows are
// only written when a user explicitly changes their preferences.
type NotificationPreference struct {
	Base
	UserID    string           `gorm:"type:uuid;not null;uniqueIndex:idx_pref_user_type" json:"user_id"`
	Type      NotificationType `gorm:"not null;uniqueIndex:idx_pref_user_type" json:"type"`
	// No column default: false is the value a row exists to record, and
	// must survive the insert as written.
	IsEnabled bool `gorm:"not null" json:"is_enabled"`
}

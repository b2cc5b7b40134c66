package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// preferenceService gates notifications per user and type. A missing row
// reads as enabled; rows are only written by explicit preference updates,
// never materialized on read.
type preferenceService struct {
	db *gorm.DB
}

// NewPreferenceService creates a new PreferenceServicer.
func NewPreferenceService(db *gorm.DB) PreferenceServicer {
	return &preferenceService{db: db}
}

// IsEnabled reports whether the user receives notifications of the given
// type, defaulting to true when no preference row exists.
func (s *preferenceService) IsEnabled(userID string, notificationType models.NotificationType) (bool, error) {
	var pref models.NotificationPreference
	err := s.db.Where("user_id = ? AND type = ?", userID, notificationType).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pref.IsEnabled, nil
}

// GetPreferences returns the full preference map with every known type
// present, filling defaults for types the user never configured.
func (s *preferenceService) GetPreferences(userID string) (map[models.NotificationType]bool, error) {
	prefs := make(map[models.NotificationType]bool, len(models.AllNotificationTypes))
	for _, t := range models.AllNotificationTypes {
		prefs[t] = true
	}

	var rows []models.NotificationPreference
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, row := range rows {
		if models.ValidNotificationType(row.Type) {
			prefs[row.Type] = row.IsEnabled
		}
	}
	return prefs, nil
}

// SetPreferences upserts the given switches. Unknown types are silently
// ignored; omitted types keep their current value.
func (s *preferenceService) SetPreferences(userID string, prefs map[models.NotificationType]bool) error {
	for notificationType, enabled := range prefs {
		if !models.ValidNotificationType(notificationType) {
			continue
		}

		var existing models.NotificationPreference
		err := s.db.Where("user_id = ? AND type = ?", userID, notificationType).First(&existing).Error
		switch {
		case err == nil:
			if err := s.db.Model(&existing).Update("is_enabled", enabled).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := &models.NotificationPreference{
				UserID:    userID,
				Type:      notificationType,
				IsEnabled: enabled,
			}
			if err := s.db.Create(row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		default:
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

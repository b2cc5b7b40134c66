package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/mailer"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// notificationService persists alert drafts and serves the user-facing
// notification surface. The mailer may be nil when SMTP is not configured.
type notificationService struct {
	db     *gorm.DB
	mailer *mailer.Mailer
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB, mail *mailer.Mailer) NotificationServicer {
	return &notificationService{db: db, mailer: mail}
}

// Emit persists a notification draft for the user. High-priority
// notifications are additionally mailed when SMTP is configured; mail
// failures are logged and never affect the stored record.
func (s *notificationService) Emit(userID string, draft *NotificationDraft) (*models.Notification, error) {
	referenceType := draft.ReferenceType
	if referenceType == "" {
		referenceType = models.ReferenceNone
	}

	var referenceID *string
	if draft.ReferenceID != "" {
		id := draft.ReferenceID
		referenceID = &id
	}

	notification := &models.Notification{
		UserID:        userID,
		Type:          draft.Type,
		Title:         draft.Title,
		Message:       draft.Message,
		Priority:      draft.Priority,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Metadata:      draft.Metadata,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if draft.Priority == models.PriorityHigh && s.mailer != nil {
		s.mailHighPriority(userID, draft)
	}

	return notification, nil
}

func (s *notificationService) mailHighPriority(userID string, draft *NotificationDraft) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		logger.Get().Warnw("alert mail skipped: user lookup failed",
			"user_id", userID,
			"error", err,
		)
		return
	}
	if err := s.mailer.SendAlert(user.Email, draft.Title, draft.Message); err != nil {
		logger.Get().Warnw("alert mail delivery failed",
			"user_id", userID,
			"type", draft.Type,
			"error", err,
		)
	}
}

// GetUserNotifications returns the user's notifications, newest first.
func (s *notificationService) GetUserNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetUnreadCount returns how many unread notifications the user has.
func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func (s *notificationService) getByID(userID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &notification, nil
}

// MarkRead marks a single notification as read.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	notification, err := s.getByID(userID, notificationID)
	if err != nil {
		return nil, err
	}

	if notification.IsRead {
		return notification, nil
	}

	now := time.Now()
	notification.IsRead = true
	notification.ReadAt = &now
	err = s.db.Model(notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return notification, nil
}

// MarkAllRead marks every unread notification as read and returns the count.
func (s *notificationService) MarkAllRead(userID string) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteNotification removes a single notification.
func (s *notificationService) DeleteNotification(userID, notificationID string) error {
	notification, err := s.getByID(userID, notificationID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(notification).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteRead removes all of the user's read notifications in bulk.
func (s *notificationService) DeleteRead(userID string) (int64, error) {
	result := s.db.Where("user_id = ? AND is_read = ?", userID, true).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

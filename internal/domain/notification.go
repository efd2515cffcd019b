package domain

import "time"

type NotificationType string

const (
	NotificationTypeAlert   NotificationType = "ALERT"
	NotificationTypeInfo    NotificationType = "INFO"
	NotificationTypeSuccess NotificationType = "SUCCESS"
)

// NotificationKind identifies the workflow signal that produced a notification.
type NotificationKind string

const (
	NotificationKindNewApplication       NotificationKind = "NEW_APPLICATION"
	NotificationKindStatusChanged        NotificationKind = "STATUS_CHANGED"
	NotificationKindApplicationCancelled NotificationKind = "APPLICATION_CANCELLED"
	NotificationKindEvaluated            NotificationKind = "EVALUATED"
)

type Notification struct {
	ID           string           `json:"id"`
	Kind         NotificationKind `json:"kind"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	CreatedOn    time.Time        `json:"created_on"`
	Read         bool             `json:"read"`
	TargetRole   UserRole         `json:"target_role"`
	TargetUserID string           `json:"target_user_id,omitempty"`
}

// VisibleTo reports whether the notification is addressed to the user.
func (n *Notification) VisibleTo(userID string, role UserRole) bool {
	if n.TargetUserID != "" {
		return n.TargetUserID == userID
	}
	return n.TargetRole == role
}

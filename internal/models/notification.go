package models

import (
	"strings"
	"time"
)

type NotificationType string

const (
	NotificationAbsence      NotificationType = "absence"
	NotificationAnnouncement NotificationType = "announcement"
	NotificationAlert        NotificationType = "alert"
)

type SchoolNotification struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Date           time.Time        `db:"date" json:"date"`
	Content        string           `db:"content" json:"content"`
	Type           NotificationType `db:"type" json:"type"`
	Read           bool             `db:"read" json:"read"`
	TargetAudience string           `db:"target_audience" json:"targetAudience"`
}

// NewNotification is the caller-supplied part of a notification.
type NewNotification struct {
	Title          string
	Content        string
	Type           NotificationType
	TargetAudience string
}

// Audience tokens. A target is a comma-separated list of tokens and matches a
// recipient when any token does. An empty target means everyone.
const (
	AudienceAll      = "all"
	AudienceParents  = "parents"
	AudienceTeachers = "teachers"
	audienceClass    = "class:"
	audienceUser     = "user:"
)

// ClassAudience targets the parents of a class's students and its teacher.
func ClassAudience(classID string) string { return audienceClass + classID }

// UserAudience targets one user.
func UserAudience(userID string) string { return audienceUser + userID }

// Recipient is who is reading notifications. ClassIDs are the classes the user
// teaches, or the classes of their children.
type Recipient struct {
	UserID   string
	Role     UserRole
	ClassIDs []string
}

// Matches reports whether target addresses r.
func (r Recipient) Matches(target string) bool {
	if strings.TrimSpace(target) == "" {
		return true
	}
	for _, tok := range strings.Split(target, ",") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == AudienceAll:
			return true
		case tok == AudienceParents && r.Role == RoleParent:
			return true
		case tok == AudienceTeachers && r.Role == RoleTeacher:
			return true
		case strings.HasPrefix(tok, audienceUser) && strings.TrimPrefix(tok, audienceUser) == r.UserID:
			return true
		case strings.HasPrefix(tok, audienceClass):
			id := strings.TrimPrefix(tok, audienceClass)
			for _, c := range r.ClassIDs {
				if c == id {
					return true
				}
			}
		}
	}
	return false
}

// ValidAudience reports whether every token of target is well formed.
func ValidAudience(target string) bool {
	if strings.TrimSpace(target) == "" {
		return true
	}
	for _, tok := range strings.Split(target, ",") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == AudienceAll, tok == AudienceParents, tok == AudienceTeachers:
		case strings.HasPrefix(tok, audienceClass) && len(tok) > len(audienceClass):
		case strings.HasPrefix(tok, audienceUser) && len(tok) > len(audienceUser):
		default:
			return false
		}
	}
	return true
}

// CreateNotificationRequest is a teacher-authored notification.
type CreateNotificationRequest struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Content        string           `json:"content" validate:"required,max=2000"`
	Type           NotificationType `json:"type" validate:"required,oneof=absence announcement alert"`
	TargetAudience string           `json:"targetAudience" validate:"max=500"`
}

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action identifies what an audit entry records.
type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionLoginFailed        Action = "LOGIN_FAILED"
	ActionBootstrapAdmin     Action = "BOOTSTRAP_ADMIN"
	ActionDeleteFile         Action = "DELETE_FILE"
	ActionDeleteNotes        Action = "DELETE_NOTES"
	ActionRenameFile         Action = "RENAME_FILE"
	ActionSaveNotes          Action = "SAVE_NOTES"
	ActionDownloadNotes      Action = "DOWNLOAD_NOTES"
	ActionIssueUploadURL     Action = "ISSUE_UPLOAD_URL"
	ActionCreateCoach        Action = "CREATE_COACH"
	ActionUpdateCoach        Action = "UPDATE_COACH"
	ActionDeleteCoach        Action = "DELETE_COACH"
	ActionIssueCoachImageURL Action = "ISSUE_COACH_IMAGE_URL"
	ActionCreatePricing      Action = "CREATE_PRICING"
	ActionUpdatePricing      Action = "UPDATE_PRICING"
	ActionDeletePricing      Action = "DELETE_PRICING"
	ActionCreateUser         Action = "CREATE_USER"
	ActionUpdateUser         Action = "UPDATE_USER"
	ActionDeleteUser         Action = "DELETE_USER"
)

func (a Action) String() string {
	return string(a)
}

// AnonymousUser is recorded for actions taken without a session.
const AnonymousUser = "anonymous"

// AuditEntry is one element of the audit log.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
}

// NewAuditEntry stamps an entry. The id is the Unix millisecond time plus a
// short random suffix so entries written in the same millisecond differ.
func NewAuditEntry(user string, action Action, details string, now time.Time) AuditEntry {
	if user == "" {
		user = AnonymousUser
	}
	now = now.UTC()
	return AuditEntry{
		ID:        fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Timestamp: now,
		User:      user,
		Action:    action,
		Details:   details,
	}
}

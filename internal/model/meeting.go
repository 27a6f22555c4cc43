package model

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

type MeetingType string

const (
	MeetingTypeInPerson MeetingType = "in_person"
	MeetingTypeVirtual  MeetingType = "virtual"
	MeetingTypeHybrid   MeetingType = "hybrid"
)

type ParticipantRole string

const (
	ParticipantRoleOrganizer ParticipantRole = "organizer"
	ParticipantRoleAttendee  ParticipantRole = "attendee"
	ParticipantRoleOptional  ParticipantRole = "optional"
)

type ResponseStatus string

const (
	ResponseStatusPending   ResponseStatus = "pending"
	ResponseStatusAccepted  ResponseStatus = "accepted"
	ResponseStatusDeclined  ResponseStatus = "declined"
	ResponseStatusTentative ResponseStatus = "tentative"
)

type Meeting struct {
	Base
	CreatedBy       uuid.UUID     `db:"created_by" json:"created_by"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description,omitempty"`
	MeetingDate     time.Time     `db:"meeting_date" json:"meeting_date"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Location        string        `db:"location" json:"location,omitempty"`
	MeetingURL      string        `db:"meeting_url" json:"meeting_url,omitempty"`
	ReminderMinutes int           `db:"reminder_minutes" json:"reminder_minutes"`
	MeetingType     MeetingType   `db:"meeting_type" json:"meeting_type"`
	Status          MeetingStatus `db:"status" json:"status"`
	IsActive        bool          `db:"is_active" json:"is_active"`
}

// Participant is a resolved meeting participant: the join of the membership
// row and the user's contact fields, which is all a reminder needs.
type Participant struct {
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	Username       string          `db:"username" json:"username"`
	Email          string          `db:"email" json:"email"`
	Role           ParticipantRole `db:"role" json:"role"`
	ResponseStatus ResponseStatus  `db:"response_status" json:"response_status"`
}

// MeetingCandidate pairs a meeting with its resolved recipients for the
// reminder job.
type MeetingCandidate struct {
	Meeting      *Meeting
	Participants []*Participant
}

type CreateMeetingRequest struct {
	Title             string      `json:"title" binding:"required,max=255"`
	Description       string      `json:"description" binding:"max=2000"`
	MeetingDate       time.Time   `json:"meeting_date" binding:"required,futuredate"`
	DurationMinutes   int         `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	Location          string      `json:"location" binding:"max=255"`
	MeetingURL        string      `json:"meeting_url" binding:"omitempty,url"`
	ReminderMinutes   int         `json:"reminder_minutes" binding:"omitempty,min=0"`
	MeetingType       MeetingType `json:"meeting_type" binding:"omitempty,oneof=in_person virtual hybrid"`
	ParticipantEmails []string    `json:"participant_emails" binding:"omitempty,dive,email"`
}

type UpdateMeetingRequest struct {
	Title           *string        `json:"title" binding:"omitempty,max=255"`
	Description     *string        `json:"description" binding:"omitempty,max=2000"`
	MeetingDate     *time.Time     `json:"meeting_date"`
	DurationMinutes *int           `json:"duration_minutes" binding:"omitempty,min=1,max=1440"`
	Location        *string        `json:"location" binding:"omitempty,max=255"`
	MeetingURL      *string        `json:"meeting_url" binding:"omitempty,url"`
	ReminderMinutes *int           `json:"reminder_minutes" binding:"omitempty,min=0"`
	Status          *MeetingStatus `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
}

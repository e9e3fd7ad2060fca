package models

import "time"

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusShooting  ProjectStatus = "shooting"
	ProjectStatusEditing   ProjectStatus = "editing"
	ProjectStatusDelivered ProjectStatus = "delivered"
	ProjectStatusArchived  ProjectStatus = "archived"
)

type Project struct {
	ID        string
	Title     string
	ClientID  string
	Status    ProjectStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectAccess is the minimal view needed for an access decision: who
// the client is and which photographers are assigned.
type ProjectAccess struct {
	ProjectID string
	ClientID  string
	MemberIDs []string
}

type Asset struct {
	ID        string
	ProjectID string
	ObjectKey string
	FileName  string
	SizeBytes int64
	CreatedAt time.Time
}

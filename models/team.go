package models

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

type Team struct {
	ID             int            `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Tag            string         `json:"tag" db:"tag"`
	Description    *string        `json:"description,omitempty" db:"description"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
	IsHistorical   bool           `json:"is_historical" db:"is_historical"`
	CreationDate   time.Time      `json:"creation_date" db:"creation_date"`

	Rosters []Roster `json:"rosters,omitempty" db:"-"`
}

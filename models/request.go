package models

import "time"

// Заявки на смену имени/тега проходят тот же generic-конвейер
// pending/approved/denied, что и создание команд и ростеров.
// Одобренные и отклонённые заявки сохраняются для истории.

type TeamEditRequest struct {
	ID             int            `json:"id" db:"id"`
	TeamID         int            `json:"team_id" db:"team_id"`
	Name           string         `json:"name" db:"name"`
	Tag            string         `json:"tag" db:"tag"`
	Date           time.Time      `json:"date" db:"date"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
}

type RosterEditRequest struct {
	ID             int            `json:"id" db:"id"`
	RosterID       int            `json:"roster_id" db:"roster_id"`
	Name           *string        `json:"name,omitempty" db:"name"`
	Tag            *string        `json:"tag,omitempty" db:"tag"`
	Date           time.Time      `json:"date" db:"date"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
}

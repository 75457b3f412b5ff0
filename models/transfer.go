package models

import "time"

// TransferState - явное состояние трансфера, вычисляемое из колонок
// is_accepted/approval_status, чтобы невозможные комбинации не расползались
// по коду в виде пар булевых флагов.
type TransferState string

const (
	TransferInvited  TransferState = "invited"  // приглашение отправлено, игрок ещё не принял
	TransferAccepted TransferState = "accepted" // игрок принял, ждёт решения модерации
	TransferApproved TransferState = "approved" // одобрен, членство изменено
	TransferDenied   TransferState = "denied"   // отклонён модерацией, терминальное
)

// TeamTransfer покрывает и приглашения в ростер, и уходы из него.
// RosterID == nil означает чистый уход (synthetic "leave" запись для истории),
// RosterLeaveID == nil - вступление без покидания другого ростера.
type TeamTransfer struct {
	ID             int            `json:"id" db:"id"`
	PlayerID       int            `json:"player_id" db:"player_id"`
	RosterID       *int           `json:"roster_id,omitempty" db:"roster_id"`
	RosterLeaveID  *int           `json:"roster_leave_id,omitempty" db:"roster_leave_id"`
	Date           time.Time      `json:"date" db:"date"`
	IsAccepted     bool           `json:"is_accepted" db:"is_accepted"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
	IsBaggerClause bool           `json:"is_bagger_clause" db:"is_bagger_clause"`

	Player *Player `json:"player,omitempty" db:"-"`
}

func (t *TeamTransfer) State() TransferState {
	switch t.ApprovalStatus {
	case ApprovalApproved:
		return TransferApproved
	case ApprovalDenied:
		return TransferDenied
	}
	if t.IsAccepted {
		return TransferAccepted
	}
	return TransferInvited
}

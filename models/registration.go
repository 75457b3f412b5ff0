package models

import "time"

// TournamentRegistration - слот сквада в турнире. Для сольных турниров
// создаётся плейсхолдер 1:1 на игрока, чтобы автоснятие работало одинаково
// для обоих видов регистрации.
type TournamentRegistration struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         *string   `json:"name,omitempty" db:"name"`
	Tag          *string   `json:"tag,omitempty" db:"tag"`
	IsRegistered bool      `json:"is_registered" db:"is_registered"`
	IsApproved   bool      `json:"is_approved" db:"is_approved"`
	CreationDate time.Time `json:"creation_date" db:"creation_date"`

	Players []TournamentPlayer `json:"players,omitempty" db:"-"`
	Rosters []int              `json:"roster_ids,omitempty" db:"-"`
}

// TournamentPlayer - атомарная запись регистрации игрока.
// IsInvite == true означает приглашение в сквад, ещё не подтверждённую
// регистрацию; такие записи не учитываются ни в одном инварианте занятости.
type TournamentPlayer struct {
	ID               int       `json:"id" db:"id"`
	PlayerID         int       `json:"player_id" db:"player_id"`
	TournamentID     int       `json:"tournament_id" db:"tournament_id"`
	RegistrationID   int       `json:"registration_id" db:"registration_id"`
	IsSquadCaptain   bool      `json:"is_squad_captain" db:"is_squad_captain"`
	IsCheckedIn      bool      `json:"is_checked_in" db:"is_checked_in"`
	IsInvite         bool      `json:"is_invite" db:"is_invite"`
	IsRepresentative bool      `json:"is_representative" db:"is_representative"`
	IsBaggerClause   bool      `json:"is_bagger_clause" db:"is_bagger_clause"`
	IsApproved       bool      `json:"is_approved" db:"is_approved"`
	MiiName          *string   `json:"mii_name,omitempty" db:"mii_name"`
	CanHost          bool      `json:"can_host" db:"can_host"`
	SelectedFCID     *int      `json:"selected_fc_id,omitempty" db:"selected_fc_id"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// TeamSquadRegistration - связь many-to-many: какие ростеры стоят за
// командным сквадом турнира.
type TeamSquadRegistration struct {
	RosterID       int `json:"roster_id" db:"roster_id"`
	RegistrationID int `json:"registration_id" db:"registration_id"`
	TournamentID   int `json:"tournament_id" db:"tournament_id"`
}

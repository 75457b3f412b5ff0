package models

import "time"

// Roster - игровой состав команды для конкретной игры и режима.
// Name и Tag могут быть NULL: тогда ростер наследует имя и тег команды.
type Roster struct {
	ID             int            `json:"id" db:"id"`
	TeamID         int            `json:"team_id" db:"team_id"`
	Game           string         `json:"game" db:"game"`
	Mode           string         `json:"mode" db:"mode"`
	Name           *string        `json:"name,omitempty" db:"name"`
	Tag            *string        `json:"tag,omitempty" db:"tag"`
	ApprovalStatus ApprovalStatus `json:"approval_status" db:"approval_status"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	IsRecruiting   bool           `json:"is_recruiting" db:"is_recruiting"`
	CreationDate   time.Time      `json:"creation_date" db:"creation_date"`

	Team    *Team        `json:"team,omitempty" db:"-"`
	Members []TeamMember `json:"members,omitempty" db:"-"`
}

// EffectiveName resolves the inherited name at read time instead of
// denormalizing it at write time (team renames must not leave stale copies).
func (r *Roster) EffectiveName(team *Team) string {
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	if team != nil {
		return team.Name
	}
	return ""
}

func (r *Roster) EffectiveTag(team *Team) string {
	if r.Tag != nil && *r.Tag != "" {
		return *r.Tag
	}
	if team != nil {
		return team.Tag
	}
	return ""
}

// TeamMember - членство игрока в ростере. LeaveDate == nil означает
// действующее членство; на пару (roster, player, bagger) может быть
// не больше одной открытой записи.
type TeamMember struct {
	ID             int        `json:"id" db:"id"`
	RosterID       int        `json:"roster_id" db:"roster_id"`
	PlayerID       int        `json:"player_id" db:"player_id"`
	JoinDate       time.Time  `json:"join_date" db:"join_date"`
	LeaveDate      *time.Time `json:"leave_date,omitempty" db:"leave_date"`
	IsBaggerClause bool       `json:"is_bagger_clause" db:"is_bagger_clause"`

	Player *Player `json:"player,omitempty" db:"-"`
}

func (m *TeamMember) IsCurrent() bool {
	return m.LeaveDate == nil
}

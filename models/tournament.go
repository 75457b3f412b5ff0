package models

import "time"

// Tournament - конфигурация турнира. Координатор согласованности читает её
// как неизменяемую: меняют турнир организаторы, а не каскады.
type Tournament struct {
	ID                   int        `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Game                 string     `json:"game" db:"game"`
	Mode                 string     `json:"mode" db:"mode"`
	SeriesID             *int       `json:"series_id,omitempty" db:"series_id"`
	IsSquad              bool       `json:"is_squad" db:"is_squad"`
	TeamsAllowed         bool       `json:"teams_allowed" db:"teams_allowed"`
	TeamsOnly            bool       `json:"teams_only" db:"teams_only"`
	TeamMembersOnly      bool       `json:"team_members_only" db:"team_members_only"`
	MinSquadSize         *int       `json:"min_squad_size,omitempty" db:"min_squad_size"`
	MaxSquadSize         *int       `json:"max_squad_size,omitempty" db:"max_squad_size"`
	SquadNameRequired    bool       `json:"squad_name_required" db:"squad_name_required"`
	SquadTagRequired     bool       `json:"squad_tag_required" db:"squad_tag_required"`
	MiiNameRequired      bool       `json:"mii_name_required" db:"mii_name_required"`
	RequireSingleFC      bool       `json:"require_single_fc" db:"require_single_fc"`
	BaggerClauseEnabled  bool       `json:"bagger_clause_enabled" db:"bagger_clause_enabled"`
	RegistrationsOpen    bool       `json:"registrations_open" db:"registrations_open"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty" db:"registration_deadline"`
	DateStart            time.Time  `json:"date_start" db:"date_start"`
	DateEnd              time.Time  `json:"date_end" db:"date_end"`

	DescriptionKey *string `json:"-" db:"description_key"`
	DescriptionURL *string `json:"description_url,omitempty" db:"-"`
}

// AcceptsCascades reports whether the tournament is still "live" for the
// consistency coordinator: cascading removals apply only while the tournament
// has not ended or is still accepting registrations.
func (t *Tournament) AcceptsCascades(now time.Time) bool {
	return t.RegistrationsOpen || now.Before(t.DateEnd)
}

package models

// PermissionScope задаёт уровень, на котором выдана роль.
// Порядок разрешения: tournament -> series -> team -> global.
type PermissionScope string

const (
	ScopeGlobal     PermissionScope = "global"
	ScopeTeam       PermissionScope = "team"
	ScopeSeries     PermissionScope = "series"
	ScopeTournament PermissionScope = "tournament"
)

type Role struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Position int    `json:"position" db:"position"`
}

// PermissionGrant - одна строка "роль пользователя даёт/запрещает permission
// на таком-то уровне". Оракул разрешений работает поверх списка таких строк.
type PermissionGrant struct {
	Scope    PermissionScope `json:"scope" db:"scope"`
	ScopeID  *int            `json:"scope_id,omitempty" db:"scope_id"`
	IsDenied bool            `json:"is_denied" db:"is_denied"`
}

// Имена permissions, используемые слоем запросов. Ядро консистентности само
// разрешений не проверяет.
const (
	PermManageTeams         = "team/manage"
	PermManageTransfers     = "transfer/manage"
	PermManageTournaments   = "tournament/manage"
	PermManageRegistrations = "tournament/manage_registrations"
	PermBanPlayers          = "player/ban"
)

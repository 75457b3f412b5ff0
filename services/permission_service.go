package services

import (
	"context"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

// PermissionScopeRef - к какому объекту относится проверка. Нулевые ID
// означают, что соответствующий уровень не применим к запросу.
type PermissionScopeRef struct {
	TeamID       *int
	SeriesID     *int
	TournamentID *int
}

// PermissionService - оракул разрешений для слоя запросов. Ядро
// консистентности его не вызывает.
type PermissionService interface {
	HasPermission(ctx context.Context, userID int, permission string, scope PermissionScopeRef) (bool, error)
}

type permissionService struct {
	roleRepo repositories.RoleRepository
}

func NewPermissionService(roleRepo repositories.RoleRepository) PermissionService {
	return &permissionService{roleRepo: roleRepo}
}

// HasPermission применяет порядок tournament -> series -> team -> global.
// Первый применимый уровень с явным grant или deny решает исход: узкий
// grant перекрывает широкий deny, узкий deny перекрывает широкий grant.
func (s *permissionService) HasPermission(ctx context.Context, userID int, permission string, scope PermissionScopeRef) (bool, error) {
	grants, err := s.roleRepo.ListGrants(ctx, userID, permission)
	if err != nil {
		return false, err
	}
	if len(grants) == 0 {
		return false, nil
	}

	levels := []struct {
		scope models.PermissionScope
		id    *int
	}{
		{models.ScopeTournament, scope.TournamentID},
		{models.ScopeSeries, scope.SeriesID},
		{models.ScopeTeam, scope.TeamID},
		{models.ScopeGlobal, nil},
	}

	for _, level := range levels {
		if level.scope != models.ScopeGlobal && level.id == nil {
			continue
		}
		allowed, found := resolveAtLevel(grants, level.scope, level.id)
		if found {
			return allowed, nil
		}
	}
	return false, nil
}

// resolveAtLevel сводит строки одного уровня к решению. Deny внутри уровня
// побеждает grant того же уровня.
func resolveAtLevel(grants []models.PermissionGrant, scope models.PermissionScope, scopeID *int) (allowed, found bool) {
	for _, g := range grants {
		if g.Scope != scope {
			continue
		}
		if scope != models.ScopeGlobal {
			if g.ScopeID == nil || scopeID == nil || *g.ScopeID != *scopeID {
				continue
			}
		}
		found = true
		if g.IsDenied {
			return false, true
		}
		allowed = true
	}
	return allowed, found
}

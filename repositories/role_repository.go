package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MarioKartCentral/registry/models"
)

type RoleRepository interface {
	// ListGrants возвращает все строки "роль пользователя даёт/запрещает
	// permission" на всех уровнях. Порядок разрешения применяет сервис.
	ListGrants(ctx context.Context, userID int, permission string) ([]models.PermissionGrant, error)
}

type postgresRoleRepository struct {
	db *sql.DB
}

func NewPostgresRoleRepository(db *sql.DB) RoleRepository {
	return &postgresRoleRepository{db: db}
}

func (r *postgresRoleRepository) ListGrants(ctx context.Context, userID int, permission string) ([]models.PermissionGrant, error) {
	query := `
		SELECT 'global' AS scope, NULL::int AS scope_id, rp.is_denied
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		WHERE ur.user_id = $1 AND rp.permission = $2
		UNION ALL
		SELECT 'team', tr.team_id, rp.is_denied
		FROM team_roles tr
		JOIN role_permissions rp ON rp.role_id = tr.role_id
		WHERE tr.user_id = $1 AND rp.permission = $2
		UNION ALL
		SELECT 'series', sr.series_id, rp.is_denied
		FROM series_roles sr
		JOIN role_permissions rp ON rp.role_id = sr.role_id
		WHERE sr.user_id = $1 AND rp.permission = $2
		UNION ALL
		SELECT 'tournament', tor.tournament_id, rp.is_denied
		FROM tournament_roles tor
		JOIN role_permissions rp ON rp.role_id = tor.role_id
		WHERE tor.user_id = $1 AND rp.permission = $2`

	rows, err := r.db.QueryContext(ctx, query, userID, permission)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants for user %d: %w", userID, err)
	}
	defer rows.Close()

	grants := make([]models.PermissionGrant, 0)
	for rows.Next() {
		var g models.PermissionGrant
		if err := rows.Scan(&g.Scope, &g.ScopeID, &g.IsDenied); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MarioKartCentral/registry/models"
	"github.com/lib/pq"
)

var (
	ErrRosterNotFound     = errors.New("roster not found")
	ErrRosterNameConflict = errors.New("roster with the same effective name exists for this team/game/mode")
	ErrRosterTeamInvalid  = errors.New("roster team conflict or invalid")
)

type RosterRepository interface {
	Create(ctx context.Context, exec SQLExecutor, roster *models.Roster) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Roster, error)
	// GetByIDForUpdate блокирует строку ростера на время check-then-act
	// операций (заявка на переименование).
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Roster, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Roster, error)
	UpdateNameTag(ctx context.Context, exec SQLExecutor, id int, name, tag *string) error
	UpdateApprovalStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error
	SetActive(ctx context.Context, id int, active bool) error
	SetRecruiting(ctx context.Context, id int, recruiting bool) error
	// EffectiveNameTaken проверяет уникальность разрешённого имени:
	// NULL у ростера схлопывается в имя команды, поэтому сравнение идёт
	// по COALESCE с обеих сторон.
	EffectiveNameTaken(ctx context.Context, exec SQLExecutor, teamID int, game, mode, effectiveName string, excludeRosterID *int) (bool, error)
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRosterRepository) Create(ctx context.Context, exec SQLExecutor, roster *models.Roster) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO rosters (team_id, game, mode, name, tag, approval_status, is_active, is_recruiting)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, creation_date`

	err := executor.QueryRowContext(ctx, query,
		roster.TeamID, roster.Game, roster.Mode, roster.Name, roster.Tag,
		roster.ApprovalStatus, roster.IsActive, roster.IsRecruiting,
	).Scan(&roster.ID, &roster.CreationDate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrRosterNameConflict
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "rosters_team_id_fkey" {
					return ErrRosterTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create roster: %w", err)
	}
	return nil
}

func (r *postgresRosterRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Roster, error) {
	return r.getByID(ctx, exec, id, false)
}

func (r *postgresRosterRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Roster, error) {
	return r.getByID(ctx, exec, id, true)
}

func (r *postgresRosterRepository) getByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Roster, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, team_id, game, mode, name, tag, approval_status, is_active, is_recruiting, creation_date
		FROM rosters WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	ros := &models.Roster{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&ros.ID, &ros.TeamID, &ros.Game, &ros.Mode, &ros.Name, &ros.Tag,
		&ros.ApprovalStatus, &ros.IsActive, &ros.IsRecruiting, &ros.CreationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("failed to find roster %d: %w", id, err)
	}
	return ros, nil
}

func (r *postgresRosterRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Roster, error) {
	query := `
		SELECT id, team_id, game, mode, name, tag, approval_status, is_active, is_recruiting, creation_date
		FROM rosters WHERE team_id = $1
		ORDER BY game, mode, creation_date`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters for team %d: %w", teamID, err)
	}
	defer rows.Close()

	rosters := make([]*models.Roster, 0)
	for rows.Next() {
		var ros models.Roster
		if err := rows.Scan(
			&ros.ID, &ros.TeamID, &ros.Game, &ros.Mode, &ros.Name, &ros.Tag,
			&ros.ApprovalStatus, &ros.IsActive, &ros.IsRecruiting, &ros.CreationDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan roster: %w", err)
		}
		rosters = append(rosters, &ros)
	}
	return rosters, rows.Err()
}

func (r *postgresRosterRepository) UpdateNameTag(ctx context.Context, exec SQLExecutor, id int, name, tag *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE rosters SET name = $1, tag = $2 WHERE id = $3`, name, tag, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrRosterNameConflict
		}
		return fmt.Errorf("failed to update roster %d name/tag: %w", id, err)
	}
	return checkAffectedRows(result, ErrRosterNotFound)
}

func (r *postgresRosterRepository) UpdateApprovalStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE rosters SET approval_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update roster %d approval status: %w", id, err)
	}
	return checkAffectedRows(result, ErrRosterNotFound)
}

func (r *postgresRosterRepository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE rosters SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update roster %d active flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrRosterNotFound)
}

func (r *postgresRosterRepository) SetRecruiting(ctx context.Context, id int, recruiting bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE rosters SET is_recruiting = $1 WHERE id = $2`, recruiting, id)
	if err != nil {
		return fmt.Errorf("failed to update roster %d recruiting flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrRosterNotFound)
}

func (r *postgresRosterRepository) EffectiveNameTaken(ctx context.Context, exec SQLExecutor, teamID int, game, mode, effectiveName string, excludeRosterID *int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM rosters r
			JOIN teams t ON t.id = r.team_id
			WHERE r.team_id = $1 AND r.game = $2 AND r.mode = $3
			  AND COALESCE(NULLIF(r.name, ''), t.name) = $4
			  AND ($5::int IS NULL OR r.id <> $5)
		)`

	var taken bool
	if err := executor.QueryRowContext(ctx, query, teamID, game, mode, effectiveName, excludeRosterID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check roster name uniqueness: %w", err)
	}
	return taken, nil
}

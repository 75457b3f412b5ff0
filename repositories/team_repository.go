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
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already in use")
)

type ListTeamsFilter struct {
	Game           *string
	ApprovalStatus *models.ApprovalStatus
	IsHistorical   *bool
	Limit          int
	Offset         int
}

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	// GetByIDForUpdate блокирует строку команды: сериализует check-then-act
	// операции над одной командой (создание ростера, заявка на переименование).
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	List(ctx context.Context, filter ListTeamsFilter) ([]*models.Team, error)
	UpdateNameTag(ctx context.Context, exec SQLExecutor, id int, name, tag string) error
	UpdateDescription(ctx context.Context, id int, description *string) error
	UpdateApprovalStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error
	SetHistorical(ctx context.Context, id int, historical bool) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (name, tag, description, approval_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_historical, creation_date`

	err := executor.QueryRowContext(ctx, query, team.Name, team.Tag, team.Description, team.ApprovalStatus).
		Scan(&team.ID, &team.IsHistorical, &team.CreationDate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_name_key" {
				return ErrTeamNameConflict
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	return r.getByID(ctx, exec, id, false)
}

func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	return r.getByID(ctx, exec, id, true)
}

func (r *postgresTeamRepository) getByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, tag, description, approval_status, is_historical, creation_date
		FROM teams WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t := &models.Team{}
	err := executor.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.Name, &t.Tag, &t.Description, &t.ApprovalStatus, &t.IsHistorical, &t.CreationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTeamRepository) List(ctx context.Context, filter ListTeamsFilter) ([]*models.Team, error) {
	query := `
		SELECT DISTINCT t.id, t.name, t.tag, t.description, t.approval_status, t.is_historical, t.creation_date
		FROM teams t
		LEFT JOIN rosters r ON r.team_id = t.id
		WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.Game != nil {
		args = append(args, *filter.Game)
		query += fmt.Sprintf(" AND r.game = $%d", len(args))
	}
	if filter.ApprovalStatus != nil {
		args = append(args, *filter.ApprovalStatus)
		query += fmt.Sprintf(" AND t.approval_status = $%d", len(args))
	}
	if filter.IsHistorical != nil {
		args = append(args, *filter.IsHistorical)
		query += fmt.Sprintf(" AND t.is_historical = $%d", len(args))
	}
	query += " ORDER BY t.name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Tag, &t.Description, &t.ApprovalStatus, &t.IsHistorical, &t.CreationDate); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateNameTag(ctx context.Context, exec SQLExecutor, id int, name, tag string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE teams SET name = $1, tag = $2 WHERE id = $3`, name, tag, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to update team %d name/tag: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateDescription(ctx context.Context, id int, description *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET description = $1 WHERE id = $2`, description, id)
	if err != nil {
		return fmt.Errorf("failed to update team %d description: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateApprovalStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE teams SET approval_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update team %d approval status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) SetHistorical(ctx context.Context, id int, historical bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET is_historical = $1 WHERE id = $2`, historical, id)
	if err != nil {
		return fmt.Errorf("failed to update team %d historical flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MarioKartCentral/registry/models"
)

var ErrEditRequestNotFound = errors.New("edit request not found")

// EditRequestRepository обслуживает заявки на смену имени/тега команд и
// ростеров. Заявки никогда не удаляются: approved/denied остаются историей.
type EditRequestRepository interface {
	CreateTeamEdit(ctx context.Context, exec SQLExecutor, req *models.TeamEditRequest) error
	GetTeamEditByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamEditRequest, error)
	// LatestNonDeniedTeamEdit - самая свежая не отклонённая заявка команды;
	// нужна троттлингу (одна заявка в 90 дней), поэтому читается внутри
	// транзакции под блокировкой строки команды.
	LatestNonDeniedTeamEdit(ctx context.Context, exec SQLExecutor, teamID int) (*models.TeamEditRequest, error)
	UpdateTeamEditStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error
	ListPendingTeamEdits(ctx context.Context) ([]*models.TeamEditRequest, error)

	CreateRosterEdit(ctx context.Context, exec SQLExecutor, req *models.RosterEditRequest) error
	GetRosterEditByID(ctx context.Context, exec SQLExecutor, id int) (*models.RosterEditRequest, error)
	LatestNonDeniedRosterEdit(ctx context.Context, exec SQLExecutor, rosterID int) (*models.RosterEditRequest, error)
	UpdateRosterEditStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error
	ListPendingRosterEdits(ctx context.Context) ([]*models.RosterEditRequest, error)
}

type postgresEditRequestRepository struct {
	db *sql.DB
}

func NewPostgresEditRequestRepository(db *sql.DB) EditRequestRepository {
	return &postgresEditRequestRepository{db: db}
}

func (r *postgresEditRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEditRequestRepository) CreateTeamEdit(ctx context.Context, exec SQLExecutor, req *models.TeamEditRequest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_edit_requests (team_id, name, tag, approval_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date`

	err := executor.QueryRowContext(ctx, query, req.TeamID, req.Name, req.Tag, req.ApprovalStatus).
		Scan(&req.ID, &req.Date)
	if err != nil {
		return fmt.Errorf("failed to create team edit request: %w", err)
	}
	return nil
}

func (r *postgresEditRequestRepository) GetTeamEditByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamEditRequest, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, team_id, name, tag, date, approval_status FROM team_edit_requests WHERE id = $1`

	req := &models.TeamEditRequest{}
	err := executor.QueryRowContext(ctx, query, id).
		Scan(&req.ID, &req.TeamID, &req.Name, &req.Tag, &req.Date, &req.ApprovalStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEditRequestNotFound
		}
		return nil, fmt.Errorf("failed to find team edit request %d: %w", id, err)
	}
	return req, nil
}

func (r *postgresEditRequestRepository) LatestNonDeniedTeamEdit(ctx context.Context, exec SQLExecutor, teamID int) (*models.TeamEditRequest, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, team_id, name, tag, date, approval_status
		FROM team_edit_requests
		WHERE team_id = $1 AND approval_status <> 'denied'
		ORDER BY date DESC
		LIMIT 1`

	req := &models.TeamEditRequest{}
	err := executor.QueryRowContext(ctx, query, teamID).
		Scan(&req.ID, &req.TeamID, &req.Name, &req.Tag, &req.Date, &req.ApprovalStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEditRequestNotFound
		}
		return nil, fmt.Errorf("failed to find latest team edit request for team %d: %w", teamID, err)
	}
	return req, nil
}

func (r *postgresEditRequestRepository) UpdateTeamEditStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE team_edit_requests SET approval_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update team edit request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEditRequestNotFound)
}

func (r *postgresEditRequestRepository) ListPendingTeamEdits(ctx context.Context) ([]*models.TeamEditRequest, error) {
	query := `
		SELECT id, team_id, name, tag, date, approval_status
		FROM team_edit_requests
		WHERE approval_status = 'pending'
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending team edit requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.TeamEditRequest, 0)
	for rows.Next() {
		var req models.TeamEditRequest
		if err := rows.Scan(&req.ID, &req.TeamID, &req.Name, &req.Tag, &req.Date, &req.ApprovalStatus); err != nil {
			return nil, fmt.Errorf("failed to scan team edit request: %w", err)
		}
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

func (r *postgresEditRequestRepository) CreateRosterEdit(ctx context.Context, exec SQLExecutor, req *models.RosterEditRequest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO roster_edit_requests (roster_id, name, tag, approval_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date`

	err := executor.QueryRowContext(ctx, query, req.RosterID, req.Name, req.Tag, req.ApprovalStatus).
		Scan(&req.ID, &req.Date)
	if err != nil {
		return fmt.Errorf("failed to create roster edit request: %w", err)
	}
	return nil
}

func (r *postgresEditRequestRepository) GetRosterEditByID(ctx context.Context, exec SQLExecutor, id int) (*models.RosterEditRequest, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, roster_id, name, tag, date, approval_status FROM roster_edit_requests WHERE id = $1`

	req := &models.RosterEditRequest{}
	err := executor.QueryRowContext(ctx, query, id).
		Scan(&req.ID, &req.RosterID, &req.Name, &req.Tag, &req.Date, &req.ApprovalStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEditRequestNotFound
		}
		return nil, fmt.Errorf("failed to find roster edit request %d: %w", id, err)
	}
	return req, nil
}

func (r *postgresEditRequestRepository) LatestNonDeniedRosterEdit(ctx context.Context, exec SQLExecutor, rosterID int) (*models.RosterEditRequest, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, roster_id, name, tag, date, approval_status
		FROM roster_edit_requests
		WHERE roster_id = $1 AND approval_status <> 'denied'
		ORDER BY date DESC
		LIMIT 1`

	req := &models.RosterEditRequest{}
	err := executor.QueryRowContext(ctx, query, rosterID).
		Scan(&req.ID, &req.RosterID, &req.Name, &req.Tag, &req.Date, &req.ApprovalStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEditRequestNotFound
		}
		return nil, fmt.Errorf("failed to find latest roster edit request for roster %d: %w", rosterID, err)
	}
	return req, nil
}

func (r *postgresEditRequestRepository) UpdateRosterEditStatus(ctx context.Context, exec SQLExecutor, id int, status models.ApprovalStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE roster_edit_requests SET approval_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update roster edit request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEditRequestNotFound)
}

func (r *postgresEditRequestRepository) ListPendingRosterEdits(ctx context.Context) ([]*models.RosterEditRequest, error) {
	query := `
		SELECT id, roster_id, name, tag, date, approval_status
		FROM roster_edit_requests
		WHERE approval_status = 'pending'
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending roster edit requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.RosterEditRequest, 0)
	for rows.Next() {
		var req models.RosterEditRequest
		if err := rows.Scan(&req.ID, &req.RosterID, &req.Name, &req.Tag, &req.Date, &req.ApprovalStatus); err != nil {
			return nil, fmt.Errorf("failed to scan roster edit request: %w", err)
		}
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

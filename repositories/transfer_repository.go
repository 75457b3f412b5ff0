package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/lib/pq"
)

var (
	ErrTransferNotFound      = errors.New("transfer not found")
	ErrTransferPlayerInvalid = errors.New("transfer player conflict or invalid")
	ErrTransferRosterInvalid = errors.New("transfer roster conflict or invalid")
)

type TransferRepository interface {
	Create(ctx context.Context, exec SQLExecutor, transfer *models.TeamTransfer) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamTransfer, error)
	// GetByIDForUpdate - approve/deny два стаффа могут дёрнуть одновременно;
	// строка трансфера блокируется на всю транзакцию.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TeamTransfer, error)
	// FindUnresolved находит виситящий инвайт/трансфер игрока в тот же ростер
	// (не denied и не approved), неважно в каком состоянии принятия.
	FindUnresolved(ctx context.Context, exec SQLExecutor, playerID, rosterID int, isBagger bool) (*models.TeamTransfer, error)
	Update(ctx context.Context, exec SQLExecutor, transfer *models.TeamTransfer) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListPendingApproval(ctx context.Context) ([]*models.TeamTransfer, error)
	ListByPlayer(ctx context.Context, playerID int) ([]*models.TeamTransfer, error)
	// DeleteStaleInvites удаляет не принятые приглашения старше cutoff.
	DeleteStaleInvites(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresTransferRepository struct {
	db *sql.DB
}

func NewPostgresTransferRepository(db *sql.DB) TransferRepository {
	return &postgresTransferRepository{db: db}
}

func (r *postgresTransferRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const transferColumns = `id, player_id, roster_id, roster_leave_id, date, is_accepted, approval_status, is_bagger_clause`

func scanTransfer(row interface{ Scan(dest ...interface{}) error }, t *models.TeamTransfer) error {
	return row.Scan(&t.ID, &t.PlayerID, &t.RosterID, &t.RosterLeaveID, &t.Date,
		&t.IsAccepted, &t.ApprovalStatus, &t.IsBaggerClause)
}

func (r *postgresTransferRepository) Create(ctx context.Context, exec SQLExecutor, transfer *models.TeamTransfer) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_transfers (player_id, roster_id, roster_leave_id, date, is_accepted, approval_status, is_bagger_clause)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		transfer.PlayerID, transfer.RosterID, transfer.RosterLeaveID, transfer.Date,
		transfer.IsAccepted, transfer.ApprovalStatus, transfer.IsBaggerClause,
	).Scan(&transfer.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "team_transfers_player_id_fkey":
				return ErrTransferPlayerInvalid
			case "team_transfers_roster_id_fkey", "team_transfers_roster_leave_id_fkey":
				return ErrTransferRosterInvalid
			}
		}
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *postgresTransferRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TeamTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM team_transfers WHERE id = $1`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresTransferRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TeamTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM team_transfers WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresTransferRepository) FindUnresolved(ctx context.Context, exec SQLExecutor, playerID, rosterID int, isBagger bool) (*models.TeamTransfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM team_transfers
		WHERE player_id = $1 AND roster_id = $2 AND is_bagger_clause = $3
		  AND approval_status = 'pending'
		ORDER BY date DESC
		LIMIT 1`
	return r.findOne(ctx, exec, query, playerID, rosterID, isBagger)
}

func (r *postgresTransferRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.TeamTransfer, error) {
	executor := r.getExecutor(exec)
	t := &models.TeamTransfer{}
	if err := scanTransfer(executor.QueryRowContext(ctx, query, args...), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to find transfer: %w", err)
	}
	return t, nil
}

func (r *postgresTransferRepository) Update(ctx context.Context, exec SQLExecutor, transfer *models.TeamTransfer) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE team_transfers
		SET roster_leave_id = $1, is_accepted = $2, approval_status = $3
		WHERE id = $4`

	result, err := executor.ExecContext(ctx, query,
		transfer.RosterLeaveID, transfer.IsAccepted, transfer.ApprovalStatus, transfer.ID)
	if err != nil {
		return fmt.Errorf("failed to update transfer %d: %w", transfer.ID, err)
	}
	return checkAffectedRows(result, ErrTransferNotFound)
}

func (r *postgresTransferRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM team_transfers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTransferNotFound)
}

func (r *postgresTransferRepository) ListPendingApproval(ctx context.Context) ([]*models.TeamTransfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM team_transfers
		WHERE is_accepted AND approval_status = 'pending'
		ORDER BY date`
	return r.list(ctx, query)
}

func (r *postgresTransferRepository) ListByPlayer(ctx context.Context, playerID int) ([]*models.TeamTransfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM team_transfers
		WHERE player_id = $1
		ORDER BY date DESC`
	return r.list(ctx, query, playerID)
}

func (r *postgresTransferRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.TeamTransfer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	transfers := make([]*models.TeamTransfer, 0)
	for rows.Next() {
		var t models.TeamTransfer
		if err := scanTransfer(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}

func (r *postgresTransferRepository) DeleteStaleInvites(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM team_transfers
		WHERE NOT is_accepted AND approval_status = 'pending' AND roster_id IS NOT NULL AND date < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale invites: %w", err)
	}
	return result.RowsAffected()
}

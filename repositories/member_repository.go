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
	ErrMemberNotFound = errors.New("team member not found")
	ErrMemberConflict = errors.New("player already has an active membership in this roster")
)

type TeamMemberRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	GetActive(ctx context.Context, exec SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error)
	// GetActiveForUpdate блокирует строку членства на время транзакции
	// (approve трансфера и remove должны видеть согласованное состояние).
	GetActiveForUpdate(ctx context.Context, exec SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error)
	ListActiveByRoster(ctx context.Context, exec SQLExecutor, rosterID int) ([]*models.TeamMember, error)
	ListActiveByPlayer(ctx context.Context, exec SQLExecutor, playerID int) ([]*models.TeamMember, error)
	Close(ctx context.Context, exec SQLExecutor, memberID int, leaveDate time.Time) error
}

type postgresTeamMemberRepository struct {
	db *sql.DB
}

func NewPostgresTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

func (r *postgresTeamMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const memberColumns = `id, roster_id, player_id, join_date, leave_date, is_bagger_clause`

func scanMember(row interface{ Scan(dest ...interface{}) error }, m *models.TeamMember) error {
	return row.Scan(&m.ID, &m.RosterID, &m.PlayerID, &m.JoinDate, &m.LeaveDate, &m.IsBaggerClause)
}

func (r *postgresTeamMemberRepository) Insert(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_members (roster_id, player_id, join_date, is_bagger_clause)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		member.RosterID, member.PlayerID, member.JoinDate, member.IsBaggerClause,
	).Scan(&member.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// частичный уникальный индекс team_members_active_key
			return ErrMemberConflict
		}
		return fmt.Errorf("failed to insert team member: %w", err)
	}
	return nil
}

func (r *postgresTeamMemberRepository) GetActive(ctx context.Context, exec SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM team_members
		WHERE roster_id = $1 AND player_id = $2 AND is_bagger_clause = $3 AND leave_date IS NULL`
	return r.findOne(ctx, exec, query, rosterID, playerID, isBagger)
}

func (r *postgresTeamMemberRepository) GetActiveForUpdate(ctx context.Context, exec SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM team_members
		WHERE roster_id = $1 AND player_id = $2 AND is_bagger_clause = $3 AND leave_date IS NULL
		FOR UPDATE`
	return r.findOne(ctx, exec, query, rosterID, playerID, isBagger)
}

func (r *postgresTeamMemberRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.TeamMember, error) {
	executor := r.getExecutor(exec)
	m := &models.TeamMember{}
	if err := scanMember(executor.QueryRowContext(ctx, query, args...), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member: %w", err)
	}
	return m, nil
}

func (r *postgresTeamMemberRepository) ListActiveByRoster(ctx context.Context, exec SQLExecutor, rosterID int) ([]*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM team_members
		WHERE roster_id = $1 AND leave_date IS NULL
		ORDER BY join_date`
	return r.list(ctx, exec, query, rosterID)
}

func (r *postgresTeamMemberRepository) ListActiveByPlayer(ctx context.Context, exec SQLExecutor, playerID int) ([]*models.TeamMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM team_members
		WHERE player_id = $1 AND leave_date IS NULL
		ORDER BY join_date`
	return r.list(ctx, exec, query, playerID)
}

func (r *postgresTeamMemberRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.TeamMember, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := scanMember(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *postgresTeamMemberRepository) Close(ctx context.Context, exec SQLExecutor, memberID int, leaveDate time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE team_members SET leave_date = $1 WHERE id = $2 AND leave_date IS NULL`,
		leaveDate, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to close team member %d: %w", memberID, err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

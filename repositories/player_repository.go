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
	ErrPlayerNotFound          = errors.New("player not found")
	ErrFriendCodeNotFound      = errors.New("friend code not found")
	ErrFriendCodeConflict      = errors.New("friend code already registered for this game")
	ErrFriendCodePlayerInvalid = errors.New("friend code player conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	SetBanned(ctx context.Context, id int, banned bool) error

	CreateFriendCode(ctx context.Context, fc *models.FriendCode) error
	ListFriendCodes(ctx context.Context, playerID int) ([]*models.FriendCode, error)
	SetFriendCodeActive(ctx context.Context, fcID int, active bool) error
	// HasActiveFriendCode - identity-check для Invite/Accept/Register:
	// без активного кода для игры игрока никуда не пускают.
	HasActiveFriendCode(ctx context.Context, exec SQLExecutor, playerID int, game string) (bool, error)
	CountActiveFriendCodes(ctx context.Context, exec SQLExecutor, playerID int, game string) (int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (name, country_code)
		VALUES ($1, $2)
		RETURNING id, is_banned, join_date`

	err := r.db.QueryRowContext(ctx, query, player.Name, player.CountryCode).
		Scan(&player.ID, &player.IsBanned, &player.JoinDate)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT id, name, country_code, is_banned, join_date FROM players WHERE id = $1`
	p := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.CountryCode, &p.IsBanned, &p.JoinDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to find player %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) SetBanned(ctx context.Context, id int, banned bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET is_banned = $1 WHERE id = $2`, banned, id)
	if err != nil {
		return fmt.Errorf("failed to update player %d ban flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) CreateFriendCode(ctx context.Context, fc *models.FriendCode) error {
	query := `
		INSERT INTO friend_codes (player_id, game, fc, is_active, is_primary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, fc.PlayerID, fc.Game, fc.FC, fc.IsActive, fc.IsPrimary).
		Scan(&fc.ID, &fc.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "friend_codes_game_fc_key" {
					return ErrFriendCodeConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "friend_codes_player_id_fkey" {
					return ErrFriendCodePlayerInvalid
				}
			}
		}
		return fmt.Errorf("failed to create friend code: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) ListFriendCodes(ctx context.Context, playerID int) ([]*models.FriendCode, error) {
	query := `
		SELECT id, player_id, game, fc, is_active, is_primary, created_at
		FROM friend_codes
		WHERE player_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend codes for player %d: %w", playerID, err)
	}
	defer rows.Close()

	codes := make([]*models.FriendCode, 0)
	for rows.Next() {
		var fc models.FriendCode
		if err := rows.Scan(&fc.ID, &fc.PlayerID, &fc.Game, &fc.FC, &fc.IsActive, &fc.IsPrimary, &fc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend code: %w", err)
		}
		codes = append(codes, &fc)
	}
	return codes, rows.Err()
}

func (r *postgresPlayerRepository) SetFriendCodeActive(ctx context.Context, fcID int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE friend_codes SET is_active = $1 WHERE id = $2`, active, fcID)
	if err != nil {
		return fmt.Errorf("failed to update friend code %d: %w", fcID, err)
	}
	return checkAffectedRows(result, ErrFriendCodeNotFound)
}

func (r *postgresPlayerRepository) HasActiveFriendCode(ctx context.Context, exec SQLExecutor, playerID int, game string) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM friend_codes WHERE player_id = $1 AND game = $2 AND is_active)`
	if err := executor.QueryRowContext(ctx, query, playerID, game).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friend code for player %d game %s: %w", playerID, game, err)
	}
	return exists, nil
}

func (r *postgresPlayerRepository) CountActiveFriendCodes(ctx context.Context, exec SQLExecutor, playerID int, game string) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	query := `SELECT COUNT(*) FROM friend_codes WHERE player_id = $1 AND game = $2 AND is_active`
	if err := executor.QueryRowContext(ctx, query, playerID, game).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count friend codes for player %d game %s: %w", playerID, game, err)
	}
	return count, nil
}

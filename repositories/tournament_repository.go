package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MarioKartCentral/registry/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type ListTournamentsFilter struct {
	Game              *string
	RegistrationsOpen *bool
	SeriesID          *int
	Limit             int
	Offset            int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateDescriptionKey(ctx context.Context, id int, key *string) error
	// CloseExpiredRegistrations закрывает регистрацию у турниров, чей дедлайн
	// прошёл; вызывается планировщиком.
	CloseExpiredRegistrations(ctx context.Context, now time.Time) (int64, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, game, mode, series_id, is_squad, teams_allowed, teams_only,
	team_members_only, min_squad_size, max_squad_size, squad_name_required, squad_tag_required,
	mii_name_required, require_single_fc, bagger_clause_enabled, registrations_open,
	registration_deadline, date_start, date_end, description_key`

func scanTournament(row interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Game, &t.Mode, &t.SeriesID, &t.IsSquad, &t.TeamsAllowed, &t.TeamsOnly,
		&t.TeamMembersOnly, &t.MinSquadSize, &t.MaxSquadSize, &t.SquadNameRequired, &t.SquadTagRequired,
		&t.MiiNameRequired, &t.RequireSingleFC, &t.BaggerClauseEnabled, &t.RegistrationsOpen,
		&t.RegistrationDeadline, &t.DateStart, &t.DateEnd, &t.DescriptionKey,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, game, mode, series_id, is_squad, teams_allowed, teams_only,
			team_members_only, min_squad_size, max_squad_size, squad_name_required, squad_tag_required,
			mii_name_required, require_single_fc, bagger_clause_enabled, registrations_open,
			registration_deadline, date_start, date_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Game, t.Mode, t.SeriesID, t.IsSquad, t.TeamsAllowed, t.TeamsOnly,
		t.TeamMembersOnly, t.MinSquadSize, t.MaxSquadSize, t.SquadNameRequired, t.SquadTagRequired,
		t.MiiNameRequired, t.RequireSingleFC, t.BaggerClauseEnabled, t.RegistrationsOpen,
		t.RegistrationDeadline, t.DateStart, t.DateEnd,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(executor.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to find tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.Game != nil {
		args = append(args, *filter.Game)
		query += fmt.Sprintf(" AND game = $%d", len(args))
	}
	if filter.RegistrationsOpen != nil {
		args = append(args, *filter.RegistrationsOpen)
		query += fmt.Sprintf(" AND registrations_open = $%d", len(args))
	}
	if filter.SeriesID != nil {
		args = append(args, *filter.SeriesID)
		query += fmt.Sprintf(" AND series_id = $%d", len(args))
	}
	query += " ORDER BY date_start DESC"
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
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, game = $2, mode = $3, series_id = $4, is_squad = $5, teams_allowed = $6,
			teams_only = $7, team_members_only = $8, min_squad_size = $9, max_squad_size = $10,
			squad_name_required = $11, squad_tag_required = $12, mii_name_required = $13,
			require_single_fc = $14, bagger_clause_enabled = $15, registrations_open = $16,
			registration_deadline = $17, date_start = $18, date_end = $19
		WHERE id = $20`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Game, t.Mode, t.SeriesID, t.IsSquad, t.TeamsAllowed,
		t.TeamsOnly, t.TeamMembersOnly, t.MinSquadSize, t.MaxSquadSize,
		t.SquadNameRequired, t.SquadTagRequired, t.MiiNameRequired,
		t.RequireSingleFC, t.BaggerClauseEnabled, t.RegistrationsOpen,
		t.RegistrationDeadline, t.DateStart, t.DateEnd, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", t.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateDescriptionKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET description_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d description key: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) CloseExpiredRegistrations(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE tournaments
		SET registrations_open = FALSE
		WHERE registrations_open AND registration_deadline IS NOT NULL AND registration_deadline < $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to close expired registrations: %w", err)
	}
	return result.RowsAffected()
}

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
	ErrSquadNotFound            = errors.New("tournament squad not found")
	ErrTournamentPlayerNotFound = errors.New("tournament player registration not found")
	ErrRegistrationConflict     = errors.New("player already has a confirmed registration for this tournament")
	ErrSquadLinkConflict        = errors.New("roster is already linked to this squad")
)

// AutoAddCandidate - сквад, в который координатор должен довнести игрока
// после вступления в ростер.
type AutoAddCandidate struct {
	RegistrationID int
	TournamentID   int
}

type RegistrationRepository interface {
	CreateSquad(ctx context.Context, exec SQLExecutor, squad *models.TournamentRegistration) error
	GetSquadByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentRegistration, error)
	// GetSquadByIDForUpdate блокирует строку сквада: все check-then-insert
	// проверки вместимости обязаны идти через неё.
	GetSquadByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentRegistration, error)
	ListSquadsByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentRegistration, error)
	UpdateSquadRegistered(ctx context.Context, exec SQLExecutor, id int, registered bool) error
	UpdateSquadNameTag(ctx context.Context, exec SQLExecutor, id int, name, tag *string) error
	CountConfirmedPlayers(ctx context.Context, exec SQLExecutor, registrationID int) (int, error)

	InsertPlayer(ctx context.Context, exec SQLExecutor, tp *models.TournamentPlayer) error
	GetPlayerByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentPlayer, error)
	FindConfirmedRegistration(ctx context.Context, exec SQLExecutor, tournamentID, playerID int, isBagger bool) (*models.TournamentPlayer, error)
	FindSquadPlayer(ctx context.Context, exec SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error)
	ListPlayersBySquad(ctx context.Context, exec SQLExecutor, registrationID int) ([]*models.TournamentPlayer, error)
	ListPlayersByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error)
	ConfirmInvite(ctx context.Context, exec SQLExecutor, id int, miiName *string, selectedFCID *int) error
	DeletePlayer(ctx context.Context, exec SQLExecutor, id int) error
	DeleteInvitesBySquad(ctx context.Context, exec SQLExecutor, registrationID int) error
	SetCaptain(ctx context.Context, exec SQLExecutor, registrationID, tournamentPlayerID int) error

	LinkRoster(ctx context.Context, exec SQLExecutor, link *models.TeamSquadRegistration) error
	UnlinkRoster(ctx context.Context, exec SQLExecutor, registrationID, rosterID int) error
	ListSquadRosterIDs(ctx context.Context, exec SQLExecutor, registrationID int) ([]int, error)

	// LockPlayerTournamentRows блокирует весь набор регистраций игрока на
	// время прохода координатора: проходы читают и пишут неограниченное
	// множество строк, ключованное player_id.
	LockPlayerTournamentRows(ctx context.Context, exec SQLExecutor, playerID int) error
	// ListRemovableAfterLeave - строки, которые каскад должен удалить после
	// ухода игрока из ростера: турнир team_members_only ещё "живой", сквад
	// опирался на покинутый ростер, и ни один из оставшихся ростеров игрока
	// этот сквад не подпирает. Bagger-флаг - часть ключа.
	ListRemovableAfterLeave(ctx context.Context, exec SQLExecutor, playerID, rosterID int, isBagger bool, now time.Time) ([]*models.TournamentPlayer, error)
	// ListAutoAddCandidates - сквады открытых командных турниров, опирающиеся
	// на ростер, куда игрок только что вступил, где у него ещё нет
	// подтверждённой регистрации того же bagger-типа.
	ListAutoAddCandidates(ctx context.Context, exec SQLExecutor, playerID, rosterID int, isBagger bool) ([]AutoAddCandidate, error)
	// FindEmptyRegisteredSquads - сквады из данного набора, оставшиеся без
	// единого подтверждённого участника, но ещё числящиеся зарегистрированными.
	FindEmptyRegisteredSquads(ctx context.Context, exec SQLExecutor, registrationIDs []int) ([]int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const squadColumns = `id, tournament_id, name, tag, is_registered, is_approved, creation_date`

func scanSquad(row interface{ Scan(dest ...interface{}) error }, s *models.TournamentRegistration) error {
	return row.Scan(&s.ID, &s.TournamentID, &s.Name, &s.Tag, &s.IsRegistered, &s.IsApproved, &s.CreationDate)
}

const tournamentPlayerColumns = `id, player_id, tournament_id, registration_id, is_squad_captain,
	is_checked_in, is_invite, is_representative, is_bagger_clause, is_approved, mii_name, can_host,
	selected_fc_id, registration_date`

func scanTournamentPlayer(row interface{ Scan(dest ...interface{}) error }, tp *models.TournamentPlayer) error {
	return row.Scan(
		&tp.ID, &tp.PlayerID, &tp.TournamentID, &tp.RegistrationID, &tp.IsSquadCaptain,
		&tp.IsCheckedIn, &tp.IsInvite, &tp.IsRepresentative, &tp.IsBaggerClause, &tp.IsApproved,
		&tp.MiiName, &tp.CanHost, &tp.SelectedFCID, &tp.RegistrationDate,
	)
}

func (r *postgresRegistrationRepository) CreateSquad(ctx context.Context, exec SQLExecutor, squad *models.TournamentRegistration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_registrations (tournament_id, name, tag, is_registered, is_approved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, creation_date`

	err := executor.QueryRowContext(ctx, query,
		squad.TournamentID, squad.Name, squad.Tag, squad.IsRegistered, squad.IsApproved,
	).Scan(&squad.ID, &squad.CreationDate)
	if err != nil {
		return fmt.Errorf("failed to create tournament squad: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) GetSquadByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentRegistration, error) {
	query := `SELECT ` + squadColumns + ` FROM tournament_registrations WHERE id = $1`
	return r.findSquad(ctx, exec, query, id)
}

func (r *postgresRegistrationRepository) GetSquadByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentRegistration, error) {
	query := `SELECT ` + squadColumns + ` FROM tournament_registrations WHERE id = $1 FOR UPDATE`
	return r.findSquad(ctx, exec, query, id)
}

func (r *postgresRegistrationRepository) findSquad(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.TournamentRegistration, error) {
	executor := r.getExecutor(exec)
	s := &models.TournamentRegistration{}
	if err := scanSquad(executor.QueryRowContext(ctx, query, args...), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to find tournament squad: %w", err)
	}
	return s, nil
}

func (r *postgresRegistrationRepository) ListSquadsByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentRegistration, error) {
	query := `SELECT ` + squadColumns + `
		FROM tournament_registrations
		WHERE tournament_id = $1
		ORDER BY creation_date`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	squads := make([]*models.TournamentRegistration, 0)
	for rows.Next() {
		var s models.TournamentRegistration
		if err := scanSquad(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan tournament squad: %w", err)
		}
		squads = append(squads, &s)
	}
	return squads, rows.Err()
}

func (r *postgresRegistrationRepository) UpdateSquadRegistered(ctx context.Context, exec SQLExecutor, id int, registered bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_registrations SET is_registered = $1 WHERE id = $2`, registered, id)
	if err != nil {
		return fmt.Errorf("failed to update squad %d registered flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresRegistrationRepository) UpdateSquadNameTag(ctx context.Context, exec SQLExecutor, id int, name, tag *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_registrations SET name = $1, tag = $2 WHERE id = $3`, name, tag, id)
	if err != nil {
		return fmt.Errorf("failed to update squad %d name/tag: %w", id, err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresRegistrationRepository) CountConfirmedPlayers(ctx context.Context, exec SQLExecutor, registrationID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	query := `SELECT COUNT(*) FROM tournament_players WHERE registration_id = $1 AND NOT is_invite`
	if err := executor.QueryRowContext(ctx, query, registrationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count squad %d players: %w", registrationID, err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) InsertPlayer(ctx context.Context, exec SQLExecutor, tp *models.TournamentPlayer) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_players (player_id, tournament_id, registration_id, is_squad_captain,
			is_checked_in, is_invite, is_representative, is_bagger_clause, is_approved, mii_name,
			can_host, selected_fc_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, registration_date`

	err := executor.QueryRowContext(ctx, query,
		tp.PlayerID, tp.TournamentID, tp.RegistrationID, tp.IsSquadCaptain,
		tp.IsCheckedIn, tp.IsInvite, tp.IsRepresentative, tp.IsBaggerClause, tp.IsApproved,
		tp.MiiName, tp.CanHost, tp.SelectedFCID,
	).Scan(&tp.ID, &tp.RegistrationDate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// частичный уникальный индекс tournament_players_confirmed_key
			return ErrRegistrationConflict
		}
		return fmt.Errorf("failed to insert tournament player: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) GetPlayerByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentPlayer, error) {
	query := `SELECT ` + tournamentPlayerColumns + ` FROM tournament_players WHERE id = $1`
	return r.findPlayer(ctx, exec, query, id)
}

func (r *postgresRegistrationRepository) FindConfirmedRegistration(ctx context.Context, exec SQLExecutor, tournamentID, playerID int, isBagger bool) (*models.TournamentPlayer, error) {
	query := `SELECT ` + tournamentPlayerColumns + `
		FROM tournament_players
		WHERE tournament_id = $1 AND player_id = $2 AND is_bagger_clause = $3 AND NOT is_invite`
	return r.findPlayer(ctx, exec, query, tournamentID, playerID, isBagger)
}

func (r *postgresRegistrationRepository) FindSquadPlayer(ctx context.Context, exec SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error) {
	query := `SELECT ` + tournamentPlayerColumns + `
		FROM tournament_players
		WHERE registration_id = $1 AND player_id = $2
		ORDER BY is_invite
		LIMIT 1`
	return r.findPlayer(ctx, exec, query, registrationID, playerID)
}

func (r *postgresRegistrationRepository) findPlayer(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.TournamentPlayer, error) {
	executor := r.getExecutor(exec)
	tp := &models.TournamentPlayer{}
	if err := scanTournamentPlayer(executor.QueryRowContext(ctx, query, args...), tp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentPlayerNotFound
		}
		return nil, fmt.Errorf("failed to find tournament player: %w", err)
	}
	return tp, nil
}

func (r *postgresRegistrationRepository) ListPlayersBySquad(ctx context.Context, exec SQLExecutor, registrationID int) ([]*models.TournamentPlayer, error) {
	query := `SELECT ` + tournamentPlayerColumns + `
		FROM tournament_players
		WHERE registration_id = $1
		ORDER BY registration_date`
	return r.listPlayers(ctx, exec, query, registrationID)
}

func (r *postgresRegistrationRepository) ListPlayersByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error) {
	query := `SELECT ` + tournamentPlayerColumns + `
		FROM tournament_players
		WHERE tournament_id = $1
		ORDER BY registration_date`
	return r.listPlayers(ctx, nil, query, tournamentID)
}

func (r *postgresRegistrationRepository) listPlayers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.TournamentPlayer, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.TournamentPlayer, 0)
	for rows.Next() {
		var tp models.TournamentPlayer
		if err := scanTournamentPlayer(rows, &tp); err != nil {
			return nil, fmt.Errorf("failed to scan tournament player: %w", err)
		}
		players = append(players, &tp)
	}
	return players, rows.Err()
}

func (r *postgresRegistrationRepository) ConfirmInvite(ctx context.Context, exec SQLExecutor, id int, miiName *string, selectedFCID *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_players
		SET is_invite = FALSE, mii_name = COALESCE($1, mii_name), selected_fc_id = COALESCE($2, selected_fc_id)
		WHERE id = $3 AND is_invite`

	result, err := executor.ExecContext(ctx, query, miiName, selectedFCID, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrRegistrationConflict
		}
		return fmt.Errorf("failed to confirm squad invite %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentPlayerNotFound)
}

func (r *postgresRegistrationRepository) DeletePlayer(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournament_players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentPlayerNotFound)
}

func (r *postgresRegistrationRepository) DeleteInvitesBySquad(ctx context.Context, exec SQLExecutor, registrationID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_players WHERE registration_id = $1 AND is_invite`, registrationID)
	if err != nil {
		return fmt.Errorf("failed to delete squad %d invites: %w", registrationID, err)
	}
	return nil
}

func (r *postgresRegistrationRepository) SetCaptain(ctx context.Context, exec SQLExecutor, registrationID, tournamentPlayerID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`UPDATE tournament_players SET is_squad_captain = FALSE WHERE registration_id = $1 AND is_squad_captain`,
		registrationID,
	); err != nil {
		return fmt.Errorf("failed to clear captain for squad %d: %w", registrationID, err)
	}

	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_players SET is_squad_captain = TRUE WHERE id = $1 AND registration_id = $2 AND NOT is_invite`,
		tournamentPlayerID, registrationID,
	)
	if err != nil {
		return fmt.Errorf("failed to set captain %d for squad %d: %w", tournamentPlayerID, registrationID, err)
	}
	return checkAffectedRows(result, ErrTournamentPlayerNotFound)
}

func (r *postgresRegistrationRepository) LinkRoster(ctx context.Context, exec SQLExecutor, link *models.TeamSquadRegistration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_squad_registrations (roster_id, registration_id, tournament_id)
		VALUES ($1, $2, $3)`

	_, err := executor.ExecContext(ctx, query, link.RosterID, link.RegistrationID, link.TournamentID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSquadLinkConflict
		}
		return fmt.Errorf("failed to link roster %d to squad %d: %w", link.RosterID, link.RegistrationID, err)
	}
	return nil
}

func (r *postgresRegistrationRepository) UnlinkRoster(ctx context.Context, exec SQLExecutor, registrationID, rosterID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM team_squad_registrations WHERE registration_id = $1 AND roster_id = $2`,
		registrationID, rosterID)
	if err != nil {
		return fmt.Errorf("failed to unlink roster %d from squad %d: %w", rosterID, registrationID, err)
	}
	return checkAffectedRows(result, ErrSquadNotFound)
}

func (r *postgresRegistrationRepository) ListSquadRosterIDs(ctx context.Context, exec SQLExecutor, registrationID int) ([]int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT roster_id FROM team_squad_registrations WHERE registration_id = $1`, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squad %d rosters: %w", registrationID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan roster id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresRegistrationRepository) LockPlayerTournamentRows(ctx context.Context, exec SQLExecutor, playerID int) error {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT id FROM tournament_players WHERE player_id = $1 ORDER BY id FOR UPDATE`, playerID)
	if err != nil {
		return fmt.Errorf("failed to lock tournament rows for player %d: %w", playerID, err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (r *postgresRegistrationRepository) ListRemovableAfterLeave(ctx context.Context, exec SQLExecutor, playerID, rosterID int, isBagger bool, now time.Time) ([]*models.TournamentPlayer, error) {
	query := `
		SELECT ` + prefixColumns("tp", tournamentPlayerColumns) + `
		FROM tournament_players tp
		JOIN tournaments t ON t.id = tp.tournament_id
		WHERE tp.player_id = $1
		  AND tp.is_bagger_clause = $2
		  AND t.team_members_only
		  AND (t.registrations_open OR t.date_end > $4)
		  AND EXISTS (
			SELECT 1 FROM team_squad_registrations tsr
			WHERE tsr.registration_id = tp.registration_id AND tsr.roster_id = $3
		  )
		  AND NOT EXISTS (
			SELECT 1
			FROM team_squad_registrations tsr2
			JOIN team_members tm ON tm.roster_id = tsr2.roster_id
			WHERE tsr2.registration_id = tp.registration_id
			  AND tm.player_id = tp.player_id
			  AND tm.is_bagger_clause = tp.is_bagger_clause
			  AND tm.leave_date IS NULL
		  )`
	return r.listPlayers(ctx, exec, query, playerID, isBagger, rosterID, now)
}

func (r *postgresRegistrationRepository) ListAutoAddCandidates(ctx context.Context, exec SQLExecutor, playerID, rosterID int, isBagger bool) ([]AutoAddCandidate, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT tr.id, tr.tournament_id
		FROM team_squad_registrations tsr
		JOIN tournament_registrations tr ON tr.id = tsr.registration_id
		JOIN tournaments t ON t.id = tr.tournament_id
		WHERE tsr.roster_id = $2
		  AND t.teams_allowed
		  AND t.registrations_open
		  AND tr.is_registered
		  AND ($3 = FALSE OR t.bagger_clause_enabled)
		  AND NOT EXISTS (
			SELECT 1 FROM tournament_players tp
			WHERE tp.tournament_id = t.id
			  AND tp.player_id = $1
			  AND tp.is_bagger_clause = $3
			  AND NOT tp.is_invite
		  )`

	rows, err := executor.QueryContext(ctx, query, playerID, rosterID, isBagger)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-add candidates for player %d: %w", playerID, err)
	}
	defer rows.Close()

	candidates := make([]AutoAddCandidate, 0)
	for rows.Next() {
		var c AutoAddCandidate
		if err := rows.Scan(&c.RegistrationID, &c.TournamentID); err != nil {
			return nil, fmt.Errorf("failed to scan auto-add candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *postgresRegistrationRepository) FindEmptyRegisteredSquads(ctx context.Context, exec SQLExecutor, registrationIDs []int) ([]int, error) {
	if len(registrationIDs) == 0 {
		return nil, nil
	}
	executor := r.getExecutor(exec)
	query := `
		SELECT tr.id
		FROM tournament_registrations tr
		WHERE tr.id = ANY($1)
		  AND tr.is_registered
		  AND NOT EXISTS (
			SELECT 1 FROM tournament_players tp
			WHERE tp.registration_id = tr.id AND NOT tp.is_invite
		  )`

	rows, err := executor.QueryContext(ctx, query, pq.Array(registrationIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to find empty squads: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan squad id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// prefixColumns превращает "a, b" в "tp.a, tp.b" для запросов с JOIN.
func prefixColumns(alias, columns string) string {
	out := ""
	for i, col := range splitColumns(columns) {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + col
	}
	return out
}

func splitColumns(columns string) []string {
	parts := make([]string, 0, 16)
	current := ""
	for _, r := range columns {
		switch r {
		case ',':
			parts = append(parts, current)
			current = ""
		case ' ', '\n', '\t':
			// пропускаем пробелы между именами
		default:
			current += string(r)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}

package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

// Программируемые фейки в духе "поле-функция на метод": тест задаёт только
// то, что ему нужно, остальные методы ведут себя как пустое хранилище.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner исполняет функцию без настоящей транзакции.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	return fn(nil)
}

// countingTxRunner считает открытые транзакции и передаёт в функцию
// отличимый от nil экзекьютор: тест может проверить, что запрос ушёл
// именно в транзакцию, а не в общий пул.
type countingTxRunner struct {
	calls int
	tx    stubExecutor
}

func (r *countingTxRunner) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	r.calls++
	return fn(&r.tx)
}

type stubExecutor struct{}

func (*stubExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (*stubExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (*stubExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

// recordingNotifier собирает отправленные события вместо доставки.
type recordingNotifier struct {
	events []recordedEvent
}

type recordedEvent struct {
	playerIDs []int
	kind      string
}

func (n *recordingNotifier) Notify(_ context.Context, playerIDs []int, kind string, _ interface{}) {
	n.events = append(n.events, recordedEvent{playerIDs: playerIDs, kind: kind})
}

// fakeIdentity по умолчанию отвечает "идентификатор есть".
type fakeIdentity struct {
	HasActiveIdentityFunc func(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (bool, error)
}

func (f *fakeIdentity) HasActiveIdentity(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (bool, error) {
	if f.HasActiveIdentityFunc != nil {
		return f.HasActiveIdentityFunc(ctx, exec, playerID, game)
	}
	return true, nil
}

type fakePlayerRepo struct {
	GetByIDFunc                func(ctx context.Context, id int) (*models.Player, error)
	HasActiveFriendCodeFunc    func(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (bool, error)
	CountActiveFriendCodesFunc func(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (int, error)
	ListFriendCodesFunc        func(ctx context.Context, playerID int) ([]*models.FriendCode, error)
}

func (f *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error { return nil }

func (f *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &models.Player{ID: id, Name: "player"}, nil
}

func (f *fakePlayerRepo) SetBanned(ctx context.Context, id int, banned bool) error { return nil }

func (f *fakePlayerRepo) CreateFriendCode(ctx context.Context, fc *models.FriendCode) error {
	return nil
}

func (f *fakePlayerRepo) ListFriendCodes(ctx context.Context, playerID int) ([]*models.FriendCode, error) {
	if f.ListFriendCodesFunc != nil {
		return f.ListFriendCodesFunc(ctx, playerID)
	}
	return nil, nil
}

func (f *fakePlayerRepo) SetFriendCodeActive(ctx context.Context, fcID int, active bool) error {
	return nil
}

func (f *fakePlayerRepo) HasActiveFriendCode(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (bool, error) {
	if f.HasActiveFriendCodeFunc != nil {
		return f.HasActiveFriendCodeFunc(ctx, exec, playerID, game)
	}
	return true, nil
}

func (f *fakePlayerRepo) CountActiveFriendCodes(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (int, error) {
	if f.CountActiveFriendCodesFunc != nil {
		return f.CountActiveFriendCodesFunc(ctx, exec, playerID, game)
	}
	return 0, nil
}

type fakeTeamRepo struct {
	GetByIDFunc              func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error)
	GetByIDForUpdateFunc     func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error)
	UpdateNameTagFunc        func(ctx context.Context, exec repositories.SQLExecutor, id int, name, tag string) error
	UpdateApprovalStatusFunc func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ApprovalStatus) error
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	team.ID = 1
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *fakeTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	if f.GetByIDForUpdateFunc != nil {
		return f.GetByIDForUpdateFunc(ctx, exec, id)
	}
	return f.GetByID(ctx, exec, id)
}

func (f *fakeTeamRepo) List(ctx context.Context, filter repositories.ListTeamsFilter) ([]*models.Team, error) {
	return nil, nil
}

func (f *fakeTeamRepo) UpdateNameTag(ctx context.Context, exec repositories.SQLExecutor, id int, name, tag string) error {
	if f.UpdateNameTagFunc != nil {
		return f.UpdateNameTagFunc(ctx, exec, id, name, tag)
	}
	return nil
}

func (f *fakeTeamRepo) UpdateDescription(ctx context.Context, id int, description *string) error {
	return nil
}

func (f *fakeTeamRepo) UpdateApprovalStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ApprovalStatus) error {
	if f.UpdateApprovalStatusFunc != nil {
		return f.UpdateApprovalStatusFunc(ctx, exec, id, status)
	}
	return nil
}

func (f *fakeTeamRepo) SetHistorical(ctx context.Context, id int, historical bool) error {
	return nil
}

type fakeRosterRepo struct {
	GetByIDFunc            func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Roster, error)
	GetByIDForUpdateFunc   func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Roster, error)
	EffectiveNameTakenFunc func(ctx context.Context, exec repositories.SQLExecutor, teamID int, game, mode, effectiveName string, excludeRosterID *int) (bool, error)

	created []*models.Roster
}

func (f *fakeRosterRepo) Create(ctx context.Context, exec repositories.SQLExecutor, roster *models.Roster) error {
	roster.ID = len(f.created) + 1
	f.created = append(f.created, roster)
	return nil
}

func (f *fakeRosterRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Roster, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrRosterNotFound
}

func (f *fakeRosterRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Roster, error) {
	if f.GetByIDForUpdateFunc != nil {
		return f.GetByIDForUpdateFunc(ctx, exec, id)
	}
	return f.GetByID(ctx, exec, id)
}

func (f *fakeRosterRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Roster, error) {
	return nil, nil
}

func (f *fakeRosterRepo) UpdateNameTag(ctx context.Context, exec repositories.SQLExecutor, id int, name, tag *string) error {
	return nil
}

func (f *fakeRosterRepo) UpdateApprovalStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ApprovalStatus) error {
	return nil
}

func (f *fakeRosterRepo) SetActive(ctx context.Context, id int, active bool) error { return nil }

func (f *fakeRosterRepo) SetRecruiting(ctx context.Context, id int, recruiting bool) error {
	return nil
}

func (f *fakeRosterRepo) EffectiveNameTaken(ctx context.Context, exec repositories.SQLExecutor, teamID int, game, mode, effectiveName string, excludeRosterID *int) (bool, error) {
	if f.EffectiveNameTakenFunc != nil {
		return f.EffectiveNameTakenFunc(ctx, exec, teamID, game, mode, effectiveName, excludeRosterID)
	}
	return false, nil
}

type fakeMemberRepo struct {
	InsertFunc             func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error
	GetActiveFunc          func(ctx context.Context, exec repositories.SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error)
	GetActiveForUpdateFunc func(ctx context.Context, exec repositories.SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error)
	ListActiveByRosterFunc func(ctx context.Context, exec repositories.SQLExecutor, rosterID int) ([]*models.TeamMember, error)
	ListActiveByPlayerFunc func(ctx context.Context, exec repositories.SQLExecutor, playerID int) ([]*models.TeamMember, error)

	inserted []*models.TeamMember
	closed   []int
}

func (f *fakeMemberRepo) Insert(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, exec, member)
	}
	member.ID = len(f.inserted) + 1
	f.inserted = append(f.inserted, member)
	return nil
}

func (f *fakeMemberRepo) GetActive(ctx context.Context, exec repositories.SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error) {
	if f.GetActiveFunc != nil {
		return f.GetActiveFunc(ctx, exec, rosterID, playerID, isBagger)
	}
	return nil, repositories.ErrMemberNotFound
}

func (f *fakeMemberRepo) GetActiveForUpdate(ctx context.Context, exec repositories.SQLExecutor, rosterID, playerID int, isBagger bool) (*models.TeamMember, error) {
	if f.GetActiveForUpdateFunc != nil {
		return f.GetActiveForUpdateFunc(ctx, exec, rosterID, playerID, isBagger)
	}
	return nil, repositories.ErrMemberNotFound
}

func (f *fakeMemberRepo) ListActiveByRoster(ctx context.Context, exec repositories.SQLExecutor, rosterID int) ([]*models.TeamMember, error) {
	if f.ListActiveByRosterFunc != nil {
		return f.ListActiveByRosterFunc(ctx, exec, rosterID)
	}
	return nil, nil
}

func (f *fakeMemberRepo) ListActiveByPlayer(ctx context.Context, exec repositories.SQLExecutor, playerID int) ([]*models.TeamMember, error) {
	if f.ListActiveByPlayerFunc != nil {
		return f.ListActiveByPlayerFunc(ctx, exec, playerID)
	}
	return nil, nil
}

func (f *fakeMemberRepo) Close(ctx context.Context, exec repositories.SQLExecutor, memberID int, leaveDate time.Time) error {
	f.closed = append(f.closed, memberID)
	return nil
}

type fakeTransferRepo struct {
	GetByIDForUpdateFunc func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamTransfer, error)
	FindUnresolvedFunc   func(ctx context.Context, exec repositories.SQLExecutor, playerID, rosterID int, isBagger bool) (*models.TeamTransfer, error)

	created []*models.TeamTransfer
	updated []*models.TeamTransfer
	deleted []int
}

func (f *fakeTransferRepo) Create(ctx context.Context, exec repositories.SQLExecutor, transfer *models.TeamTransfer) error {
	transfer.ID = len(f.created) + 1
	f.created = append(f.created, transfer)
	return nil
}

func (f *fakeTransferRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
	return nil, repositories.ErrTransferNotFound
}

func (f *fakeTransferRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
	if f.GetByIDForUpdateFunc != nil {
		return f.GetByIDForUpdateFunc(ctx, exec, id)
	}
	return nil, repositories.ErrTransferNotFound
}

func (f *fakeTransferRepo) FindUnresolved(ctx context.Context, exec repositories.SQLExecutor, playerID, rosterID int, isBagger bool) (*models.TeamTransfer, error) {
	if f.FindUnresolvedFunc != nil {
		return f.FindUnresolvedFunc(ctx, exec, playerID, rosterID, isBagger)
	}
	return nil, repositories.ErrTransferNotFound
}

func (f *fakeTransferRepo) Update(ctx context.Context, exec repositories.SQLExecutor, transfer *models.TeamTransfer) error {
	f.updated = append(f.updated, transfer)
	return nil
}

func (f *fakeTransferRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTransferRepo) ListPendingApproval(ctx context.Context) ([]*models.TeamTransfer, error) {
	return nil, nil
}

func (f *fakeTransferRepo) ListByPlayer(ctx context.Context, playerID int) ([]*models.TeamTransfer, error) {
	return nil, nil
}

func (f *fakeTransferRepo) DeleteStaleInvites(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeTournamentRepo struct {
	GetByIDFunc func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error)
}

func (f *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.ID = 1
	return nil
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	return nil, nil
}

func (f *fakeTournamentRepo) Update(ctx context.Context, tournament *models.Tournament) error {
	return nil
}

func (f *fakeTournamentRepo) UpdateDescriptionKey(ctx context.Context, id int, key *string) error {
	return nil
}

func (f *fakeTournamentRepo) CloseExpiredRegistrations(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeRegistrationRepo struct {
	GetSquadByIDFunc              func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentRegistration, error)
	GetSquadByIDForUpdateFunc     func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentRegistration, error)
	CountConfirmedPlayersFunc     func(ctx context.Context, exec repositories.SQLExecutor, registrationID int) (int, error)
	GetPlayerByIDFunc             func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentPlayer, error)
	FindConfirmedRegistrationFunc func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int, isBagger bool) (*models.TournamentPlayer, error)
	FindSquadPlayerFunc           func(ctx context.Context, exec repositories.SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error)
	ListSquadRosterIDsFunc        func(ctx context.Context, exec repositories.SQLExecutor, registrationID int) ([]int, error)
	ListRemovableAfterLeaveFunc   func(ctx context.Context, exec repositories.SQLExecutor, playerID, rosterID int, isBagger bool, now time.Time) ([]*models.TournamentPlayer, error)
	ListAutoAddCandidatesFunc     func(ctx context.Context, exec repositories.SQLExecutor, playerID, rosterID int, isBagger bool) ([]repositories.AutoAddCandidate, error)
	FindEmptyRegisteredSquadsFunc func(ctx context.Context, exec repositories.SQLExecutor, registrationIDs []int) ([]int, error)
	InsertPlayerFunc              func(ctx context.Context, exec repositories.SQLExecutor, tp *models.TournamentPlayer) error
	ConfirmInviteFunc             func(ctx context.Context, exec repositories.SQLExecutor, id int, miiName *string, selectedFCID *int) error
	LinkRosterFunc                func(ctx context.Context, exec repositories.SQLExecutor, link *models.TeamSquadRegistration) error

	createdSquads   []*models.TournamentRegistration
	insertedPlayers []*models.TournamentPlayer
	deletedPlayers  []int
	confirmed       []int
	withdrawn       []int
	invitesCleared  []int
	captainSet      []int
	linked          []*models.TeamSquadRegistration
	unlinked        []int
	lockedPlayers   []int
}

func (f *fakeRegistrationRepo) CreateSquad(ctx context.Context, exec repositories.SQLExecutor, squad *models.TournamentRegistration) error {
	squad.ID = len(f.createdSquads) + 1
	f.createdSquads = append(f.createdSquads, squad)
	return nil
}

func (f *fakeRegistrationRepo) GetSquadByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
	if f.GetSquadByIDFunc != nil {
		return f.GetSquadByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrSquadNotFound
}

func (f *fakeRegistrationRepo) GetSquadByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
	if f.GetSquadByIDForUpdateFunc != nil {
		return f.GetSquadByIDForUpdateFunc(ctx, exec, id)
	}
	return nil, repositories.ErrSquadNotFound
}

func (f *fakeRegistrationRepo) ListSquadsByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentRegistration, error) {
	return nil, nil
}

func (f *fakeRegistrationRepo) UpdateSquadRegistered(ctx context.Context, exec repositories.SQLExecutor, id int, registered bool) error {
	if !registered {
		f.withdrawn = append(f.withdrawn, id)
	}
	return nil
}

func (f *fakeRegistrationRepo) UpdateSquadNameTag(ctx context.Context, exec repositories.SQLExecutor, id int, name, tag *string) error {
	return nil
}

func (f *fakeRegistrationRepo) CountConfirmedPlayers(ctx context.Context, exec repositories.SQLExecutor, registrationID int) (int, error) {
	if f.CountConfirmedPlayersFunc != nil {
		return f.CountConfirmedPlayersFunc(ctx, exec, registrationID)
	}
	return 0, nil
}

func (f *fakeRegistrationRepo) InsertPlayer(ctx context.Context, exec repositories.SQLExecutor, tp *models.TournamentPlayer) error {
	if f.InsertPlayerFunc != nil {
		return f.InsertPlayerFunc(ctx, exec, tp)
	}
	tp.ID = len(f.insertedPlayers) + 1
	f.insertedPlayers = append(f.insertedPlayers, tp)
	return nil
}

func (f *fakeRegistrationRepo) GetPlayerByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentPlayer, error) {
	if f.GetPlayerByIDFunc != nil {
		return f.GetPlayerByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrTournamentPlayerNotFound
}

func (f *fakeRegistrationRepo) FindConfirmedRegistration(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int, isBagger bool) (*models.TournamentPlayer, error) {
	if f.FindConfirmedRegistrationFunc != nil {
		return f.FindConfirmedRegistrationFunc(ctx, exec, tournamentID, playerID, isBagger)
	}
	return nil, repositories.ErrTournamentPlayerNotFound
}

func (f *fakeRegistrationRepo) FindSquadPlayer(ctx context.Context, exec repositories.SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error) {
	if f.FindSquadPlayerFunc != nil {
		return f.FindSquadPlayerFunc(ctx, exec, registrationID, playerID)
	}
	return nil, repositories.ErrTournamentPlayerNotFound
}

func (f *fakeRegistrationRepo) ListPlayersBySquad(ctx context.Context, exec repositories.SQLExecutor, registrationID int) ([]*models.TournamentPlayer, error) {
	return nil, nil
}

func (f *fakeRegistrationRepo) ListPlayersByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error) {
	return nil, nil
}

func (f *fakeRegistrationRepo) ConfirmInvite(ctx context.Context, exec repositories.SQLExecutor, id int, miiName *string, selectedFCID *int) error {
	if f.ConfirmInviteFunc != nil {
		return f.ConfirmInviteFunc(ctx, exec, id, miiName, selectedFCID)
	}
	f.confirmed = append(f.confirmed, id)
	return nil
}

func (f *fakeRegistrationRepo) DeletePlayer(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.deletedPlayers = append(f.deletedPlayers, id)
	return nil
}

func (f *fakeRegistrationRepo) DeleteInvitesBySquad(ctx context.Context, exec repositories.SQLExecutor, registrationID int) error {
	f.invitesCleared = append(f.invitesCleared, registrationID)
	return nil
}

func (f *fakeRegistrationRepo) SetCaptain(ctx context.Context, exec repositories.SQLExecutor, registrationID, tournamentPlayerID int) error {
	f.captainSet = append(f.captainSet, tournamentPlayerID)
	return nil
}

func (f *fakeRegistrationRepo) LinkRoster(ctx context.Context, exec repositories.SQLExecutor, link *models.TeamSquadRegistration) error {
	if f.LinkRosterFunc != nil {
		return f.LinkRosterFunc(ctx, exec, link)
	}
	f.linked = append(f.linked, link)
	return nil
}

func (f *fakeRegistrationRepo) UnlinkRoster(ctx context.Context, exec repositories.SQLExecutor, registrationID, rosterID int) error {
	f.unlinked = append(f.unlinked, rosterID)
	return nil
}

func (f *fakeRegistrationRepo) ListSquadRosterIDs(ctx context.Context, exec repositories.SQLExecutor, registrationID int) ([]int, error) {
	if f.ListSquadRosterIDsFunc != nil {
		return f.ListSquadRosterIDsFunc(ctx, exec, registrationID)
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) LockPlayerTournamentRows(ctx context.Context, exec repositories.SQLExecutor, playerID int) error {
	f.lockedPlayers = append(f.lockedPlayers, playerID)
	return nil
}

func (f *fakeRegistrationRepo) ListRemovableAfterLeave(ctx context.Context, exec repositories.SQLExecutor, playerID, rosterID int, isBagger bool, now time.Time) ([]*models.TournamentPlayer, error) {
	if f.ListRemovableAfterLeaveFunc != nil {
		return f.ListRemovableAfterLeaveFunc(ctx, exec, playerID, rosterID, isBagger, now)
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) ListAutoAddCandidates(ctx context.Context, exec repositories.SQLExecutor, playerID, rosterID int, isBagger bool) ([]repositories.AutoAddCandidate, error) {
	if f.ListAutoAddCandidatesFunc != nil {
		return f.ListAutoAddCandidatesFunc(ctx, exec, playerID, rosterID, isBagger)
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) FindEmptyRegisteredSquads(ctx context.Context, exec repositories.SQLExecutor, registrationIDs []int) ([]int, error) {
	if f.FindEmptyRegisteredSquadsFunc != nil {
		return f.FindEmptyRegisteredSquadsFunc(ctx, exec, registrationIDs)
	}
	return nil, nil
}

type fakeEditRequestRepo struct {
	GetTeamEditByIDFunc           func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamEditRequest, error)
	LatestNonDeniedTeamEditFunc   func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (*models.TeamEditRequest, error)
	GetRosterEditByIDFunc         func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.RosterEditRequest, error)
	LatestNonDeniedRosterEditFunc func(ctx context.Context, exec repositories.SQLExecutor, rosterID int) (*models.RosterEditRequest, error)

	createdTeamEdits   []*models.TeamEditRequest
	createdRosterEdits []*models.RosterEditRequest
	teamEditStatuses   map[int]models.ApprovalStatus
	rosterEditStatuses map[int]models.ApprovalStatus
}

func (f *fakeEditRequestRepo) CreateTeamEdit(ctx context.Context, exec repositories.SQLExecutor, req *models.TeamEditRequest) error {
	req.ID = len(f.createdTeamEdits) + 1
	f.createdTeamEdits = append(f.createdTeamEdits, req)
	return nil
}

func (f *fakeEditRequestRepo) GetTeamEditByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TeamEditRequest, error) {
	if f.GetTeamEditByIDFunc != nil {
		return f.GetTeamEditByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrEditRequestNotFound
}

func (f *fakeEditRequestRepo) LatestNonDeniedTeamEdit(ctx context.Context, exec repositories.SQLExecutor, teamID int) (*models.TeamEditRequest, error) {
	if f.LatestNonDeniedTeamEditFunc != nil {
		return f.LatestNonDeniedTeamEditFunc(ctx, exec, teamID)
	}
	return nil, repositories.ErrEditRequestNotFound
}

func (f *fakeEditRequestRepo) UpdateTeamEditStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ApprovalStatus) error {
	if f.teamEditStatuses == nil {
		f.teamEditStatuses = make(map[int]models.ApprovalStatus)
	}
	f.teamEditStatuses[id] = status
	return nil
}

func (f *fakeEditRequestRepo) ListPendingTeamEdits(ctx context.Context) ([]*models.TeamEditRequest, error) {
	return nil, nil
}

func (f *fakeEditRequestRepo) CreateRosterEdit(ctx context.Context, exec repositories.SQLExecutor, req *models.RosterEditRequest) error {
	req.ID = len(f.createdRosterEdits) + 1
	f.createdRosterEdits = append(f.createdRosterEdits, req)
	return nil
}

func (f *fakeEditRequestRepo) GetRosterEditByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.RosterEditRequest, error) {
	if f.GetRosterEditByIDFunc != nil {
		return f.GetRosterEditByIDFunc(ctx, exec, id)
	}
	return nil, repositories.ErrEditRequestNotFound
}

func (f *fakeEditRequestRepo) LatestNonDeniedRosterEdit(ctx context.Context, exec repositories.SQLExecutor, rosterID int) (*models.RosterEditRequest, error) {
	if f.LatestNonDeniedRosterEditFunc != nil {
		return f.LatestNonDeniedRosterEditFunc(ctx, exec, rosterID)
	}
	return nil, repositories.ErrEditRequestNotFound
}

func (f *fakeEditRequestRepo) UpdateRosterEditStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ApprovalStatus) error {
	if f.rosterEditStatuses == nil {
		f.rosterEditStatuses = make(map[int]models.ApprovalStatus)
	}
	f.rosterEditStatuses[id] = status
	return nil
}

func (f *fakeEditRequestRepo) ListPendingRosterEdits(ctx context.Context) ([]*models.RosterEditRequest, error) {
	return nil, nil
}

type fakeRoleRepo struct {
	grants []models.PermissionGrant
	err    error
}

func (f *fakeRoleRepo) ListGrants(ctx context.Context, userID int, permission string) ([]models.PermissionGrant, error) {
	return f.grants, f.err
}

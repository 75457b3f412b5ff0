package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

const (
	maxSquadNameLength = 32
	maxSquadTagLength  = 8
)

type RegisterSoloInput struct {
	TournamentID   int     `json:"tournament_id"`
	PlayerID       int     `json:"player_id"`
	MiiName        *string `json:"mii_name,omitempty"`
	SelectedFCID   *int    `json:"selected_fc_id,omitempty"`
	CanHost        bool    `json:"can_host"`
	IsBaggerClause bool    `json:"is_bagger_clause"`

	// Привилегированный вызов (стафф) игнорирует registrations_open.
	Privileged bool `json:"-"`
}

type CreateSquadInput struct {
	TournamentID   int     `json:"tournament_id"`
	CaptainID      int     `json:"captain_id"`
	Name           *string `json:"name,omitempty"`
	Tag            *string `json:"tag,omitempty"`
	MiiName        *string `json:"mii_name,omitempty"`
	SelectedFCID   *int    `json:"selected_fc_id,omitempty"`
	CanHost        bool    `json:"can_host"`
	IsBaggerClause bool    `json:"is_bagger_clause"`

	Privileged bool `json:"-"`
}

type RegisterSquadMemberInput struct {
	TournamentID     int     `json:"tournament_id"`
	RegistrationID   int     `json:"registration_id"`
	PlayerID         int     `json:"player_id"`
	IsInvite         bool    `json:"is_invite"`
	MiiName          *string `json:"mii_name,omitempty"`
	SelectedFCID     *int    `json:"selected_fc_id,omitempty"`
	CanHost          bool    `json:"can_host"`
	IsRepresentative bool    `json:"is_representative"`
	IsBaggerClause   bool    `json:"is_bagger_clause"`

	Privileged bool `json:"-"`
}

type ConfirmSquadInviteInput struct {
	TournamentPlayerID int     `json:"tournament_player_id"`
	PlayerID           int     `json:"-"`
	MiiName            *string `json:"mii_name,omitempty"`
	SelectedFCID       *int    `json:"selected_fc_id,omitempty"`
}

type RegistrationService interface {
	RegisterSolo(ctx context.Context, input RegisterSoloInput) (*models.TournamentPlayer, error)
	CreateSquad(ctx context.Context, input CreateSquadInput) (*models.TournamentRegistration, error)
	RegisterSquadMember(ctx context.Context, input RegisterSquadMemberInput) (*models.TournamentPlayer, error)
	AcceptSquadInvite(ctx context.Context, input ConfirmSquadInviteInput) error
	DeclineSquadInvite(ctx context.Context, tournamentPlayerID, playerID int) error
	Unregister(ctx context.Context, tournamentID, registrationID, playerID int) error
	KickFromSquad(ctx context.Context, registrationID, targetPlayerID, actorPlayerID int) error
	ChangeSquadCaptain(ctx context.Context, registrationID, newCaptainPlayerID, actorPlayerID int) error
	WithdrawSquad(ctx context.Context, registrationID, actorPlayerID int, privileged bool) error
	LinkRosterToSquad(ctx context.Context, registrationID, rosterID int) error
	UnlinkRosterFromSquad(ctx context.Context, registrationID, rosterID int) error
	GetSquad(ctx context.Context, registrationID int) (*models.TournamentRegistration, error)
	ListSquads(ctx context.Context, tournamentID int) ([]*models.TournamentRegistration, error)
	ListTournamentPlayers(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error)
}

type registrationService struct {
	txr            TxRunner
	regRepo        repositories.RegistrationRepository
	tournamentRepo repositories.TournamentRepository
	rosterRepo     repositories.RosterRepository
	memberRepo     repositories.TeamMemberRepository
	playerRepo     repositories.PlayerRepository
	consistency    *ConsistencyService
	notifier       NotificationSink
	logger         *slog.Logger
}

func NewRegistrationService(
	txr TxRunner,
	regRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	rosterRepo repositories.RosterRepository,
	memberRepo repositories.TeamMemberRepository,
	playerRepo repositories.PlayerRepository,
	consistency *ConsistencyService,
	notifier NotificationSink,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		txr:            txr,
		regRepo:        regRepo,
		tournamentRepo: tournamentRepo,
		rosterRepo:     rosterRepo,
		memberRepo:     memberRepo,
		playerRepo:     playerRepo,
		consistency:    consistency,
		notifier:       notifier,
		logger:         logger,
	}
}

// playerChecks - общая часть цепочки валидации регистрации. Порядок проверок
// фиксирован, чтобы клиенты получали стабильные коды ошибок.
type playerChecks struct {
	tournament   *models.Tournament
	playerID     int
	isInvite     bool
	isBagger     bool
	miiName      *string
	selectedFCID *int
	squadTag     *string
	privileged   bool
}

func (s *registrationService) validatePlayer(ctx context.Context, tx repositories.SQLExecutor, c playerChecks) error {
	t := c.tournament

	if !t.RegistrationsOpen && !c.privileged {
		return ErrRegistrationsClosed
	}
	if c.isBagger && !t.BaggerClauseEnabled {
		return ErrBaggerNotEnabled
	}

	player, err := s.playerRepo.GetByID(ctx, c.playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if player.IsBanned {
		return ErrPlayerBanned
	}

	// Mii-имя спрашивается при подтверждении, приглашение обходится без него.
	if t.MiiNameRequired && !c.isInvite {
		if c.miiName == nil || strings.TrimSpace(*c.miiName) == "" {
			return ErrMiiNameRequired
		}
	}

	if t.RequireSingleFC && !c.isInvite && c.selectedFCID == nil {
		n, err := s.playerRepo.CountActiveFriendCodes(ctx, tx, c.playerID, t.Game)
		if err != nil {
			return err
		}
		if n > 1 {
			return ErrFCSelectionRequired
		}
	}

	if c.squadTag != nil && *c.squadTag != "" && c.miiName != nil && !c.isInvite {
		if !strings.Contains(*c.miiName, *c.squadTag) {
			return ErrSquadTagNotInMiiName
		}
	}

	// Один игрок, одна роль, один турнир. Инвайты не считаются.
	if _, err := s.regRepo.FindConfirmedRegistration(ctx, tx, t.ID, c.playerID, c.isBagger); err == nil {
		return ErrAlreadyRegistered
	} else if !errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
		return err
	}

	return nil
}

// requireBackingMembership проверяет, что игрок состоит в одном из ростеров,
// стоящих за сквадом. Нужна только при team_members_only.
func (s *registrationService) requireBackingMembership(ctx context.Context, tx repositories.SQLExecutor, registrationID, playerID int, isBagger bool) error {
	rosterIDs, err := s.regRepo.ListSquadRosterIDs(ctx, tx, registrationID)
	if err != nil {
		return err
	}
	for _, rid := range rosterIDs {
		if _, err := s.memberRepo.GetActive(ctx, tx, rid, playerID, isBagger); err == nil {
			return nil
		} else if !errors.Is(err, repositories.ErrMemberNotFound) {
			return err
		}
	}
	return ErrNotTeamMember
}

func (s *registrationService) checkSquadCapacity(ctx context.Context, tx repositories.SQLExecutor, t *models.Tournament, registrationID int) error {
	if t.MaxSquadSize == nil {
		return nil
	}
	n, err := s.regRepo.CountConfirmedPlayers(ctx, tx, registrationID)
	if err != nil {
		return err
	}
	if n >= *t.MaxSquadSize {
		return ErrSquadFull
	}
	return nil
}

func (s *registrationService) RegisterSolo(ctx context.Context, input RegisterSoloInput) (*models.TournamentPlayer, error) {
	tp := &models.TournamentPlayer{
		PlayerID:         input.PlayerID,
		TournamentID:     input.TournamentID,
		IsApproved:       true,
		MiiName:          input.MiiName,
		CanHost:          input.CanHost,
		SelectedFCID:     input.SelectedFCID,
		IsBaggerClause:   input.IsBaggerClause,
		RegistrationDate: time.Now(),
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, tx, input.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if t.IsSquad {
			return ErrSquadRequired
		}
		if t.TeamsOnly {
			return ErrTeamsOnly
		}

		if err := s.validatePlayer(ctx, tx, playerChecks{
			tournament:   t,
			playerID:     input.PlayerID,
			isBagger:     input.IsBaggerClause,
			miiName:      input.MiiName,
			selectedFCID: input.SelectedFCID,
			privileged:   input.Privileged,
		}); err != nil {
			return err
		}

		// Плейсхолдер-сквад 1:1, чтобы вся механика снятия была единообразной.
		squad := &models.TournamentRegistration{
			TournamentID: input.TournamentID,
			IsRegistered: true,
			IsApproved:   true,
			CreationDate: tp.RegistrationDate,
		}
		if err := s.regRepo.CreateSquad(ctx, tx, squad); err != nil {
			return err
		}
		tp.RegistrationID = squad.ID

		if err := s.regRepo.InsertPlayer(ctx, tx, tp); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

func (s *registrationService) CreateSquad(ctx context.Context, input CreateSquadInput) (*models.TournamentRegistration, error) {
	now := time.Now()
	squad := &models.TournamentRegistration{
		TournamentID: input.TournamentID,
		Name:         input.Name,
		Tag:          input.Tag,
		IsRegistered: true,
		IsApproved:   true,
		CreationDate: now,
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, tx, input.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if !t.IsSquad {
			return ErrSoloOnly
		}
		// Сквады teams_only-турниров создаются только через привязку ростера.
		if t.TeamsOnly && !input.Privileged {
			return ErrTeamsOnly
		}

		if err := validateSquadNameTag(t, input.Name, input.Tag); err != nil {
			return err
		}

		if err := s.validatePlayer(ctx, tx, playerChecks{
			tournament:   t,
			playerID:     input.CaptainID,
			isBagger:     input.IsBaggerClause,
			miiName:      input.MiiName,
			selectedFCID: input.SelectedFCID,
			squadTag:     input.Tag,
			privileged:   input.Privileged,
		}); err != nil {
			return err
		}

		if err := s.regRepo.CreateSquad(ctx, tx, squad); err != nil {
			return err
		}

		captain := &models.TournamentPlayer{
			PlayerID:         input.CaptainID,
			TournamentID:     input.TournamentID,
			RegistrationID:   squad.ID,
			IsSquadCaptain:   true,
			IsApproved:       true,
			MiiName:          input.MiiName,
			CanHost:          input.CanHost,
			SelectedFCID:     input.SelectedFCID,
			IsBaggerClause:   input.IsBaggerClause,
			RegistrationDate: now,
		}
		if err := s.regRepo.InsertPlayer(ctx, tx, captain); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}
		squad.Players = []models.TournamentPlayer{*captain}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return squad, nil
}

func validateSquadNameTag(t *models.Tournament, name, tag *string) error {
	if t.SquadNameRequired {
		if name == nil || strings.TrimSpace(*name) == "" {
			return ErrSquadNameRequired
		}
		if len(*name) > maxSquadNameLength {
			return ErrSquadNameRequired
		}
	}
	if t.SquadTagRequired {
		if tag == nil || strings.TrimSpace(*tag) == "" {
			return ErrSquadTagRequired
		}
		if len(*tag) > maxSquadTagLength {
			return ErrSquadTagRequired
		}
	}
	return nil
}

func (s *registrationService) RegisterSquadMember(ctx context.Context, input RegisterSquadMemberInput) (*models.TournamentPlayer, error) {
	tp := &models.TournamentPlayer{
		PlayerID:         input.PlayerID,
		TournamentID:     input.TournamentID,
		RegistrationID:   input.RegistrationID,
		IsInvite:         input.IsInvite,
		IsRepresentative: input.IsRepresentative,
		IsApproved:       !input.IsInvite,
		MiiName:          input.MiiName,
		CanHost:          input.CanHost,
		SelectedFCID:     input.SelectedFCID,
		IsBaggerClause:   input.IsBaggerClause,
		RegistrationDate: time.Now(),
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, tx, input.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if !t.IsSquad {
			return ErrSoloOnly
		}

		// Лочим сквад, чтобы параллельные вступления не перепрыгнули max_squad_size.
		squad, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, input.RegistrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}
		if squad.TournamentID != input.TournamentID || !squad.IsRegistered {
			return ErrSquadNotFound
		}

		if err := s.validatePlayer(ctx, tx, playerChecks{
			tournament:   t,
			playerID:     input.PlayerID,
			isInvite:     input.IsInvite,
			isBagger:     input.IsBaggerClause,
			miiName:      input.MiiName,
			selectedFCID: input.SelectedFCID,
			squadTag:     squad.Tag,
			privileged:   input.Privileged,
		}); err != nil {
			return err
		}

		if t.TeamMembersOnly {
			if err := s.requireBackingMembership(ctx, tx, input.RegistrationID, input.PlayerID, input.IsBaggerClause); err != nil {
				return err
			}
		}

		if _, err := s.regRepo.FindSquadPlayer(ctx, tx, input.RegistrationID, input.PlayerID); err == nil {
			return ErrAlreadyInvited
		} else if !errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
			return err
		}

		if !input.IsInvite {
			if err := s.checkSquadCapacity(ctx, tx, t, input.RegistrationID); err != nil {
				return err
			}
		}

		if err := s.regRepo.InsertPlayer(ctx, tx, tp); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.IsInvite {
		s.notifier.Notify(ctx, []int{input.PlayerID}, NotifySquadInvited, tp)
	}
	return tp, nil
}

func (s *registrationService) AcceptSquadInvite(ctx context.Context, input ConfirmSquadInviteInput) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		tp, err := s.regRepo.GetPlayerByID(ctx, tx, input.TournamentPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotFound
			}
			return err
		}
		if tp.PlayerID != input.PlayerID {
			return ErrNotOwner
		}
		if !tp.IsInvite {
			return ErrInviteNotPending
		}

		t, err := s.tournamentRepo.GetByID(ctx, tx, tp.TournamentID)
		if err != nil {
			return err
		}

		squad, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, tp.RegistrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}
		if !squad.IsRegistered {
			return ErrSquadNotFound
		}

		// При подтверждении проходится полная цепочка, отложенная инвайтом.
		if t.MiiNameRequired && (input.MiiName == nil || strings.TrimSpace(*input.MiiName) == "") {
			return ErrMiiNameRequired
		}
		if t.RequireSingleFC && input.SelectedFCID == nil {
			n, err := s.playerRepo.CountActiveFriendCodes(ctx, tx, tp.PlayerID, t.Game)
			if err != nil {
				return err
			}
			if n > 1 {
				return ErrFCSelectionRequired
			}
		}
		if squad.Tag != nil && *squad.Tag != "" && input.MiiName != nil {
			if !strings.Contains(*input.MiiName, *squad.Tag) {
				return ErrSquadTagNotInMiiName
			}
		}
		if _, err := s.regRepo.FindConfirmedRegistration(ctx, tx, tp.TournamentID, tp.PlayerID, tp.IsBaggerClause); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
			return err
		}
		if err := s.checkSquadCapacity(ctx, tx, t, tp.RegistrationID); err != nil {
			return err
		}

		if err := s.regRepo.ConfirmInvite(ctx, tx, tp.ID, input.MiiName, input.SelectedFCID); err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrInviteNotPending
			}
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
}

func (s *registrationService) DeclineSquadInvite(ctx context.Context, tournamentPlayerID, playerID int) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		tp, err := s.regRepo.GetPlayerByID(ctx, tx, tournamentPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotFound
			}
			return err
		}
		if tp.PlayerID != playerID {
			return ErrNotOwner
		}
		if !tp.IsInvite {
			return ErrInviteNotPending
		}
		return s.regRepo.DeletePlayer(ctx, tx, tp.ID)
	})
}

func (s *registrationService) Unregister(ctx context.Context, tournamentID, registrationID, playerID int) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		squad, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, registrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}
		if squad.TournamentID != tournamentID {
			return ErrSquadNotFound
		}

		tp, err := s.regRepo.FindSquadPlayer(ctx, tx, registrationID, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotFound
			}
			return err
		}

		if tp.IsSquadCaptain {
			n, err := s.regRepo.CountConfirmedPlayers(ctx, tx, registrationID)
			if err != nil {
				return err
			}
			if n > 1 {
				return ErrCaptainMustTransferFirst
			}
		}

		return s.removeAndMaybeWithdraw(ctx, tx, tp)
	})
}

func (s *registrationService) KickFromSquad(ctx context.Context, registrationID, targetPlayerID, actorPlayerID int) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, registrationID); err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}

		actor, err := s.regRepo.FindSquadPlayer(ctx, tx, registrationID, actorPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotCaptain
			}
			return err
		}
		if !actor.IsSquadCaptain {
			return ErrNotCaptain
		}

		target, err := s.regRepo.FindSquadPlayer(ctx, tx, registrationID, targetPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotFound
			}
			return err
		}
		if target.IsSquadCaptain {
			return ErrCaptainMustTransferFirst
		}

		return s.removeAndMaybeWithdraw(ctx, tx, target)
	})
}

// removeAndMaybeWithdraw удаляет запись игрока и снимает опустевший сквад.
func (s *registrationService) removeAndMaybeWithdraw(ctx context.Context, tx repositories.SQLExecutor, tp *models.TournamentPlayer) error {
	if err := s.regRepo.DeletePlayer(ctx, tx, tp.ID); err != nil {
		return err
	}
	n, err := s.regRepo.CountConfirmedPlayers(ctx, tx, tp.RegistrationID)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := s.regRepo.UpdateSquadRegistered(ctx, tx, tp.RegistrationID, false); err != nil {
			return err
		}
		if err := s.regRepo.DeleteInvitesBySquad(ctx, tx, tp.RegistrationID); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "squad auto-withdrawn after last player left",
			slog.Int("registration_id", tp.RegistrationID),
			slog.Int("tournament_id", tp.TournamentID))
	}
	return nil
}

func (s *registrationService) ChangeSquadCaptain(ctx context.Context, registrationID, newCaptainPlayerID, actorPlayerID int) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, registrationID); err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}

		actor, err := s.regRepo.FindSquadPlayer(ctx, tx, registrationID, actorPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotCaptain
			}
			return err
		}
		if !actor.IsSquadCaptain {
			return ErrNotCaptain
		}

		next, err := s.regRepo.FindSquadPlayer(ctx, tx, registrationID, newCaptainPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
				return ErrNotFound
			}
			return err
		}
		if next.IsInvite {
			return ErrInviteNotPending
		}

		return s.regRepo.SetCaptain(ctx, tx, registrationID, next.ID)
	})
}

func (s *registrationService) WithdrawSquad(ctx context.Context, registrationID, actorPlayerID int, privileged bool) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		squad, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, registrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}
		if !squad.IsRegistered {
			return ErrSquadNotFound
		}

		if !privileged {
			actor, err := s.regRepo.FindSquadPlayer(ctx, tx, registrationID, actorPlayerID)
			if err != nil {
				if errors.Is(err, repositories.ErrTournamentPlayerNotFound) {
					return ErrNotCaptain
				}
				return err
			}
			if !actor.IsSquadCaptain {
				return ErrNotCaptain
			}
		}

		if err := s.regRepo.UpdateSquadRegistered(ctx, tx, registrationID, false); err != nil {
			return err
		}
		return s.regRepo.DeleteInvitesBySquad(ctx, tx, registrationID)
	})
}

func (s *registrationService) LinkRosterToSquad(ctx context.Context, registrationID, rosterID int) error {
	var cascade *ReconcileOutcome
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		squad, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, registrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}

		t, err := s.tournamentRepo.GetByID(ctx, tx, squad.TournamentID)
		if err != nil {
			return err
		}
		if !t.TeamsAllowed {
			return ErrNotEligible
		}

		roster, err := s.rosterRepo.GetByID(ctx, tx, rosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrRosterNotFound) {
				return ErrRosterNotFound
			}
			return err
		}
		if roster.ApprovalStatus != models.ApprovalApproved {
			return ErrNotApprovedYet
		}
		if roster.Game != t.Game || roster.Mode != t.Mode {
			return ErrNotEligible
		}

		link := &models.TeamSquadRegistration{
			RosterID:       rosterID,
			RegistrationID: registrationID,
			TournamentID:   squad.TournamentID,
		}
		if err := s.regRepo.LinkRoster(ctx, tx, link); err != nil {
			if errors.Is(err, repositories.ErrSquadLinkConflict) {
				return ErrRosterAlreadyLinked
			}
			return err
		}

		// Привязка ростера - корневое событие каскада добавления.
		cascade, err = s.consistency.ReconcileSquadLink(ctx, tx, rosterID)
		return err
	})
	if err != nil {
		return err
	}
	cascade.NotifyVia(ctx, s.notifier)
	return nil
}

func (s *registrationService) UnlinkRosterFromSquad(ctx context.Context, registrationID, rosterID int) error {
	var cascade *ReconcileOutcome
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.regRepo.GetSquadByIDForUpdate(ctx, tx, registrationID); err != nil {
			if errors.Is(err, repositories.ErrSquadNotFound) {
				return ErrSquadNotFound
			}
			return err
		}
		if err := s.regRepo.UnlinkRoster(ctx, tx, registrationID, rosterID); err != nil {
			return err
		}
		out, err := s.consistency.ReconcileSquadUnlink(ctx, tx, rosterID)
		if err != nil {
			return err
		}
		cascade = out
		return nil
	})
	if err != nil {
		return err
	}
	cascade.NotifyVia(ctx, s.notifier)
	return nil
}

func (s *registrationService) GetSquad(ctx context.Context, registrationID int) (*models.TournamentRegistration, error) {
	squad, err := s.regRepo.GetSquadByID(ctx, nil, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrSquadNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, err
	}
	players, err := s.regRepo.ListPlayersBySquad(ctx, nil, registrationID)
	if err != nil {
		return nil, err
	}
	squad.Players = make([]models.TournamentPlayer, 0, len(players))
	for _, p := range players {
		squad.Players = append(squad.Players, *p)
	}
	squad.Rosters, err = s.regRepo.ListSquadRosterIDs(ctx, nil, registrationID)
	if err != nil {
		return nil, err
	}
	return squad, nil
}

func (s *registrationService) ListSquads(ctx context.Context, tournamentID int) ([]*models.TournamentRegistration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.regRepo.ListSquadsByTournament(ctx, tournamentID)
}

func (s *registrationService) ListTournamentPlayers(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.regRepo.ListPlayersByTournament(ctx, tournamentID)
}

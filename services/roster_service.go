package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

type CreateRosterInput struct {
	TeamID int     `json:"team_id"`
	Game   string  `json:"game"`
	Mode   string  `json:"mode"`
	Name   *string `json:"name,omitempty"`
	Tag    *string `json:"tag,omitempty"`
}

type EditRosterInput struct {
	Name *string `json:"name,omitempty"`
	Tag  *string `json:"tag,omitempty"`
}

type RosterService interface {
	CreateRoster(ctx context.Context, input CreateRosterInput) (*models.Roster, error)
	EditRoster(ctx context.Context, rosterID int, input EditRosterInput) (*models.Roster, error)
	GetRoster(ctx context.Context, rosterID int) (*models.Roster, error)
	ListTeamRosters(ctx context.Context, teamID int) ([]*models.Roster, error)
	SetActive(ctx context.Context, rosterID int, active bool) error
	SetRecruiting(ctx context.Context, rosterID int, recruiting bool) error
	// AddMember - прямое стафф-действие мимо трансферного конвейера.
	AddMember(ctx context.Context, rosterID, playerID int, isBagger bool) error
	// RemoveMember закрывает членство, пишет synthetic "leave"-трансфер для
	// истории и прогоняет каскад - всё в одной транзакции.
	RemoveMember(ctx context.Context, rosterID, playerID int, isBagger bool) error
}

type rosterService struct {
	txr          TxRunner
	rosterRepo   repositories.RosterRepository
	teamRepo     repositories.TeamRepository
	memberRepo   repositories.TeamMemberRepository
	transferRepo repositories.TransferRepository
	playerRepo   repositories.PlayerRepository
	identity     IdentityStore
	consistency  *ConsistencyService
	notifier     NotificationSink
}

func NewRosterService(
	txr TxRunner,
	rosterRepo repositories.RosterRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	transferRepo repositories.TransferRepository,
	playerRepo repositories.PlayerRepository,
	identity IdentityStore,
	consistency *ConsistencyService,
	notifier NotificationSink,
) RosterService {
	return &rosterService{
		txr:          txr,
		rosterRepo:   rosterRepo,
		teamRepo:     teamRepo,
		memberRepo:   memberRepo,
		transferRepo: transferRepo,
		playerRepo:   playerRepo,
		identity:     identity,
		consistency:  consistency,
		notifier:     notifier,
	}
}

func (s *rosterService) CreateRoster(ctx context.Context, input CreateRosterInput) (*models.Roster, error) {
	roster := &models.Roster{
		TeamID:         input.TeamID,
		Game:           input.Game,
		Mode:           input.Mode,
		Name:           input.Name,
		Tag:            input.Tag,
		ApprovalStatus: models.ApprovalPending,
		IsActive:       true,
		IsRecruiting:   true,
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		// Блокировка строки команды сериализует конкурентные создания:
		// индекс не ловит коллизию NULL-имени с явным именем команды.
		team, err := s.teamRepo.GetByIDForUpdate(ctx, tx, input.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		// Уникальность по разрешённому имени: NULL наследует имя команды.
		effective := roster.EffectiveName(team)
		taken, err := s.rosterRepo.EffectiveNameTaken(ctx, tx, input.TeamID, input.Game, input.Mode, effective, nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrRosterNameConflict
		}

		if err := s.rosterRepo.Create(ctx, tx, roster); err != nil {
			if errors.Is(err, repositories.ErrRosterNameConflict) {
				return ErrRosterNameConflict
			}
			if errors.Is(err, repositories.ErrRosterTeamInvalid) {
				return ErrTeamNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *rosterService) EditRoster(ctx context.Context, rosterID int, input EditRosterInput) (*models.Roster, error) {
	var roster *models.Roster
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		roster, err = s.rosterRepo.GetByID(ctx, tx, rosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrRosterNotFound) {
				return ErrRosterNotFound
			}
			return err
		}

		team, err := s.teamRepo.GetByIDForUpdate(ctx, tx, roster.TeamID)
		if err != nil {
			return err
		}

		roster.Name = input.Name
		roster.Tag = input.Tag
		effective := roster.EffectiveName(team)
		taken, err := s.rosterRepo.EffectiveNameTaken(ctx, tx, roster.TeamID, roster.Game, roster.Mode, effective, &rosterID)
		if err != nil {
			return err
		}
		if taken {
			return ErrRosterNameConflict
		}

		if err := s.rosterRepo.UpdateNameTag(ctx, tx, rosterID, input.Name, input.Tag); err != nil {
			if errors.Is(err, repositories.ErrRosterNameConflict) {
				return ErrRosterNameConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *rosterService) GetRoster(ctx context.Context, rosterID int) (*models.Roster, error) {
	roster, err := s.rosterRepo.GetByID(ctx, nil, rosterID)
	if err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}

	members, err := s.memberRepo.ListActiveByRoster(ctx, nil, rosterID)
	if err != nil {
		return nil, err
	}
	roster.Members = make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		roster.Members = append(roster.Members, *m)
	}
	return roster, nil
}

func (s *rosterService) ListTeamRosters(ctx context.Context, teamID int) ([]*models.Roster, error) {
	if _, err := s.teamRepo.GetByID(ctx, nil, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return s.rosterRepo.ListByTeam(ctx, teamID)
}

func (s *rosterService) SetActive(ctx context.Context, rosterID int, active bool) error {
	err := s.rosterRepo.SetActive(ctx, rosterID, active)
	if errors.Is(err, repositories.ErrRosterNotFound) {
		return ErrRosterNotFound
	}
	return err
}

func (s *rosterService) SetRecruiting(ctx context.Context, rosterID int, recruiting bool) error {
	err := s.rosterRepo.SetRecruiting(ctx, rosterID, recruiting)
	if errors.Is(err, repositories.ErrRosterNotFound) {
		return ErrRosterNotFound
	}
	return err
}

func (s *rosterService) AddMember(ctx context.Context, rosterID, playerID int, isBagger bool) error {
	var cascade *ReconcileOutcome
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		roster, err := s.rosterRepo.GetByID(ctx, tx, rosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrRosterNotFound) {
				return ErrRosterNotFound
			}
			return err
		}

		player, err := s.playerRepo.GetByID(ctx, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		if player.IsBanned {
			return ErrPlayerBanned
		}

		ok, err := s.identity.HasActiveIdentity(ctx, tx, playerID, roster.Game)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotEligible
		}

		if _, err := s.memberRepo.GetActive(ctx, tx, rosterID, playerID, isBagger); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, repositories.ErrMemberNotFound) {
			return err
		}

		member := &models.TeamMember{
			RosterID:       rosterID,
			PlayerID:       playerID,
			JoinDate:       time.Now(),
			IsBaggerClause: isBagger,
		}
		if err := s.memberRepo.Insert(ctx, tx, member); err != nil {
			if errors.Is(err, repositories.ErrMemberConflict) {
				return ErrAlreadyMember
			}
			return err
		}

		joined := rosterID
		cascade, err = s.consistency.ReconcileRosterChange(ctx, tx, playerID, nil, &joined, isBagger)
		return err
	})
	if err != nil {
		return err
	}
	cascade.NotifyVia(ctx, s.notifier)
	return nil
}

func (s *rosterService) RemoveMember(ctx context.Context, rosterID, playerID int, isBagger bool) error {
	var cascade *ReconcileOutcome
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		member, err := s.memberRepo.GetActiveForUpdate(ctx, tx, rosterID, playerID, isBagger)
		if err != nil {
			if errors.Is(err, repositories.ErrMemberNotFound) {
				return ErrNotAMember
			}
			return err
		}

		now := time.Now()
		if err := s.memberRepo.Close(ctx, tx, member.ID, now); err != nil {
			return err
		}

		// Synthetic "leave"-трансфер: уходы видны в истории трансферов.
		leave := &models.TeamTransfer{
			PlayerID:       playerID,
			RosterLeaveID:  &rosterID,
			Date:           now,
			IsAccepted:     true,
			ApprovalStatus: models.ApprovalApproved,
			IsBaggerClause: isBagger,
		}
		if err := s.transferRepo.Create(ctx, tx, leave); err != nil {
			return fmt.Errorf("failed to log leave transfer: %w", err)
		}

		left := rosterID
		cascade, err = s.consistency.ReconcileRosterChange(ctx, tx, playerID, &left, nil, isBagger)
		return err
	})
	if err != nil {
		return err
	}
	cascade.NotifyVia(ctx, s.notifier)
	return nil
}

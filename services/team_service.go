package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

const (
	maxTeamNameLength = 32
	maxTeamTagLength  = 8
)

type CreateTeamInput struct {
	Name        string  `json:"name"`
	Tag         string  `json:"tag"`
	Description *string `json:"description,omitempty"`
	// Game и Mode первого ростера: команда без единого ростера бесполезна.
	Game            string `json:"game"`
	Mode            string `json:"mode"`
	CreatorPlayerID int    `json:"-"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	ListTeams(ctx context.Context, filter repositories.ListTeamsFilter) ([]*models.Team, error)
	UpdateDescription(ctx context.Context, teamID int, description *string) error
	SetHistorical(ctx context.Context, teamID int, historical bool) error
}

type teamService struct {
	txr        TxRunner
	teamRepo   repositories.TeamRepository
	rosterRepo repositories.RosterRepository
	memberRepo repositories.TeamMemberRepository
	playerRepo repositories.PlayerRepository
	identity   IdentityStore
}

func NewTeamService(
	txr TxRunner,
	teamRepo repositories.TeamRepository,
	rosterRepo repositories.RosterRepository,
	memberRepo repositories.TeamMemberRepository,
	playerRepo repositories.PlayerRepository,
	identity IdentityStore,
) TeamService {
	return &teamService{
		txr:        txr,
		teamRepo:   teamRepo,
		rosterRepo: rosterRepo,
		memberRepo: memberRepo,
		playerRepo: playerRepo,
		identity:   identity,
	}
}

// CreateTeam создаёт команду вместе с первым ростером и членством создателя.
// И команда, и ростер уходят в pending до решения модерации.
func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	tag := strings.TrimSpace(input.Tag)
	if name == "" || len(name) > maxTeamNameLength || tag == "" || len(tag) > maxTeamTagLength {
		return nil, ErrForbiddenOperation
	}

	team := &models.Team{
		Name:           name,
		Tag:            tag,
		Description:    input.Description,
		ApprovalStatus: models.ApprovalPending,
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		player, err := s.playerRepo.GetByID(ctx, input.CreatorPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		if player.IsBanned {
			return ErrPlayerBanned
		}

		ok, err := s.identity.HasActiveIdentity(ctx, tx, input.CreatorPlayerID, input.Game)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotEligible
		}

		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return err
		}

		roster := &models.Roster{
			TeamID:         team.ID,
			Game:           input.Game,
			Mode:           input.Mode,
			ApprovalStatus: models.ApprovalPending,
			IsActive:       true,
			IsRecruiting:   true,
		}
		if err := s.rosterRepo.Create(ctx, tx, roster); err != nil {
			return err
		}

		member := &models.TeamMember{
			RosterID: roster.ID,
			PlayerID: input.CreatorPlayerID,
			JoinDate: time.Now(),
		}
		if err := s.memberRepo.Insert(ctx, tx, member); err != nil {
			return err
		}

		team.Rosters = []models.Roster{*roster}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	rosters, err := s.rosterRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Rosters = make([]models.Roster, 0, len(rosters))
	for _, r := range rosters {
		r.Team = team
		team.Rosters = append(team.Rosters, *r)
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, filter repositories.ListTeamsFilter) ([]*models.Team, error) {
	return s.teamRepo.List(ctx, filter)
}

func (s *teamService) UpdateDescription(ctx context.Context, teamID int, description *string) error {
	err := s.teamRepo.UpdateDescription(ctx, teamID, description)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

func (s *teamService) SetHistorical(ctx context.Context, teamID int, historical bool) error {
	err := s.teamRepo.SetHistorical(ctx, teamID, historical)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

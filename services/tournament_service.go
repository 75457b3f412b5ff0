package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
	"github.com/MarioKartCentral/registry/storage"
)

type CreateTournamentInput struct {
	Name                 string     `json:"name"`
	Game                 string     `json:"game"`
	Mode                 string     `json:"mode"`
	SeriesID             *int       `json:"series_id,omitempty"`
	IsSquad              bool       `json:"is_squad"`
	TeamsAllowed         bool       `json:"teams_allowed"`
	TeamsOnly            bool       `json:"teams_only"`
	TeamMembersOnly      bool       `json:"team_members_only"`
	MinSquadSize         *int       `json:"min_squad_size,omitempty"`
	MaxSquadSize         *int       `json:"max_squad_size,omitempty"`
	SquadNameRequired    bool       `json:"squad_name_required"`
	SquadTagRequired     bool       `json:"squad_tag_required"`
	MiiNameRequired      bool       `json:"mii_name_required"`
	RequireSingleFC      bool       `json:"require_single_fc"`
	BaggerClauseEnabled  bool       `json:"bagger_clause_enabled"`
	RegistrationsOpen    bool       `json:"registrations_open"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	DateStart            time.Time  `json:"date_start"`
	DateEnd              time.Time  `json:"date_end"`
	Description          *string    `json:"description,omitempty"`
}

// TournamentDetails - полная карточка турнира для фронта: конфигурация,
// сквады и записи игроков, собираемые параллельно.
type TournamentDetails struct {
	Tournament *models.Tournament               `json:"tournament"`
	Squads     []*models.TournamentRegistration `json:"squads"`
	Players    []*models.TournamentPlayer       `json:"players"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	GetTournamentDetails(ctx context.Context, id int) (*TournamentDetails, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error)
	SetRegistrationsOpen(ctx context.Context, id int, open bool) error
	// UpdateDescription кладёт markdown в blob-хранилище и сохраняет ключ.
	UpdateDescription(ctx context.Context, id int, description string) (string, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	regRepo        repositories.RegistrationRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	regRepo repositories.RegistrationRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		regRepo:        regRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	t := tournamentFromInput(input)
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	if input.Description != nil && *input.Description != "" {
		if _, err := s.UpdateDescription(ctx, t.ID, *input.Description); err != nil {
			// Турнир уже создан, описание можно перезалить позже.
			s.logger.ErrorContext(ctx, "failed to upload tournament description",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
		}
	}

	s.populateDescriptionURL(t)
	return t, nil
}

func validateTournamentInput(input CreateTournamentInput) error {
	if strings.TrimSpace(input.Name) == "" || input.Game == "" || input.Mode == "" {
		return ErrForbiddenOperation
	}
	if !input.DateEnd.After(input.DateStart) {
		return ErrForbiddenOperation
	}
	if input.MinSquadSize != nil && input.MaxSquadSize != nil && *input.MinSquadSize > *input.MaxSquadSize {
		return ErrForbiddenOperation
	}
	return nil
}

func tournamentFromInput(input CreateTournamentInput) *models.Tournament {
	return &models.Tournament{
		Name:                 input.Name,
		Game:                 input.Game,
		Mode:                 input.Mode,
		SeriesID:             input.SeriesID,
		IsSquad:              input.IsSquad,
		TeamsAllowed:         input.TeamsAllowed,
		TeamsOnly:            input.TeamsOnly,
		TeamMembersOnly:      input.TeamMembersOnly,
		MinSquadSize:         input.MinSquadSize,
		MaxSquadSize:         input.MaxSquadSize,
		SquadNameRequired:    input.SquadNameRequired,
		SquadTagRequired:     input.SquadTagRequired,
		MiiNameRequired:      input.MiiNameRequired,
		RequireSingleFC:      input.RequireSingleFC,
		BaggerClauseEnabled:  input.BaggerClauseEnabled,
		RegistrationsOpen:    input.RegistrationsOpen,
		RegistrationDeadline: input.RegistrationDeadline,
		DateStart:            input.DateStart,
		DateEnd:              input.DateEnd,
	}
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	updated := tournamentFromInput(input)
	updated.ID = t.ID
	updated.DescriptionKey = t.DescriptionKey
	if err := s.tournamentRepo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.populateDescriptionURL(updated)
	return updated, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.populateDescriptionURL(t)
	return t, nil
}

func (s *tournamentService) GetTournamentDetails(ctx context.Context, id int) (*TournamentDetails, error) {
	t, err := s.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &TournamentDetails{Tournament: t}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		squads, err := s.regRepo.ListSquadsByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list squads for tournament %d: %w", id, err)
		}
		details.Squads = squads
		return nil
	})
	g.Go(func() error {
		players, err := s.regRepo.ListPlayersByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list players for tournament %d: %w", id, err)
		}
		details.Players = players
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.populateDescriptionURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) SetRegistrationsOpen(ctx context.Context, id int, open bool) error {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	t.RegistrationsOpen = open
	return s.tournamentRepo.Update(ctx, t)
}

func (s *tournamentService) UpdateDescription(ctx context.Context, id int, description string) (string, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", ErrTournamentNotFound
		}
		return "", err
	}
	if s.uploader == nil {
		return "", ErrForbiddenOperation
	}

	key := fmt.Sprintf("tournaments/%d/description-%s.md", id, uuid.New().String())
	result, err := s.uploader.Upload(ctx, key, "text/markdown", strings.NewReader(description))
	if err != nil {
		return "", fmt.Errorf("failed to upload description: %w", err)
	}

	if err := s.tournamentRepo.UpdateDescriptionKey(ctx, id, &key); err != nil {
		return "", err
	}

	// Старый blob больше не нужен, ключи одноразовые.
	if t.DescriptionKey != nil && *t.DescriptionKey != "" {
		if err := s.uploader.Delete(ctx, *t.DescriptionKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old description blob",
				slog.String("key", *t.DescriptionKey), slog.Any("error", err))
		}
	}

	return result.Location, nil
}

func (s *tournamentService) populateDescriptionURL(t *models.Tournament) {
	if t != nil && t.DescriptionKey != nil && *t.DescriptionKey != "" && s.uploader != nil {
		url := s.uploader.GetPublicURL(*t.DescriptionKey)
		if url != "" {
			t.DescriptionURL = &url
		}
	}
}

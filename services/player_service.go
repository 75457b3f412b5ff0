package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

// fcPattern - формат кода вида 1234-5678-9012.
var fcPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}$`)

type CreatePlayerInput struct {
	UserID      int    `json:"-"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

type AddFriendCodeInput struct {
	PlayerID int    `json:"-"`
	Game     string `json:"game"`
	FC       string `json:"fc"`
}

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, playerID int) (*models.Player, error)
	BanPlayer(ctx context.Context, playerID int) error
	UnbanPlayer(ctx context.Context, playerID int) error
	AddFriendCode(ctx context.Context, input AddFriendCodeInput) (*models.FriendCode, error)
	SetFriendCodeActive(ctx context.Context, playerID, fcID int, active bool) error
}

type playerService struct {
	txr        TxRunner
	playerRepo repositories.PlayerRepository
	userRepo   repositories.UserRepository
}

func NewPlayerService(
	txr TxRunner,
	playerRepo repositories.PlayerRepository,
	userRepo repositories.UserRepository,
) PlayerService {
	return &playerService{txr: txr, playerRepo: playerRepo, userRepo: userRepo}
}

// CreatePlayer заводит профиль игрока и привязывает его к учётке.
func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.PlayerID != nil {
		return nil, ErrForbiddenOperation
	}

	player := &models.Player{
		Name:        name,
		CountryCode: strings.ToUpper(input.CountryCode),
	}

	err = s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.playerRepo.Create(ctx, player); err != nil {
			return err
		}
		return s.userRepo.LinkPlayer(ctx, tx, input.UserID, player.ID)
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	fcs, err := s.playerRepo.ListFriendCodes(ctx, playerID)
	if err != nil {
		return nil, err
	}
	player.FriendCodes = make([]models.FriendCode, 0, len(fcs))
	for _, fc := range fcs {
		player.FriendCodes = append(player.FriendCodes, *fc)
	}
	return player, nil
}

func (s *playerService) BanPlayer(ctx context.Context, playerID int) error {
	err := s.playerRepo.SetBanned(ctx, playerID, true)
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		return ErrPlayerNotFound
	}
	return err
}

func (s *playerService) UnbanPlayer(ctx context.Context, playerID int) error {
	err := s.playerRepo.SetBanned(ctx, playerID, false)
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		return ErrPlayerNotFound
	}
	return err
}

func (s *playerService) AddFriendCode(ctx context.Context, input AddFriendCodeInput) (*models.FriendCode, error) {
	if !fcPattern.MatchString(input.FC) {
		return nil, ErrForbiddenOperation
	}

	if _, err := s.playerRepo.GetByID(ctx, input.PlayerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	existing, err := s.playerRepo.CountActiveFriendCodes(ctx, nil, input.PlayerID, input.Game)
	if err != nil {
		return nil, err
	}

	fc := &models.FriendCode{
		PlayerID:  input.PlayerID,
		Game:      input.Game,
		FC:        input.FC,
		IsActive:  true,
		IsPrimary: existing == 0,
	}
	if err := s.playerRepo.CreateFriendCode(ctx, fc); err != nil {
		if errors.Is(err, repositories.ErrFriendCodeConflict) {
			return nil, ErrFriendCodeConflict
		}
		if errors.Is(err, repositories.ErrFriendCodePlayerInvalid) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return fc, nil
}

func (s *playerService) SetFriendCodeActive(ctx context.Context, playerID, fcID int, active bool) error {
	fcs, err := s.playerRepo.ListFriendCodes(ctx, playerID)
	if err != nil {
		return err
	}
	for _, fc := range fcs {
		if fc.ID == fcID {
			return s.playerRepo.SetFriendCodeActive(ctx, fcID, active)
		}
	}
	return ErrNotFound
}

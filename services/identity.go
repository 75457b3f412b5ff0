package services

import (
	"context"

	"github.com/MarioKartCentral/registry/repositories"
)

// IdentityStore отвечает на единственный вопрос: есть ли у игрока активный
// friend code для игры. Invite, Accept и регистрация не пускают игрока без
// идентификатора.
type IdentityStore interface {
	HasActiveIdentity(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (bool, error)
}

type friendCodeIdentityStore struct {
	playerRepo repositories.PlayerRepository
}

func NewFriendCodeIdentityStore(playerRepo repositories.PlayerRepository) IdentityStore {
	return &friendCodeIdentityStore{playerRepo: playerRepo}
}

func (s *friendCodeIdentityStore) HasActiveIdentity(ctx context.Context, exec repositories.SQLExecutor, playerID int, game string) (bool, error) {
	return s.playerRepo.HasActiveFriendCode(ctx, exec, playerID, game)
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

// ConsistencyService - координатор согласованности регистраций.
// Любое изменение членства в ростере (вступление, уход, одобренный трансфер)
// или связки ростер-сквад проходит через него: он удаляет регистрации, на
// которые игрок больше не имеет права, и довносит игрока в открытые командные
// турниры его нового ростера.
//
// Все методы работают внутри транзакции вызывающей операции (exec) -
// неудавшийся каскад откатывает и само изменение членства. Проходы
// идемпотентны: повторный запуск на согласованном состоянии ничего не меняет.
type ConsistencyService struct {
	regRepo    repositories.RegistrationRepository
	memberRepo repositories.TeamMemberRepository
	logger     *slog.Logger
}

func NewConsistencyService(
	regRepo repositories.RegistrationRepository,
	memberRepo repositories.TeamMemberRepository,
	logger *slog.Logger,
) *ConsistencyService {
	return &ConsistencyService{
		regRepo:    regRepo,
		memberRepo: memberRepo,
		logger:     logger,
	}
}

// CascadeChange - одна регистрация, добавленная или удалённая каскадом.
type CascadeChange struct {
	PlayerID       int `json:"player_id"`
	TournamentID   int `json:"tournament_id"`
	RegistrationID int `json:"registration_id"`
}

// ReconcileOutcome копит изменения каскада. Уведомления по ним шлёт
// вызывающая операция после коммита транзакции, не раньше.
type ReconcileOutcome struct {
	AutoAdded   []CascadeChange
	AutoRemoved []CascadeChange
}

// NotifyVia шлёт событие на каждого затронутого игрока.
func (o *ReconcileOutcome) NotifyVia(ctx context.Context, sink NotificationSink) {
	if o == nil {
		return
	}
	for _, c := range o.AutoAdded {
		sink.Notify(ctx, []int{c.PlayerID}, NotifyAutoRegistered, c)
	}
	for _, c := range o.AutoRemoved {
		sink.Notify(ctx, []int{c.PlayerID}, NotifyAutoRemoved, c)
	}
}

// ReconcileRosterChange запускает оба прохода для игрока: removal для
// покинутого ростера, addition для нового. Любой из них может быть nil.
// Bagger-флаг - часть ключа в обоих направлениях: bagger- и обычные слоты
// живут независимо.
func (s *ConsistencyService) ReconcileRosterChange(ctx context.Context, exec repositories.SQLExecutor, playerID int, leftRosterID, joinedRosterID *int, isBagger bool) (*ReconcileOutcome, error) {
	// Блокируем весь набор регистраций игрока: проход читает и пишет
	// неограниченное множество строк по player_id.
	if err := s.regRepo.LockPlayerTournamentRows(ctx, exec, playerID); err != nil {
		return nil, err
	}

	out := &ReconcileOutcome{}
	if leftRosterID != nil {
		if err := s.removalPass(ctx, exec, out, playerID, *leftRosterID, isBagger); err != nil {
			return nil, err
		}
	}
	if joinedRosterID != nil {
		if err := s.additionPass(ctx, exec, out, playerID, *joinedRosterID, isBagger); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReconcileSquadLink прогоняет addition-проход для всех действующих участников
// ростера, только что привязанного к скваду.
func (s *ConsistencyService) ReconcileSquadLink(ctx context.Context, exec repositories.SQLExecutor, rosterID int) (*ReconcileOutcome, error) {
	members, err := s.memberRepo.ListActiveByRoster(ctx, exec, rosterID)
	if err != nil {
		return nil, err
	}
	out := &ReconcileOutcome{}
	for _, m := range members {
		if err := s.regRepo.LockPlayerTournamentRows(ctx, exec, m.PlayerID); err != nil {
			return nil, err
		}
		if err := s.additionPass(ctx, exec, out, m.PlayerID, rosterID, m.IsBaggerClause); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReconcileSquadUnlink прогоняет removal-проход после отвязки ростера.
func (s *ConsistencyService) ReconcileSquadUnlink(ctx context.Context, exec repositories.SQLExecutor, rosterID int) (*ReconcileOutcome, error) {
	members, err := s.memberRepo.ListActiveByRoster(ctx, exec, rosterID)
	if err != nil {
		return nil, err
	}
	out := &ReconcileOutcome{}
	for _, m := range members {
		if err := s.regRepo.LockPlayerTournamentRows(ctx, exec, m.PlayerID); err != nil {
			return nil, err
		}
		if err := s.removalPass(ctx, exec, out, m.PlayerID, rosterID, m.IsBaggerClause); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// removalPass удаляет регистрации team_members_only турниров, которые больше
// не подперты ни одним ростером игрока, и снимает с регистрации опустевшие
// сквады.
func (s *ConsistencyService) removalPass(ctx context.Context, exec repositories.SQLExecutor, out *ReconcileOutcome, playerID, rosterID int, isBagger bool) error {
	removable, err := s.regRepo.ListRemovableAfterLeave(ctx, exec, playerID, rosterID, isBagger, time.Now())
	if err != nil {
		return err
	}
	if len(removable) == 0 {
		return nil
	}

	squadIDs := make([]int, 0, len(removable))
	for _, tp := range removable {
		if err := s.regRepo.DeletePlayer(ctx, exec, tp.ID); err != nil {
			return fmt.Errorf("removal pass for player %d: %w", playerID, err)
		}
		squadIDs = append(squadIDs, tp.RegistrationID)
		out.AutoRemoved = append(out.AutoRemoved, CascadeChange{
			PlayerID:       playerID,
			TournamentID:   tp.TournamentID,
			RegistrationID: tp.RegistrationID,
		})
		s.logger.InfoContext(ctx, "cascade removed tournament registration",
			slog.Int("player_id", playerID),
			slog.Int("tournament_id", tp.TournamentID),
			slog.Int("registration_id", tp.RegistrationID),
			slog.Bool("is_bagger_clause", isBagger),
		)
	}

	return s.withdrawEmptySquads(ctx, exec, squadIDs)
}

// additionPass довносит игрока в открытые командные турниры нового ростера.
// Вставляется подтверждённая запись: не капитан, без чек-ина.
func (s *ConsistencyService) additionPass(ctx context.Context, exec repositories.SQLExecutor, out *ReconcileOutcome, playerID, rosterID int, isBagger bool) error {
	candidates, err := s.regRepo.ListAutoAddCandidates(ctx, exec, playerID, rosterID, isBagger)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		tp := &models.TournamentPlayer{
			PlayerID:       playerID,
			TournamentID:   c.TournamentID,
			RegistrationID: c.RegistrationID,
			IsBaggerClause: isBagger,
			IsApproved:     true,
		}
		if err := s.regRepo.InsertPlayer(ctx, exec, tp); err != nil {
			return fmt.Errorf("addition pass for player %d: %w", playerID, err)
		}
		out.AutoAdded = append(out.AutoAdded, CascadeChange{
			PlayerID:       playerID,
			TournamentID:   c.TournamentID,
			RegistrationID: c.RegistrationID,
		})
		s.logger.InfoContext(ctx, "cascade added tournament registration",
			slog.Int("player_id", playerID),
			slog.Int("tournament_id", c.TournamentID),
			slog.Int("registration_id", c.RegistrationID),
			slog.Bool("is_bagger_clause", isBagger),
		)
	}
	return nil
}

// withdrawEmptySquads реализует инвариант автоснятия: сквад без единого
// подтверждённого участника получает is_registered=false, его висящие
// приглашения удаляются.
func (s *ConsistencyService) withdrawEmptySquads(ctx context.Context, exec repositories.SQLExecutor, squadIDs []int) error {
	empty, err := s.regRepo.FindEmptyRegisteredSquads(ctx, exec, squadIDs)
	if err != nil {
		return err
	}
	for _, id := range empty {
		if err := s.regRepo.UpdateSquadRegistered(ctx, exec, id, false); err != nil {
			return err
		}
		if err := s.regRepo.DeleteInvitesBySquad(ctx, exec, id); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "auto-withdrew empty squad", slog.Int("registration_id", id))
	}
	return nil
}

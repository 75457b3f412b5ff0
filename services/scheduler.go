package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/MarioKartCentral/registry/repositories"
)

// staleInviteTTL - сколько живёт непринятое приглашение в трансфер.
const staleInviteTTL = 30 * 24 * time.Hour

// Scheduler гоняет фоновые зачистки: закрытие просроченных регистраций и
// удаление протухших трансферных приглашений.
type Scheduler struct {
	sched          gocron.Scheduler
	tournamentRepo repositories.TournamentRepository
	transferRepo   repositories.TransferRepository
	logger         *slog.Logger
}

func NewScheduler(
	tournamentRepo repositories.TournamentRepository,
	transferRepo repositories.TransferRepository,
	logger *slog.Logger,
) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		sched:          sched,
		tournamentRepo: tournamentRepo,
		transferRepo:   transferRepo,
		logger:         logger,
	}, nil
}

func (s *Scheduler) Start() error {
	if _, err := s.sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(s.closeExpiredRegistrations),
	); err != nil {
		return err
	}

	if _, err := s.sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.deleteStaleInvites),
	); err != nil {
		return err
	}

	s.sched.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) closeExpiredRegistrations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.tournamentRepo.CloseExpiredRegistrations(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to close expired registrations", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Info("closed expired tournament registrations", slog.Int64("count", n))
	}
}

func (s *Scheduler) deleteStaleInvites() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-staleInviteTTL)
	n, err := s.transferRepo.DeleteStaleInvites(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to delete stale transfer invites", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Info("deleted stale transfer invites", slog.Int64("count", n))
	}
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

// editRequestThrottle - минимальный интервал между не отклонёнными заявками
// на смену имени/тега одной сущности.
const editRequestThrottle = 90 * 24 * time.Hour

type RequestTeamEditInput struct {
	TeamID int    `json:"team_id"`
	Name   string `json:"name"`
	Tag    string `json:"tag"`
}

type RequestRosterEditInput struct {
	RosterID int     `json:"roster_id"`
	Name     *string `json:"name,omitempty"`
	Tag      *string `json:"tag,omitempty"`
}

// ApprovalService - generic-конвейер заявок: создание команд и ростеров плюс
// заявки на переименование. Approve копирует поля на сущность, Deny
// терминален, все заявки сохраняются.
type ApprovalService interface {
	ApproveTeam(ctx context.Context, teamID int) error
	DenyTeam(ctx context.Context, teamID int) error
	ApproveRoster(ctx context.Context, rosterID int) error
	DenyRoster(ctx context.Context, rosterID int) error

	RequestTeamEdit(ctx context.Context, input RequestTeamEditInput) (*models.TeamEditRequest, error)
	ApproveTeamEdit(ctx context.Context, requestID int) error
	DenyTeamEdit(ctx context.Context, requestID int) error
	ListPendingTeamEdits(ctx context.Context) ([]*models.TeamEditRequest, error)

	RequestRosterEdit(ctx context.Context, input RequestRosterEditInput) (*models.RosterEditRequest, error)
	ApproveRosterEdit(ctx context.Context, requestID int) error
	DenyRosterEdit(ctx context.Context, requestID int) error
	ListPendingRosterEdits(ctx context.Context) ([]*models.RosterEditRequest, error)
}

type approvalService struct {
	txr         TxRunner
	requestRepo repositories.EditRequestRepository
	teamRepo    repositories.TeamRepository
	rosterRepo  repositories.RosterRepository
	notifier    NotificationSink
	logger      *slog.Logger
	now         func() time.Time
}

func NewApprovalService(
	txr TxRunner,
	requestRepo repositories.EditRequestRepository,
	teamRepo repositories.TeamRepository,
	rosterRepo repositories.RosterRepository,
	notifier NotificationSink,
	logger *slog.Logger,
) ApprovalService {
	return &approvalService{
		txr:         txr,
		requestRepo: requestRepo,
		teamRepo:    teamRepo,
		rosterRepo:  rosterRepo,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *approvalService) ApproveTeam(ctx context.Context, teamID int) error {
	return s.setTeamStatus(ctx, teamID, models.ApprovalApproved)
}

func (s *approvalService) DenyTeam(ctx context.Context, teamID int) error {
	return s.setTeamStatus(ctx, teamID, models.ApprovalDenied)
}

func (s *approvalService) setTeamStatus(ctx context.Context, teamID int, status models.ApprovalStatus) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByID(ctx, tx, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.ApprovalStatus != models.ApprovalPending {
			return ErrAlreadyApproved
		}
		if err := s.teamRepo.UpdateApprovalStatus(ctx, tx, teamID, status); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "team approval resolved",
			slog.Int("team_id", teamID), slog.String("status", string(status)))
		return nil
	})
}

func (s *approvalService) ApproveRoster(ctx context.Context, rosterID int) error {
	return s.setRosterStatus(ctx, rosterID, models.ApprovalApproved)
}

func (s *approvalService) DenyRoster(ctx context.Context, rosterID int) error {
	return s.setRosterStatus(ctx, rosterID, models.ApprovalDenied)
}

func (s *approvalService) setRosterStatus(ctx context.Context, rosterID int, status models.ApprovalStatus) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		roster, err := s.rosterRepo.GetByID(ctx, tx, rosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrRosterNotFound) {
				return ErrRosterNotFound
			}
			return err
		}
		if roster.ApprovalStatus != models.ApprovalPending {
			return ErrAlreadyApproved
		}
		if err := s.rosterRepo.UpdateApprovalStatus(ctx, tx, rosterID, status); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "roster approval resolved",
			slog.Int("roster_id", rosterID), slog.String("status", string(status)))
		return nil
	})
}

func (s *approvalService) RequestTeamEdit(ctx context.Context, input RequestTeamEditInput) (*models.TeamEditRequest, error) {
	req := &models.TeamEditRequest{
		TeamID:         input.TeamID,
		Name:           input.Name,
		Tag:            input.Tag,
		Date:           s.now(),
		ApprovalStatus: models.ApprovalPending,
	}

	// Проверка троттла и вставка идут под блокировкой строки команды:
	// два параллельных запроса внутри окна не должны создать две заявки.
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		team, err := s.teamRepo.GetByIDForUpdate(ctx, tx, input.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		if team.ApprovalStatus != models.ApprovalApproved {
			return ErrNotApprovedYet
		}

		if err := s.checkTeamThrottle(ctx, tx, input.TeamID); err != nil {
			return err
		}
		return s.requestRepo.CreateTeamEdit(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// checkTeamThrottle: не отклонённая заявка моложе 90 дней блокирует новую.
// Отклонённые не считаются, иначе отказ наказывал бы повторную попытку.
func (s *approvalService) checkTeamThrottle(ctx context.Context, tx repositories.SQLExecutor, teamID int) error {
	last, err := s.requestRepo.LatestNonDeniedTeamEdit(ctx, tx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrEditRequestNotFound) {
			return nil
		}
		return err
	}
	if s.now().Sub(last.Date) < editRequestThrottle {
		return ErrThrottled
	}
	return nil
}

func (s *approvalService) ApproveTeamEdit(ctx context.Context, requestID int) error {
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		req, err := s.requestRepo.GetTeamEditByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrEditRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.ApprovalStatus != models.ApprovalPending {
			return ErrAlreadyApproved
		}
		if err := s.teamRepo.UpdateNameTag(ctx, tx, req.TeamID, req.Name, req.Tag); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return err
		}
		return s.requestRepo.UpdateTeamEditStatus(ctx, tx, requestID, models.ApprovalApproved)
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, nil, NotifyEditApproved, map[string]int{"request_id": requestID})
	return nil
}

func (s *approvalService) DenyTeamEdit(ctx context.Context, requestID int) error {
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		req, err := s.requestRepo.GetTeamEditByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrEditRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.ApprovalStatus != models.ApprovalPending {
			return ErrAlreadyApproved
		}
		return s.requestRepo.UpdateTeamEditStatus(ctx, tx, requestID, models.ApprovalDenied)
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, nil, NotifyEditDenied, map[string]int{"request_id": requestID})
	return nil
}

func (s *approvalService) ListPendingTeamEdits(ctx context.Context) ([]*models.TeamEditRequest, error) {
	return s.requestRepo.ListPendingTeamEdits(ctx)
}

func (s *approvalService) RequestRosterEdit(ctx context.Context, input RequestRosterEditInput) (*models.RosterEditRequest, error) {
	req := &models.RosterEditRequest{
		RosterID:       input.RosterID,
		Name:           input.Name,
		Tag:            input.Tag,
		Date:           s.now(),
		ApprovalStatus: models.ApprovalPending,
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		roster, err := s.rosterRepo.GetByIDForUpdate(ctx, tx, input.RosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrRosterNotFound) {
				return ErrRosterNotFound
			}
			return err
		}
		if roster.ApprovalStatus != models.ApprovalApproved {
			return ErrNotApprovedYet
		}

		last, err := s.requestRepo.LatestNonDeniedRosterEdit(ctx, tx, input.RosterID)
		if err != nil && !errors.Is(err, repositories.ErrEditRequestNotFound) {
			return err
		}
		if err == nil && s.now().Sub(last.Date) < editRequestThrottle {
			return ErrThrottled
		}
		return s.requestRepo.CreateRosterEdit(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *approvalService) ApproveRosterEdit(ctx context.Context, requestID int) error {
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		req, err := s.requestRepo.GetRosterEditByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrEditRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.ApprovalStatus != models.ApprovalPending {
			return ErrAlreadyApproved
		}
		if err := s.rosterRepo.UpdateNameTag(ctx, tx, req.RosterID, req.Name, req.Tag); err != nil {
			if errors.Is(err, repositories.ErrRosterNameConflict) {
				return ErrRosterNameConflict
			}
			return err
		}
		return s.requestRepo.UpdateRosterEditStatus(ctx, tx, requestID, models.ApprovalApproved)
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, nil, NotifyEditApproved, map[string]int{"request_id": requestID})
	return nil
}

func (s *approvalService) DenyRosterEdit(ctx context.Context, requestID int) error {
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		req, err := s.requestRepo.GetRosterEditByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrEditRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.ApprovalStatus != models.ApprovalPending {
			return ErrAlreadyApproved
		}
		return s.requestRepo.UpdateRosterEditStatus(ctx, tx, requestID, models.ApprovalDenied)
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, nil, NotifyEditDenied, map[string]int{"request_id": requestID})
	return nil
}

func (s *approvalService) ListPendingRosterEdits(ctx context.Context) ([]*models.RosterEditRequest, error) {
	return s.requestRepo.ListPendingRosterEdits(ctx)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

type InvitePlayerInput struct {
	RosterID       int  `json:"roster_id"`
	PlayerID       int  `json:"player_id"`
	IsBaggerClause bool `json:"is_bagger_clause"`
}

// TransferService - конвейер invited -> accepted -> approved/denied.
// Членство меняется только на этапе Approve, одним коммитом вместе
// с каскадом регистраций.
type TransferService interface {
	InvitePlayer(ctx context.Context, input InvitePlayerInput) (*models.TeamTransfer, error)
	// AcceptInvite фиксирует согласие игрока. sourceRosterID - ростер,
	// который игрок покинет при одобрении; nil означает "вступить, никого
	// не покидая".
	AcceptInvite(ctx context.Context, transferID, playerID int, sourceRosterID *int) (*models.TeamTransfer, error)
	DeclineInvite(ctx context.Context, transferID, playerID int) error
	ApproveTransfer(ctx context.Context, transferID int) error
	DenyTransfer(ctx context.Context, transferID int, sendBack bool) error
	ListPendingApproval(ctx context.Context) ([]*models.TeamTransfer, error)
	ListPlayerHistory(ctx context.Context, playerID int) ([]*models.TeamTransfer, error)
}

type transferService struct {
	txr          TxRunner
	transferRepo repositories.TransferRepository
	rosterRepo   repositories.RosterRepository
	memberRepo   repositories.TeamMemberRepository
	playerRepo   repositories.PlayerRepository
	identity     IdentityStore
	consistency  *ConsistencyService
	notifier     NotificationSink
	logger       *slog.Logger
}

func NewTransferService(
	txr TxRunner,
	transferRepo repositories.TransferRepository,
	rosterRepo repositories.RosterRepository,
	memberRepo repositories.TeamMemberRepository,
	playerRepo repositories.PlayerRepository,
	identity IdentityStore,
	consistency *ConsistencyService,
	notifier NotificationSink,
	logger *slog.Logger,
) TransferService {
	return &transferService{
		txr:          txr,
		transferRepo: transferRepo,
		rosterRepo:   rosterRepo,
		memberRepo:   memberRepo,
		playerRepo:   playerRepo,
		identity:     identity,
		consistency:  consistency,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *transferService) InvitePlayer(ctx context.Context, input InvitePlayerInput) (*models.TeamTransfer, error) {
	transfer := &models.TeamTransfer{
		PlayerID:       input.PlayerID,
		RosterID:       &input.RosterID,
		Date:           time.Now(),
		ApprovalStatus: models.ApprovalPending,
		IsBaggerClause: input.IsBaggerClause,
	}

	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		roster, err := s.rosterRepo.GetByID(ctx, tx, input.RosterID)
		if err != nil {
			if errors.Is(err, repositories.ErrRosterNotFound) {
				return ErrRosterNotFound
			}
			return err
		}
		if roster.ApprovalStatus != models.ApprovalApproved {
			return ErrNotApprovedYet
		}
		if !roster.IsActive || !roster.IsRecruiting {
			return ErrNotEligible
		}

		player, err := s.playerRepo.GetByID(ctx, input.PlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		if player.IsBanned {
			return ErrPlayerBanned
		}

		ok, err := s.identity.HasActiveIdentity(ctx, tx, input.PlayerID, roster.Game)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotEligible
		}

		if _, err := s.memberRepo.GetActive(ctx, tx, input.RosterID, input.PlayerID, input.IsBaggerClause); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, repositories.ErrMemberNotFound) {
			return err
		}

		// Два живых приглашения в один ростер с одной ролью не имеют смысла.
		if _, err := s.transferRepo.FindUnresolved(ctx, tx, input.PlayerID, input.RosterID, input.IsBaggerClause); err == nil {
			return ErrAlreadyInvited
		} else if !errors.Is(err, repositories.ErrTransferNotFound) {
			return err
		}

		if err := s.transferRepo.Create(ctx, tx, transfer); err != nil {
			if errors.Is(err, repositories.ErrTransferPlayerInvalid) {
				return ErrPlayerNotFound
			}
			if errors.Is(err, repositories.ErrTransferRosterInvalid) {
				return ErrRosterNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, []int{input.PlayerID}, NotifyTransferInvited, transfer)
	return transfer, nil
}

func (s *transferService) AcceptInvite(ctx context.Context, transferID, playerID int, sourceRosterID *int) (*models.TeamTransfer, error) {
	var transfer *models.TeamTransfer
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		transfer, err = s.transferRepo.GetByIDForUpdate(ctx, tx, transferID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransferNotFound) {
				return ErrTransferNotFound
			}
			return err
		}
		if transfer.PlayerID != playerID {
			return ErrNotOwner
		}
		if transfer.ApprovalStatus != models.ApprovalPending {
			return ErrTransferResolved
		}
		if transfer.IsAccepted {
			return ErrTransferResolved
		}
		if transfer.RosterID == nil {
			return ErrInviteNotPending
		}

		if _, err := s.rosterRepo.GetByID(ctx, tx, *transfer.RosterID); err != nil {
			return err
		}

		// Покидаемый ростер называет сам игрок. Без источника он вступает,
		// оставаясь во всех текущих ростерах.
		transfer.RosterLeaveID = nil
		if sourceRosterID != nil {
			if _, err := s.memberRepo.GetActive(ctx, tx, *sourceRosterID, playerID, transfer.IsBaggerClause); err != nil {
				if errors.Is(err, repositories.ErrMemberNotFound) {
					return ErrNotAMember
				}
				return err
			}
			transfer.RosterLeaveID = sourceRosterID
		}

		transfer.IsAccepted = true
		return s.transferRepo.Update(ctx, tx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *transferService) DeclineInvite(ctx context.Context, transferID, playerID int) error {
	return s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		transfer, err := s.transferRepo.GetByIDForUpdate(ctx, tx, transferID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransferNotFound) {
				return ErrTransferNotFound
			}
			return err
		}
		if transfer.PlayerID != playerID {
			return ErrNotOwner
		}
		if transfer.State() != models.TransferInvited {
			return ErrTransferResolved
		}
		return s.transferRepo.Delete(ctx, tx, transferID)
	})
}

func (s *transferService) ApproveTransfer(ctx context.Context, transferID int) error {
	var (
		transfer   *models.TeamTransfer
		approvedAt time.Time
		cascade    *ReconcileOutcome
	)
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		transfer, err = s.transferRepo.GetByIDForUpdate(ctx, tx, transferID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransferNotFound) {
				return ErrTransferNotFound
			}
			return err
		}
		switch transfer.State() {
		case models.TransferApproved:
			return ErrAlreadyApproved
		case models.TransferDenied:
			return ErrTransferResolved
		case models.TransferInvited:
			return ErrNotYetAccepted
		}

		approvedAt = time.Now()

		if transfer.RosterLeaveID != nil {
			old, err := s.memberRepo.GetActiveForUpdate(ctx, tx, *transfer.RosterLeaveID, transfer.PlayerID, transfer.IsBaggerClause)
			if err != nil {
				if errors.Is(err, repositories.ErrMemberNotFound) {
					// Членство уже закрыто другим путём, трансфер всё равно
					// переводим дальше.
					transfer.RosterLeaveID = nil
				} else {
					return err
				}
			} else if err := s.memberRepo.Close(ctx, tx, old.ID, approvedAt); err != nil {
				return err
			}
		}

		if transfer.RosterID != nil {
			member := &models.TeamMember{
				RosterID:       *transfer.RosterID,
				PlayerID:       transfer.PlayerID,
				JoinDate:       approvedAt,
				IsBaggerClause: transfer.IsBaggerClause,
			}
			if err := s.memberRepo.Insert(ctx, tx, member); err != nil {
				if errors.Is(err, repositories.ErrMemberConflict) {
					return ErrAlreadyMember
				}
				return err
			}
		}

		transfer.ApprovalStatus = models.ApprovalApproved
		if err := s.transferRepo.Update(ctx, tx, transfer); err != nil {
			return fmt.Errorf("failed to mark transfer approved: %w", err)
		}

		cascade, err = s.consistency.ReconcileRosterChange(ctx, tx,
			transfer.PlayerID, transfer.RosterLeaveID, transfer.RosterID, transfer.IsBaggerClause)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("transfer approved",
		slog.Int("transfer_id", transferID),
		slog.Int("player_id", transfer.PlayerID),
		slog.Time("at", approvedAt))
	s.notifier.Notify(ctx, []int{transfer.PlayerID}, NotifyTransferApproved, transfer)
	cascade.NotifyVia(ctx, s.notifier)
	return nil
}

func (s *transferService) DenyTransfer(ctx context.Context, transferID int, sendBack bool) error {
	var transfer *models.TeamTransfer
	err := s.txr.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		transfer, err = s.transferRepo.GetByIDForUpdate(ctx, tx, transferID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransferNotFound) {
				return ErrTransferNotFound
			}
			return err
		}
		switch transfer.State() {
		case models.TransferApproved:
			return ErrAlreadyApproved
		case models.TransferDenied:
			return ErrTransferResolved
		case models.TransferInvited:
			return ErrNotYetAccepted
		}

		if sendBack {
			// Возврат игроку на повторное решение вместо терминального отказа.
			transfer.IsAccepted = false
			transfer.RosterLeaveID = nil
		} else {
			transfer.ApprovalStatus = models.ApprovalDenied
		}
		return s.transferRepo.Update(ctx, tx, transfer)
	})
	if err != nil {
		return err
	}

	if !sendBack {
		s.notifier.Notify(ctx, []int{transfer.PlayerID}, NotifyTransferDenied, transfer)
	}
	return nil
}

func (s *transferService) ListPendingApproval(ctx context.Context) ([]*models.TeamTransfer, error) {
	return s.transferRepo.ListPendingApproval(ctx)
}

func (s *transferService) ListPlayerHistory(ctx context.Context, playerID int) ([]*models.TeamTransfer, error) {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return s.transferRepo.ListByPlayer(ctx, playerID)
}

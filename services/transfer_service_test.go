package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarioKartCentral/registry/models"
	"github.com/MarioKartCentral/registry/repositories"
)

func approvedRoster(id int) *models.Roster {
	return &models.Roster{
		ID:             id,
		TeamID:         1,
		Game:           "mk8dx",
		Mode:           "150cc",
		ApprovalStatus: models.ApprovalApproved,
		IsActive:       true,
		IsRecruiting:   true,
	}
}

func newTransferService(
	transferRepo *fakeTransferRepo,
	rosterRepo *fakeRosterRepo,
	memberRepo *fakeMemberRepo,
	playerRepo *fakePlayerRepo,
	notifier *recordingNotifier,
) TransferService {
	regRepo := &fakeRegistrationRepo{}
	return NewTransferService(
		fakeTxRunner{},
		transferRepo,
		rosterRepo,
		memberRepo,
		playerRepo,
		&fakeIdentity{},
		NewConsistencyService(regRepo, memberRepo, testLogger()),
		notifier,
		testLogger(),
	)
}

func TestInvitePlayer_CreatesPendingTransferAndNotifies(t *testing.T) {
	transferRepo := &fakeTransferRepo{}
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return approvedRoster(id), nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newTransferService(transferRepo, rosterRepo, &fakeMemberRepo{}, &fakePlayerRepo{}, notifier)

	transfer, err := svc.InvitePlayer(context.Background(), InvitePlayerInput{RosterID: 3, PlayerID: 42})
	require.NoError(t, err)

	assert.Equal(t, models.TransferInvited, transfer.State())
	require.NotNil(t, transfer.RosterID)
	assert.Equal(t, 3, *transfer.RosterID)
	assert.False(t, transfer.IsAccepted)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, NotifyTransferInvited, notifier.events[0].kind)
	assert.Equal(t, []int{42}, notifier.events[0].playerIDs)
}

func TestInvitePlayer_RosterMustBeApproved(t *testing.T) {
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			r := approvedRoster(id)
			r.ApprovalStatus = models.ApprovalPending
			return r, nil
		},
	}
	svc := newTransferService(&fakeTransferRepo{}, rosterRepo, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.InvitePlayer(context.Background(), InvitePlayerInput{RosterID: 3, PlayerID: 42})
	assert.ErrorIs(t, err, ErrNotApprovedYet)
}

func TestInvitePlayer_BannedPlayerRejected(t *testing.T) {
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return approvedRoster(id), nil
		},
	}
	playerRepo := &fakePlayerRepo{
		GetByIDFunc: func(_ context.Context, id int) (*models.Player, error) {
			return &models.Player{ID: id, IsBanned: true}, nil
		},
	}
	svc := newTransferService(&fakeTransferRepo{}, rosterRepo, &fakeMemberRepo{}, playerRepo, &recordingNotifier{})

	_, err := svc.InvitePlayer(context.Background(), InvitePlayerInput{RosterID: 3, PlayerID: 42})
	assert.ErrorIs(t, err, ErrPlayerBanned)
}

func TestInvitePlayer_DuplicateInviteRejected(t *testing.T) {
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return approvedRoster(id), nil
		},
	}
	transferRepo := &fakeTransferRepo{
		FindUnresolvedFunc: func(_ context.Context, _ repositories.SQLExecutor, playerID, rosterID int, _ bool) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{ID: 1, PlayerID: playerID, RosterID: &rosterID}, nil
		},
	}
	svc := newTransferService(transferRepo, rosterRepo, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.InvitePlayer(context.Background(), InvitePlayerInput{RosterID: 3, PlayerID: 42})
	assert.ErrorIs(t, err, ErrAlreadyInvited)
}

func pendingInviteRepo(rosterID *int) *fakeTransferRepo {
	return &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{
				ID:             id,
				PlayerID:       42,
				RosterID:       rosterID,
				ApprovalStatus: models.ApprovalPending,
			}, nil
		},
	}
}

func TestAcceptInvite_ExplicitSourceSetsLeaveRoster(t *testing.T) {
	rosterID, sourceID := 3, 5
	transferRepo := pendingInviteRepo(&rosterID)
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return approvedRoster(id), nil
		},
	}
	memberRepo := &fakeMemberRepo{
		GetActiveFunc: func(_ context.Context, _ repositories.SQLExecutor, rID, pID int, _ bool) (*models.TeamMember, error) {
			if rID == sourceID && pID == 42 {
				return &models.TeamMember{ID: 2, RosterID: rID, PlayerID: pID}, nil
			}
			return nil, repositories.ErrMemberNotFound
		},
	}
	svc := newTransferService(transferRepo, rosterRepo, memberRepo, &fakePlayerRepo{}, &recordingNotifier{})

	transfer, err := svc.AcceptInvite(context.Background(), 1, 42, &sourceID)
	require.NoError(t, err)

	assert.True(t, transfer.IsAccepted)
	assert.Equal(t, models.TransferAccepted, transfer.State())
	require.NotNil(t, transfer.RosterLeaveID)
	assert.Equal(t, sourceID, *transfer.RosterLeaveID)
	require.Len(t, transferRepo.updated, 1)
}

func TestAcceptInvite_SourceWithoutActiveMembershipRejected(t *testing.T) {
	rosterID, sourceID := 3, 5
	transferRepo := pendingInviteRepo(&rosterID)
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return approvedRoster(id), nil
		},
	}
	svc := newTransferService(transferRepo, rosterRepo, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.AcceptInvite(context.Background(), 1, 42, &sourceID)
	assert.ErrorIs(t, err, ErrNotAMember)
	assert.Empty(t, transferRepo.updated)
}

func TestAcceptInvite_WithoutSourceJoinsWithoutLeaving(t *testing.T) {
	rosterID := 3
	transferRepo := pendingInviteRepo(&rosterID)
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return approvedRoster(id), nil
		},
	}
	svc := newTransferService(transferRepo, rosterRepo, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	transfer, err := svc.AcceptInvite(context.Background(), 1, 42, nil)
	require.NoError(t, err)

	assert.True(t, transfer.IsAccepted)
	assert.Nil(t, transfer.RosterLeaveID)
	require.Len(t, transferRepo.updated, 1)
}

func TestAcceptInvite_OnlyInvitedPlayerMayAccept(t *testing.T) {
	rosterID := 3
	transferRepo := pendingInviteRepo(&rosterID)
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.AcceptInvite(context.Background(), 1, 99, nil)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeclineInvite_DeletesPendingInvite(t *testing.T) {
	rosterID := 3
	transferRepo := &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{ID: id, PlayerID: 42, RosterID: &rosterID, ApprovalStatus: models.ApprovalPending}, nil
		},
	}
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	require.NoError(t, svc.DeclineInvite(context.Background(), 1, 42))
	assert.Equal(t, []int{1}, transferRepo.deleted)
}

func TestApproveTransfer_MovesMembershipInOneCommit(t *testing.T) {
	rosterID, leaveID := 3, 5
	transferRepo := &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{
				ID:             id,
				PlayerID:       42,
				RosterID:       &rosterID,
				RosterLeaveID:  &leaveID,
				IsAccepted:     true,
				ApprovalStatus: models.ApprovalPending,
			}, nil
		},
	}
	memberRepo := &fakeMemberRepo{
		GetActiveForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, rID, pID int, _ bool) (*models.TeamMember, error) {
			return &models.TeamMember{ID: 77, RosterID: rID, PlayerID: pID, JoinDate: time.Now().Add(-time.Hour)}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, memberRepo, &fakePlayerRepo{}, notifier)

	err := svc.ApproveTransfer(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []int{77}, memberRepo.closed)
	require.Len(t, memberRepo.inserted, 1)
	assert.Equal(t, rosterID, memberRepo.inserted[0].RosterID)
	assert.Equal(t, 42, memberRepo.inserted[0].PlayerID)

	require.Len(t, transferRepo.updated, 1)
	assert.Equal(t, models.ApprovalApproved, transferRepo.updated[0].ApprovalStatus)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, NotifyTransferApproved, notifier.events[0].kind)
}

func TestApproveTransfer_RequiresAcceptanceFirst(t *testing.T) {
	rosterID := 3
	transferRepo := &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{ID: id, PlayerID: 42, RosterID: &rosterID, ApprovalStatus: models.ApprovalPending}, nil
		},
	}
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.ApproveTransfer(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotYetAccepted)
}

func TestApproveTransfer_SecondApproveFails(t *testing.T) {
	rosterID := 3
	transferRepo := &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{ID: id, PlayerID: 42, RosterID: &rosterID, IsAccepted: true, ApprovalStatus: models.ApprovalApproved}, nil
		},
	}
	memberRepo := &fakeMemberRepo{}
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, memberRepo, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.ApproveTransfer(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAlreadyApproved)
	assert.Empty(t, memberRepo.inserted)
	assert.Empty(t, memberRepo.closed)
}

func TestDenyTransfer_SendBackResetsAcceptance(t *testing.T) {
	rosterID, leaveID := 3, 5
	transferRepo := &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{
				ID:             id,
				PlayerID:       42,
				RosterID:       &rosterID,
				RosterLeaveID:  &leaveID,
				IsAccepted:     true,
				ApprovalStatus: models.ApprovalPending,
			}, nil
		},
	}
	memberRepo := &fakeMemberRepo{}
	notifier := &recordingNotifier{}
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, memberRepo, &fakePlayerRepo{}, notifier)

	err := svc.DenyTransfer(context.Background(), 1, true)
	require.NoError(t, err)

	require.Len(t, transferRepo.updated, 1)
	got := transferRepo.updated[0]
	assert.False(t, got.IsAccepted)
	assert.Nil(t, got.RosterLeaveID)
	assert.Equal(t, models.ApprovalPending, got.ApprovalStatus)
	assert.Equal(t, models.TransferInvited, got.State())

	// Членства не трогаются ни при send_back, ни при обычном отказе.
	assert.Empty(t, memberRepo.inserted)
	assert.Empty(t, memberRepo.closed)
	assert.Empty(t, notifier.events)
}

func TestDenyTransfer_TerminalDenyKeepsRecordAndNotifies(t *testing.T) {
	rosterID := 3
	transferRepo := &fakeTransferRepo{
		GetByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TeamTransfer, error) {
			return &models.TeamTransfer{ID: id, PlayerID: 42, RosterID: &rosterID, IsAccepted: true, ApprovalStatus: models.ApprovalPending}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newTransferService(transferRepo, &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, notifier)

	err := svc.DenyTransfer(context.Background(), 1, false)
	require.NoError(t, err)

	require.Len(t, transferRepo.updated, 1)
	assert.Equal(t, models.ApprovalDenied, transferRepo.updated[0].ApprovalStatus)
	assert.Empty(t, transferRepo.deleted)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, NotifyTransferDenied, notifier.events[0].kind)
}

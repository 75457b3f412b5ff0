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

func soloTournament() *models.Tournament {
	return &models.Tournament{
		ID:                1,
		Name:              "Weekly Solo",
		Game:              "mk8dx",
		Mode:              "150cc",
		RegistrationsOpen: true,
		DateStart:         time.Now().Add(24 * time.Hour),
		DateEnd:           time.Now().Add(48 * time.Hour),
	}
}

func squadTournament() *models.Tournament {
	t := soloTournament()
	t.IsSquad = true
	max := 6
	t.MaxSquadSize = &max
	return t
}

func newRegistrationService(
	regRepo *fakeRegistrationRepo,
	tournamentRepo *fakeTournamentRepo,
	rosterRepo *fakeRosterRepo,
	memberRepo *fakeMemberRepo,
	playerRepo *fakePlayerRepo,
	notifier *recordingNotifier,
) RegistrationService {
	return NewRegistrationService(
		fakeTxRunner{},
		regRepo,
		tournamentRepo,
		rosterRepo,
		memberRepo,
		playerRepo,
		NewConsistencyService(regRepo, memberRepo, testLogger()),
		notifier,
		testLogger(),
	)
}

func tournamentRepoFor(t *models.Tournament) *fakeTournamentRepo {
	return &fakeTournamentRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
			if id != t.ID {
				return nil, repositories.ErrTournamentNotFound
			}
			return t, nil
		},
	}
}

func TestRegisterSolo_CreatesPlaceholderSquad(t *testing.T) {
	regRepo := &fakeRegistrationRepo{}
	svc := newRegistrationService(regRepo, tournamentRepoFor(soloTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	tp, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42})
	require.NoError(t, err)

	require.Len(t, regRepo.createdSquads, 1)
	placeholder := regRepo.createdSquads[0]
	assert.True(t, placeholder.IsRegistered)
	assert.True(t, placeholder.IsApproved)
	assert.Nil(t, placeholder.Name)

	assert.Equal(t, placeholder.ID, tp.RegistrationID)
	assert.True(t, tp.IsApproved)
	assert.False(t, tp.IsInvite)
}

func TestRegisterSolo_ClosedRegistrations(t *testing.T) {
	tournament := soloTournament()
	tournament.RegistrationsOpen = false
	svc := newRegistrationService(&fakeRegistrationRepo{}, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42})
	assert.ErrorIs(t, err, ErrRegistrationsClosed)
}

func TestRegisterSolo_PrivilegedBypassesClosedRegistrations(t *testing.T) {
	tournament := soloTournament()
	tournament.RegistrationsOpen = false
	svc := newRegistrationService(&fakeRegistrationRepo{}, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42, Privileged: true})
	assert.NoError(t, err)
}

func TestRegisterSolo_BaggerClauseDisabled(t *testing.T) {
	svc := newRegistrationService(&fakeRegistrationRepo{}, tournamentRepoFor(soloTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42, IsBaggerClause: true})
	assert.ErrorIs(t, err, ErrBaggerNotEnabled)
}

func TestRegisterSolo_DuplicateConfirmedRegistration(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		FindConfirmedRegistrationFunc: func(_ context.Context, _ repositories.SQLExecutor, tournamentID, playerID int, _ bool) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: 1, PlayerID: playerID, TournamentID: tournamentID}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(soloTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Empty(t, regRepo.createdSquads)
}

func TestRegisterSolo_MiiNameRequired(t *testing.T) {
	tournament := soloTournament()
	tournament.MiiNameRequired = true
	svc := newRegistrationService(&fakeRegistrationRepo{}, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42})
	assert.ErrorIs(t, err, ErrMiiNameRequired)
}

func TestRegisterSolo_SingleFCSelectionRequired(t *testing.T) {
	tournament := soloTournament()
	tournament.RequireSingleFC = true
	playerRepo := &fakePlayerRepo{
		CountActiveFriendCodesFunc: func(_ context.Context, _ repositories.SQLExecutor, _ int, _ string) (int, error) {
			return 2, nil
		},
	}
	svc := newRegistrationService(&fakeRegistrationRepo{}, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, playerRepo, &recordingNotifier{})

	_, err := svc.RegisterSolo(context.Background(), RegisterSoloInput{TournamentID: 1, PlayerID: 42})
	assert.ErrorIs(t, err, ErrFCSelectionRequired)
}

func TestCreateSquad_RequiresNameWhenConfigured(t *testing.T) {
	tournament := squadTournament()
	tournament.SquadNameRequired = true
	svc := newRegistrationService(&fakeRegistrationRepo{}, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.CreateSquad(context.Background(), CreateSquadInput{TournamentID: 1, CaptainID: 42})
	assert.ErrorIs(t, err, ErrSquadNameRequired)
}

func TestCreateSquad_CaptainGetsCaptainFlag(t *testing.T) {
	regRepo := &fakeRegistrationRepo{}
	name := "Mushroom Kingdom"
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	squad, err := svc.CreateSquad(context.Background(), CreateSquadInput{TournamentID: 1, CaptainID: 42, Name: &name})
	require.NoError(t, err)

	require.Len(t, regRepo.insertedPlayers, 1)
	captain := regRepo.insertedPlayers[0]
	assert.True(t, captain.IsSquadCaptain)
	assert.True(t, captain.IsApproved)
	assert.Equal(t, squad.ID, captain.RegistrationID)
}

func TestRegisterSquadMember_SquadFull(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		CountConfirmedPlayersFunc: func(_ context.Context, _ repositories.SQLExecutor, _ int) (int, error) {
			return 6, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSquadMember(context.Background(), RegisterSquadMemberInput{TournamentID: 1, RegistrationID: 1, PlayerID: 42})
	assert.ErrorIs(t, err, ErrSquadFull)
	assert.Empty(t, regRepo.insertedPlayers)
}

func TestRegisterSquadMember_InviteSkipsCapacityAndNotifies(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		CountConfirmedPlayersFunc: func(_ context.Context, _ repositories.SQLExecutor, _ int) (int, error) {
			return 6, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, notifier)

	tp, err := svc.RegisterSquadMember(context.Background(), RegisterSquadMemberInput{TournamentID: 1, RegistrationID: 1, PlayerID: 42, IsInvite: true})
	require.NoError(t, err)

	assert.True(t, tp.IsInvite)
	assert.False(t, tp.IsApproved)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, NotifySquadInvited, notifier.events[0].kind)
}

func TestRegisterSquadMember_TeamMembersOnlyRequiresBackingRoster(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		ListSquadRosterIDsFunc: func(_ context.Context, _ repositories.SQLExecutor, _ int) ([]int, error) {
			return []int{7}, nil
		},
	}
	tournament := squadTournament()
	tournament.TeamsAllowed = true
	tournament.TeamMembersOnly = true
	svc := newRegistrationService(regRepo, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	_, err := svc.RegisterSquadMember(context.Background(), RegisterSquadMemberInput{TournamentID: 1, RegistrationID: 1, PlayerID: 42})
	assert.ErrorIs(t, err, ErrNotTeamMember)
}

func TestAcceptSquadInvite_RunsDeferredValidation(t *testing.T) {
	tournament := squadTournament()
	tournament.MiiNameRequired = true
	regRepo := &fakeRegistrationRepo{
		GetPlayerByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: id, PlayerID: 42, TournamentID: 1, RegistrationID: 3, IsInvite: true}, nil
		},
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(tournament), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.AcceptSquadInvite(context.Background(), ConfirmSquadInviteInput{TournamentPlayerID: 10, PlayerID: 42})
	assert.ErrorIs(t, err, ErrMiiNameRequired)

	mii := "Luigi"
	err = svc.AcceptSquadInvite(context.Background(), ConfirmSquadInviteInput{TournamentPlayerID: 10, PlayerID: 42, MiiName: &mii})
	require.NoError(t, err)
	assert.Equal(t, []int{10}, regRepo.confirmed)
}

func TestAcceptSquadInvite_ConcurrentConfirmMapsToAlreadyRegistered(t *testing.T) {
	// Гонка двух подтверждений: проигравший упирается в частичный
	// уникальный индекс и должен получить доменный конфликт, а не 500.
	regRepo := &fakeRegistrationRepo{
		GetPlayerByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: id, PlayerID: 42, TournamentID: 1, RegistrationID: 3, IsInvite: true}, nil
		},
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		ConfirmInviteFunc: func(_ context.Context, _ repositories.SQLExecutor, _ int, _ *string, _ *int) error {
			return repositories.ErrRegistrationConflict
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.AcceptSquadInvite(context.Background(), ConfirmSquadInviteInput{TournamentPlayerID: 10, PlayerID: 42})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestAcceptSquadInvite_OnlyInvitedPlayer(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetPlayerByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: id, PlayerID: 42, TournamentID: 1, RegistrationID: 3, IsInvite: true}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.AcceptSquadInvite(context.Background(), ConfirmSquadInviteInput{TournamentPlayerID: 10, PlayerID: 99})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUnregister_LastPlayerAutoWithdrawsSquad(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		FindSquadPlayerFunc: func(_ context.Context, _ repositories.SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: 10, PlayerID: playerID, TournamentID: 1, RegistrationID: registrationID}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.Unregister(context.Background(), 1, 3, 42)
	require.NoError(t, err)

	assert.Equal(t, []int{10}, regRepo.deletedPlayers)
	assert.Equal(t, []int{3}, regRepo.withdrawn)
	assert.Equal(t, []int{3}, regRepo.invitesCleared)
}

func TestUnregister_CaptainMustTransferFirst(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		FindSquadPlayerFunc: func(_ context.Context, _ repositories.SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: 10, PlayerID: playerID, TournamentID: 1, RegistrationID: registrationID, IsSquadCaptain: true}, nil
		},
		CountConfirmedPlayersFunc: func(_ context.Context, _ repositories.SQLExecutor, _ int) (int, error) {
			return 3, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.Unregister(context.Background(), 1, 3, 42)
	assert.ErrorIs(t, err, ErrCaptainMustTransferFirst)
	assert.Empty(t, regRepo.deletedPlayers)
}

func TestKickFromSquad_OnlyCaptainMayKick(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		FindSquadPlayerFunc: func(_ context.Context, _ repositories.SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error) {
			return &models.TournamentPlayer{ID: playerID, PlayerID: playerID, RegistrationID: registrationID}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.KickFromSquad(context.Background(), 3, 42, 99)
	assert.ErrorIs(t, err, ErrNotCaptain)
}

func TestChangeSquadCaptain_PendingInviteCannotBeCaptain(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		FindSquadPlayerFunc: func(_ context.Context, _ repositories.SQLExecutor, registrationID, playerID int) (*models.TournamentPlayer, error) {
			tp := &models.TournamentPlayer{ID: playerID, PlayerID: playerID, RegistrationID: registrationID}
			switch playerID {
			case 99:
				tp.IsSquadCaptain = true
			case 42:
				tp.IsInvite = true
			}
			return tp, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.ChangeSquadCaptain(context.Background(), 3, 42, 99)
	assert.ErrorIs(t, err, ErrInviteNotPending)
	assert.Empty(t, regRepo.captainSet)
}

func TestLinkRosterToSquad_TriggersAdditionCascade(t *testing.T) {
	tournament := squadTournament()
	tournament.TeamsAllowed = true
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
		ListAutoAddCandidatesFunc: func(_ context.Context, _ repositories.SQLExecutor, playerID, rosterID int, _ bool) ([]repositories.AutoAddCandidate, error) {
			return []repositories.AutoAddCandidate{{RegistrationID: 3, TournamentID: 1}}, nil
		},
	}
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return &models.Roster{ID: id, Game: "mk8dx", Mode: "150cc", ApprovalStatus: models.ApprovalApproved, IsActive: true}, nil
		},
	}
	memberRepo := &fakeMemberRepo{
		ListActiveByRosterFunc: func(_ context.Context, _ repositories.SQLExecutor, rosterID int) ([]*models.TeamMember, error) {
			return []*models.TeamMember{{ID: 1, RosterID: rosterID, PlayerID: 11}}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := newRegistrationService(regRepo, tournamentRepoFor(tournament), rosterRepo, memberRepo, &fakePlayerRepo{}, notifier)

	err := svc.LinkRosterToSquad(context.Background(), 3, 7)
	require.NoError(t, err)

	require.Len(t, regRepo.linked, 1)
	assert.Equal(t, 7, regRepo.linked[0].RosterID)
	require.Len(t, regRepo.insertedPlayers, 1)
	assert.Equal(t, 11, regRepo.insertedPlayers[0].PlayerID)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, NotifyAutoRegistered, notifier.events[0].kind)
	assert.Equal(t, []int{11}, notifier.events[0].playerIDs)
}

func TestLinkRosterToSquad_GameAndModeMustMatch(t *testing.T) {
	tournament := squadTournament()
	tournament.TeamsAllowed = true
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
	}
	rosterRepo := &fakeRosterRepo{
		GetByIDFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Roster, error) {
			return &models.Roster{ID: id, Game: "mkworld", Mode: "150cc", ApprovalStatus: models.ApprovalApproved}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(tournament), rosterRepo, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.LinkRosterToSquad(context.Background(), 3, 7)
	assert.ErrorIs(t, err, ErrNotEligible)
	assert.Empty(t, regRepo.linked)
}

func TestWithdrawSquad_PrivilegedSkipsCaptainCheck(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		GetSquadByIDForUpdateFunc: func(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentRegistration, error) {
			return &models.TournamentRegistration{ID: id, TournamentID: 1, IsRegistered: true}, nil
		},
	}
	svc := newRegistrationService(regRepo, tournamentRepoFor(squadTournament()), &fakeRosterRepo{}, &fakeMemberRepo{}, &fakePlayerRepo{}, &recordingNotifier{})

	err := svc.WithdrawSquad(context.Background(), 3, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, regRepo.withdrawn)
	assert.Equal(t, []int{3}, regRepo.invitesCleared)
}

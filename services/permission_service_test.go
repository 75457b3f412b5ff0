package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarioKartCentral/registry/models"
)

func intPtr(v int) *int { return &v }

func TestHasPermission_ResolutionOrder(t *testing.T) {
	tests := []struct {
		name   string
		grants []models.PermissionGrant
		scope  PermissionScopeRef
		want   bool
	}{
		{
			name: "global grant applies everywhere",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeGlobal},
			},
			scope: PermissionScopeRef{TournamentID: intPtr(1)},
			want:  true,
		},
		{
			name:   "no grants means no access",
			grants: nil,
			scope:  PermissionScopeRef{TournamentID: intPtr(1)},
			want:   false,
		},
		{
			name: "tournament deny overrides global grant",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeGlobal},
				{Scope: models.ScopeTournament, ScopeID: intPtr(1), IsDenied: true},
			},
			scope: PermissionScopeRef{TournamentID: intPtr(1)},
			want:  false,
		},
		{
			name: "tournament grant overrides series deny",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeSeries, ScopeID: intPtr(7), IsDenied: true},
				{Scope: models.ScopeTournament, ScopeID: intPtr(1)},
			},
			scope: PermissionScopeRef{TournamentID: intPtr(1), SeriesID: intPtr(7)},
			want:  true,
		},
		{
			name: "series grant falls through to tournament without rows",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeSeries, ScopeID: intPtr(7)},
			},
			scope: PermissionScopeRef{TournamentID: intPtr(1), SeriesID: intPtr(7)},
			want:  true,
		},
		{
			name: "team grant ignored for unrelated team",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeTeam, ScopeID: intPtr(5)},
			},
			scope: PermissionScopeRef{TeamID: intPtr(6)},
			want:  false,
		},
		{
			name: "deny beats grant at the same level",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeTeam, ScopeID: intPtr(5)},
				{Scope: models.ScopeTeam, ScopeID: intPtr(5), IsDenied: true},
			},
			scope: PermissionScopeRef{TeamID: intPtr(5)},
			want:  false,
		},
		{
			name: "scoped rows are skipped when request has no scope",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeTournament, ScopeID: intPtr(1)},
			},
			scope: PermissionScopeRef{},
			want:  false,
		},
		{
			name: "global deny blocks unscoped request",
			grants: []models.PermissionGrant{
				{Scope: models.ScopeGlobal, IsDenied: true},
			},
			scope: PermissionScopeRef{},
			want:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewPermissionService(&fakeRoleRepo{grants: tc.grants})

			got, err := svc.HasPermission(context.Background(), 1, models.PermManageTournaments, tc.scope)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

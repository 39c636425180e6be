// Copyright (c) 2026 Vacaplan. All rights reserved.

package team_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacaplan/vacaplan/internal/audit"
	"github.com/vacaplan/vacaplan/internal/authz"
	"github.com/vacaplan/vacaplan/internal/org/team"
	"github.com/vacaplan/vacaplan/internal/platform/apperr"
	"github.com/vacaplan/vacaplan/internal/platform/sec"
)

// memoryRepository is an in-memory [team.Repository] double.
type memoryRepository struct {
	teams       map[string]*team.Team
	memberships []*team.Membership
	assignments []*team.ManagerAssignment
}

func newMemoryRepository(teams ...*team.Team) *memoryRepository {
	repository := &memoryRepository{teams: map[string]*team.Team{}}
	for _, entry := range teams {
		repository.teams[entry.ID] = entry
	}
	return repository
}

func (repository *memoryRepository) ListByCompany(_ context.Context, companyID string) ([]*team.Team, error) {
	var matched []*team.Team
	for _, entry := range repository.teams {
		if entry.CompanyID == companyID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*team.Team, error) {
	if entry, ok := repository.teams[id]; ok {
		return entry, nil
	}
	return nil, apperr.NotFound("team")
}

func (repository *memoryRepository) Create(_ context.Context, entry *team.Team) error {
	repository.teams[entry.ID] = entry
	return nil
}

func (repository *memoryRepository) Update(_ context.Context, entry *team.Team) error {
	repository.teams[entry.ID] = entry
	return nil
}

func (repository *memoryRepository) SoftDelete(_ context.Context, id string) error {
	delete(repository.teams, id)
	return nil
}

func (repository *memoryRepository) ListMembers(_ context.Context, teamID string) ([]*team.Membership, error) {
	var matched []*team.Membership
	for _, member := range repository.memberships {
		if member.TeamID == teamID && member.LeftAt == nil {
			matched = append(matched, member)
		}
	}
	return matched, nil
}

func (repository *memoryRepository) AddMember(_ context.Context, membership *team.Membership) error {
	repository.memberships = append(repository.memberships, membership)
	return nil
}

func (repository *memoryRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	for _, member := range repository.memberships {
		if member.TeamID == teamID && member.UserID == userID && member.LeftAt == nil {
			now := member.JoinedAt
			member.LeftAt = &now
			return nil
		}
	}
	return apperr.NotFound("membership")
}

func (repository *memoryRepository) ListManagers(_ context.Context, teamID string) ([]*team.ManagerAssignment, error) {
	var matched []*team.ManagerAssignment
	for _, assignment := range repository.assignments {
		if assignment.TeamID == teamID {
			matched = append(matched, assignment)
		}
	}
	return matched, nil
}

func (repository *memoryRepository) AssignManager(_ context.Context, assignment *team.ManagerAssignment) error {
	repository.assignments = append(repository.assignments, assignment)
	return nil
}

func (repository *memoryRepository) UnassignManager(_ context.Context, teamID, managerID string) error {
	for index, assignment := range repository.assignments {
		if assignment.TeamID == teamID && assignment.ManagerID == managerID {
			repository.assignments = append(repository.assignments[:index], repository.assignments[index+1:]...)
			return nil
		}
	}
	return apperr.NotFound("assignment")
}

// auditRepository is a no-op audit store for service wiring.
type auditRepository struct{}

func (auditRepository) Insert(context.Context, *audit.Event) error           { return nil }
func (auditRepository) InsertTx(context.Context, pgx.Tx, *audit.Event) error { return nil }
func (auditRepository) FindByID(context.Context, string, string) (*audit.Event, error) {
	return nil, nil
}
func (auditRepository) List(context.Context, string, audit.Filter, int, int) ([]*audit.Event, int, error) {
	return nil, 0, nil
}

func newService(repository team.Repository) *team.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kernel := authz.NewKernel()
	recorder := audit.NewRecorder(auditRepository{}, kernel, logger)
	return team.NewService(repository, kernel, recorder, logger)
}

func admin() authz.Principal {
	return authz.Principal{UserID: "admin-1", CompanyID: "co-1", Role: sec.RoleAdmin}
}

func manager(teamIDs ...string) authz.Principal {
	return authz.Principal{UserID: "manager-1", CompanyID: "co-1", Role: sec.RoleManager, ManagedTeamIDs: teamIDs}
}

func member() authz.Principal {
	return authz.Principal{UserID: "user-1", CompanyID: "co-1", Role: sec.RoleUser}
}

/*
TestGetTeam_CrossTenantReadsAsNotFound verifies a foreign team is
indistinguishable from a missing one.
*/
func TestGetTeam_CrossTenantReadsAsNotFound(t *testing.T) {
	service := newService(newMemoryRepository(
		&team.Team{ID: "team-x", CompanyID: "co-2", Name: "Foreign"},
	))

	_, err := service.GetTeam(context.Background(), admin(), "team-x")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	assert.True(t, authz.IsCrossTenant(err))
}

/*
TestAddMember_ManagerScope checks that managers may change rosters only
on teams they manage.
*/
func TestAddMember_ManagerScope(t *testing.T) {
	repository := newMemoryRepository(
		&team.Team{ID: "team-1", CompanyID: "co-1", Name: "Platform"},
		&team.Team{ID: "team-2", CompanyID: "co-1", Name: "Mobile"},
	)
	service := newService(repository)

	err := service.AddMember(context.Background(), manager("team-1"), &team.Membership{
		TeamID: "team-1", UserID: "user-9", IsPrimary: true,
	})
	require.NoError(t, err)

	err = service.AddMember(context.Background(), manager("team-1"), &team.Membership{
		TeamID: "team-2", UserID: "user-9",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	err = service.AddMember(context.Background(), member(), &team.Membership{
		TeamID: "team-1", UserID: "user-9",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
}

/*
TestRemoveMember_RetainsHistory verifies leaving stamps left_at instead
of deleting, and that the active roster shrinks.
*/
func TestRemoveMember_RetainsHistory(t *testing.T) {
	repository := newMemoryRepository(&team.Team{ID: "team-1", CompanyID: "co-1", Name: "Platform"})
	service := newService(repository)

	require.NoError(t, service.AddMember(context.Background(), admin(), &team.Membership{
		TeamID: "team-1", UserID: "user-9",
	}))
	require.NoError(t, service.RemoveMember(context.Background(), admin(), "team-1", "user-9"))

	roster, err := service.ListMembers(context.Background(), admin(), "team-1")
	require.NoError(t, err)
	assert.Empty(t, roster)
	require.Len(t, repository.memberships, 1)
	assert.NotNil(t, repository.memberships[0].LeftAt)
}

/*
TestAssignManager_AdminOnly verifies the grant path and its role gate.
*/
func TestAssignManager_AdminOnly(t *testing.T) {
	repository := newMemoryRepository(&team.Team{ID: "team-1", CompanyID: "co-1", Name: "Platform"})
	service := newService(repository)

	require.NoError(t, service.AssignManager(context.Background(), admin(), "team-1", "manager-1"))

	assignments, err := service.ListManagers(context.Background(), admin(), "team-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "manager-1", assignments[0].ManagerID)
	assert.Equal(t, "admin-1", assignments[0].AssignedBy)

	err = service.AssignManager(context.Background(), manager("team-1"), "team-1", "manager-2")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
}

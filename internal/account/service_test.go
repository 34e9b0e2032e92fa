package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

type fakeRepo struct {
	accounts map[identity.Role]map[string]Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[identity.Role]map[string]Account{
		identity.RolePatient:   {},
		identity.RoleCaregiver: {},
	}}
}

func (r *fakeRepo) Create(_ context.Context, role identity.Role, a Account) error {
	byName, ok := r.accounts[role]
	if !ok {
		return ErrInvalidRole
	}
	if _, taken := byName[a.Username]; taken {
		return ErrUsernameTaken
	}
	byName[a.Username] = a
	return nil
}

func (r *fakeRepo) Get(_ context.Context, role identity.Role, username string) (*Account, error) {
	byName, ok := r.accounts[role]
	if !ok {
		return nil, ErrInvalidRole
	}
	a, found := byName[username]
	if !found {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	require.NoError(t, svc.Create(ctx, identity.RolePatient, "alice", "hunter2"))

	who, err := svc.Authenticate(ctx, identity.RolePatient, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, identity.Patient("alice"), who)
}

func TestCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	require.NoError(t, svc.Create(ctx, identity.RolePatient, "alice", "hunter2"))
	err := svc.Create(ctx, identity.RolePatient, "alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestSameUsernameAcrossRoles(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	// Patients and caregivers are separate namespaces.
	require.NoError(t, svc.Create(ctx, identity.RolePatient, "alice", "pw1"))
	require.NoError(t, svc.Create(ctx, identity.RoleCaregiver, "alice", "pw2"))

	who, err := svc.Authenticate(ctx, identity.RoleCaregiver, "alice", "pw2")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleCaregiver, who.Role)
}

func TestAuthenticateFailuresIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	require.NoError(t, svc.Create(ctx, identity.RolePatient, "alice", "hunter2"))

	_, wrongPassword := svc.Authenticate(ctx, identity.RolePatient, "alice", "nope")
	_, unknownUser := svc.Authenticate(ctx, identity.RolePatient, "bob", "hunter2")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
}

func TestCreateRejectsRolelessAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	err := svc.Create(ctx, identity.RoleNone, "alice", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestHashPassword(t *testing.T) {
	saltA, err := generateSalt()
	require.NoError(t, err)
	saltB, err := generateSalt()
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)

	// Deterministic for a fixed salt, different across salts.
	assert.Equal(t, hashPassword("hunter2", saltA), hashPassword("hunter2", saltA))
	assert.NotEqual(t, hashPassword("hunter2", saltA), hashPassword("hunter2", saltB))
	assert.NotEqual(t, hashPassword("hunter2", saltA), hashPassword("hunter3", saltA))
	assert.Len(t, hashPassword("hunter2", saltA), keyLength)
}

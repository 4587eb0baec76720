package sync

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/server/internal/domain"
)

func TestSelectMasterOwnerWins(t *testing.T) {
	users := []domain.User{
		{ID: "m1", Role: domain.RoleModerator, JoinedAt: 100},
		{ID: "o1", Role: domain.RoleOwner, JoinedAt: 900},
		{ID: "u1", Role: domain.RoleMember, JoinedAt: 50},
	}

	master := SelectMaster(users)
	require.NotNil(t, master)
	assert.Equal(t, "o1", master.ID, "owner must win regardless of join order")
	assert.Equal(t, MasterTypeOwner, MasterType(master))
}

func TestSelectMasterOrderIndependent(t *testing.T) {
	users := []domain.User{
		{ID: "m1", Role: domain.RoleModerator, JoinedAt: 300},
		{ID: "m2", Role: domain.RoleModerator, JoinedAt: 100},
		{ID: "m3", Role: domain.RoleModerator, JoinedAt: 200},
		{ID: "u1", Role: domain.RoleMember, JoinedAt: 10},
		{ID: "u2", Role: domain.RoleMember, JoinedAt: 20},
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		rng.Shuffle(len(users), func(a, b int) { users[a], users[b] = users[b], users[a] })

		master := SelectMaster(users)
		require.NotNil(t, master)
		assert.Equal(t, "m2", master.ID, "earliest-joined moderator must win for every ordering")
	}
}

func TestSelectMasterFallsBackWhenOwnerLeaves(t *testing.T) {
	users := []domain.User{
		{ID: "o1", Role: domain.RoleOwner, JoinedAt: 10},
		{ID: "m1", Role: domain.RoleModerator, JoinedAt: 20},
	}

	master := SelectMaster(users)
	require.NotNil(t, master)
	assert.Equal(t, "o1", master.ID)

	withoutOwner := users[1:]
	master = SelectMaster(withoutOwner)
	require.NotNil(t, master)
	assert.Equal(t, "m1", master.ID)
	assert.Equal(t, MasterTypeModerator, MasterType(master))
}

func TestSelectMasterServerMode(t *testing.T) {
	users := []domain.User{
		{ID: "u1", Role: domain.RoleMember, JoinedAt: 10},
		{ID: "u2", Role: domain.RoleMember, JoinedAt: 20},
	}

	master := SelectMaster(users)
	assert.Nil(t, master, "members only means server-authoritative mode")
	assert.Equal(t, MasterTypeServer, MasterType(master))

	assert.Nil(t, SelectMaster(nil))
}

func TestSelectMasterJoinedAtTieBreak(t *testing.T) {
	users := []domain.User{
		{ID: "mb", Role: domain.RoleModerator, JoinedAt: 100},
		{ID: "ma", Role: domain.RoleModerator, JoinedAt: 100},
	}

	master := SelectMaster(users)
	require.NotNil(t, master)
	assert.Equal(t, "ma", master.ID, "equal join times fall back to the lower id")
}

func TestIsMaster(t *testing.T) {
	users := []domain.User{
		{ID: "o1", Role: domain.RoleOwner, JoinedAt: 10},
		{ID: "u1", Role: domain.RoleMember, JoinedAt: 20},
	}

	assert.True(t, IsMaster(users, "o1"))
	assert.False(t, IsMaster(users, "u1"))
	assert.False(t, IsMaster(nil, "o1"))
}

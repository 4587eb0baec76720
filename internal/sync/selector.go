package sync

import "github.com/auxroom/server/internal/domain"

const (
	MasterTypeOwner     = "owner"
	MasterTypeModerator = "moderator"
	MasterTypeServer    = "server"
)

// SelectMaster picks the room's sync master from the connected users:
// the owner if present, else the earliest-joined moderator, else nil
// (server-authoritative mode). Pure and order-independent, so every
// client derives the identical answer from the same user list.
func SelectMaster(users []domain.User) *domain.User {
	var master *domain.User

	for i := range users {
		u := &users[i]

		switch u.Role {
		case domain.RoleOwner:
			return u
		case domain.RoleModerator:
			if master == nil || u.JoinedAt < master.JoinedAt ||
				(u.JoinedAt == master.JoinedAt && u.ID < master.ID) {
				master = u
			}
		}
	}

	return master
}

// MasterType names the authority tier of the elected master.
func MasterType(master *domain.User) string {
	if master == nil {
		return MasterTypeServer
	}
	if master.Role == domain.RoleOwner {
		return MasterTypeOwner
	}
	return MasterTypeModerator
}

// IsMaster reports whether the given user would be elected master.
func IsMaster(users []domain.User, userID string) bool {
	master := SelectMaster(users)
	return master != nil && master.ID == userID
}

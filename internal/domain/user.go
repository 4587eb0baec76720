package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrMembersLimitReached = errors.New("members limit reached")
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
	Role     Role   `json:"role"`
	// JoinedAt is epoch millis; the moderator tie-break for sync master
	// election depends on it.
	JoinedAt int64 `json:"joined_at"`
}

type Permission string

const (
	PermAddTrack      Permission = "add_track"
	PermRemoveTrack   Permission = "remove_track"
	PermMoveTrack     Permission = "move_track"
	PermControlPlayer Permission = "control_player"
	PermSeek          Permission = "seek"
	PermSkip          Permission = "skip"
	PermSendChat      Permission = "send_chat"
	PermDeleteChat    Permission = "delete_chat"
	PermBanUser       Permission = "ban_user"
	PermRenameRoom    Permission = "rename_room"
)

// HasPermission reports whether a user's role grants a permission.
func HasPermission(user *User, permission Permission) bool {
	if user == nil {
		return false
	}

	switch permission {
	case PermAddTrack, PermSendChat:
		return true
	case PermRemoveTrack, PermMoveTrack, PermControlPlayer, PermSeek, PermSkip, PermDeleteChat:
		return user.Role == RoleModerator || user.Role == RoleOwner
	case PermBanUser:
		return user.Role == RoleOwner
	case PermRenameRoom:
		return user.Role == RoleOwner || user.Role == RoleModerator
	default:
		return false
	}
}

// CanRemoveTrack allows moderators and owners to remove any track, and
// members to remove tracks they added themselves.
func CanRemoveTrack(user *User, track Track) bool {
	if user == nil {
		return false
	}

	if user.Role == RoleOwner || user.Role == RoleModerator {
		return true
	}

	return track.AddedByID == user.ID
}

func CanControlPlayer(user *User) bool {
	return HasPermission(user, PermControlPlayer)
}

func CanManageTracks(user *User) bool {
	return HasPermission(user, PermRemoveTrack)
}

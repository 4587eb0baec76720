package room

import (
	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/repository/room"
)

func playerToRepo(p domain.PlayerState) room.Player {
	return room.Player{
		CurrentTrackIndex: p.CurrentTrackIndex,
		Position:          p.Position,
		IsPlaying:         p.IsPlaying,
		Volume:            p.Volume,
		Shuffle:           p.Shuffle,
		RepeatMode:        string(p.RepeatMode),
		PlaybackRate:      p.PlaybackRate,
		QueueMode:         string(p.QueueMode),
		UpdatedAt:         p.UpdatedAt,
	}
}

func playerFromRepo(p room.Player) domain.PlayerState {
	return domain.PlayerState{
		CurrentTrackIndex: p.CurrentTrackIndex,
		Position:          p.Position,
		IsPlaying:         p.IsPlaying,
		Volume:            p.Volume,
		Shuffle:           p.Shuffle,
		RepeatMode:        domain.RepeatMode(p.RepeatMode),
		PlaybackRate:      p.PlaybackRate,
		QueueMode:         domain.QueueMode(p.QueueMode),
		UpdatedAt:         p.UpdatedAt,
	}
}

func patchToRepo(p domain.PlayerStatePatch) room.PlayerPatch {
	patch := room.PlayerPatch{
		CurrentTrackIndex: p.CurrentTrackIndex,
		Position:          p.Position,
		IsPlaying:         p.IsPlaying,
		Volume:            p.Volume,
		Shuffle:           p.Shuffle,
		PlaybackRate:      p.PlaybackRate,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.RepeatMode != nil {
		s := string(*p.RepeatMode)
		patch.RepeatMode = &s
	}
	if p.QueueMode != nil {
		s := string(*p.QueueMode)
		patch.QueueMode = &s
	}

	return patch
}

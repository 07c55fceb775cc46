package usecase

import (
	"fmt"

	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

// boardZones is the clockwise number ring of a standard dartboard, starting at
// the top. The index gives the rotation angle for segment-highlight videos.
var boardZones = [...]int{20, 1, 18, 4, 13, 6, 10, 15, 2, 17, 3, 19, 7, 16, 8, 11, 14, 9, 12, 5}

func boardAngle(score int) int {
	for i, zone := range boardZones {
		if zone == score {
			return i * 18
		}
	}
	return 0
}

// emitThrowEffects fans out the sound, video and big-message events for one
// dart. Pure side effects, no engine state involved.
func (that *Session) emitThrowEffects(mult entity.Multiplier, baseScore, actualScore int) {
	that.emitSound("Plink")

	var message string

	switch mult {
	case entity.Triple:
		that.emitSound("Triple")
		that.emitVideo("triple.mp4", boardAngle(baseScore))
		message = fmt.Sprintf("TRIPLE! 3 x %d = %d", baseScore, actualScore)
	case entity.Double:
		that.emitSound("Dbl")
		that.emitVideo("double.mp4", boardAngle(baseScore))
		message = fmt.Sprintf("DOUBLE! 2 x %d = %d", baseScore, actualScore)
	case entity.Bull:
		that.emitSound("Bullseye")
		that.emitVideo("bullseye.mp4", 0)
		message = fmt.Sprintf("BULLSEYE! %d", actualScore)
	case entity.DoubleBull:
		that.emitSound("DblBullseye")
		that.emitVideo("bullseye.mp4", 0)
		message = fmt.Sprintf("DOUBLE BULL! 2 x %d = %d", baseScore, actualScore)
	default:
		that.emitVideo("single.mp4", boardAngle(baseScore))
		message = fmt.Sprintf("%d", actualScore)
		if actualScore > 0 {
			that.emitSound("score")
		}
	}

	that.emitBigMessage(message)
}

func (that *Session) emitGameState() {
	that.broadcaster.Emit(EventGameState, that.gameState())
}

func (that *Session) emitSound(sound string) {
	that.broadcaster.Emit(EventPlaySound, map[string]any{"sound": sound})
}

func (that *Session) emitVideo(video string, angle int) {
	that.broadcaster.Emit(EventPlayVideo, map[string]any{"video": video, "angle": angle})
}

func (that *Session) emitMessage(text string) {
	that.broadcaster.Emit(EventMessage, map[string]any{"text": text})
}

func (that *Session) emitBigMessage(text string) {
	that.broadcaster.Emit(EventBigMessage, map[string]any{"text": text})
}

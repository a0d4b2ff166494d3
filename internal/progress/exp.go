package progress

const (
	ExpPerCorrect     = 10
	PerfectBonus      = 20
	ExpPerChatMessage = 5
	MaxChatExp        = 50
	MinChatMessages   = 3
)

// LessonExp awards ExpPerCorrect per correct answer plus PerfectBonus when
// nothing was wrong. A lesson with no correct answer earns nothing.
func LessonExp(correct, mistakes int) int {
	if correct <= 0 {
		return 0
	}
	exp := correct * ExpPerCorrect
	if mistakes == 0 {
		exp += PerfectBonus
	}
	return exp
}

// ChatExp awards ExpPerChatMessage per user message up to MaxChatExp. It
// reports false when the session is too short to count.
func ChatExp(userMessages int) (int, bool) {
	if userMessages < MinChatMessages {
		return 0, false
	}
	exp := userMessages * ExpPerChatMessage
	if exp > MaxChatExp {
		exp = MaxChatExp
	}
	return exp, true
}

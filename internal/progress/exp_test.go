package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLessonExp(t *testing.T) {
	assert.Equal(t, 0, LessonExp(0, 5))
	assert.Equal(t, 0, LessonExp(0, 0))
	assert.Equal(t, 30, LessonExp(3, 2))
	assert.Equal(t, 100, LessonExp(8, 0))
}

func TestChatExp(t *testing.T) {
	exp, ok := ChatExp(2)
	assert.False(t, ok)
	assert.Zero(t, exp)

	exp, ok = ChatExp(3)
	assert.True(t, ok)
	assert.Equal(t, 15, exp)

	exp, ok = ChatExp(40)
	assert.True(t, ok)
	assert.Equal(t, MaxChatExp, exp)
}

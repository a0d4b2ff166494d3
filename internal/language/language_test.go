package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguage(t *testing.T) {
	assert.True(t, Supported(" ES "))
	assert.False(t, Supported("tlh"))
	assert.Equal(t, "Spanish", Name("es"))
	assert.Equal(t, "tlh", Name("tlh"))
	assert.Equal(t, "de", Codes()[0])
	assert.Len(t, Codes(), 9)
}

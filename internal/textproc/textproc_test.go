package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"zirconium", "melts", "1855", "degrees"}, Terms("Zirconium melts at 1855 degrees."))
	assert.Equal(t, []string{"it's", "paris"}, Terms("It's the Paris"))
	assert.Empty(t, Terms("what is the"))
}

func TestTermSet(t *testing.T) {
	set := TermSet("rust rust iron")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "rust")
	assert.Contains(t, set, "iron")
}

func TestSentences(t *testing.T) {
	got := Sentences("First one. Second one!  Third without end")
	assert.Equal(t, []string{"First one.", "Second one!", "Third without end"}, got)

	assert.Equal(t, []string{"東京は首都です。", "大阪は都市です。"}, Sentences("東京は首都です。大阪は都市です。"))
	assert.Empty(t, Sentences("   "))
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.False(t, IsStopword("paris"))
}

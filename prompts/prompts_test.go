package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemWithoutKnowledge(t *testing.T) {
	prompt, err := System(SystemData{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "You are a helpful AI assistant."))
	assert.NotContains(t, prompt, "<Knowledge>")
}

func TestSystemWithKnowledge(t *testing.T) {
	prompt, err := System(SystemData{Knowledge: map[string]string{
		"water":   "boils at 100C",
		"capital": "Paris",
	}})
	require.NoError(t, err)
	assert.Contains(t, prompt, "<Knowledge>\ncapital: Paris\nwater: boils at 100C\n</Knowledge>")
}

func TestFormatKnowledgeEmpty(t *testing.T) {
	assert.Equal(t, "", formatKnowledge(nil))
}

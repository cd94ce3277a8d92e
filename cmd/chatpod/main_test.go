package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasNoFlags(t *testing.T) {
	rootCmd := newRootCmd()
	assert.False(t, rootCmd.HasAvailableLocalFlags())
	assert.Error(t, rootCmd.Args(rootCmd, []string{"unexpected"}))
}

func TestKnowledgeCommands(t *testing.T) {
	rootCmd := newRootCmd()

	addCmd, _, err := rootCmd.Find([]string{"knowledge", "add"})
	require.NoError(t, err)
	assert.Equal(t, "add", addCmd.Name())
	assert.Error(t, addCmd.Args(addCmd, []string{"only-key"}))
	assert.NoError(t, addCmd.Args(addCmd, []string{"key", "value"}))

	queryCmd, _, err := rootCmd.Find([]string{"knowledge", "query"})
	require.NoError(t, err)
	threshold := queryCmd.Flags().Lookup("threshold")
	require.NotNil(t, threshold)
	assert.Equal(t, "0.7", threshold.DefValue)
}

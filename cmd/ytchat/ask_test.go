package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskFromReaderSkipsBlankLines(t *testing.T) {
	var asked []string
	var prompt bytes.Buffer
	in := strings.NewReader("What are cats?\n\n  \nWhere do fish live?\n")

	err := askFromReader(in, &prompt, func(q string) error {
		asked = append(asked, q)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"What are cats?", "Where do fish live?"}, asked)
}

func TestAskFromReaderKeepsGoingAfterFailure(t *testing.T) {
	var prompt bytes.Buffer
	calls := 0
	err := askFromReader(strings.NewReader("one\ntwo\n"), &prompt, func(string) error {
		calls++
		return errors.New("NoTranscriptLoaded: load a video first")
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, prompt.String(), "load a video first")
}

func TestAskRequiresSource(t *testing.T) {
	cmd := askCMD()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

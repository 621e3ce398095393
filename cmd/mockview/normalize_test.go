package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = "assistant: Tell me about a challenge.\n" +
	"user: I debugged a race condition in our payment service by adding distributed tracing.\n" +
	"assistant: Thanks."

func runNormalizeCmd(t *testing.T, stdin string, prompt bool, args ...string) string {
	t.Helper()
	normalizePrompt = prompt
	t.Cleanup(func() { normalizePrompt = false })

	var out bytes.Buffer
	normalizeCmd.SetIn(strings.NewReader(stdin))
	normalizeCmd.SetOut(&out)
	require.NoError(t, runNormalize(normalizeCmd, args))
	return out.String()
}

func TestNormalize_ReportsStatsFromStdin(t *testing.T) {
	out := runNormalizeCmd(t, sampleTranscript, false)

	var report normalizeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Turns, 3)
	assert.Equal(t, 1, report.AdequateUserResponses)
	assert.True(t, report.HasInsufficientData)
	assert.Equal(t, [2]float64{0, 25}, report.ScoreBand)
}

func TestNormalize_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTranscript), 0o600))

	out := runNormalizeCmd(t, "", false, path)
	assert.Contains(t, out, `"adequate_user_responses": 1`)
}

func TestNormalize_PrintsPrompt(t *testing.T) {
	out := runNormalizeCmd(t, sampleTranscript, true)

	assert.Contains(t, out, "appears to have insufficient responses")
	assert.Contains(t, out, "- user: I debugged a race condition")
}

func TestNormalize_EmptyInput(t *testing.T) {
	out := runNormalizeCmd(t, "", false)
	assert.Contains(t, out, `"turns": []`)
	assert.Contains(t, out, `"has_insufficient_data": true`)
}

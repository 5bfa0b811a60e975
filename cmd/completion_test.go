package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCompletion(t *testing.T) {
	markers := map[string]string{
		"bash":       "bash completion",
		"zsh":        "#compdef worktime",
		"fish":       "complete -c worktime",
		"powershell": "Register-ArgumentCompleter",
	}

	for shell, marker := range markers {
		t.Run(shell, func(t *testing.T) {
			_, stdout, stderr := testDeps(t)

			generateCompletion(shell)

			assert.Empty(t, stderr.String())
			assert.Contains(t, stdout.String(), marker)
		})
	}
}

func TestGenerateCompletion_Unsupported(t *testing.T) {
	d, stdout, stderr := testDeps(t)
	code := captureExit(d)

	generateCompletion("tcsh")

	assert.Equal(t, 1, *code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Unsupported shell 'tcsh'")
}

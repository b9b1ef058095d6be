package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const moneyPlatform = `
classes:
  - name: org/sample/Money
    constructors:
      - parameters: [{name: cents, type: {class: long}}]
    methods:
      - name: valueOf
        static: true
        parameters: [{name: text, type: {class: java/lang/String}}]
        return: {class: org/sample/Money}
      - {name: getCents, return: {class: long}}
`

// execute runs the root command with args and an empty config directory
// unless one is given.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	hasConfigDir := false
	for _, a := range args {
		if a == "--config-dir" {
			hasConfigDir = true
		}
	}
	if !hasConfigDir {
		args = append(args, "--config-dir", t.TempDir())
	}
	args = append(args, "--no-color")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile writes content below dir, creating parent directories.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

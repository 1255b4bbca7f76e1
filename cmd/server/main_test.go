package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"asset-registry-api/internal/auth"
	"asset-registry-api/internal/config"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	conf, err := config.New()
	require.NoError(t, err)
	root, err := newRootCommand(conf)
	require.NoError(t, err)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), err
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "hash-password", "s3cret")
	require.NoError(t, err)
	require.NoError(t, auth.CheckPassword(strings.TrimSpace(out), "s3cret"))
}

func TestHashPasswordCommand_RequiresArgument(t *testing.T) {
	_, err := execute(t, "hash-password")
	require.Error(t, err)
}

func TestRefreshCommand_WithoutEndpoints(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	out, err := execute(t, "refresh",
		"--database-path="+dbPath,
		"--registry-liquid-url=",
		"--registry-testnet-liquid-url=",
		"--log-level=error",
	)
	require.NoError(t, err)
	require.Contains(t, out, "liquid")
	require.Contains(t, out, "skipped")
}

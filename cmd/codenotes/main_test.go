package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codenotes/internal/api/apitest"
	"codenotes/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t         *testing.T
	configDir string
}

func setupCLI(t *testing.T) (*cli, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(t)
	dir := t.TempDir()
	cfg := "api_url: " + srv.URL + "\ndata_dir: " + filepath.Join(dir, "state") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))
	return &cli{t: t, configDir: dir}, srv
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"--config-dir", c.configDir}, args...), &out, &errOut)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "codenotes %v", args)
	return out
}

func TestCLIWorkflow(t *testing.T) {
	c, _ := setupCLI(t)

	out := c.mustRun("login", "--user", "alice", "--name", "Alice", "--token", apitest.Token(t, "alice"))
	assert.Contains(t, out, "Logged in as Alice (0 topics)")

	out = c.mustRun("topic", "add", "Arrays", "--id", "arrays")
	assert.Contains(t, out, "Created topic arrays")

	out = c.mustRun("--json", "problem", "add", "--topic", "arrays", "--title", "Two Sum", "--difficulty", "Easy", "--statement", "Find two numbers")
	var created model.Problem
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotEmpty(t, created.ProblemID)

	out = c.mustRun("fav", created.ProblemID)
	assert.Contains(t, out, "Two Sum: fav")

	out = c.mustRun("--json", "favorites")
	var favorites []model.Problem
	require.NoError(t, json.Unmarshal([]byte(out), &favorites))
	require.Len(t, favorites, 1)
	assert.True(t, favorites[0].IsFavorite)

	out = c.mustRun("search", "two")
	assert.Contains(t, out, "Two Sum")
	assert.Contains(t, out, "DIFFICULTY")

	out = c.mustRun("problem", "edit", created.ProblemID, "--time", "O(n)")
	assert.Contains(t, out, "Updated problem")

	out = c.mustRun("problem", "show", created.ProblemID)
	assert.Contains(t, out, "Two Sum  [Easy, other]")
	assert.Contains(t, out, "Time: O(n)")

	assert.Contains(t, c.mustRun("theme"), "Theme: dark")
	assert.Contains(t, c.mustRun("topics"), "arrays")

	c.mustRun("problem", "rm", created.ProblemID)
	assert.Contains(t, c.mustRun("topics"), "No topics.")

	assert.Contains(t, c.mustRun("logout"), "Logged out")
	_, err := c.run("sync")
	assert.Error(t, err)
}

func TestCLISyncPicksUpServerChanges(t *testing.T) {
	c, srv := setupCLI(t)
	c.mustRun("login", "--user", "bob", "--token", apitest.Token(t, "bob"))

	// A second client for the same user writes through the API directly.
	second := &cli{t: t, configDir: t.TempDir()}
	cfg := "api_url: " + srv.URL + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(second.configDir, "config.yaml"), []byte(cfg), 0o644))
	second.mustRun("login", "--user", "bob", "--token", apitest.Token(t, "bob"))
	second.mustRun("problem", "add", "--topic", "graphs", "--topic-title", "Graphs", "--title", "Clone Graph", "--difficulty", "Medium")

	assert.Contains(t, c.mustRun("topics"), "No topics.")
	assert.Contains(t, c.mustRun("sync"), "Synced 1 topics, 1 problems")
	assert.Contains(t, c.mustRun("topics"), "Graphs")
}

func TestCLIReportsServerErrors(t *testing.T) {
	c, _ := setupCLI(t)
	c.mustRun("login", "--user", "carol", "--token", apitest.Token(t, "carol"))

	_, err := c.run("problem", "add", "--topic", "t", "--title", "x", "--difficulty", "Brutal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	_, err = c.run("topic", "rm", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, cfg.GetString(cfgKeyAPIURL))
	assert.Equal(t, filepath.Join(dir, "state"), cfg.GetString(cfgKeyDataDir))
	assert.Equal(t, 15*time.Second, cfg.GetDuration(cfgKeyTimeout))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("request_timeout: 0s\n"), 0o644))
	cfg, err = loadConfig(dir)
	require.NoError(t, err)
	assert.Zero(t, cfg.GetDuration(cfgKeyTimeout))

	t.Setenv("CODENOTES_REQUEST_TIMEOUT", "2s")
	cfg, err = loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.GetDuration(cfgKeyTimeout))
}

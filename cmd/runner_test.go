package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotme/internal/auth"
	"github.com/desertthunder/spotme/internal/services"
	"github.com/desertthunder/spotme/internal/shared"
	tu "github.com/desertthunder/spotme/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

var runnerResult = map[string]any{
	"recommendations": []string{"Dig into dream pop"},
	"genres": map[string]any{
		"dream pop": map[string]any{"artists": []map[string]string{{"name": "Beach House", "spotifyPageUrl": "https://open.spotify.com/artist/bh"}}},
	},
}

// testRunner returns a runner wired to local token and recommendation servers over an in-memory database.
func testRunner(t *testing.T, envelope string, tokens ...map[string]any) (*Runner, *bytes.Buffer, *tu.RecommendationServer) {
	t.Helper()
	if len(tokens) == 0 {
		tokens = []map[string]any{tu.TokenResponse("tok")}
	}
	tokenSrv := tu.NewTokenServer(t, tokens...)
	recs := tu.NewRecommendationServer(t, envelope)

	config := shared.DefaultConfig()
	config.Spotify.ClientID = "client"
	config.Spotify.TokenURL = tokenSrv.URL
	config.Spotify.RedirectURL = "http://127.0.0.1:0/callback"
	config.Recommendations.Endpoint = recs.URL
	config.Recommendations.RateLimit = 0
	config.Recommendations.RegistrationEmail = "owner@example.com"
	config.Database.Path = ":memory:"

	db, err := shared.OpenDatabase(config.Database)
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { db.Close() })

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:      config,
		DB:          db,
		HTTPClient:  &http.Client{},
		Logger:      log.New(io.Discard),
		Output:      output,
		OpenBrowser: func(string) error { return errors.New("no browser in tests") },
	})
	_, err = runner.Connect(context.Background(), nil)
	require.NoError(t, err, "failed to connect")
	return runner, output, recs
}

// runCommand runs one subcommand definition with args, skipping the root config hooks.
func runCommand(t *testing.T, command *cli.Command, args ...string) error {
	t.Helper()
	command.Before = nil
	root := &cli.Command{Name: "spotme", Commands: []*cli.Command{command}}
	return root.Run(context.Background(), append([]string{"spotme", command.Name}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			assert.Same(t, config, runner.config)
			assert.Equal(t, "/test/path/config.toml", runner.configPath)
			assert.Same(t, logger, runner.logger)
			assert.Same(t, output, runner.output)
			assert.Same(t, httpClient, runner.httpClient)
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			assert.NotNil(t, runner.config)
			assert.NotNil(t, runner.logger)
			assert.Equal(t, os.Stdout, runner.output)
			assert.Same(t, http.DefaultClient, runner.httpClient)
			assert.NotNil(t, runner.openBrowser)
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			require.NoError(t, runner.writeJSON(map[string]string{"key": "value"}, true))
			assert.Contains(t, output.String(), `"key": "value"`)
			assert.Equal(t, byte('\n'), output.Bytes()[output.Len()-1], "output ends with a newline")
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			assert.ErrorContains(t, runner.writeJSON(make(chan int), false), "failed to marshal JSON")
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			assert.ErrorContains(t, runner.writeJSON(map[string]string{"key": "value"}, false), "failed to write output")
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})
			assert.ErrorContains(t, runner.writeJSON(map[string]string{"key": "value"}, false), "failed to write newline")
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		require.NoError(t, runner.writePlain("hello %s", "world"))
		assert.Equal(t, "hello world", output.String())

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		assert.Error(t, failing.writePlain("test"))
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		var names []string
		for _, cmd := range runner.register() {
			require.NotNil(t, cmd)
			names = append(names, cmd.Name)
		}
		assert.ElementsMatch(t, []string{"setup", "auth", "recommend", "history", "tui"}, names)
	})

	t.Run("Connect fails fast on missing config", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard)})
		runner.config.Spotify.ClientID = ""
		runner.config.Recommendations.Endpoint = ""

		_, err := runner.Connect(context.Background(), nil)
		require.ErrorIs(t, err, shared.ErrMissingConfig)
		assert.ErrorContains(t, err, "SPOTME_TOP_ITEMS_URL")
		assert.Nil(t, runner.controller, "controller should not be built")
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[spotify]\nclient_id = \"from-file\"\n"), 0644))
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	os.Unsetenv("SPOTIFY_CLIENT_ID")

	runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard)})
	root := &cli.Command{
		Name:   "spotme",
		Flags:  rootFlags(),
		Before: runner.LoadConfig,
		Action: func(context.Context, *cli.Command) error { return nil },
	}
	require.NoError(t, root.Run(context.Background(), []string{"spotme", "--config", path, "--env-file", filepath.Join(dir, "missing.env")}))

	assert.Equal(t, "from-file", runner.config.Spotify.ClientID)
	assert.Equal(t, path, runner.configPath)
}

func TestSetupCommands(t *testing.T) {
	t.Run("rollback reverts the newest migration", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		require.NoError(t, runCommand(t, setupCommand(runner), "rollback"))
		assert.Contains(t, output.String(), "Rolled back 1 migration(s)")

		_, err := runner.db.Exec("SELECT 1 FROM recommendations LIMIT 1")
		assert.Error(t, err, "recommendations table should be gone")
		_, err = runner.db.Exec("SELECT 1 FROM storage_slots LIMIT 1")
		assert.NoError(t, err, "older migrations stay applied")
	})

	t.Run("rollback stops when nothing is left", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		require.NoError(t, runCommand(t, setupCommand(runner), "rollback", "--steps", "10"))
		assert.Contains(t, output.String(), "Rolled back 2 migration(s)")

		err := runCommand(t, setupCommand(runner), "rollback")
		assert.ErrorIs(t, err, shared.ErrNoMigrations)
	})

	t.Run("rollback rejects non-positive steps", func(t *testing.T) {
		runner, _, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))
		assert.ErrorIs(t, runCommand(t, setupCommand(runner), "rollback", "--steps", "0"), shared.ErrInvalidArgument)
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("url then exchange in separate runs", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		require.NoError(t, runCommand(t, authCommand(runner), "url"))
		assert.Contains(t, output.String(), "code_challenge_method=S256")

		// a fresh controller only shares the database
		runner.buildController()
		output.Reset()

		require.NoError(t, runCommand(t, authCommand(runner), "exchange", "--redirect", "http://127.0.0.1:3000/callback?code=abc", "--show-token"))
		assert.Contains(t, output.String(), "Access token: tok")
	})

	t.Run("exchange without verifier", func(t *testing.T) {
		runner, _, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		err := runCommand(t, authCommand(runner), "exchange", "--code", "abc")
		assert.ErrorIs(t, err, shared.ErrVerifierMissing)
	})

	t.Run("exchange argument validation", func(t *testing.T) {
		runner, _, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		assert.ErrorIs(t, runCommand(t, authCommand(runner), "exchange"), shared.ErrMissingArgument)
		assert.ErrorIs(t, runCommand(t, authCommand(runner), "exchange", "--code", "a", "--redirect", "?code=b"), shared.ErrInvalidArgument)
		assert.ErrorIs(t, runCommand(t, authCommand(runner), "exchange", "--redirect", "?error=denied"), shared.ErrInvalidArgument)
	})

	t.Run("expired code reports logged out", func(t *testing.T) {
		runner, _, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""), tu.TokenError("Authorization code expired"))
		_, err := runner.controller.StartLogin(context.Background())
		require.NoError(t, err)

		err = runCommand(t, authCommand(runner), "exchange", "--code", "old")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, auth.LoggedOut, runner.controller.Snapshot().State)
	})
}

func TestRecommendCommands(t *testing.T) {
	t.Run("recommend with token renders text and stores history", func(t *testing.T) {
		runner, output, recs := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		require.NoError(t, runCommand(t, recommendCommand(runner), "--token", "given"))
		assert.Equal(t, []string{"given"}, recs.Tokens())
		assert.Contains(t, output.String(), "Dig into [dream pop]")
		assert.Contains(t, output.String(), "Because you like Beach House")

		output.Reset()
		require.NoError(t, runCommand(t, historyCommand(runner)))
		assert.Contains(t, output.String(), "#1")
		assert.Contains(t, output.String(), "Dig into dream pop")

		output.Reset()
		require.NoError(t, runCommand(t, recommendCommand(runner), "--last", "--format", "markdown"))
		assert.Contains(t, output.String(), "**dream pop**")
		assert.Len(t, recs.Tokens(), 1, "--last should not fetch")
	})

	t.Run("output writes a markdown export", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))
		dir := filepath.Join(t.TempDir(), "export")

		require.NoError(t, runCommand(t, recommendCommand(runner), "--token", "given", "--output", dir))
		assert.Contains(t, output.String(), "Exported to")
		assert.Contains(t, tu.MustReadFile(t, filepath.Join(dir, "README.md")), "**dream pop**")
	})

	t.Run("not allowlisted prints registration link", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.Envelope(t, services.CodeNotAllowlisted, nil, "not allowlisted"))

		require.NoError(t, runCommand(t, recommendCommand(runner), "--token", "given"), "call to action instead of error")
		assert.Contains(t, output.String(), "mailto:owner@example.com?")
	})

	t.Run("ambiguous result is an error", func(t *testing.T) {
		runner, _, _ := testRunner(t, tu.Envelope(t, 0, nil, ""))

		err := runCommand(t, recommendCommand(runner), "--token", "given")
		assert.ErrorIs(t, err, shared.ErrAmbiguousResult)
	})

	t.Run("history json", func(t *testing.T) {
		runner, output, _ := testRunner(t, tu.Envelope(t, 0, runnerResult, ""))

		require.NoError(t, runCommand(t, historyCommand(runner), "--json"))
		assert.JSONEq(t, "[]", output.String())
	})
}

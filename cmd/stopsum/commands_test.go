package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stopsum/pkg/auth"
	"stopsum/pkg/overshoot"
	"stopsum/pkg/report"
	"stopsum/pkg/ui"
)

// resetFlags restores every flag of cmd and its children to its default so
// that tests do not leak state through the package-level flag variables
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// execute runs the CLI with args and returns what the command wrote
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))

	resetFlags(rootCmd)
	ui.SetOutput(io.Discard, io.Discard)
	t.Cleanup(func() {
		ui.SetOutput(os.Stdout, os.Stderr)
		ui.SetQuietMode(false)
		stdin = os.Stdin
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "disabled"))

	err := rootCmd.Execute()
	return out.String(), err
}

func useMockCredentials(t *testing.T) *auth.MockStore {
	t.Helper()
	manager, store := auth.NewMockManager()
	previous := newCredentialManager
	newCredentialManager = func() (*auth.Manager, error) { return manager, nil }
	t.Cleanup(func() { newCredentialManager = previous })
	return store
}

func TestCalcStandardDeck(t *testing.T) {
	out, err := execute(t, "calc", "--threshold", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "For N = 1")
	assert.Contains(t, out, "mass = 1.0000000000")
	assert.Contains(t, out, fmt.Sprintf("mean = %.10f", 120.0/7))
}

func TestCalcFullWeighting(t *testing.T) {
	out, err := execute(t, "calc", "-n", "2", "--exclude", "8", "--weighting", "full")
	require.NoError(t, err)

	// 8 is drawn first or after a 1
	assert.Contains(t, out, fmt.Sprintf("mass = %.10f", 1-(1.0/7+1.0/49)))
	assert.Contains(t, out, "excluded = [8] (full weighting)")
}

func TestCalcShowVector(t *testing.T) {
	out, err := execute(t, "calc", "--threshold", "1", "--cards", "1,2", "--event-from", "1", "--event-to", "2", "--show-vector")
	require.NoError(t, err)

	assert.Contains(t, out, "cards = [1 2]")
	assert.Contains(t, out, "P(1 <= overshoot < 2) = 0.5000000000")
	assert.Contains(t, out, "        0  0.5000000000")
	assert.Contains(t, out, "        1  0.5000000000")
}

func TestCalcErrors(t *testing.T) {
	_, err := execute(t, "calc")
	assert.ErrorContains(t, err, "threshold")

	_, err = execute(t, "calc", "--threshold", "30", "--method", "walk")
	assert.ErrorIs(t, err, overshoot.ErrThresholdTooLarge)

	_, err = execute(t, "calc", "--threshold", "5", "--exclude", "3")
	assert.ErrorIs(t, err, overshoot.ErrValueNotFound)

	_, err = execute(t, "calc", "--threshold", "5", "--method", "dfs")
	assert.ErrorContains(t, err, "invalid engine method")

	_, err = execute(t, "calc", "--threshold", "5", "--baseline", "0")
	assert.ErrorContains(t, err, "engine baseline 0 must be positive")
}

func TestReportJSON(t *testing.T) {
	out, err := execute(t, "report", "--thresholds", "1", "--baselines", "1", "--condition", "1", "--format", "json")
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Summaries, 1)

	summary := rep.Summaries[0]
	assert.Equal(t, 1, summary.Threshold)
	assert.InDelta(t, 120.0/7, summary.Mean, 1e-9)
	require.NotNil(t, summary.Conditional)
	assert.InDelta(t, 0, *summary.Conditional, 1e-9)
}

func TestReportText(t *testing.T) {
	out, err := execute(t, "report", "--thresholds", "21", "--baselines", "1,11")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "For N = 21"))
	assert.Contains(t, out, "When A = 1")
	assert.Contains(t, out, "When A = 11")
	assert.Contains(t, out, "P(1 <= overshoot < 5 | 8 drawn)")
}

func TestReportEmptyEvent(t *testing.T) {
	_, err := execute(t, "report", "--event-from", "3", "--event-to", "3")
	assert.ErrorContains(t, err, "is empty")
}

func TestConfigInitValidateShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "stopsum.yaml")

	_, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "validate", "--config", path)
	assert.NoError(t, err)

	t.Setenv("STOPSUM_APP_SECRET", "abcd1234efgh5678")
	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "app_secret: abcd...5678")
	assert.Contains(t, out, "walk_limit: 25")
}

func TestConfigValidateReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopsum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  method: dfs\nexport:\n  since: \"2016-01-01\"\n  until: \"2010-01-01\"\n"), 0600))

	_, err := execute(t, "config", "validate", "--config", path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid engine method")
	assert.ErrorContains(t, err, "since must be before until")
}

func TestAuthLoginListLogout(t *testing.T) {
	store := useMockCredentials(t)

	stdin = strings.NewReader("s3cr3t-value-5678\n")
	out, err := execute(t, "auth", "login", "research", "--app-id", "1684491445125602")
	require.NoError(t, err)
	assert.Contains(t, out, "stopsum feed <page> --app research")

	app, err := store.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, "1684491445125602", app.AppID)
	assert.Equal(t, "s3cr3t-value-5678", app.AppSecret)

	out, err = execute(t, "auth", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. research")
	assert.Contains(t, out, "s3cr...5678")
	assert.NotContains(t, out, "s3cr3t-value-5678")

	stdin = strings.NewReader("n\n")
	_, err = execute(t, "auth", "logout", "research")
	require.NoError(t, err)
	assert.True(t, store.Exists("research"))

	_, err = execute(t, "auth", "logout", "research", "--yes")
	require.NoError(t, err)
	assert.False(t, store.Exists("research"))

	_, err = execute(t, "auth", "logout", "research", "--yes")
	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
}

func TestAuthLoginPromptsForAppID(t *testing.T) {
	store := useMockCredentials(t)

	stdin = strings.NewReader("1234567890\nsecret-from-prompt\n")
	_, err := execute(t, "auth", "login")
	require.NoError(t, err)

	app, err := store.Retrieve(auth.DefaultAppName)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", app.AppID)
	assert.Equal(t, "secret-from-prompt", app.AppSecret)
}

func TestAuthGuide(t *testing.T) {
	out, err := execute(t, "auth", "guide")
	require.NoError(t, err)
	assert.Contains(t, out, "stopsum auth login --app-id <APP_ID>")
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"app|token","token_type":"bearer"}`)
	})
	mux.HandleFunc("/v2.5/bbcnews", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"228735667216","name":"BBC News"}`)
	})
	mux.HandleFunc("/v2.5/228735667216/posts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"id":"228735667216_1","type":"link","message":"hello","created_time":"2015-03-02T10:15:00+0000",
			 "shares":{"count":3},"likes":{"data":[],"summary":{"total_count":7}},"comments":{"data":[],"summary":{"total_count":1}}}
		]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFeedExport(t *testing.T) {
	useMockCredentials(t)
	server := newFeedServer(t)
	t.Setenv("STOPSUM_GRAPH_URL", server.URL)
	t.Setenv("STOPSUM_APP_ID", "1684491445125602")
	t.Setenv("STOPSUM_APP_SECRET", "test-secret")

	outputDir := t.TempDir()
	_, err := execute(t, "feed", "bbcnews", "--since", "2015-01-01", "--until", "2016-01-01", "--output", outputDir, "--rate-limit", "6000", "--quiet")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(outputDir, "bbcnews.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "type", "date", "time", "message_length", "shares_count", "likes_count", "comments_count"}, rows[0])
	assert.Equal(t, "228735667216_1", rows[1][0])
	assert.Equal(t, []string{"5", "3", "7", "1"}, rows[1][4:])
}

func TestFeedValidation(t *testing.T) {
	useMockCredentials(t)

	_, err := execute(t, "feed", "bbcnews", "--since", "2016-01-01", "--until", "2010-01-01")
	assert.ErrorContains(t, err, "since must be before until")

	_, err = execute(t, "feed", "bbcnews", "--resume", "--force-restart")
	assert.Error(t, err)

	_, err = execute(t, "feed")
	assert.Error(t, err)
}

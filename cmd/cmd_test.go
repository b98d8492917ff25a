package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghstats/config"
	"github.com/spiffcs/ghstats/internal/collect"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/store"
)

func TestNew(t *testing.T) {
	cmd := New()

	require.NotNil(t, cmd)
	assert.Equal(t, "ghstats", cmd.Use)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"collect", "prs", "readme", "show", "config", "ratelimit", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"overwrite", "step-limit", "user", "output-file", "tui", "with-prs"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "root should accept collect flag --%s", flag)
	}
}

func TestTUIFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    *bool
		wantStr string
		wantErr bool
	}{
		{in: "auto", want: nil, wantStr: "auto"},
		{in: "true", want: ptr(true), wantStr: "true"},
		{in: "1", want: ptr(true), wantStr: "true"},
		{in: "yes", want: ptr(true), wantStr: "true"},
		{in: "false", want: ptr(false), wantStr: "false"},
		{in: "no", want: ptr(false), wantStr: "false"},
		{in: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			opts := NewOptions()
			f := newTUIFlag(opts)

			err := f.Set(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.TUI)
			assert.Equal(t, tt.wantStr, f.String())
		})
	}
}

func TestShouldUseTUI(t *testing.T) {
	assert.False(t, shouldUseTUI(NewOptions(WithTUI(ptr(true)), WithVerbosity(1))), "verbose output disables the TUI")
	assert.True(t, shouldUseTUI(NewOptions(WithTUI(ptr(true)))))
	assert.False(t, shouldUseTUI(NewOptions(WithTUI(ptr(false)))))
}

func TestApplyFlagOverrides(t *testing.T) {
	opts := NewOptions()
	cmd := NewCmdCollect(opts)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--user", "octocat",
		"--timezone", "America/New_York",
		"--step-limit", "3",
		"--recent", "2w",
		"-f", "out.json",
	}))

	s := config.DefaultSettings()
	s.Overwrite = true
	require.NoError(t, applyFlagOverrides(cmd.Flags(), opts, &s))

	assert.Equal(t, "octocat", s.Username)
	assert.Equal(t, "America/New_York", s.Location.String())
	assert.Equal(t, 3, stepLimit(s))
	assert.Equal(t, 14*24*time.Hour, s.RecentWindow)
	assert.Equal(t, "out.json", s.OutputPath)
	assert.True(t, s.Overwrite, "unset flags keep config values")
}

func TestApplyFlagOverrides_Invalid(t *testing.T) {
	tests := [][]string{
		{"--timezone", "Nowhere/Special"},
		{"--recent", "later"},
		{"--step-limit", "-1"},
	}

	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			opts := NewOptions()
			cmd := NewCmdCollect(opts)
			require.NoError(t, cmd.Flags().Parse(args))

			s := config.DefaultSettings()
			assert.Error(t, applyFlagOverrides(cmd.Flags(), opts, &s))
		})
	}
}

func TestStepLimit_OnlyInDebug(t *testing.T) {
	s := config.DefaultSettings()
	s.DebugStepLimit = 5

	assert.Equal(t, 0, stepLimit(s))
	s.Debug = true
	assert.Equal(t, 5, stepLimit(s))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GHSTATS_TEST_TOKEN=from-file\n"), 0600))
	t.Setenv("GHSTATS_TEST_TOKEN", "")
	require.NoError(t, os.Unsetenv("GHSTATS_TEST_TOKEN"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("GHSTATS_TEST_TOKEN"))

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, loadDotEnv(""))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GHSTATS_TEST_TOKEN=from-file\n"), 0600))
	t.Setenv("GHSTATS_TEST_TOKEN", "from-env")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("GHSTATS_TEST_TOKEN"))
}

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	agg := model.NewAggregate()
	rec := model.NewRepoRecord("octo-tools")
	rec.AddSourceFile("main.py", 42)
	agg.Upsert(rec, nil)
	path := filepath.Join(dir, "stats.json")
	require.NoError(t, store.New(path).Save(agg))

	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"show", "-f", path, "-o", "markdown"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "| octo-tools | 1 | 42 | 0 | 0 |")
}

func TestShowCommand_BadFormat(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show", "-o", "xml"})

	assert.Error(t, cmd.Execute())
}

func TestReadmeCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("GITHUB_RUN_ID", "")
	t.Setenv("GITHUB_REPOSITORY", "")

	agg := model.NewAggregate()
	rec := model.NewRepoRecord("octo-tools")
	rec.AddSourceFile("main.py", 42)
	agg.Upsert(rec, nil)
	require.NoError(t, store.New(filepath.Join(dir, "stats.json")).Save(agg))
	readmePath := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readmePath, []byte("# Hi\n---\nstale section\n"), 0644))

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"readme", "-f", "stats.json", "--readme", readmePath})
	require.NoError(t, cmd.Execute())

	got, err := os.ReadFile(readmePath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "# Hi\n---\n")
	assert.Contains(t, string(got), "### Total Lines of Code: 42")
	assert.NotContains(t, string(got), "stale section")
}

func TestConfigSetRejectsToken(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "set", "token", "ghp_secret"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
	_, statErr := os.Stat(config.LocalConfigPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollectRequiresToken(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("TOKEN", "")

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"collect", "--tui=false"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestDescribeSummary(t *testing.T) {
	assert.Equal(t, "2 scanned, 1 skipped", describeSummary(collect.Summary{Processed: 2, Skipped: 1}))
	assert.Equal(t, "0 scanned, 0 skipped, 3 failed", describeSummary(collect.Summary{Failed: 3}))
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2024-01-01")

	var out bytes.Buffer
	cmd := NewCmdVersion()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "ghstats 1.2.3")
	assert.Contains(t, out.String(), "commit: abc123")
}

func ptr[T any](v T) *T { return &v }


func TestConfigInit(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--local"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(config.LocalConfigPath())
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Created .ghstats.yaml")

	again := New()
	again.SetOut(&bytes.Buffer{})
	again.SetErr(&bytes.Buffer{})
	again.SetArgs([]string{"config", "init", "--local"})
	assert.Error(t, again.Execute(), "existing files are never overwritten")
}

func TestPromptConfigPath(t *testing.T) {
	paths := config.ConfigPathInfo{GlobalPath: "/g/config.yaml", LocalPath: ".ghstats.yaml"}

	got, err := promptConfigPath(strings.NewReader("2\n"), io.Discard, paths)
	require.NoError(t, err)
	assert.Equal(t, ".ghstats.yaml", got)

	got, err = promptConfigPath(strings.NewReader("1"), io.Discard, paths)
	require.NoError(t, err)
	assert.Equal(t, "/g/config.yaml", got)

	_, err = promptConfigPath(strings.NewReader("3\n"), io.Discard, paths)
	assert.Error(t, err)
}

func TestWriteConfig_Formats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, config.DefaultConfig(), "yaml"))
	assert.Contains(t, buf.String(), "settings:")

	buf.Reset()
	require.NoError(t, writeConfig(&buf, config.DefaultConfig(), "json"))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	assert.Error(t, writeConfig(&buf, config.DefaultConfig(), "toml"))
}

func TestReadmeCommand_CorruptDocumentIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	docPath := filepath.Join(dir, "stats.json")
	require.NoError(t, os.WriteFile(docPath, []byte(`{"repoStats": [`), 0644))
	readmePath := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readmePath, []byte("# Hi\n---\nkept section\n"), 0644))

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"readme", "-f", docPath, "--readme", readmePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorrupt)

	doc, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, `{"repoStats": [`, string(doc))
	matches, _ := filepath.Glob(docPath + ".corrupt-*")
	assert.Empty(t, matches)

	got, err := os.ReadFile(readmePath)
	require.NoError(t, err)
	assert.Equal(t, "# Hi\n---\nkept section\n", string(got))
}

func TestReadmeCommand_MissingDocument(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	readmePath := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readmePath, []byte("# Hi\n"), 0644))

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"readme", "-f", "missing.json", "--readme", readmePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghstats collect")

	got, err := os.ReadFile(readmePath)
	require.NoError(t, err)
	assert.Equal(t, "# Hi\n", string(got))
}

func TestShowCommand_CorruptDocumentIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	docPath := filepath.Join(dir, "stats.json")
	require.NoError(t, os.WriteFile(docPath, []byte("not json"), 0644))

	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show", "-f", docPath})

	assert.ErrorIs(t, cmd.Execute(), store.ErrCorrupt)
	_, err := os.Stat(docPath)
	assert.NoError(t, err)
}

func TestShowCommand_MissingDocument(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"show", "-f", "missing.json"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No statistics collected yet")
}

// Package config loads ghstats settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/duration"
)

// Config represents the application configuration. Every field is optional;
// unset fields fall back to defaults when the resolved sections are read.
type Config struct {
	Settings *SettingsOverrides `yaml:"settings,omitempty"`
	Readme   *ReadmeOverrides   `yaml:"readme,omitempty"`
	Charts   *ChartOverrides    `yaml:"charts,omitempty"`
}

// SettingsOverrides controls repository collection.
type SettingsOverrides struct {
	Username              *string  `yaml:"username,omitempty"`
	Timezone              *string  `yaml:"timezone,omitempty"`
	IncludeProfileRepo    *bool    `yaml:"include_profile_repo,omitempty"`
	IgnoredRepos          []string `yaml:"ignored_repos,omitempty"`
	Debug                 *bool    `yaml:"debug,omitempty"`
	DebugStepLimit        *int     `yaml:"debug_step_limit,omitempty"`
	Overwrite             *bool    `yaml:"overwrite,omitempty"`
	ExcludedDirs          []string `yaml:"excluded_dirs,omitempty"`
	SourceExtensions      []string `yaml:"source_extensions,omitempty"`
	MaxFileBytes          *int     `yaml:"max_file_bytes,omitempty"`
	RecentWindow          *string  `yaml:"recent_window,omitempty"`
	CollectCommitMessages *bool    `yaml:"collect_commit_messages,omitempty"`
	OutputPath            *string  `yaml:"output_path,omitempty"`
}

// ReadmeOverrides controls the generated README section.
type ReadmeOverrides struct {
	Path                 *string  `yaml:"path,omitempty"`
	ShowRecentCommits    *bool    `yaml:"show_recent_commits,omitempty"`
	GenerateMergedPRs    *bool    `yaml:"generate_merged_prs,omitempty"`
	ShowTotalLinesOfCode *bool    `yaml:"show_total_lines_of_code,omitempty"`
	ShowTotalLibsUsed    *bool    `yaml:"show_total_libs_used,omitempty"`
	ImagePath            *string  `yaml:"image_path,omitempty"`
	ExcludedLibraries    []string `yaml:"excluded_libraries,omitempty"`
}

// ChartOverrides are read by the chart and GIF renderers, which consume the
// aggregate document. The summary reporter honors ExcludedFileTypes.
type ChartOverrides struct {
	GenerateLibsUsedBarChart     *bool    `yaml:"generate_libs_used_bar_chart,omitempty"`
	GenerateFileTypesBarChart    *bool    `yaml:"generate_file_types_bar_chart,omitempty"`
	GenerateConstructCountsGraph *bool    `yaml:"generate_construct_counts_graph,omitempty"`
	GenerateCommitHeatmap        *bool    `yaml:"generate_commit_heatmap,omitempty"`
	GenerateMergedPRsStarsGraph  *bool    `yaml:"generate_merged_prs_stars_graph,omitempty"`
	GenerateLinesGraph           *bool    `yaml:"generate_lines_graph,omitempty"`
	GIFFrameDuration             *int     `yaml:"gif_frame_duration,omitempty"`
	ExcludedFileTypes            []string `yaml:"excluded_file_types,omitempty"`
}

// Settings is the resolved collection configuration.
type Settings struct {
	Username              string
	Location              *time.Location
	IncludeProfileRepo    bool
	IgnoredRepos          []string
	Debug                 bool
	DebugStepLimit        int
	Overwrite             bool
	ExcludedDirs          []string
	SourceExtensions      []string
	MaxFileBytes          int
	RecentWindow          time.Duration
	CollectCommitMessages bool
	OutputPath            string
}

// ReadmeSettings is the resolved README configuration.
type ReadmeSettings struct {
	Path                 string
	ShowRecentCommits    bool
	GenerateMergedPRs    bool
	ShowTotalLinesOfCode bool
	ShowTotalLibsUsed    bool
	ImagePath            string
	ExcludedLibraries    []string
}

// ChartSettings is the resolved chart configuration.
type ChartSettings struct {
	GenerateLibsUsedBarChart     bool
	GenerateFileTypesBarChart    bool
	GenerateConstructCountsGraph bool
	GenerateCommitHeatmap        bool
	GenerateMergedPRsStarsGraph  bool
	GenerateLinesGraph           bool
	GIFFrameDuration             int
	ExcludedFileTypes            []string
}

// DefaultExcludedDirs returns the directory names skipped by the tree walk.
func DefaultExcludedDirs() []string {
	return []string{
		"__pycache__",
		".git",
		"node_modules",
		"venv",
		".venv",
		"build",
		"dist",
		".mypy_cache",
		".pytest_cache",
		".tox",
	}
}

// DefaultSettings returns the collection defaults.
func DefaultSettings() Settings {
	return Settings{
		Location:         time.UTC,
		IgnoredRepos:     []string{},
		ExcludedDirs:     DefaultExcludedDirs(),
		SourceExtensions: []string{"py"},
		MaxFileBytes:     constants.DefaultMaxFileBytes,
		RecentWindow:     constants.DefaultRecentWindow,
		OutputPath:       "repo_data.json",
	}
}

// DefaultReadmeSettings returns the README defaults.
func DefaultReadmeSettings() ReadmeSettings {
	return ReadmeSettings{
		Path:                 "README.md",
		ShowRecentCommits:    true,
		GenerateMergedPRs:    true,
		ShowTotalLinesOfCode: true,
		ShowTotalLibsUsed:    true,
		ImagePath:            "DataVisuals/data.gif",
		ExcludedLibraries:    []string{},
	}
}

// DefaultChartSettings returns the chart defaults.
func DefaultChartSettings() ChartSettings {
	return ChartSettings{
		GenerateLibsUsedBarChart:     true,
		GenerateFileTypesBarChart:    true,
		GenerateConstructCountsGraph: true,
		GenerateCommitHeatmap:        true,
		GenerateMergedPRsStarsGraph:  true,
		GenerateLinesGraph:           true,
		GIFFrameDuration:             10000,
		ExcludedFileTypes:            []string{},
	}
}

// GetSettings returns collection settings with user overrides merged with
// defaults. The timezone and recency window are validated here.
func (c *Config) GetSettings() (Settings, error) {
	s := DefaultSettings()
	o := c.Settings
	if o == nil {
		return s, nil
	}

	set(&s.Username, o.Username)
	set(&s.IncludeProfileRepo, o.IncludeProfileRepo)
	set(&s.Debug, o.Debug)
	set(&s.DebugStepLimit, o.DebugStepLimit)
	set(&s.Overwrite, o.Overwrite)
	set(&s.MaxFileBytes, o.MaxFileBytes)
	set(&s.CollectCommitMessages, o.CollectCommitMessages)
	set(&s.OutputPath, o.OutputPath)
	setSlice(&s.IgnoredRepos, o.IgnoredRepos)
	setSlice(&s.ExcludedDirs, o.ExcludedDirs)
	setSlice(&s.SourceExtensions, o.SourceExtensions)

	if o.Timezone != nil && *o.Timezone != "" {
		loc, err := time.LoadLocation(*o.Timezone)
		if err != nil {
			return s, fmt.Errorf("invalid settings.timezone %q: %w", *o.Timezone, err)
		}
		s.Location = loc
	}
	if o.RecentWindow != nil && *o.RecentWindow != "" {
		d, err := duration.Parse(*o.RecentWindow)
		if err != nil {
			return s, fmt.Errorf("invalid settings.recent_window: %w", err)
		}
		s.RecentWindow = d
	}
	if s.DebugStepLimit < 0 {
		return s, fmt.Errorf("settings.debug_step_limit must not be negative, got %d", s.DebugStepLimit)
	}
	if s.MaxFileBytes <= 0 {
		return s, fmt.Errorf("settings.max_file_bytes must be positive, got %d", s.MaxFileBytes)
	}
	return s, nil
}

// GetReadmeSettings returns README settings with user overrides merged with defaults.
func (c *Config) GetReadmeSettings() ReadmeSettings {
	r := DefaultReadmeSettings()
	o := c.Readme
	if o == nil {
		return r
	}
	set(&r.Path, o.Path)
	set(&r.ShowRecentCommits, o.ShowRecentCommits)
	set(&r.GenerateMergedPRs, o.GenerateMergedPRs)
	set(&r.ShowTotalLinesOfCode, o.ShowTotalLinesOfCode)
	set(&r.ShowTotalLibsUsed, o.ShowTotalLibsUsed)
	set(&r.ImagePath, o.ImagePath)
	setSlice(&r.ExcludedLibraries, o.ExcludedLibraries)
	return r
}

// GetChartSettings returns chart settings with user overrides merged with defaults.
func (c *Config) GetChartSettings() ChartSettings {
	ch := DefaultChartSettings()
	o := c.Charts
	if o == nil {
		return ch
	}
	set(&ch.GenerateLibsUsedBarChart, o.GenerateLibsUsedBarChart)
	set(&ch.GenerateFileTypesBarChart, o.GenerateFileTypesBarChart)
	set(&ch.GenerateConstructCountsGraph, o.GenerateConstructCountsGraph)
	set(&ch.GenerateCommitHeatmap, o.GenerateCommitHeatmap)
	set(&ch.GenerateMergedPRsStarsGraph, o.GenerateMergedPRsStarsGraph)
	set(&ch.GenerateLinesGraph, o.GenerateLinesGraph)
	set(&ch.GIFFrameDuration, o.GIFFrameDuration)
	setSlice(&ch.ExcludedFileTypes, o.ExcludedFileTypes)
	return ch
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setSlice[T any](dst *[]T, v []T) {
	if len(v) > 0 {
		*dst = v
	}
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".ghstats"
	}
	return filepath.Join(configDir, "ghstats")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".ghstats.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .ghstats.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at globalPath and localPath.
// Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("local config: %w", err)
	}
	return mergeConfig(cfg, local), nil
}

func readFile(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	return &Config{
		Settings: mergeSection(global.Settings, local.Settings, mergeSettings),
		Readme:   mergeSection(global.Readme, local.Readme, mergeReadme),
		Charts:   mergeSection(global.Charts, local.Charts, mergeCharts),
	}
}

func mergeSection[T any](global, local *T, merge func(dst, src *T)) *T {
	if global == nil && local == nil {
		return nil
	}
	result := new(T)
	if global != nil {
		*result = *global
	}
	if local != nil {
		merge(result, local)
	}
	return result
}

func mergeSettings(dst, src *SettingsOverrides) {
	pick(&dst.Username, src.Username)
	pick(&dst.Timezone, src.Timezone)
	pick(&dst.IncludeProfileRepo, src.IncludeProfileRepo)
	pickSlice(&dst.IgnoredRepos, src.IgnoredRepos)
	pick(&dst.Debug, src.Debug)
	pick(&dst.DebugStepLimit, src.DebugStepLimit)
	pick(&dst.Overwrite, src.Overwrite)
	pickSlice(&dst.ExcludedDirs, src.ExcludedDirs)
	pickSlice(&dst.SourceExtensions, src.SourceExtensions)
	pick(&dst.MaxFileBytes, src.MaxFileBytes)
	pick(&dst.RecentWindow, src.RecentWindow)
	pick(&dst.CollectCommitMessages, src.CollectCommitMessages)
	pick(&dst.OutputPath, src.OutputPath)
}

func mergeReadme(dst, src *ReadmeOverrides) {
	pick(&dst.Path, src.Path)
	pick(&dst.ShowRecentCommits, src.ShowRecentCommits)
	pick(&dst.GenerateMergedPRs, src.GenerateMergedPRs)
	pick(&dst.ShowTotalLinesOfCode, src.ShowTotalLinesOfCode)
	pick(&dst.ShowTotalLibsUsed, src.ShowTotalLibsUsed)
	pick(&dst.ImagePath, src.ImagePath)
	pickSlice(&dst.ExcludedLibraries, src.ExcludedLibraries)
}

func mergeCharts(dst, src *ChartOverrides) {
	pick(&dst.GenerateLibsUsedBarChart, src.GenerateLibsUsedBarChart)
	pick(&dst.GenerateFileTypesBarChart, src.GenerateFileTypesBarChart)
	pick(&dst.GenerateConstructCountsGraph, src.GenerateConstructCountsGraph)
	pick(&dst.GenerateCommitHeatmap, src.GenerateCommitHeatmap)
	pick(&dst.GenerateMergedPRsStarsGraph, src.GenerateMergedPRsStarsGraph)
	pick(&dst.GenerateLinesGraph, src.GenerateLinesGraph)
	pick(&dst.GIFFrameDuration, src.GIFFrameDuration)
	pickSlice(&dst.ExcludedFileTypes, src.ExcludedFileTypes)
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func pickSlice[T any](dst *[]T, v []T) {
	if len(v) > 0 {
		*dst = v
	}
}

// GetGitHubToken returns the API token from the environment. GITHUB_TOKEN
// wins; TOKEN is accepted as the legacy name. Tokens are never read from
// config files.
func (c *Config) GetGitHubToken() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("TOKEN")
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	s := DefaultSettings()
	r := DefaultReadmeSettings()
	ch := DefaultChartSettings()
	tz := s.Location.String()
	window := "90d"

	return &Config{
		Settings: &SettingsOverrides{
			Username:              &s.Username,
			Timezone:              &tz,
			IncludeProfileRepo:    &s.IncludeProfileRepo,
			IgnoredRepos:          s.IgnoredRepos,
			Debug:                 &s.Debug,
			DebugStepLimit:        &s.DebugStepLimit,
			Overwrite:             &s.Overwrite,
			ExcludedDirs:          s.ExcludedDirs,
			SourceExtensions:      s.SourceExtensions,
			MaxFileBytes:          &s.MaxFileBytes,
			RecentWindow:          &window,
			CollectCommitMessages: &s.CollectCommitMessages,
			OutputPath:            &s.OutputPath,
		},
		Readme: &ReadmeOverrides{
			Path:                 &r.Path,
			ShowRecentCommits:    &r.ShowRecentCommits,
			GenerateMergedPRs:    &r.GenerateMergedPRs,
			ShowTotalLinesOfCode: &r.ShowTotalLinesOfCode,
			ShowTotalLibsUsed:    &r.ShowTotalLibsUsed,
			ImagePath:            &r.ImagePath,
			ExcludedLibraries:    r.ExcludedLibraries,
		},
		Charts: &ChartOverrides{
			GenerateLibsUsedBarChart:     &ch.GenerateLibsUsedBarChart,
			GenerateFileTypesBarChart:    &ch.GenerateFileTypesBarChart,
			GenerateConstructCountsGraph: &ch.GenerateConstructCountsGraph,
			GenerateCommitHeatmap:        &ch.GenerateCommitHeatmap,
			GenerateMergedPRsStarsGraph:  &ch.GenerateMergedPRsStarsGraph,
			GenerateLinesGraph:           &ch.GenerateLinesGraph,
			GIFFrameDuration:             &ch.GIFFrameDuration,
			ExcludedFileTypes:            ch.ExcludedFileTypes,
		},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# ghstats configuration file
# See: ghstats config defaults  (for all available options)

settings:
  # Account to collect; empty means the token's user
  username: ""
  # IANA timezone used for the commit-time heatmap
  timezone: UTC
  # Re-collect repositories already in the output file
  overwrite: false
  # ignored_repos:
  #   - scratchpad

# readme:
#   path: README.md
#   excluded_libraries:
#     - os
#     - sys

# The API token is read from GITHUB_TOKEN (or a .env file), never from here.
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// SetValue sets one key in the config file at path, creating the file if
// needed. Other keys in the file are preserved.
func SetValue(path, key, value string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}

	switch key {
	case "username":
		settingsOf(cfg).Username = &value
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		settingsOf(cfg).Timezone = &value
	case "output_path":
		settingsOf(cfg).OutputPath = &value
	case "recent_window":
		if _, err := duration.Parse(value); err != nil {
			return err
		}
		settingsOf(cfg).RecentWindow = &value
	case "readme_path":
		if cfg.Readme == nil {
			cfg.Readme = &ReadmeOverrides{}
		}
		cfg.Readme.Path = &value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	out, err := cfg.ToYAML()
	if err != nil {
		return err
	}
	return SaveTo(path, out)
}

func settingsOf(cfg *Config) *SettingsOverrides {
	if cfg.Settings == nil {
		cfg.Settings = &SettingsOverrides{}
	}
	return cfg.Settings
}

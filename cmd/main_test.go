package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfgPkg "github.com/xhad/topicnews/pkg/config"
)

func TestRootCommands(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"news", "topics", "read", "related", "serve", "version"}, names)

	topicsCmd, _, err := cmd.Find([]string{"topics", "suggest"})
	require.NoError(t, err)
	assert.Equal(t, "suggest", topicsCmd.Name())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "news:\n  relevance_threshold: 1.5\n")

	_, err := loadConfig(&options{configPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "news.relevance_threshold")
}

func TestLoadConfigFlagOverridesLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	t.Setenv("TOPICNEWS_LOG_LEVEL", "")

	cfg, err := loadConfig(&options{configPath: path, logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestNewAppWithoutDatabase(t *testing.T) {
	cfg, err := cfgPkg.LoadConfig(writeConfig(t, "topics:\n  defaults: [Space, Oceans]\n"))
	require.NoError(t, err)
	cfg.Database.URL = ""

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.store)
	assert.Equal(t, []string{"Space", "Oceans"}, a.topics.List())
	assert.Equal(t, "Space", a.topics.Selected())
	assert.Equal(t, cfg.News.MaxResults, a.filter.Config().MaxResults)
}

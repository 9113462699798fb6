package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, RootCmd)
	assert.Equal(t, "github-bot", RootCmd.Use)
	assert.Contains(t, RootCmd.Long, "GitHub")
}

func TestVersionCommand(t *testing.T) {
	assert.NotNil(t, versionCmd)
	assert.Equal(t, "version", versionCmd.Use)
}

func TestGetGlobalFlags(t *testing.T) {
	InitCLI()

	flags := GetGlobalFlags()
	assert.Equal(t, "config.yaml", flags.Config)
	assert.Equal(t, "./data/github-bot.db", flags.DBPath)
	assert.False(t, flags.Verbose)
}

func TestInitCLIIsIdempotent(t *testing.T) {
	InitCLI()
	InitCLI()

	// Flags registered once; a second init must not panic on redefinition
	assert.NotNil(t, RootCmd.PersistentFlags().Lookup("config"))
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
}

func TestServeCommandRegistered(t *testing.T) {
	InitCLI()

	cmd, _, err := RootCmd.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.Equal(t, "serve", cmd.Use)
}

package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlagSets(t *testing.T, args ...string) (*pflag.FlagSet, *pflag.FlagSet) {
	t.Helper()

	inherited := pflag.NewFlagSet("root", pflag.ContinueOnError)
	inherited.String("config", "", "")
	inherited.String("log-level", "info", "")
	inherited.String("status-addr", "", "")

	local := pflag.NewFlagSet("start", pflag.ContinueOnError)
	local.BoolP("background", "b", false, "")

	all := pflag.NewFlagSet("all", pflag.ContinueOnError)
	all.AddFlagSet(inherited)
	all.AddFlagSet(local)
	require.NoError(t, all.Parse(args))

	return inherited, local
}

func TestBackgroundArgs_ForwardsSetFlags(t *testing.T) {
	inherited, local := testFlagSets(t,
		"-b", "--status-addr", "127.0.0.1:9101", "--log-level=debug", "--config", "/etc/honeyport.yaml")

	assert.Equal(t, []string{
		"start",
		"--config=/etc/honeyport.yaml",
		"--log-level=debug",
		"--status-addr=127.0.0.1:9101",
	}, backgroundArgs(inherited, local))
}

func TestBackgroundArgs_OnlyStart(t *testing.T) {
	inherited, local := testFlagSets(t, "--background")

	assert.Equal(t, []string{"start"}, backgroundArgs(inherited, local))
}

func TestBackgroundArgs_SharedFlagsOnce(t *testing.T) {
	inherited, local := testFlagSets(t, "--log-level", "warn")

	merged := pflag.NewFlagSet("merged", pflag.ContinueOnError)
	merged.AddFlagSet(inherited)
	merged.AddFlagSet(local)

	assert.Equal(t, []string{"start", "--log-level=warn"}, backgroundArgs(merged, inherited))
}

func TestBackgroundArgs_NilFlagSet(t *testing.T) {
	assert.Equal(t, []string{"start"}, backgroundArgs(nil))
}

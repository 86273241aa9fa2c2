package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvbase/lib/common"
	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellSession(t *testing.T) {
	color.NoColor = true

	cfg := common.DefaultConfig()
	cfg.DBPath = t.TempDir()
	cfg.BadgerInMemory = true
	ctx, err := core.Open(cfg)
	require.NoError(t, err)
	defer ctx.Close()

	input := strings.Join([]string{
		"create sales q1.xml",
		"open sales",
		"open sales",
		"list",
		"open inventory",
		"open ../etc",
		"bogus",
		"exit",
		"list",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, Run(ctx, strings.NewReader(input), &out, false))
	got := out.String()

	assert.Contains(t, got, "database 'sales' was created")
	assert.Equal(t, 2, strings.Count(got, "database 'sales' was opened"))
	assert.Contains(t, got, "sales (opened, pins=1)")
	assert.Contains(t, got, "error: database 'inventory' was not found")
	assert.Contains(t, got, "error: invalid database name: '../etc'")
	assert.Contains(t, got, "error: unknown command: bogus")
	assert.Equal(t, 1, strings.Count(got, "1 database(s)"), "commands after exit must not run")

	// the session was ended and its database released
	assert.Equal(t, 0, ctx.SessionCount())
	assert.False(t, ctx.Registry().Pinned("sales"))
}

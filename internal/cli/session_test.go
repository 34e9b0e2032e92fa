package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	day, err := parseDay("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), day)

	_, err = parseDay("01-05-2024")
	assert.Error(t, err)

	_, err = parseDay("2024-13-40")
	assert.Error(t, err)
}

// runScript feeds lines to a session with no logged-in user and returns
// everything it printed. The commands under test are all rejected before
// any service is touched, so the session needs no backing store.
func runScript(t *testing.T, lines ...string) string {
	t.Helper()

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer

	sess := NewSession(nil, nil, in, &out)
	require.NoError(t, sess.Run(context.Background()))

	return out.String()
}

func TestCommandsRequireLogin(t *testing.T) {
	out := runScript(t,
		"search_caregiver_schedule 2024-01-05",
		"reserve 2024-01-05 Pfizer",
		"cancel 3",
		"show_appointments",
		"logout",
		"quit",
	)

	assert.Equal(t, 5, strings.Count(out, "Please login first!"))
	assert.Contains(t, out, "Bye!")
}

func TestCaregiverOnlyCommandsRejectAnonymous(t *testing.T) {
	out := runScript(t,
		"upload_availability 2024-01-05",
		"add_doses Pfizer 10",
		"quit",
	)

	assert.Equal(t, 2, strings.Count(out, "Please login as a caregiver first!"))
}

func TestUnknownCommand(t *testing.T) {
	out := runScript(t, "reservate 2024-01-05 Pfizer", "quit")
	assert.Contains(t, out, "Invalid operation name! Please check your spelling!")
}

func TestBlankLinesIgnored(t *testing.T) {
	out := runScript(t, "", "   ", "quit")
	assert.NotContains(t, out, "Invalid operation name")
	assert.Contains(t, out, "Bye!")
}

package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/store"
)

const fixtureContent = "testdata/content"

// newCharacter creates a character in db and returns it.
func newCharacter(t *testing.T, db string, args ...string) CharacterResult {
	t.Helper()
	out, err := execute(t, append([]string{"new", "--db", db, "--format", "json"}, args...)...)
	require.NoError(t, err, out)
	var c CharacterResult
	decodeData(t, out, &c)
	require.NotEmpty(t, c.ID)
	return c
}

func TestCheckCommand(t *testing.T) {
	clearEnv(t)

	out, err := execute(t, "check", fixtureContent)
	require.NoError(t, err)
	assert.Contains(t, out, "2 qualities, 2 storylets, 0 errors, 0 issues")

	t.Run("content flag", func(t *testing.T) {
		out, err := execute(t, "check", "--content", fixtureContent, "--format", "json")
		require.NoError(t, err)
		var r CheckResult
		decodeData(t, out, &r)
		assert.Equal(t, fixtureContent, r.Dir)
		assert.Equal(t, 2, r.Storylets)
	})

	t.Run("broken content", func(t *testing.T) {
		out, err := execute(t, "check", filepath.Join("testdata", "broken"))
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "E101")
		assert.Contains(t, out, "E103")
	})

	t.Run("missing dir", func(t *testing.T) {
		out, err := execute(t, "check", filepath.Join("testdata", "nope"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})
}

func TestNewCommand(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "s.db")

	c := newCharacter(t, db, "Ada", "-q", "gold=3", "-q", "title=Smith", "--slot", "hand")
	assert.Equal(t, "Ada", c.Name)
	assert.Equal(t, int64(1), c.Version)
	assert.Contains(t, c.Equipment, "hand")

	_, err := execute(t, "new", "--db", db, "Bob", "-q", "gold=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "new", "--db", db, "Bob", "-q", "gold")
	require.Error(t, err)

	_, err = execute(t, "new", "--db", db, "Bob", "-q", "gold=5000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level must be within")
}

func TestParseQualityFlags(t *testing.T) {
	quals, err := parseQualityFlags([]string{"gold=4", "title=Smith", "note= spaced "})
	require.NoError(t, err)
	assert.Equal(t, "4 (cp 10)", ir.FormatState(quals["gold"]))
	assert.Equal(t, `"Smith"`, ir.FormatState(quals["title"]))
	assert.Equal(t, `" spaced "`, ir.FormatState(quals["note"]))
}

// TestCharacterLifecycle walks one character through every mutating
// command, then replays it.
func TestCharacterLifecycle(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "s.db")
	t.Setenv("STORYLET_DB", db)
	t.Setenv("STORYLET_CONTENT", fixtureContent)

	c := newCharacter(t, db, "Ada", "-q", "gold=4", "--slot", "hand")
	id := c.ID

	out, err := execute(t, "eval", id, "$gold >= 4", "--mode", "condition")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "eval", id, "You have {$gold} gold.")
	require.NoError(t, err)
	assert.Equal(t, "You have 4 gold.\n", out)

	out, err = execute(t, "render", id)
	require.NoError(t, err)
	assert.Contains(t, out, "== The Forge (forge)\nYou have 4 gold.\n")
	assert.Contains(t, out, "  x Buy [buy]\n")
	assert.Contains(t, out, "  * Leave [leave]\n")
	assert.NotContains(t, out, "The Vault")

	out, err = execute(t, "render", id, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "== The Vault (vault)\n(not available)\n")

	_, err = execute(t, "render", id, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err = execute(t, "apply", id, "$gold -= 6, $sword++", "--format", "json")
	require.NoError(t, err)
	var applied ApplyResult
	decodeData(t, out, &applied)
	assert.Equal(t, int64(2), applied.Version)
	assert.Equal(t, []string{
		"#1 gold -= 4 (cp 10) -> 2 (cp 4)",
		"#2 sword ++ - -> 1 (cp 1) (created)",
	}, applied.Changes)
	assert.Empty(t, applied.Skipped)

	out, err = execute(t, "equip", id, "hand", "sword")
	require.NoError(t, err)
	assert.Equal(t, "hand: sword\n", out)

	out, err = execute(t, "equip", id, "head", "sword")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E120]")

	out, err = execute(t, "render", id, "--qualities")
	require.NoError(t, err)
	assert.Equal(t, "Gold (gold) 2 (cp 4)\nSword (sword) 1 (cp 1) [hand]\n", out)

	out, err = execute(t, "unequip", id, "hand")
	require.NoError(t, err)
	assert.Equal(t, "hand: -\n", out)

	out, err = execute(t, "apply", id, "$gold += 1, %nosuch[1]")
	require.NoError(t, err)
	assert.Contains(t, out, "#3 gold += 2 (cp 4) -> 2 (cp 5)\n")
	assert.Contains(t, out, "skipped: ")
	assert.Contains(t, out, "saved at version 5\n")

	out, err = execute(t, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "ok "+id+" changes=3 last_seq=3\n")
	assert.Contains(t, out, "1 character(s) replayed\n")

	out, err = execute(t, "replay", id, "--format", "json")
	require.NoError(t, err)
	var replayed ReplayResult
	decodeData(t, out, &replayed)
	assert.True(t, replayed.AllMatch)
	require.Len(t, replayed.Characters, 1)
	assert.Equal(t, replayed.Characters[0].StoredDigest, replayed.Characters[0].Digest)
}

func TestCommands_UnknownCharacter(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "s.db")

	for _, args := range [][]string{
		{"eval", "missing", "x"},
		{"apply", "missing", "$gold++"},
		{"render", "missing"},
		{"equip", "missing", "hand", "sword"},
		{"replay", "missing"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, append(args, "--db", db, "--content", fixtureContent)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), "character not found")
		})
	}
}

func TestEvalCommand_InvalidMode(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "eval", "x", "1", "--mode", "poem")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestReplayCommand_EmptyDatabase(t *testing.T) {
	clearEnv(t)
	out, err := execute(t, "replay", "--db", filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	assert.Equal(t, "0 character(s) replayed\n", out)
}

func TestReplayCommand_DetectsTamperedLog(t *testing.T) {
	clearEnv(t)
	db := filepath.Join(t.TempDir(), "s.db")
	t.Setenv("STORYLET_CONTENT", fixtureContent)

	c := newCharacter(t, db, "Ada", "-q", "gold=2")
	_, err := execute(t, "apply", c.ID, "$gold++", "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE changes SET new = '{"kind":"pyramidal","level":9,"cp":45}' WHERE seq = 1`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "MISMATCH "+c.ID)
}

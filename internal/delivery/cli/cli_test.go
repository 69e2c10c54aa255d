package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"todo_client/internal/domain"
	"todo_client/internal/fakeapi"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupCLI points the CLI at a fresh fake API with a file token store in a
// temp dir, the way a user's shell would between invocations.
func setupCLI(t *testing.T) *fakeapi.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	srv := fakeapi.New(logger, fakeapi.WithPasswordCost(bcrypt.MinCost))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	chdir(t, t.TempDir())
	t.Setenv("TODO_API_URL", ts.URL)
	t.Setenv("TODO_TOKEN_STORE", "file")
	t.Setenv("TODO_TOKEN_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("TODO_PASSWORD", "")
	return srv
}

func runCLI(t *testing.T, args ...string) (map[string]any, string, error) {
	t.Helper()
	return runCLIWith(t, &runtime{LogOutput: io.Discard}, args...)
}

func runCLIWith(t *testing.T, rt *runtime, args ...string) (map[string]any, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(rt)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := run(rt, cmd)

	var env map[string]any
	if stdout.Len() > 0 {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &env), "stdout: %s", stdout.String())
	}
	return env, stderr.String(), err
}

func mustRun(t *testing.T, args ...string) any {
	t.Helper()
	env, stderr, err := runCLI(t, args...)
	require.NoError(t, err, "todo %v\nstderr: %s", args, stderr)
	require.Contains(t, env, "data")
	return env["data"]
}

func TestCLI_SessionAndTodos(t *testing.T) {
	setupCLI(t)

	data := mustRun(t, "register", "--username", "alice", "--email", "alice@example.com", "--password", "secret1", "--confirm", "secret1")
	assert.Equal(t, true, data.(map[string]any)["login_required"])

	data = mustRun(t, "login", "--username", "alice", "--password", "secret1")
	assert.Equal(t, "alice", data.(map[string]any)["username"])

	data = mustRun(t, "whoami")
	assert.Equal(t, "alice@example.com", data.(map[string]any)["email"])

	added := mustRun(t, "todos", "add", "Buy", "milk").(map[string]any)
	assert.Equal(t, "Buy milk", added["task"])
	id := jsonID(added)

	mustRun(t, "todos", "add", "Walk dog")
	toggled := mustRun(t, "todos", "toggle", id).(map[string]any)
	assert.Equal(t, true, toggled["status"])

	pending := mustRun(t, "todos", "list", "--status", "pending").([]any)
	require.Len(t, pending, 1)
	assert.Equal(t, "Walk dog", pending[0].(map[string]any)["task"])

	stats := mustRun(t, "todos", "stats").(map[string]any)
	assert.Equal(t, float64(50), stats["completion_rate"])

	edited := mustRun(t, "todos", "edit", id, "--priority", "high", "--task", "Buy oat milk").(map[string]any)
	assert.Equal(t, "Buy oat milk", edited["task"])
	assert.Equal(t, "high", edited["priority"])

	mustRun(t, "todos", "rm", id)
	all := mustRun(t, "todos", "list").([]any)
	assert.Len(t, all, 1)

	mustRun(t, "logout")
	_, stderr, err := runCLI(t, "todos", "list")
	assert.Error(t, err)
	assert.Contains(t, stderr, "not logged in")
}

func TestCLI_ValidationErrorsAreReported(t *testing.T) {
	setupCLI(t)

	_, stderr, err := runCLI(t, "register", "--username", "al", "--email", "bad", "--password", "123")
	require.Error(t, err)
	assert.Contains(t, stderr, "email: Please enter a valid email address")
	assert.Contains(t, stderr, "password: Password must be at least 6 characters long")
}

func TestCLI_ServerRevocationLogsOut(t *testing.T) {
	srv := setupCLI(t)
	_, err := srv.SeedUser("bob", "bob@example.com", "secret1")
	require.NoError(t, err)

	mustRun(t, "login", "--username", "bob", "--password", "secret1")
	srv.RevokeAll()

	_, stderr, err := runCLI(t, "whoami")
	assert.Error(t, err)
	assert.Contains(t, stderr, "not logged in")
}

func TestCLI_ProfileAndAccount(t *testing.T) {
	srv := setupCLI(t)
	_, err := srv.SeedUser("carol", "carol@example.com", "secret1")
	require.NoError(t, err)
	mustRun(t, "login", "--email", "carol@example.com", "--password", "secret1")

	updated := mustRun(t, "profile", "update", "--name", "Carol", "--bio", "hi").(map[string]any)
	assert.Equal(t, "Carol", updated["name"])
	assert.Equal(t, "hi", updated["bio"])

	mustRun(t, "profile", "password", "--current", "secret1", "--new", "secret2", "--confirm", "secret2")

	_, _, err = runCLI(t, "account", "delete")
	assert.Error(t, err, "requires --yes")

	mustRun(t, "account", "delete", "--yes")
	_, _, err = runCLI(t, "login", "--username", "carol", "--password", "secret2")
	assert.Error(t, err)
}

func TestCLI_Health(t *testing.T) {
	setupCLI(t)
	data := mustRun(t, "health").(map[string]any)
	assert.Equal(t, "ok", data["status"])
}

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError(domain.OK()))
	err := resultError(domain.Result{FieldErrors: map[string]string{"b": "two", "a": "one"}})
	assert.EqualError(t, err, "a: one; b: two")
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func jsonID(item map[string]any) string {
	return strconv.FormatInt(int64(item["id"].(float64)), 10)
}

func TestCLI_FailurePrintsOnceAndReleasesClient(t *testing.T) {
	setupCLI(t)
	t.Setenv("TODO_TOKEN_STORE", "sqlite")
	t.Setenv("TODO_TOKEN_PATH", filepath.Join(t.TempDir(), "session.db"))

	rt := &runtime{LogOutput: io.Discard}
	_, stderr, err := runCLIWith(t, rt, "whoami")
	require.Error(t, err)
	assert.Equal(t, "not logged in\n", stderr)
	assert.Nil(t, rt.app, "the token database is closed after a failed command")
}

func TestCLI_CobraErrorsArePrinted(t *testing.T) {
	setupCLI(t)

	_, stderr, err := runCLI(t, "todos", "toggle")
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(stderr, "accepts 1 arg(s)"), stderr)
}

package e2e_test

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ykulikov/filedepot"
	"github.com/ykulikov/filedepot/client"
	sqliterepo "github.com/ykulikov/filedepot/database/sqlite"
	"github.com/ykulikov/filedepot/filesystem"
	depothttp "github.com/ykulikov/filedepot/http"
)

const testSecret = "e2e-test-secret"

// gateway is a fully wired in-process server: sqlite metadata repo,
// filesystem object store, JWT auth, and the real HTTP surface.
type gateway struct {
	server   *httptest.Server
	verifier *filedepot.TokenVerifier
}

func startGateway(t *testing.T) *gateway {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "e2e.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err, "open database")
	t.Cleanup(func() { _ = db.Close() })

	tables := filedepot.Tables{Files: "filedepot_files"}
	require.NoError(t, sqliterepo.Migrate(ctx, db, tables), "migrate")

	repo, err := sqliterepo.NewRepo(db, tables)
	require.NoError(t, err, "create repo")

	storageDir := t.TempDir()
	root, err := os.OpenRoot(storageDir)
	require.NoError(t, err, "open storage root")
	t.Cleanup(func() { _ = root.Close() })

	service, err := filedepot.NewService(repo, filesystem.New(root), filedepot.ServiceConfig{})
	require.NoError(t, err, "create service")

	verifier, err := filedepot.NewTokenVerifier(filedepot.AuthConfig{Secret: testSecret})
	require.NoError(t, err, "create verifier")

	handler := depothttp.NewHandler(&depothttp.HandlerConfig{Verifier: verifier}, service)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return &gateway{server: server, verifier: verifier}
}

// clientFor mints a token for a fresh owner and returns a client bound to it.
func (g *gateway) clientFor(t *testing.T, owner uuid.UUID) *client.Client {
	t.Helper()

	token, err := g.verifier.Sign(owner)
	require.NoError(t, err, "sign token")

	c, err := client.New(client.Config{Server: g.server.URL, Token: token})
	require.NoError(t, err, "create client")
	return c
}

// writeLocalFile drops content into a temp file and returns its path.
func writeLocalFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

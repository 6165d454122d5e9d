// Package apitest runs the full API over a throwaway SQLite database for
// tests in other packages.
package apitest

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"codenotes/internal/api"
	"codenotes/internal/app/service"
	"codenotes/internal/common/security"
	"codenotes/internal/domain/repository"
	"codenotes/internal/platform/database"
	"codenotes/internal/platform/logger"

	"github.com/stretchr/testify/require"
)

const Secret = "apitest-secret"

type Server struct {
	*httptest.Server
	Problems repository.ProblemRepository
	Topics   repository.TopicRepository
	Users    repository.UserRepository
}

// NewServer starts the router in an httptest.Server. Drift is logged and
// counted but not queued.
func NewServer(t testing.TB) *Server {
	t.Helper()
	db, err := database.Open(context.Background(), database.SQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	security.InitJWT([]byte(Secret))

	problems := repository.NewProblemRepository(db, database.SQLite)
	topics := repository.NewTopicRepository(db, database.SQLite)
	users := repository.NewUserRepository(db, database.SQLite)
	drift := service.NewDriftReporter(logger.Nop(), nil)

	srv := httptest.NewServer(api.NewRouter(api.Services{
		Problems:   service.NewProblemService(problems, topics, users, drift),
		Topics:     service.NewTopicService(topics, problems, users, drift),
		Membership: service.NewMembershipService(users, problems, topics, drift),
		Reconcile:  service.NewReconcileService(problems, topics, users, logger.Nop()),
	}))
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})
	return &Server{Server: srv, Problems: problems, Topics: topics, Users: users}
}

// Token issues a bearer token for userID.
func Token(t testing.TB, userID string) string {
	t.Helper()
	token, err := security.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return token
}

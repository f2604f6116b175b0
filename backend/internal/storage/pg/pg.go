package pg

import (
	"context"
	"database/sql"
	"strings"

	"github.com/poradna-dev/poradna/shared/config"
	"github.com/poradna-dev/poradna/shared/logger"
	"github.com/poradna-dev/poradna/shared/storage/pg"
)

// Storage implements the question, answer, category, user and blob GC
// storage interfaces of the service layer.
type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to database", "host", cfg.Private.Pg.Host, "db", cfg.Private.Pg.Dbname)
	db, err := pg.Connect(ctx, cfg, pg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	logger.Log.Info("connected to database")
	return &Storage{db: db}, nil
}

// Ping is used by the readiness probe.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return pg.WithTx(ctx, s.db, fn)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

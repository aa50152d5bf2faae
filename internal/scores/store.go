// Package scores persists leaderboard scores and produces the rank maps the
// leaderboard renderer consumes.
package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OCAP2/hologram/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrEmptyBoard  = errors.New("board name is empty")
	ErrEmptyPlayer = errors.New("player name is empty")
)

// Score is one player's best value on a board.
type Score struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Board     string    `gorm:"size:64;not null;uniqueIndex:idx_board_player" json:"board"`
	Player    string    `gorm:"size:64;not null;uniqueIndex:idx_board_player" json:"player"`
	Value     float64   `gorm:"not null;index" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store handles the score database connection and queries.
type Store struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Local  bool
	Logger zerolog.Logger
}

// Open connects to the configured backend and migrates the schema.
// A "postgres" store that cannot be reached falls back to SQLite.
func Open(cfg config.ScoresConfig, log zerolog.Logger) (*Store, error) {
	s := &Store{Logger: log}

	var err error
	switch strings.ToLower(cfg.Type) {
	case "postgres":
		s.DB, err = s.openPostgres(cfg.DB)
		if err == nil {
			err = s.ping()
		}
		if err != nil {
			s.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
			s.DB, err = s.openSqlite(cfg.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to get local SQLite DB: %w", err)
			}
		}
	case "sqlite", "":
		s.DB, err = s.openSqlite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown scores backend %q", cfg.Type)
	}

	if s.SqlDB, err = s.DB.DB(); err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if !s.Local {
		s.SqlDB.SetMaxOpenConns(10)
	}

	if err := s.DB.AutoMigrate(&Score{}); err != nil {
		return nil, fmt.Errorf("failed to migrate scores table: %w", err)
	}
	s.Logger.Info().Str("dialect", s.DB.Dialector.Name()).Msg("Scores store ready")
	return s, nil
}

func (s *Store) ping() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Store) openPostgres(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database,
	)

	s.Logger.Debug().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connecting to Postgres DB")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// openSqlite opens path, or a private in-memory database when path is empty.
func (s *Store) openSqlite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	s.Local = true

	if path == "" {
		// every pooled connection to :memory: is its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		s.Logger.Info().Msg("Using local SQLite DB in memory")
	} else {
		s.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	}

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Submit records value for player on board. A player keeps only their best
// value; lower submissions are ignored.
func (s *Store) Submit(ctx context.Context, board, player string, value float64) error {
	if board == "" {
		return ErrEmptyBoard
	}
	if player == "" {
		return ErrEmptyPlayer
	}

	score := Score{Board: board, Player: player, Value: value, UpdatedAt: time.Now()}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "board"}, {Name: "player"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      gorm.Expr("CASE WHEN excluded.value > scores.value THEN excluded.value ELSE scores.value END"),
			"updated_at": gorm.Expr("CASE WHEN excluded.value > scores.value THEN excluded.updated_at ELSE scores.updated_at END"),
		}),
	}).Create(&score).Error
	if err != nil {
		return fmt.Errorf("submit score for %s on %s: %w", player, board, err)
	}
	return nil
}

// Top returns up to limit scores on board, best first. Ties are broken by
// the earliest update, then by player name.
func (s *Store) Top(ctx context.Context, board string, limit int) ([]Score, error) {
	var out []Score
	err := s.DB.WithContext(ctx).
		Where("board = ?", board).
		Order("value DESC").
		Order("updated_at ASC").
		Order("player ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query board %s: %w", board, err)
	}
	return out, nil
}

// Ranked returns the top limit players of board keyed by 1-based rank.
func (s *Store) Ranked(ctx context.Context, board string, limit int) (map[int]string, error) {
	top, err := s.Top(ctx, board, limit)
	if err != nil {
		return nil, err
	}
	ranks := make(map[int]string, len(top))
	for i, score := range top {
		ranks[i+1] = score.Player
	}
	return ranks, nil
}

// Reset deletes every score on board.
func (s *Store) Reset(ctx context.Context, board string) error {
	return s.DB.WithContext(ctx).Where("board = ?", board).Delete(&Score{}).Error
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.SqlDB == nil {
		return nil
	}
	return s.SqlDB.Close()
}

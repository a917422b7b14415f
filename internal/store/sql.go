package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"dream-villa-bot/internal/villa"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id INTEGER PRIMARY KEY,
			budget TEXT NOT NULL DEFAULT '300k-500k',
			location TEXT NOT NULL DEFAULT 'seaside',
			style TEXT NOT NULL DEFAULT 'modern',
			camera_angle TEXT NOT NULL DEFAULT 'orbit',
			current_step TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS image_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER NOT NULL,
			photo_file_id TEXT NOT NULL,
			legend TEXT NOT NULL DEFAULT '',
			likes INTEGER NOT NULL DEFAULT 0,
			created_ts INTEGER NOT NULL
		)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id BIGINT PRIMARY KEY,
			budget TEXT NOT NULL DEFAULT '300k-500k',
			location TEXT NOT NULL DEFAULT 'seaside',
			style TEXT NOT NULL DEFAULT 'modern',
			camera_angle TEXT NOT NULL DEFAULT 'orbit',
			current_step TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS image_data (
			id BIGSERIAL PRIMARY KEY,
			message_id BIGINT NOT NULL,
			photo_file_id TEXT NOT NULL,
			legend TEXT NOT NULL DEFAULT '',
			likes INTEGER NOT NULL DEFAULT 0,
			created_ts BIGINT NOT NULL
		)`,
	},
}

// One statically known statement per field; column names never come from callers.
var preferenceUpserts = map[villa.Field]string{
	villa.FieldBudget: `INSERT INTO user_preferences (user_id, budget) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET budget = excluded.budget`,
	villa.FieldLocation: `INSERT INTO user_preferences (user_id, location) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET location = excluded.location`,
	villa.FieldStyle: `INSERT INTO user_preferences (user_id, style) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET style = excluded.style`,
	villa.FieldCameraAngle: `INSERT INTO user_preferences (user_id, camera_angle) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET camera_angle = excluded.camera_angle`,
}

const (
	selectPreferences = `SELECT budget, location, style, camera_angle FROM user_preferences WHERE user_id = ?`
	selectStep        = `SELECT current_step FROM user_preferences WHERE user_id = ?`
	upsertStep        = `INSERT INTO user_preferences (user_id, current_step) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET current_step = excluded.current_step`

	insertImage = `INSERT INTO image_data (message_id, photo_file_id, legend, created_ts) VALUES (?, ?, ?, ?) RETURNING id`
	selectImage = `SELECT id, message_id, photo_file_id, legend, likes, created_ts FROM image_data WHERE id = ?`
	likeImage   = `UPDATE image_data SET likes = likes + 1 WHERE id = ? RETURNING likes`
)

// SQLStore keeps state in SQLite (modernc) or PostgreSQL (lib/pq).
type SQLStore struct {
	db     *sql.DB
	driver string
}

func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store dsn is empty")
	}
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection serializes writers and keeps the pragma below in effect.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.driver, err)
		}
	}
	return nil
}

func (s *SQLStore) GetPreferences(ctx context.Context, userID int64) (villa.Preferences, error) {
	var p villa.Preferences
	err := s.db.QueryRowContext(ctx, s.rebind(selectPreferences), userID).Scan(
		&p.Budget,
		&p.Location,
		&p.Style,
		&p.CameraAngle,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return villa.DefaultPreferences(), nil
	}
	if err != nil {
		return villa.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

func (s *SQLStore) SetPreference(ctx context.Context, userID int64, field villa.Field, value string) error {
	stmt, ok := preferenceUpserts[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(stmt), userID, value); err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

func (s *SQLStore) GetStep(ctx context.Context, userID int64) (villa.Step, error) {
	var step sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(selectStep), userID).Scan(&step)
	if errors.Is(err, sql.ErrNoRows) {
		return villa.StepNone, nil
	}
	if err != nil {
		return villa.StepNone, fmt.Errorf("get step: %w", err)
	}
	if !step.Valid {
		return villa.StepNone, nil
	}
	return villa.Step(step.String), nil
}

func (s *SQLStore) SetStep(ctx context.Context, userID int64, step villa.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertStep), userID, string(step)); err != nil {
		return fmt.Errorf("set step: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveImage(ctx context.Context, img Image) (int64, error) {
	createdAt := img.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(insertImage),
		img.MessageID,
		img.PhotoFileID,
		img.Legend,
		createdAt.Unix(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save image: %w", err)
	}
	return id, nil
}

func (s *SQLStore) GetImage(ctx context.Context, id int64) (Image, error) {
	var (
		img       Image
		createdTs int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(selectImage), id).Scan(
		&img.ID,
		&img.MessageID,
		&img.PhotoFileID,
		&img.Legend,
		&img.Likes,
		&createdTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, fmt.Errorf("%w: %d", ErrImageNotFound, id)
	}
	if err != nil {
		return Image{}, fmt.Errorf("get image: %w", err)
	}
	img.CreatedAt = time.Unix(createdTs, 0)
	return img, nil
}

func (s *SQLStore) LikeImage(ctx context.Context, id int64) (int, error) {
	var likes int
	err := s.db.QueryRowContext(ctx, s.rebind(likeImage), id).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", ErrImageNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("like image: %w", err)
	}
	return likes, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind turns "?" placeholders into "$n" for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

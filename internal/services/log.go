package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLogNotFound   = fmt.Errorf("%w: log not found", apperr.ErrNotFound)
	ErrNotLogAuthor  = fmt.Errorf("%w: only the author can delete this log", apperr.ErrForbidden)
	ErrEmptyContent  = fmt.Errorf("%w: content is required", apperr.ErrValidation)
	ErrContentLength = fmt.Errorf("%w: content must be at most %d characters", apperr.ErrValidation, models.MaxLogContentLength)
	ErrTooManyTags   = fmt.Errorf("%w: at most %d tags", apperr.ErrValidation, models.MaxLogTags)
)

const logColumns = `l.id, l.author_id, l.content, l.tags, l.image_url, l.likes, l.created_at, l.updated_at, u.username, u.profile_image`

type LogService struct {
	db  *database.DB
	loc *time.Location
	now func() time.Time
}

func NewLogService(db *database.DB, loc *time.Location) *LogService {
	return &LogService{db: db, loc: loc, now: time.Now}
}

func scanLog(row pgx.Row) (*models.Log, error) {
	var l models.Log
	author := &models.Author{}
	err := row.Scan(
		&l.ID, &l.AuthorID, &l.Content, &l.Tags, &l.ImageURL, &l.Likes, &l.CreatedAt, &l.UpdatedAt,
		&author.Username, &author.ProfileImage,
	)
	if err != nil {
		return nil, err
	}
	author.ID = l.AuthorID
	l.Author = author
	if l.Tags == nil {
		l.Tags = []string{}
	}
	if l.Likes == nil {
		l.Likes = []uuid.UUID{}
	}
	return &l, nil
}

// Create stores the log and records today in the author's streak log in the
// same transaction.
func (s *LogService) Create(ctx context.Context, authorID uuid.UUID, content string, tags []string, imageURL *string) (*models.Log, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > models.MaxLogContentLength {
		return nil, ErrContentLength
	}
	tags = normalizeTags(tags)
	if len(tags) > models.MaxLogTags {
		return nil, ErrTooManyTags
	}
	if imageURL != nil && strings.TrimSpace(*imageURL) == "" {
		imageURL = nil
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Persistence("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO logs (author_id, content, tags, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, authorID, content, tags, imageURL).Scan(&id); err != nil {
		return nil, apperr.Persistence("create log", err)
	}

	if _, err := tx.Exec(ctx, appendStreakSQL, authorID, s.now(), s.loc.String()); err != nil {
		return nil, apperr.Persistence("record activity", err)
	}

	log, err := scanLog(tx.QueryRow(ctx, `
		SELECT `+logColumns+`
		FROM logs l JOIN users u ON u.id = l.author_id
		WHERE l.id = $1
	`, id))
	if err != nil {
		return nil, apperr.Persistence("load log", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Persistence("commit transaction", err)
	}
	return log, nil
}

// Feed returns the latest logs from everyone, newest first.
func (s *LogService) Feed(ctx context.Context) ([]models.Log, error) {
	return s.list(ctx, `
		SELECT `+logColumns+`
		FROM logs l JOIN users u ON u.id = l.author_id
		ORDER BY l.created_at DESC
		LIMIT $1
	`, models.FeedLimit)
}

func (s *LogService) ByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Log, error) {
	return s.list(ctx, `
		SELECT `+logColumns+`
		FROM logs l JOIN users u ON u.id = l.author_id
		WHERE l.author_id = $1
		ORDER BY l.created_at DESC
	`, authorID)
}

func (s *LogService) list(ctx context.Context, query string, arg any) ([]models.Log, error) {
	rows, err := s.db.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, apperr.Persistence("list logs", err)
	}
	defer rows.Close()

	logs := []models.Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, apperr.Persistence("scan log", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list logs", err)
	}
	return logs, nil
}

func (s *LogService) Delete(ctx context.Context, logID, actorID uuid.UUID) error {
	var authorID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT author_id FROM logs WHERE id = $1`, logID).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLogNotFound
		}
		return apperr.Persistence("get log", err)
	}
	if authorID != actorID {
		return ErrNotLogAuthor
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM logs WHERE id = $1 AND author_id = $2`, logID, actorID); err != nil {
		return apperr.Persistence("delete log", err)
	}
	return nil
}

// ToggleLike adds userID to the log's likes, or removes it if already there.
func (s *LogService) ToggleLike(ctx context.Context, logID, userID uuid.UUID) (*models.Log, error) {
	log, err := scanLog(s.db.Pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE logs
			SET likes = CASE
				WHEN $2 = ANY(likes) THEN array_remove(likes, $2)
				ELSE array_append(likes, $2)
			END,
			updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+logColumns+`
		FROM updated l JOIN users u ON u.id = l.author_id
	`, logID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, apperr.Persistence("toggle like", err)
	}
	return log, nil
}

// normalizeTags trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling.
func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

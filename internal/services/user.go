package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/models"
	"github.com/devex-hq/devex-api/internal/oauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	maxUsernameTries  = 5
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrForbidden)
	ErrInvalidUsername    = fmt.Errorf("%w: username must be 3-30 letters, digits, - or _", apperr.ErrValidation)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", apperr.ErrValidation)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, MinPasswordLength)
)

// appendStreakSQL appends $2 to the streak log unless the last entry already
// falls on the same calendar day in time zone $3. Check and append are one
// statement, so concurrent posts on the same day add a single entry.
const appendStreakSQL = `
	UPDATE users
	SET streak = array_append(streak, $2::timestamptz), updated_at = NOW()
	WHERE id = $1
	AND (
		cardinality(streak) = 0
		OR (streak[cardinality(streak)] AT TIME ZONE $3)::date <> ($2::timestamptz AT TIME ZONE $3)::date
	)
`

const userColumns = `id, username, email, password_hash, profile_image, provider, provider_id, streak, created_at, updated_at`

type UserService struct {
	db  *database.DB
	loc *time.Location
}

// NewUserService compares streak days in loc.
func NewUserService(db *database.DB, loc *time.Location) *UserService {
	return &UserService{db: db, loc: loc}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ProfileImage,
		&user.Provider, &user.ProviderID, &user.Streak, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.Streak == nil {
		user.Streak = []time.Time{}
	}
	return &user, nil
}

func (s *UserService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if !strings.Contains(email, "@") || len(email) > 255 {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		username, email, hashStr, models.ProviderLocal,
	))
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, apperr.Persistence("create user", err)
	}
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateFromOAuth returns the user linked to the provider identity,
// creating one on first login. A taken username gets a numeric suffix.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Persistence("find oauth user", err)
	}

	image := info.AvatarURL
	if image == "" {
		image = models.DefaultProfileImage
	}

	base := sanitizeUsername(info.Username, info.Email)
	username := base
	for attempt := 0; attempt < maxUsernameTries; attempt++ {
		user, err = scanUser(s.db.Pool.QueryRow(ctx, `
			INSERT INTO users (username, email, profile_image, provider, provider_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userColumns,
			username, strings.ToLower(info.Email), image, info.Provider, info.ID,
		))
		if err == nil {
			return user, nil
		}
		if !errors.Is(uniqueViolation(err), ErrUsernameTaken) {
			break
		}
		username = fmt.Sprintf("%s%d", base, 1000+rand.IntN(9000))
	}

	if conflict := uniqueViolation(err); conflict != nil {
		return nil, conflict
	}
	return nil, apperr.Persistence("create oauth user", err)
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *UserService) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Persistence("get user", err)
	}
	return user, nil
}

// RecordActivity reports whether at started a new streak day.
func (s *UserService) RecordActivity(ctx context.Context, userID uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, appendStreakSQL, userID, at, s.loc.String())
	if err != nil {
		return false, apperr.Persistence("record activity", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListWithEmail returns every user that can receive mail.
func (s *UserService) ListWithEmail(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email <> ''
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, apperr.Persistence("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Persistence("scan user", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list users", err)
	}
	return users, nil
}

func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrUsernameTaken
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrEmailTaken
	}
	return apperr.ErrConflict
}

func sanitizeUsername(preferred, email string) string {
	name := preferred
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}

	out := b.String()
	if len(out) > 25 {
		out = out[:25]
	}
	for len(out) < 3 {
		out += "_"
	}
	return out
}

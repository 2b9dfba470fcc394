package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiwa/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `u.id,u.email,u.name,u.password_hash,u.role`

// ByEmail matches case-insensitively.
func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users u WHERE LOWER(u.email)=LOWER(?)`, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BindSession signs sid in as userID, creating the session row if needed.
func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

// SessionUser returns the user signed in on sid and refreshes last_seen.
// Sessions idle for longer than idle count as signed out; idle <= 0 never
// expires them.
func (r *UserRepo) SessionUser(sid string, idle time.Duration) (*domain.User, error) {
	q := `SELECT ` + userCols + `
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`
	args := []any{sid}
	if idle > 0 {
		q += ` AND s.last_seen >= datetime('now', ?)`
		args = append(args, fmt.Sprintf("-%d seconds", int64(idle/time.Second)))
	}
	var u domain.User
	err := r.DB.Get(&u, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.DB.Exec(`UPDATE sessions SET last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

// ExpireIdle signs out every session idle since before.
func (r *UserRepo) ExpireIdle(before time.Time) (int64, error) {
	res, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL WHERE user_id IS NOT NULL AND last_seen < ?`,
		before.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

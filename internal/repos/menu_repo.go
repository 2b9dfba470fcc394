package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kiwa/internal/domain"
)

type MenuRepo struct{ db *sqlx.DB }

func NewMenuRepo(db *sqlx.DB) *MenuRepo { return &MenuRepo{db: db} }

const menuCols = `
    id, name, description, price, category, image, badge, available,
    created_at, COALESCE(updated_at,'') AS updated_at`

// List returns the menu newest first, optionally narrowed to a category and
// a case-insensitive name substring.
func (r *MenuRepo) List(category domain.Category, search string) ([]domain.MenuItem, error) {
	where := `1=1`
	args := []any{}
	if category != "" {
		where += ` AND category = ?`
		args = append(args, string(category))
	}
	if search != "" {
		where += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscape(strings.ToLower(search))+"%")
	}
	out := []domain.MenuItem{}
	err := r.db.Select(&out, `SELECT`+menuCols+`
	  FROM menu_items
	  WHERE `+where+`
	  ORDER BY datetime(created_at) DESC, rowid DESC`, args...)
	return out, err
}

func (r *MenuRepo) Get(id string) (domain.MenuItem, error) {
	var m domain.MenuItem
	err := r.db.Get(&m, `SELECT`+menuCols+` FROM menu_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// Create stores m under a fresh id and returns the stored row.
func (r *MenuRepo) Create(m domain.MenuItem) (domain.MenuItem, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.db.Exec(`
	  INSERT INTO menu_items(id,name,description,price,category,image,badge,available,created_at)
	  VALUES(?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, m.ID, m.Name, m.Description, m.Price, string(m.Category), m.Image, m.Badge, m.Available)
	if err != nil {
		return domain.MenuItem{}, err
	}
	return r.Get(m.ID)
}

// Update overwrites every column of an existing item.
func (r *MenuRepo) Update(m domain.MenuItem) (domain.MenuItem, error) {
	res, err := r.db.Exec(`
	  UPDATE menu_items
	  SET name=?, description=?, price=?, category=?, image=?, badge=?, available=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, m.Name, m.Description, m.Price, string(m.Category), m.Image, m.Badge, m.Available, m.ID)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.MenuItem{}, ErrNotFound
	}
	return r.Get(m.ID)
}

func (r *MenuRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reseed replaces the whole menu with the house menu.
func (r *MenuRepo) Reseed() (int, error) { return ReseedMenu(r.db) }

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

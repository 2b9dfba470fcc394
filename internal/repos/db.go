package repos

import (
	"errors"
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row lookup by id finds nothing.
var ErrNotFound = errors.New("not found")

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed the menu if the table is empty
	if err := seedMenuIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Menu
CREATE TABLE IF NOT EXISTS menu_items(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL CHECK (category IN ('starter','main','dessert','beverage')),
  image TEXT NOT NULL DEFAULT '',
  badge TEXT NOT NULL DEFAULT '',
  available INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_menu_category   ON menu_items(category);
CREATE INDEX IF NOT EXISTS idx_menu_name       ON menu_items(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_menu_created_at ON menu_items(created_at);

-- Bookings
CREATE TABLE IF NOT EXISTS bookings(
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT NOT NULL DEFAULT '',
  booking_date TEXT NOT NULL,
  booking_time TEXT NOT NULL,
  number_of_guests INTEGER NOT NULL,
  special_requests TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'confirmed',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at);

-- Orders keep their line items as a JSON document
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT NOT NULL DEFAULT '',
  items_json TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  order_type TEXT NOT NULL DEFAULT 'delivery' CHECK (order_type IN ('delivery','pickup')),
  delivery_address TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

-- Saved carts, one JSON payload per key
CREATE TABLE IF NOT EXISTS cart_state(
  key TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  updated_at TEXT
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

type seedItem struct {
	ID, Name, Description string
	Price                 float64
	Category              string
	Badge                 string
}

// SeedMenu is the house menu.
var SeedMenu = []seedItem{
	{"soup-of-the-day", "Soup of the Day", "Chef's special seasonal soup prepared with fresh ingredients", 9.99, "starter", ""},
	{"bread-olive-oil", "Bread with Olive Oil & Balsamic Dip", "Fresh baked artisan bread with premium olive oil and balsamic reduction", 8.99, "starter", ""},
	{"spinach-salad", "Organic Spinach Salad", "Fresh organic spinach with cherry tomatoes, red onions, and house dressing", 12.99, "starter", "Vegetarian"},
	{"crispy-calamari", "Crispy Calamari", "Lightly battered calamari served with lemon aioli", 14.99, "starter", ""},
	{"melinas-burger", "Melina's Burger", "Premium beef burger with special sauce, lettuce, tomato, and crispy fries", 16.99, "main", "Popular"},
	{"rosemary-chicken", "Rosemary Chicken", "Grilled chicken breast with fresh rosemary, garlic, and seasonal vegetables", 18.99, "main", ""},
	{"salmon-black-butter", "Salmon in Black Butter", "Pan-seared salmon with black butter sauce and lemon herb rice", 22.99, "main", "Chef's Pick"},
	{"pumpkin-ravioli", "Pumpkin Ravioli", "Homemade ravioli filled with roasted pumpkin and sage butter", 17.99, "main", "Vegetarian"},
	{"four-onion-tart", "Four-Onion Tart", "Savory tart with caramelized onions and herb crust", 15.99, "main", ""},
	{"moules-mariniere", "Moules Mariniere", "Fresh mussels in white wine and garlic broth", 19.99, "main", ""},
	{"chocolate-lava-cake", "Chocolate Lava Cake", "Warm chocolate cake with molten center and vanilla ice cream", 8.99, "dessert", "Popular"},
	{"tiramisu", "Tiramisu", "Classic Italian dessert with coffee-soaked ladyfingers", 7.99, "dessert", ""},
}

func seedMenuIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM menu_items`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] inserting house menu")
	return insertSeedMenu(db)
}

// ReseedMenu wipes the menu and inserts the house menu again.
func ReseedMenu(db *sqlx.DB) (int, error) {
	if _, err := db.Exec(`DELETE FROM menu_items`); err != nil {
		return 0, err
	}
	if err := insertSeedMenu(db); err != nil {
		return 0, err
	}
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM menu_items`)
	return n, err
}

func insertSeedMenu(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range SeedMenu {
		if _, err := tx.Exec(`
			INSERT INTO menu_items(id,name,description,price,category,image,badge,available,created_at)
			VALUES(?,?,?,?,?,?,?,1,CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO NOTHING
		`, m.ID, m.Name, m.Description, m.Price, m.Category, "/images/menu/"+m.ID+".jpg", m.Badge); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures one USER and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-melina", "melina@kiwa.test", "Melina", "USER", "Passw0rd!"),
		mk("u-admin", "admin@kiwa.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}

package domain

type Category string

const (
	CategoryStarter  Category = "starter"
	CategoryMain     Category = "main"
	CategoryDessert  Category = "dessert"
	CategoryBeverage Category = "beverage"
)

// Categories in menu display order.
var Categories = []Category{CategoryStarter, CategoryMain, CategoryDessert, CategoryBeverage}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

func (c Category) Title() string {
	switch c {
	case CategoryStarter:
		return "Starters"
	case CategoryMain:
		return "Mains"
	case CategoryDessert:
		return "Desserts"
	case CategoryBeverage:
		return "Drinks"
	}
	return string(c)
}

type MenuItem struct {
	ID          string   `db:"id" json:"_id"`
	Name        string   `db:"name" json:"name"`
	Description string   `db:"description" json:"description"`
	Price       float64  `db:"price" json:"price"`
	Category    Category `db:"category" json:"category"`
	Image       string   `db:"image" json:"image"`
	Badge       string   `db:"badge" json:"badge,omitempty"`
	Available   bool     `db:"available" json:"available"`
	CreatedAt   string   `db:"created_at" json:"createdAt"`
	UpdatedAt   string   `db:"updated_at" json:"updatedAt"`
}

// MenuFilter narrows a menu listing. Zero values match everything.
type MenuFilter struct {
	Category Category
	Search   string
}

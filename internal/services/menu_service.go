package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kiwa/internal/domain"
	"kiwa/internal/repos"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

type MenuService struct {
	Repo *repos.MenuRepo
}

func NewMenuService(repo *repos.MenuRepo) *MenuService { return &MenuService{Repo: repo} }

// Menu lists items newest first. ctx is accepted so the service can stand in
// for the remote catalog.
func (s *MenuService) Menu(_ context.Context, f domain.MenuFilter) ([]domain.MenuItem, error) {
	return s.Repo.List(f.Category, strings.TrimSpace(f.Search))
}

func (s *MenuService) MenuItem(_ context.Context, id string) (domain.MenuItem, error) {
	m, err := s.Repo.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return m, ErrNotFound
	}
	return m, err
}

// MenuInput carries the admin form. Nil fields are left as they are on
// update; on create they take their defaults.
type MenuInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Badge       *string  `json:"badge"`
	Available   *bool    `json:"available"`
}

func (in MenuInput) apply(m *domain.MenuItem) error {
	if in.Name != nil {
		if n := strings.TrimSpace(*in.Name); n != "" {
			m.Name = n
		}
	}
	if in.Description != nil && *in.Description != "" {
		m.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return fmt.Errorf("%w: price must not be negative", ErrInvalid)
		}
		m.Price = *in.Price
	}
	if in.Category != nil && *in.Category != "" {
		c := domain.Category(strings.ToLower(strings.TrimSpace(*in.Category)))
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalid, *in.Category)
		}
		m.Category = c
	}
	if in.Image != nil && *in.Image != "" {
		m.Image = *in.Image
	}
	if in.Badge != nil {
		m.Badge = strings.TrimSpace(*in.Badge)
	}
	if in.Available != nil {
		m.Available = *in.Available
	}
	return nil
}

func (s *MenuService) Create(in MenuInput) (domain.MenuItem, error) {
	m := domain.MenuItem{Available: true}
	if err := in.apply(&m); err != nil {
		return m, err
	}
	if m.Name == "" || m.Description == "" || in.Price == nil || m.Category == "" {
		return m, fmt.Errorf("%w: name, description, price and category are required", ErrInvalid)
	}
	return s.Repo.Create(m)
}

// Update changes only the fields present in in.
func (s *MenuService) Update(id string, in MenuInput) (domain.MenuItem, error) {
	m, err := s.MenuItem(context.Background(), id)
	if err != nil {
		return m, err
	}
	if err := in.apply(&m); err != nil {
		return m, err
	}
	m, err = s.Repo.Update(m)
	if errors.Is(err, repos.ErrNotFound) {
		return m, ErrNotFound
	}
	return m, err
}

func (s *MenuService) Delete(id string) error {
	err := s.Repo.Delete(id)
	if errors.Is(err, repos.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *MenuService) Reseed() (int, error) { return s.Repo.Reseed() }

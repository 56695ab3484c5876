package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Owner is the account that owns the seeded products.
type Owner struct {
	Username string `yaml:"username" validate:"required,min=3"`
	Email    string `yaml:"email" validate:"required,email"`
	FullName string `yaml:"fullName"`
	Password string `yaml:"password" validate:"required,min=6"`
}

// Data is the content of a seed file.
type Data struct {
	Owner    Owner                         `yaml:"owner" validate:"required"`
	Products []models.CreateProductRequest `yaml:"products" validate:"dive"`
}

// Result summarises a seed run.
type Result struct {
	Purged  int64
	Created int
}

// Load decodes and validates seed data.
func Load(r io.Reader) (*Data, error) {
	var data Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}
	if err := models.NewValidator().Struct(data); err != nil {
		return nil, fmt.Errorf("invalid seed data: %w", err)
	}
	return &data, nil
}

// LoadFile reads seed data from path.
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Seeder replaces the catalog content with a fixture set.
type Seeder struct {
	products *services.ProductService
	auth     *services.AuthService
	users    repositories.UserRepository
	log      zerolog.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(products *services.ProductService, auth *services.AuthService, users repositories.UserRepository, log zerolog.Logger) *Seeder {
	return &Seeder{products: products, auth: auth, users: users, log: log}
}

// Run deletes every product, makes sure the owner exists, then creates the
// products in file order. It stops at the first failing product.
func (s *Seeder) Run(ctx context.Context, data *Data) (*Result, error) {
	purged, err := s.products.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to purge products: %w", err)
	}

	owner, err := s.owner(ctx, data.Owner)
	if err != nil {
		return nil, err
	}

	res := &Result{Purged: purged}
	for _, req := range data.Products {
		if _, err := s.products.Create(ctx, req, owner); err != nil {
			return res, fmt.Errorf("failed to seed product %q: %w", req.Title, err)
		}
		res.Created++
	}
	s.log.Info().Int64("purged", res.Purged).Int("created", res.Created).Msg("seed completed")
	return res, nil
}

func (s *Seeder) owner(ctx context.Context, o Owner) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, o.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	user = &models.User{Username: o.Username, Email: o.Email, FullName: o.FullName, Password: o.Password}
	if err := s.auth.RegisterUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register seed owner: %w", err)
	}
	return user, nil
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/rs/zerolog"
)

// Routing keys of the product events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventProductsPurged = "product.purged"
)

// EventPublisher sends an event body under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is the body of every product.* message.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"productId,omitempty"`
	Title      string    `json:"title,omitempty"`
	Slug       string    `json:"slug,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Count      int64     `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
	log    zerolog.Logger
}

// NewProductService creates a new ProductService. events may be nil, in which
// case no events are published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, log zerolog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
		log:    log.With().Str("component", "product_service").Logger(),
	}
}

// Create creates a product owned by user and returns its flattened form.
func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest, user *models.User) (*models.ProductResponse, error) {
	product, err := s.repo.Create(ctx, req, user)
	if err != nil {
		return nil, err
	}
	s.publish(EventProductCreated, productEvent(EventProductCreated, product, user))
	resp := product.Flatten()
	return &resp, nil
}

// List returns one flattened page of products.
func (s *ProductService) List(ctx context.Context, params repositories.ListParams) (*models.ProductPage, error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	out := &models.ProductPage{
		Count:    page.Count,
		Pages:    page.Pages,
		Products: make([]models.ProductResponse, 0, len(page.Products)),
	}
	for i := range page.Products {
		out.Products = append(out.Products, page.Products[i].Flatten())
	}
	return out, nil
}

// FindOne resolves a product by id, title or slug.
func (s *ProductService) FindOne(ctx context.Context, term string) (*models.ProductResponse, error) {
	product, err := s.repo.FindByKey(ctx, term)
	if err != nil {
		return nil, err
	}
	resp := product.Flatten()
	return &resp, nil
}

// Update applies a partial update and returns the flattened result.
func (s *ProductService) Update(ctx context.Context, id string, req models.UpdateProductRequest, user *models.User) (*models.ProductResponse, error) {
	product, err := s.repo.Update(ctx, id, req, user)
	if err != nil {
		return nil, err
	}
	s.publish(EventProductUpdated, productEvent(EventProductUpdated, product, user))
	resp := product.Flatten()
	return &resp, nil
}

// Remove deletes the product matching term.
func (s *ProductService) Remove(ctx context.Context, term string) error {
	product, err := s.repo.Remove(ctx, term)
	if err != nil {
		return err
	}
	s.publish(EventProductDeleted, productEvent(EventProductDeleted, product, nil))
	return nil
}

// DeleteAll removes every product and reports how many were removed.
func (s *ProductService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(EventProductsPurged, ProductEvent{Type: EventProductsPurged, Count: n, OccurredAt: time.Now().UTC()})
	return n, nil
}

// publish is best effort: a failed event never fails the write that caused it.
func (s *ProductService) publish(routingKey string, event ProductEvent) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Str("event", routingKey).Msg("failed to marshal event")
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		s.log.Warn().Err(err).Str("event", routingKey).Str("product_id", event.ProductID).Msg("failed to publish event")
	}
}

func productEvent(kind string, p *models.Product, user *models.User) ProductEvent {
	event := ProductEvent{
		Type:       kind,
		ProductID:  p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		OccurredAt: time.Now().UTC(),
	}
	if user != nil {
		event.UserID = user.ID
	}
	return event
}

package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, req models.CreateProductRequest, user *models.User) (*models.Product, error) {
	args := m.Called(ctx, req, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, params repositories.ListParams) (*repositories.Page, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.Page), args.Error(1)
}

func (m *MockProductRepository) FindByKey(ctx context.Context, term string) (*models.Product, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id string, req models.UpdateProductRequest, user *models.User) (*models.Product, error) {
	args := m.Called(ctx, id, req, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Remove(ctx context.Context, term string) (*models.Product, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

func decodeEvent(t *testing.T, body []byte) services.ProductEvent {
	t.Helper()
	var event services.ProductEvent
	require.NoError(t, json.Unmarshal(body, &event))
	return event
}

func sampleProduct() *models.Product {
	return &models.Product{
		ID:           "6a1f3a52-2f0e-4a43-9a1c-3b2f3f6a6b7e",
		Title:        "Tee",
		Slug:         "tee",
		Gender:       models.GenderUnisex,
		Images:       []models.ProductImage{{ID: 1, URL: "a.png"}},
		StockEntries: []models.ProductStock{{ID: 1, Size: "M", Quantity: 5}},
	}
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	user := &models.User{ID: "u-1", Username: "owner"}
	req := models.CreateProductRequest{Title: "Tee", Gender: models.GenderUnisex, Images: []string{"a.png"}}

	mockRepo.On("Create", ctx, req, user).Return(sampleProduct(), nil).Once()
	mockEvents.On("Publish", services.EventProductCreated, mock.Anything).Return(nil).Once()

	resp, err := service.Create(ctx, req, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, resp.Images)
	assert.Equal(t, []models.StockEntryResponse{{Size: "M", Quantity: 5}}, resp.StockEntries)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)

	event := decodeEvent(t, mockEvents.Calls[0].Arguments.Get(1).([]byte))
	assert.Equal(t, services.EventProductCreated, event.Type)
	assert.Equal(t, "tee", event.Slug)
	assert.Equal(t, "u-1", event.UserID)
}

func TestProductService_Create_ConflictPublishesNothing(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	req := models.CreateProductRequest{Title: "Tee", Gender: models.GenderUnisex}
	conflict := fmt.Errorf("%w: duplicate title", repositories.ErrConflict)
	mockRepo.On("Create", ctx, req, (*models.User)(nil)).Return(nil, conflict).Once()

	resp, err := service.Create(ctx, req, nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, repositories.ErrConflict)
	mockEvents.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProductService_Create_PublishFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	req := models.CreateProductRequest{Title: "Tee", Gender: models.GenderUnisex}
	mockRepo.On("Create", ctx, req, (*models.User)(nil)).Return(sampleProduct(), nil).Once()
	mockEvents.On("Publish", services.EventProductCreated, mock.Anything).Return(errors.New("channel closed")).Once()

	resp, err := service.Create(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "tee", resp.Slug)
	mockEvents.AssertExpectations(t)
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, zerolog.Nop())

	params := repositories.ListParams{Limit: 1, Gender: models.GenderWomen}
	mockRepo.On("List", ctx, params).Return(&repositories.Page{
		Products: []models.Product{*sampleProduct()},
		Count:    3,
		Pages:    3,
	}, nil).Once()

	page, err := service.List(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Products, 1)
	assert.Equal(t, []string{"a.png"}, page.Products[0].Images)
	mockRepo.AssertExpectations(t)

	mockRepo.On("List", ctx, repositories.ListParams{}).Return(&repositories.Page{}, nil).Once()
	page, err = service.List(ctx, repositories.ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
}

func TestProductService_FindOne(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, zerolog.Nop())

	mockRepo.On("FindByKey", ctx, "tee").Return(sampleProduct(), nil).Once()
	resp, err := service.FindOne(ctx, "tee")
	require.NoError(t, err)
	assert.Equal(t, "Tee", resp.Title)

	notFound := fmt.Errorf("%w: product with missing", repositories.ErrNotFound)
	mockRepo.On("FindByKey", ctx, "missing").Return(nil, notFound).Once()
	resp, err = service.FindOne(ctx, "missing")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	empty := []string{}
	req := models.UpdateProductRequest{Images: &empty}
	updated := sampleProduct()
	updated.Images = nil

	mockRepo.On("Update", ctx, updated.ID, req, (*models.User)(nil)).Return(updated, nil).Once()
	mockEvents.On("Publish", services.EventProductUpdated, mock.Anything).Return(nil).Once()

	resp, err := service.Update(ctx, updated.ID, req, nil)
	require.NoError(t, err)
	assert.NotNil(t, resp.Images)
	assert.Empty(t, resp.Images)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestProductService_Update_InternalError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	req := models.UpdateProductRequest{}
	mockRepo.On("Update", ctx, "id", req, (*models.User)(nil)).Return(nil, repositories.ErrInternal).Once()

	_, err := service.Update(ctx, "id", req, nil)
	assert.ErrorIs(t, err, repositories.ErrInternal)
	mockEvents.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProductService_Remove(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	mockRepo.On("Remove", ctx, "tee").Return(sampleProduct(), nil).Once()
	mockEvents.On("Publish", services.EventProductDeleted, mock.Anything).Return(nil).Once()
	require.NoError(t, service.Remove(ctx, "tee"))

	mockRepo.On("Remove", ctx, "gone").Return(nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, service.Remove(ctx, "gone"), repositories.ErrNotFound)

	mockRepo.AssertExpectations(t)
	mockEvents.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProductService_DeleteAll(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockEvents, zerolog.Nop())

	mockRepo.On("DeleteAll", ctx).Return(int64(4), nil).Once()
	mockEvents.On("Publish", services.EventProductsPurged, mock.Anything).Return(nil).Once()

	n, err := service.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	event := decodeEvent(t, mockEvents.Calls[0].Arguments.Get(1).([]byte))
	assert.Equal(t, int64(4), event.Count)
	mockRepo.AssertExpectations(t)
}

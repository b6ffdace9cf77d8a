// Package handler provides HTTP handlers for product-related operations.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/abgdnv/productcatalog/internal/platform/web"
	producterrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/abgdnv/productcatalog/internal/product/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	msgCreated           = "Product created successfully"
	msgRetrieved         = "Product retrieved successfully"
	msgListRetrieved     = "Products retrieved successfully"
	msgListEmpty         = "No products available"
	msgUpdated           = "Product updated successfully"
	msgDeleted           = "Product deleted successfully"
	msgNotFound          = "Product not found"
	msgNameRequired      = "Product name is required"
	msgNewNameRequired   = "New product name is required"
	msgBothNamesRequired = "Both old and new product names are required"
	msgInvalidPrice      = "Product price must be a positive number"
	msgInvalidBody       = "Invalid request body"
	msgDuplicateName     = "Product with this name already exists."
	msgNameNotUnique     = "Product name must be unique"
)

// ProductAPI defines HTTP handlers for product-related endpoints.
type ProductAPI interface {
	CreateProduct(w http.ResponseWriter, r *http.Request)
	GetAllProducts(w http.ResponseWriter, r *http.Request)
	GetProductByID(w http.ResponseWriter, r *http.Request)
	GetProductByName(w http.ResponseWriter, r *http.Request)
	UpdateProductByID(w http.ResponseWriter, r *http.Request)
	UpdateProductByName(w http.ResponseWriter, r *http.Request)
	DeleteProductByID(w http.ResponseWriter, r *http.Request)
	DeleteProductByName(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
	RegisterRoutes(r chi.Router)
}

type api struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPI creates a new instance of ProductAPI with the provided service.
func NewAPI(service service.ProductService, logger *slog.Logger) ProductAPI {
	return &api{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "api"),
	}
}

// RegisterRoutes registers the product routes under /api/products and the health check.
func (a *api) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/create-product", a.CreateProduct)
		r.Get("/all-products", a.GetAllProducts)
		r.Get("/id/{id}", a.GetProductByID)
		r.Get("/name", a.GetProductByName)
		r.Put("/update/{id}", a.UpdateProductByID)
		r.Put("/update", a.UpdateProductByName)
		r.Delete("/delete/{id}", a.DeleteProductByID)
		r.Delete("/delete", a.DeleteProductByName)
	})

	r.Get("/healthz", a.HealthCheck)
}

// CreateProduct handles the creation of a new product.
func (a *api) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	var dto service.ProductCreateDto
	if msg, ok := decodeBody(r, &dto, msgNameRequired); !ok {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "reason", msg)
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}
	if msg, ok := a.validateDto(dto, msgNameRequired); !ok {
		mLogger.WarnContext(r.Context(), "Validation failed", "reason", msg)
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create product", "Name", dto.Name)
	created, err := a.service.CreateProduct(r.Context(), dto)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error creating product", err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondSuccess(w, mLogger, http.StatusCreated, msgCreated, []service.ProductDto{*created})
}

// GetAllProducts returns every product in creation order.
func (a *api) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	list, err := a.service.GetAllProducts(r.Context())
	if err != nil {
		respondServiceError(w, r, mLogger, "Error retrieving product list", err)
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	if len(list) == 0 {
		web.RespondSuccess(w, mLogger, http.StatusOK, msgListEmpty, []service.ProductDto{})
		return
	}
	web.RespondSuccess(w, mLogger, http.StatusOK, msgListRetrieved, list)
}

// GetProductByID retrieves a product by its ID.
func (a *api) GetProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := a.service.GetProductByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error retrieving product", err)
		return
	}
	if found == nil {
		mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, msgNotFound)
		return
	}
	web.RespondSuccess(w, mLogger, http.StatusOK, msgRetrieved, found)
}

// GetProductByName retrieves a product by the name query parameter.
func (a *api) GetProductByName(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	name := r.URL.Query().Get("name")
	if name == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, msgNameRequired)
		return
	}
	found, err := a.service.GetProductByName(r.Context(), name)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error retrieving product", err)
		return
	}
	if found == nil {
		mLogger.WarnContext(r.Context(), "Product not found", "Name", name)
		web.RespondError(w, mLogger, http.StatusNotFound, msgNotFound)
		return
	}
	web.RespondSuccess(w, mLogger, http.StatusOK, msgRetrieved, found)
}

// UpdateProductByID replaces name, price and description of a product.
func (a *api) UpdateProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.ProductUpdateDto
	if msg, ok := decodeBody(r, &dto, msgNewNameRequired); !ok {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "reason", msg)
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}
	if msg, ok := a.validateDto(dto, msgNewNameRequired); !ok {
		mLogger.WarnContext(r.Context(), "Validation failed", "reason", msg)
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}

	updated, err := a.service.UpdateProductByID(r.Context(), id, dto)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error updating product", err)
		return
	}
	if updated == nil {
		mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, msgNotFound)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", id, "Name", updated.Name)
	web.RespondSuccess(w, mLogger, http.StatusOK, msgUpdated, updated)
}

// UpdateProductByName renames the product given by the oldName query parameter.
func (a *api) UpdateProductByName(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	oldName := r.URL.Query().Get("oldName")
	var dto service.ProductUpdateDto
	if msg, ok := decodeBody(r, &dto, msgBothNamesRequired); !ok {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "reason", msg)
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}
	if oldName == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, msgBothNamesRequired)
		return
	}
	if msg, ok := a.validateDto(dto, msgBothNamesRequired); !ok {
		mLogger.WarnContext(r.Context(), "Validation failed", "reason", msg)
		web.RespondError(w, mLogger, http.StatusBadRequest, msg)
		return
	}

	updated, err := a.service.UpdateProductByName(r.Context(), oldName, dto)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error updating product", err)
		return
	}
	if updated == nil {
		mLogger.WarnContext(r.Context(), "Product not found for update", "Name", oldName)
		web.RespondError(w, mLogger, http.StatusNotFound, msgNotFound)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "OldName", oldName, "Name", updated.Name)
	web.RespondSuccess(w, mLogger, http.StatusOK, msgUpdated, updated)
}

// DeleteProductByID deletes a product by its ID.
func (a *api) DeleteProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	deleted, err := a.service.DeleteProductByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error deleting product", err)
		return
	}
	if !deleted {
		mLogger.WarnContext(r.Context(), "Product not found for deletion", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, msgNotFound)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondSuccess(w, mLogger, http.StatusOK, msgDeleted, nil)
}

// DeleteProductByName deletes the product given by the name query parameter.
func (a *api) DeleteProductByName(w http.ResponseWriter, r *http.Request) {
	mLogger := loggerWithReqID(r, a)
	name := r.URL.Query().Get("name")
	if name == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, msgNameRequired)
		return
	}
	deleted, err := a.service.DeleteProductByName(r.Context(), name)
	if err != nil {
		respondServiceError(w, r, mLogger, "Error deleting product", err)
		return
	}
	if !deleted {
		mLogger.WarnContext(r.Context(), "Product not found for deletion", "Name", name)
		web.RespondError(w, mLogger, http.StatusNotFound, msgNotFound)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "Name", name)
	web.RespondSuccess(w, mLogger, http.StatusOK, msgDeleted, nil)
}

// HealthCheck is a simple health check endpoint.
func (a *api) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError is the single place where service failures become HTTP responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, producterrors.ErrDuplicateName):
		logger.WarnContext(r.Context(), msg, "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, msgDuplicateName)
	case errors.Is(err, producterrors.ErrNameConstraint):
		logger.WarnContext(r.Context(), msg, "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, msgNameNotUnique)
	default:
		logger.ErrorContext(r.Context(), msg, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, web.InternalErrorMessage)
	}
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
// On failure it returns the client message: a wrongly typed price or name gets its
// field message, anything else is an invalid body.
func decodeBody(r *http.Request, dst any, nameMsg string) (string, bool) {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return "", true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "price":
			return msgInvalidPrice, false
		case "name":
			return nameMsg, false
		}
	}
	return msgInvalidBody, false
}

// validateDto runs the validator tags and maps the first failing field to its message.
func (a *api) validateDto(dto any, nameMsg string) (string, bool) {
	err := a.validate.Struct(dto)
	if err == nil {
		return "", true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		if validationErrors[0].Field() == "Name" {
			return nameMsg, false
		}
		return msgInvalidPrice, false
	}
	return msgInvalidBody, false
}

// parseID extracts the product ID from the request path.
// Non-integer IDs cannot match any product and are answered with 404.
func parseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	pathValueID := r.PathValue("id")
	id, err := strconv.ParseInt(pathValueID, 10, 64)
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid product ID", "ID", pathValueID)
		web.RespondError(w, logger, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return id, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func loggerWithReqID(r *http.Request, a *api) *slog.Logger {
	reqID, found := web.GetRequestID(r.Context())
	if !found {
		reqID = "unknown"
	}
	return a.logger.With("request_id", reqID)
}

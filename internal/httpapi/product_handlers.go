package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"shelflife.org/internal/audit"
	"shelflife.org/internal/auth"
	"shelflife.org/internal/inventory"
)

type createProductRequest struct {
	Name                string `json:"name"`
	Category            string `json:"category"`
	Barcode             string `json:"barcode"`
	ExpirationDaysDelta int    `json:"expirationDaysDelta"`
	RunningLow          int    `json:"runningLow"`
}

type updateProductRequest struct {
	Name                *string `json:"name"`
	Category            *string `json:"category"`
	Barcode             *string `json:"barcode"`
	ExpirationDaysDelta *int    `json:"expirationDaysDelta"`
	RunningLow          *int    `json:"runningLow"`
}

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProducts(w, r)
	case http.MethodPost:
		a.createProduct(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/products/")

	if path == "categories" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listCategories(w, r)
		return
	}

	if code, found := strings.CutPrefix(path, "barcode/"); found {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		code = strings.TrimSuffix(code, "/")
		if code == "" || strings.Contains(code, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.getProductByBarcode(w, r, code)
		return
	}

	id, ok := parseResourceID(w, r, "/api/products/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getProduct(w, r, id)
	case http.MethodPatch:
		a.updateProduct(w, r, id)
	case http.MethodDelete:
		a.deleteProduct(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := a.products.List(r.Context(), principalFrom(r.Context()), q.Get("name"), q.Get("category"))
	if err != nil {
		handleProductError(w, r, err)
		return
	}
	if products == nil {
		products = []*inventory.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.products.Categories(r.Context(), principalFrom(r.Context()))
	if err != nil {
		handleProductError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request, id int64) {
	product, err := a.products.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		handleProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) getProductByBarcode(w http.ResponseWriter, r *http.Request, code string) {
	product, err := a.products.GetByBarcode(r.Context(), principalFrom(r.Context()), code)
	if err != nil {
		handleProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeFieldError(w, http.StatusBadRequest, "name", "Name cannot be empty")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeFieldError(w, http.StatusBadRequest, "category", "Category cannot be empty")
		return
	}
	if len(req.Barcode) > 40 {
		writeFieldError(w, http.StatusBadRequest, "barcode", "The barcode can only be 40 characters long")
		return
	}
	if req.ExpirationDaysDelta < 1 {
		writeFieldError(w, http.StatusBadRequest, "expirationDaysDelta", "Expiration delta must be larger than 0")
		return
	}
	if req.RunningLow < 1 {
		writeFieldError(w, http.StatusBadRequest, "runningLow", "Running low must be larger than 0")
		return
	}

	product, err := a.products.Create(r.Context(), principalFrom(r.Context()), inventory.CreateRequest{
		Name:                req.Name,
		Category:            req.Category,
		Barcode:             req.Barcode,
		ExpirationDaysDelta: req.ExpirationDaysDelta,
		RunningLow:          req.RunningLow,
	})
	if err != nil {
		handleProductError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "product.create", map[string]any{"product_id": product.ID})

	writeJSON(w, http.StatusCreated, product)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Barcode != nil && len(*req.Barcode) > 40 {
		writeFieldError(w, http.StatusBadRequest, "barcode", "The barcode can only be 40 characters long")
		return
	}
	if req.ExpirationDaysDelta != nil && *req.ExpirationDaysDelta < 1 {
		writeFieldError(w, http.StatusBadRequest, "expirationDaysDelta", "Expiration delta must be larger than 0")
		return
	}
	if req.RunningLow != nil && *req.RunningLow < 1 {
		writeFieldError(w, http.StatusBadRequest, "runningLow", "Running low must be larger than 0")
		return
	}

	product, err := a.products.Update(r.Context(), principalFrom(r.Context()), id, inventory.UpdateRequest{
		Name:                req.Name,
		Category:            req.Category,
		Barcode:             req.Barcode,
		ExpirationDaysDelta: req.ExpirationDaysDelta,
		RunningLow:          req.RunningLow,
	})
	if err != nil {
		handleProductError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "product.update", map[string]any{"product_id": id})

	writeJSON(w, http.StatusOK, product)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.products.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
		handleProductError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "product.delete", map[string]any{"product_id": id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleProductError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, "access denied")
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, inventory.ErrBarcodeExists):
		writeFieldError(w, http.StatusBadRequest, "barcode", "This barcode already exists")
	case errors.Is(err, inventory.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

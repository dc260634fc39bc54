package dto

import (
	"time"

	"stockyard/internal/domain/directory"
)

// --- Warehouses ---

// CreateWarehouseRequest represents a request to create a warehouse.
type CreateWarehouseRequest struct {
	Code    string  `json:"code,omitempty"`
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateWarehouseRequest) ToEntity() *directory.Warehouse {
	wh := directory.NewWarehouse(r.Code, r.Name)
	wh.Address = r.Address
	return wh
}

// WarehouseResponse represents a warehouse in API responses.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	Locked    bool      `json:"locked"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromWarehouse converts domain entity to response DTO.
func FromWarehouse(wh *directory.Warehouse) *WarehouseResponse {
	return &WarehouseResponse{
		ID:        wh.ID.String(),
		Code:      wh.Code,
		Name:      wh.Name,
		Address:   wh.Address,
		IsActive:  wh.IsActive,
		Locked:    wh.Locked,
		Version:   wh.Version,
		CreatedAt: wh.CreatedAt,
		UpdatedAt: wh.UpdatedAt,
	}
}

// --- Locations ---

// CreateLocationRequest represents a request to create a storage location.
type CreateLocationRequest struct {
	Code      string `json:"code,omitempty"`
	Name      string `json:"name" binding:"required"`
	Kind      string `json:"kind" binding:"required,oneof=storage receiving shipping"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// LocationResponse represents a location in API responses.
type LocationResponse struct {
	ID          string    `json:"id"`
	WarehouseID string    `json:"warehouseId"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	IsDefault   bool      `json:"isDefault"`
	IsActive    bool      `json:"isActive"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromLocation converts domain entity to response DTO.
func FromLocation(loc *directory.Location) *LocationResponse {
	return &LocationResponse{
		ID:          loc.ID.String(),
		WarehouseID: loc.WarehouseID.String(),
		Code:        loc.Code,
		Name:        loc.Name,
		Kind:        string(loc.Kind),
		IsDefault:   loc.IsDefault,
		IsActive:    loc.IsActive,
		Version:     loc.Version,
		CreatedAt:   loc.CreatedAt,
		UpdatedAt:   loc.UpdatedAt,
	}
}

// --- Products ---

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit" binding:"required"`
}

// ToEntity converts request to domain entity.
func (r *CreateProductRequest) ToEntity() *directory.Product {
	return directory.NewProduct(r.Code, r.Name, r.Unit)
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	IsActive  bool      `json:"isActive"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromProduct converts domain entity to response DTO.
func FromProduct(p *directory.Product) *ProductResponse {
	return &ProductResponse{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		Unit:      p.Unit,
		IsActive:  p.IsActive,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

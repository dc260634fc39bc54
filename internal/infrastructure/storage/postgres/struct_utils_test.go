package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

type mockDocument struct {
	entity.Document
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Status      string `db:"status" json:"status"`
	Ignored     string `db:"-" json:"ignored"`
	Untagged    string
}

func TestExtractDBColumns_EmbeddedDocument(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	expected := []string{
		"id", "version", "created_at", "updated_at", "created_by", "updated_by",
		"number", "date", "comment", "warehouse_id", "status",
	}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}

	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Untagged")
}

func TestStructToMap_EmbeddedDocument(t *testing.T) {
	now := time.Now().UTC()
	whID := id.New()

	doc := mockDocument{
		Document: entity.Document{
			BaseDocument: entity.BaseDocument{
				BaseEntity: entity.BaseEntity{ID: id.New(), Version: 5},
				CreatedAt:  now,
				CreatedBy:  "tester",
			},
			Number: "PO-2026-000042",
			Date:   now,
		},
		WarehouseID: whID,
		Status:      "pending",
		Ignored:     "skip me",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "PO-2026-000042", m["number"])
	assert.Equal(t, "tester", m["created_by"])
	assert.Equal(t, whID, m["warehouse_id"])
	assert.Equal(t, "pending", m["status"])
	assert.NotContains(t, m, "Ignored")
}

func TestStructToMap_Pointer(t *testing.T) {
	doc := &mockDocument{Status: "approved"}
	m := StructToMap(doc)
	assert.Equal(t, "approved", m["status"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("string"))
}

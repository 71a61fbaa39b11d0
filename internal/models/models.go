// package models defines the data model for the snaplist service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include [HistoryRecord] and [ExportRecord].
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines append-only data access. Records cannot be updated once created.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model, assigning its ID
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

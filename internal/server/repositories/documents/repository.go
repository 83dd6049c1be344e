// Package documents persists JSON documents keyed by collection and id.
package documents

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/simpleshare/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	// Upsert creates the document at version 1 or replaces its data and
	// bumps the version.
	Upsert(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error)
	// Delete returns the removed document, or common.ErrorNotFound.
	Delete(ctx context.Context, collection, id string) (*models.Document, error)
	Query(ctx context.Context, collection string, filters []models.Filter) ([]*models.Document, error)
}

// internal/repository/progress_repository.go
package repository

import (
	"context"

	"go_4_review_keep/internal/model"
)

// DefaultProgressDocument は progress.json の既定名
const DefaultProgressDocument = "progress.json"

type ProgressRepository interface {
	Load(ctx context.Context) (*model.ProgressTable, Version, error)
	Save(ctx context.Context, table *model.ProgressTable, expected Version) error
	Policy() WritePolicy
}

type documentProgressRepository struct {
	doc *JSONDocument[*model.ProgressTable]
}

func NewProgressRepository(blobs BlobStore, name string, policy WritePolicy) ProgressRepository {
	if name == "" {
		name = DefaultProgressDocument
	}
	return &documentProgressRepository{
		doc: NewJSONDocument(blobs, name, policy, model.NewProgressTable),
	}
}

func (r *documentProgressRepository) Load(ctx context.Context) (*model.ProgressTable, Version, error) {
	table, version, err := r.doc.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	if table == nil {
		table = model.NewProgressTable()
	}
	return table, version, nil
}

func (r *documentProgressRepository) Save(ctx context.Context, table *model.ProgressTable, expected Version) error {
	if table == nil {
		table = model.NewProgressTable()
	}
	return r.doc.Save(ctx, table, expected, nil)
}

func (r *documentProgressRepository) Policy() WritePolicy {
	return r.doc.Policy()
}

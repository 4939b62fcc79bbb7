package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgops-api/internal/models"
)

// ReferenceRepository reads the lookup data drafts are validated against.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Load returns a fresh snapshot of valid natures, durations, committees, members and the
// ARNs already persisted. The reads are independent; the snapshot is advisory and is
// re-checked by the import transaction.
func (r *ReferenceRepository) Load(ctx context.Context) (models.ReferenceData, error) {
	var (
		ref models.ReferenceData
		err error
	)
	if ref.Natures, err = r.strings(ctx, `SELECT name FROM natures`, "natures"); err != nil {
		return models.ReferenceData{}, err
	}
	if ref.Durations, err = r.strings(ctx, `SELECT name FROM durations`, "durations"); err != nil {
		return models.ReferenceData{}, err
	}
	if ref.Committees, err = r.strings(ctx, `SELECT id::text FROM committees`, "committees"); err != nil {
		return models.ReferenceData{}, err
	}
	if ref.Members, err = r.strings(ctx, `SELECT id::text FROM members`, "members"); err != nil {
		return models.ReferenceData{}, err
	}
	if ref.ExistingARNs, err = r.strings(ctx, `SELECT arn FROM events`, "event arns"); err != nil {
		return models.ReferenceData{}, err
	}
	return ref, nil
}

func (r *ReferenceRepository) strings(ctx context.Context, query, label string) (models.StringSet, error) {
	var values []string
	if err := r.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", label, err)
	}
	return models.NewStringSet(values...), nil
}

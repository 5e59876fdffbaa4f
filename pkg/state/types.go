package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	attrs "github.com/goliatone/go-attrs"
	"github.com/goliatone/go-attrs/record"
	"github.com/google/uuid"
)

var (
	// ErrETagMismatch indicates the caller's ETag no longer matches the
	// stored record.
	ErrETagMismatch = errors.New("state: etag mismatch")
	// ErrNotFound indicates no record exists for the reference.
	ErrNotFound = errors.New("state: record not found")
)

// Ref identifies one persisted record.
type Ref struct {
	Type string
	ID   string
}

// Identifier returns the deterministic storage key for the reference.
func (r Ref) Identifier() (string, error) {
	if r.Type == "" {
		return "", fmt.Errorf("state: ref type is required")
	}
	if r.ID == "" {
		return "", fmt.Errorf("state: ref id is required")
	}
	return fmt.Sprintf("%s/%s", r.Type, r.ID), nil
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one record for a single reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (rec *record.Record, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, rec *record.Record, meta Meta) (Meta, error)
}

// Resolver orchestrates resolution against stored records and commits the
// resulting diffs.
type Resolver struct {
	Store    Store
	Registry *attrs.Registry
}

// Create resolves constructor-style arguments into a fresh record and saves
// it under ref.
func (r Resolver) Create(ctx context.Context, ref Ref, positional []any, keyword map[string]any) (*record.Record, Meta, error) {
	if err := r.check(ref); err != nil {
		return nil, Meta{}, err
	}

	diff, err := r.Registry.ResolveInitial(positional, keyword)
	if err != nil {
		return nil, Meta{}, err
	}

	rec := record.CopyOnWrite(nil, diff)
	meta := Meta{
		SnapshotID: uuid.NewString(),
		UpdatedAt:  time.Now(),
	}
	meta.ETag = meta.SnapshotID
	saved, err := r.Store.Save(ctx, ref, rec, meta)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: save %s/%s: %w", ref.Type, ref.ID, err)
	}
	return rec, saved, nil
}

// Update loads the record, resolves the requested changes against it and
// commits the diff copy-on-write. Passing attrs.Deleted as a requested value
// deletes the attribute. Empty diffs skip the save and return the loaded
// record unchanged.
func (r Resolver) Update(ctx context.Context, ref Ref, meta Meta, requested map[string]any) (*record.Record, attrs.Diff, Meta, error) {
	if err := r.check(ref); err != nil {
		return nil, attrs.Diff{}, Meta{}, err
	}

	rec, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, attrs.Diff{}, Meta{}, fmt.Errorf("state: load %s/%s: %w", ref.Type, ref.ID, err)
	}
	if !ok {
		return nil, attrs.Diff{}, Meta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Type, ref.ID)
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, attrs.Diff{}, loadedMeta, fmt.Errorf("%w: expected %q, got %q",
			ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	diff, err := r.Registry.ResolveUpdate(rec, requested)
	if err != nil {
		return nil, attrs.Diff{}, loadedMeta, err
	}
	if diff.IsEmpty() {
		return rec, diff, loadedMeta, nil
	}

	updated := record.CopyOnWrite(rec, diff)
	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = saveMeta.SnapshotID
	saveMeta.UpdatedAt = time.Now()
	saved, err := r.Store.Save(ctx, ref, updated, saveMeta)
	if err != nil {
		return nil, attrs.Diff{}, loadedMeta, fmt.Errorf("state: save %s/%s: %w", ref.Type, ref.ID, err)
	}
	return updated, diff, saved, nil
}

func (r Resolver) check(ref Ref) error {
	if r.Store == nil {
		return fmt.Errorf("state: store is required")
	}
	if r.Registry == nil {
		return fmt.Errorf("state: registry is required")
	}
	_, err := ref.Identifier()
	return err
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

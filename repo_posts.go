package sightings

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Posts interface {
	repository.Repository[*Post]

	GetWithRelations(ctx context.Context, id uuid.UUID) (*Post, error)
	GetWithRelationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Post, error)

	// UpdateStatusGuarded performs a compare and swap on the status column:
	// the row is only updated when it still holds the expected status. It
	// returns the number of rows touched so callers can detect lost races.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to PostStatus) (int64, error)
	UpdateStatusGuardedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, from, to PostStatus) (int64, error)

	UpdateContent(ctx context.Context, post *Post) (*Post, error)
	UpdateContentTx(ctx context.Context, tx bun.IDB, post *Post) (*Post, error)

	ListByStatus(ctx context.Context, status PostStatus, limit, offset int) ([]*Post, error)
	ListByStatusTx(ctx context.Context, tx bun.IDB, status PostStatus, limit, offset int) ([]*Post, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Post, error)
	ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Post, error)
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var (
	_ Posts                        = (*posts)(nil)
	_ repository.Repository[*Post] = (*posts)(nil)
)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (a *posts) GetWithRelations(ctx context.Context, id uuid.UUID) (*Post, error) {
	return a.GetWithRelationsTx(ctx, a.db, id)
}

func (a *posts) GetWithRelationsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Relation("Species").
		Relation("Images", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("pim.created_at ASC")
		}).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *posts) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to PostStatus) (int64, error) {
	return a.UpdateStatusGuardedTx(ctx, a.db, id, from, to)
}

func (a *posts) UpdateStatusGuardedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, from, to PostStatus) (int64, error) {
	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*Post)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", now).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", from).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (a *posts) UpdateContent(ctx context.Context, post *Post) (*Post, error) {
	return a.UpdateContentTx(ctx, a.db, post)
}

// UpdateContentTx persists the editable payload only. Status, ownership and
// timestamps besides updated_at never go through this path.
func (a *posts) UpdateContentTx(ctx context.Context, tx bun.IDB, post *Post) (*Post, error) {
	now := time.Now()
	post.UpdatedAt = &now

	_, err := tx.NewUpdate().
		Model(post).
		Column("title", "description", "species_id", "sighted_at", "updated_at").
		Where("?TableAlias.id = ?", post.ID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return a.GetWithRelationsTx(ctx, tx, post.ID)
}

func (a *posts) ListByStatus(ctx context.Context, status PostStatus, limit, offset int) ([]*Post, error) {
	return a.ListByStatusTx(ctx, a.db, status, limit, offset)
}

func (a *posts) ListByStatusTx(ctx context.Context, tx bun.IDB, status PostStatus, limit, offset int) ([]*Post, error) {
	var records []*Post
	q := tx.NewSelect().
		Model(&records).
		Relation("User").
		Relation("Species").
		Relation("Images").
		Where("?TableAlias.status = ?", status).
		Where("?TableAlias.deleted_at IS NULL").
		Order("pst.created_at DESC")

	if limit > 0 {
		q.Limit(limit)
	}
	if offset > 0 {
		q.Offset(offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *posts) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Post, error) {
	return a.ListByUserTx(ctx, a.db, userID)
}

func (a *posts) ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Post, error) {
	var records []*Post
	err := tx.NewSelect().
		Model(&records).
		Relation("Species").
		Relation("Images").
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status != ?", StatusEliminado).
		Where("?TableAlias.deleted_at IS NULL").
		Order("pst.created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

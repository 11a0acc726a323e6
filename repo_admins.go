package sightings

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Admins interface {
	repository.Repository[*Admin]

	TrackSuccessfulLogin(ctx context.Context, admin *Admin) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, admin *Admin) error

	CountActive(ctx context.Context) (int, error)
	CountActiveTx(ctx context.Context, tx bun.IDB) (int, error)

	SoftDelete(ctx context.Context, id uuid.UUID) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type admins struct {
	repository.Repository[*Admin]
	db *bun.DB
}

var (
	_ Admins                        = (*admins)(nil)
	_ repository.Repository[*Admin] = (*admins)(nil)
)

func NewAdminsRepository(db *bun.DB) Admins {
	repo := repository.NewRepository[*Admin](db, repository.ModelHandlers[*Admin]{
		NewRecord: func() *Admin { return &Admin{} },
		GetID: func(a *Admin) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Admin, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &admins{
		Repository: repo,
		db:         db,
	}
}

func (a *admins) TrackSuccessfulLogin(ctx context.Context, admin *Admin) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, admin)
}

func (a *admins) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, admin *Admin) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "admins" AS "adm"
		SET
			"loggedin_at" = ?
		WHERE
			("adm".id = ?)
			AND "adm"."deleted_at" IS NULL;
	`, loggedInAt, admin.ID).Exec(ctx)

	return err
}

func (a *admins) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return a.SoftDeleteTx(ctx, a.db, id)
}

func (a *admins) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	deletedAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "admins" AS "adm"
		SET
			"deleted_at" = ?
		WHERE
			("adm".id = ?)
			AND "adm"."deleted_at" IS NULL;
	`, deletedAt, id).Exec(ctx)

	return err
}

func (a *admins) CountActive(ctx context.Context) (int, error) {
	return a.CountActiveTx(ctx, a.db)
}

// CountActiveTx counts non deleted admin accounts. Delete handlers use it to
// keep at least one admin in the system.
func (a *admins) CountActiveTx(ctx context.Context, tx bun.IDB) (int, error) {
	return tx.NewSelect().
		Model((*Admin)(nil)).
		Where("?TableAlias.deleted_at IS NULL").
		Count(ctx)
}

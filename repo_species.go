package sightings

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SpeciesCatalog interface {
	repository.Repository[*Species]

	ListAll(ctx context.Context) ([]*Species, error)
	ListAllTx(ctx context.Context, tx bun.IDB) ([]*Species, error)

	Remove(ctx context.Context, id uuid.UUID) error
	RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type speciesCatalog struct {
	repository.Repository[*Species]
	db *bun.DB
}

var (
	_ SpeciesCatalog                  = (*speciesCatalog)(nil)
	_ repository.Repository[*Species] = (*speciesCatalog)(nil)
)

func NewSpeciesRepository(db *bun.DB) SpeciesCatalog {
	repo := repository.NewRepository[*Species](db, repository.ModelHandlers[*Species]{
		NewRecord: func() *Species { return &Species{} },
		GetID: func(s *Species) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Species, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "scientific_name"
		},
	})

	return &speciesCatalog{
		Repository: repo,
		db:         db,
	}
}

func (a *speciesCatalog) ListAll(ctx context.Context) ([]*Species, error) {
	return a.ListAllTx(ctx, a.db)
}

func (a *speciesCatalog) ListAllTx(ctx context.Context, tx bun.IDB) ([]*Species, error) {
	var records []*Species
	err := tx.NewSelect().
		Model(&records).
		Order("spc.common_name ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *speciesCatalog) Remove(ctx context.Context, id uuid.UUID) error {
	return a.RemoveTx(ctx, a.db, id)
}

func (a *speciesCatalog) RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*Species)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

type UserTypes interface {
	repository.Repository[*UserType]

	ListAll(ctx context.Context) ([]*UserType, error)
	ListAllTx(ctx context.Context, tx bun.IDB) ([]*UserType, error)
}

type userTypes struct {
	repository.Repository[*UserType]
	db *bun.DB
}

var (
	_ UserTypes                        = (*userTypes)(nil)
	_ repository.Repository[*UserType] = (*userTypes)(nil)
)

func NewUserTypesRepository(db *bun.DB) UserTypes {
	repo := repository.NewRepository[*UserType](db, repository.ModelHandlers[*UserType]{
		NewRecord: func() *UserType { return &UserType{} },
		GetID: func(t *UserType) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *UserType, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &userTypes{
		Repository: repo,
		db:         db,
	}
}

func (a *userTypes) ListAll(ctx context.Context) ([]*UserType, error) {
	return a.ListAllTx(ctx, a.db)
}

func (a *userTypes) ListAllTx(ctx context.Context, tx bun.IDB) ([]*UserType, error) {
	var records []*UserType
	err := tx.NewSelect().
		Model(&records).
		Order("utp.name ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

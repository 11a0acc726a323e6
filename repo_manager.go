package sightings

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Admins() Admins
	Users() Users
	Posts() Posts
	PostImages() repository.Repository[*PostImage]
	Species() SpeciesCatalog
	UserTypes() UserTypes
}

func NewPostImagesRepository(db *bun.DB) repository.Repository[*PostImage] {
	handlers := repository.ModelHandlers[*PostImage]{
		NewRecord: func() *PostImage {
			return &PostImage{}
		},
		GetID: func(record *PostImage) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PostImage, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "url"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db         *bun.DB
	admins     Admins
	users      Users
	posts      Posts
	postImages repository.Repository[*PostImage]
	species    SpeciesCatalog
	userTypes  UserTypes
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		admins:     NewAdminsRepository(db),
		users:      NewUsersRepository(db),
		posts:      NewPostsRepository(db),
		postImages: NewPostImagesRepository(db),
		species:    NewSpeciesRepository(db),
		userTypes:  NewUserTypesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.admins == nil {
		return errors.New("repository admins should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.posts == nil {
		return errors.New("repository posts should be initialized")
	}

	if m.postImages == nil {
		return errors.New("repository postImages should be initialized")
	}

	if m.species == nil {
		return errors.New("repository species should be initialized")
	}

	if m.userTypes == nil {
		return errors.New("repository userTypes should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Admins() Admins {
	return m.admins
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Posts() Posts {
	return m.posts
}

func (m mngr) PostImages() repository.Repository[*PostImage] {
	return m.postImages
}

func (m mngr) Species() SpeciesCatalog {
	return m.species
}

func (m mngr) UserTypes() UserTypes {
	return m.userTypes
}

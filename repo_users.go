package sightings

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	GetByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error)
	GetByFirebaseUIDTx(ctx context.Context, tx bun.IDB, firebaseUID string) (*User, error)

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	AddPoints(ctx context.Context, id uuid.UUID, points int) error
	AddPointsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, points int) error

	ListByPoints(ctx context.Context, limit, offset int) ([]*User, error)
	ListByPointsTx(ctx context.Context, tx bun.IDB, limit, offset int) ([]*User, error)

	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error) {
	return a.GetByFirebaseUIDTx(ctx, a.db, firebaseUID)
}

func (a *users) GetByFirebaseUIDTx(ctx context.Context, tx bun.IDB, firebaseUID string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.firebase_uid = ?", firebaseUID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"firebase_uid": firebaseUID,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) AddPoints(ctx context.Context, id uuid.UUID, points int) error {
	return a.AddPointsTx(ctx, a.db, id, points)
}

// AddPointsTx increments the score counter in place so concurrent awards
// never lose updates.
func (a *users) AddPointsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, points int) error {
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"points" = "points" + ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, points, id).Exec(ctx)

	return err
}

func (a *users) ListByPoints(ctx context.Context, limit, offset int) ([]*User, error) {
	return a.ListByPointsTx(ctx, a.db, limit, offset)
}

func (a *users) ListByPointsTx(ctx context.Context, tx bun.IDB, limit, offset int) ([]*User, error) {
	var records []*User
	q := tx.NewSelect().
		Model(&records).
		Relation("UserType").
		Where("?TableAlias.deleted_at IS NULL").
		Order("usr.points DESC").
		Order("usr.created_at ASC")

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

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

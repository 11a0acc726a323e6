package sightings

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterUserRoutes mounts the user profile and ranking surface.
func RegisterUserRoutes[T any](app router.Router[T], controller *UsersController, requireUser router.MiddlewareFunc) {
	app.Get("/api/users", controller.Ranking).SetName("users-ranking.get")
	app.Get("/api/users/me", controller.Me, requireUser).SetName("users-me.get")
	app.Patch("/api/users/:id", controller.Update, requireUser).SetName("users-update.patch")
	app.Get("/api/user-types", controller.UserTypes).SetName("user-types.get")
}

type UsersController struct {
	Logger Logger
	Repo   RepositoryManager
}

type UsersControllerOption func(*UsersController) *UsersController

func NewUsersController(opts ...UsersControllerOption) *UsersController {
	c := &UsersController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithUsersLogger(logger Logger) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithUsersRepo(repo RepositoryManager) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		c.Repo = repo
		return c
	}
}

type UpdateUserPayload struct {
	Name       *string `json:"name" form:"name"`
	UserTypeID *string `json:"user_type_id" form:"user_type_id"`
}

// Validate will validate the payload
func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
	)
}

// Ranking lists users ordered by points, the public leaderboard.
func (c *UsersController) Ranking(ctx router.Context) error {
	limit := queryInt(ctx, "limit", 50)
	offset := queryInt(ctx, "offset", 0)

	users, err := c.Repo.Users().ListByPoints(ctx.Context(), limit, offset)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load ranking"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

// Me returns the authenticated user's profile.
func (c *UsersController) Me(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsUser() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": principal.User,
	})
}

// Update edits a profile. Users may only touch their own record.
func (c *UsersController) Update(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsUser() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid user id"})
	}

	if principal.User.ID != id {
		return ctx.JSON(router.StatusForbidden, ErrorBody{Message: "cannot modify another user's profile"})
	}

	payload := new(UpdateUserPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid profile payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	record := &User{}
	record.ID = id
	dirty := false

	if payload.Name != nil && *payload.Name != "" {
		record.Name = *payload.Name
		dirty = true
	}

	if payload.UserTypeID != nil && *payload.UserTypeID != "" {
		typeID, err := uuid.Parse(*payload.UserTypeID)
		if err != nil {
			return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid user type id"})
		}

		if _, err := c.Repo.UserTypes().GetByID(ctx.Context(), typeID.String()); err != nil {
			if repository.IsRecordNotFound(err) {
				return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "unknown user type"})
			}
			return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user type"))
		}

		record.UserTypeID = &typeID
		dirty = true
	}

	if !dirty {
		return ctx.JSON(router.StatusOK, map[string]any{
			"user": principal.User,
		})
	}

	updated, err := c.Repo.Users().Update(ctx.Context(), record, repository.UpdateByID(id.String()))
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": updated,
	})
}

// UserTypes lists the account classification catalog.
func (c *UsersController) UserTypes(ctx router.Context) error {
	types, err := c.Repo.UserTypes().ListAll(ctx.Context())
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user types"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user_types": types,
	})
}

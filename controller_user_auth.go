package sightings

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterUserAuthRoutes mounts the mobile authentication surface. Tokens
// travel in request and response bodies, never in cookies.
func RegisterUserAuthRoutes[T any](app router.Router[T], controller *UserAuthController) {
	app.Post("/user-auth/register", controller.Register).SetName("user-register.post")
	app.Post("/user-auth/login", controller.Login).SetName("user-sign-in.post")
	app.Post("/user-auth/refresh", controller.Refresh).SetName("user-refresh.post")
	app.Post("/user-auth/logout", controller.Logout).SetName("user-sign-out.post")
}

// UserAuthController exchanges Firebase ID tokens for the application's own
// bearer token pairs.
type UserAuthController struct {
	Logger   Logger
	Repo     RepositoryManager
	Resolver *AuthResolver
}

type UserAuthControllerOption func(*UserAuthController) *UserAuthController

func NewUserAuthController(opts ...UserAuthControllerOption) *UserAuthController {
	c := &UserAuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithUserAuthLogger(logger Logger) UserAuthControllerOption {
	return func(c *UserAuthController) *UserAuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithUserAuthRepo(repo RepositoryManager) UserAuthControllerOption {
	return func(c *UserAuthController) *UserAuthController {
		c.Repo = repo
		return c
	}
}

func WithUserAuthResolver(resolver *AuthResolver) UserAuthControllerOption {
	return func(c *UserAuthController) *UserAuthController {
		c.Resolver = resolver
		return c
	}
}

type FirebaseLoginPayload struct {
	IDToken string `json:"id_token" form:"id_token"`
}

// Validate will validate the payload
func (r FirebaseLoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required),
	)
}

type FirebaseRegisterPayload struct {
	IDToken    string `json:"id_token" form:"id_token"`
	Name       string `json:"name" form:"name"`
	Username   string `json:"username" form:"username"`
	UserTypeID string `json:"user_type_id" form:"user_type_id"`
}

// Validate will validate the payload
func (r FirebaseRegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Username, validation.Length(0, 50)),
		validation.Field(&r.UserTypeID, validation.By(validateOptionalUUID)),
	)
}

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Validate will validate the payload
func (r RefreshPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func validateOptionalUUID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := uuid.Parse(s)
	return err
}

// Register verifies the Firebase identity, creates the local account when
// missing and applies the optional profile fields.
func (c *UserAuthController) Register(ctx router.Context) error {
	payload := new(FirebaseRegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("user register parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid registration payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	if payload.Username != "" {
		if _, err := c.Repo.Users().GetByUsername(ctx.Context(), payload.Username); err == nil {
			return ctx.JSON(router.StatusConflict, ErrorBody{Message: "username already taken"})
		} else if !repository.IsRecordNotFound(err) {
			return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username"))
		}
	}

	user, pair, err := c.Resolver.UserLogin(ctx.Context(), payload.IDToken)
	if err != nil {
		return RespondError(ctx, err)
	}

	if updated, err := c.applyProfile(ctx, user, payload); err != nil {
		return RespondError(ctx, err)
	} else if updated != nil {
		user = updated
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user":   user,
		"tokens": pair,
	})
}

func (c *UserAuthController) applyProfile(ctx router.Context, user *User, payload *FirebaseRegisterPayload) (*User, error) {
	record := &User{}
	record.ID = user.ID
	dirty := false

	if payload.Name != "" && payload.Name != user.Name {
		record.Name = payload.Name
		dirty = true
	}

	if payload.Username != "" {
		record.Username = &payload.Username
		dirty = true
	}

	if payload.UserTypeID != "" {
		typeID, err := uuid.Parse(payload.UserTypeID)
		if err != nil {
			return nil, goerrors.New("invalid user type id", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}

		if _, err := c.Repo.UserTypes().GetByID(ctx.Context(), typeID.String()); err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, goerrors.New("unknown user type", goerrors.CategoryBadInput).
					WithCode(goerrors.CodeBadRequest)
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user type")
		}

		record.UserTypeID = &typeID
		dirty = true
	}

	if !dirty {
		return nil, nil
	}

	updated, err := c.Repo.Users().Update(ctx.Context(), record, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	return updated, nil
}

// Login exchanges a Firebase ID token for a bearer token pair.
func (c *UserAuthController) Login(ctx router.Context) error {
	payload := new(FirebaseLoginPayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("user login parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "id_token is required"})
	}

	user, pair, err := c.Resolver.UserLogin(ctx.Context(), payload.IDToken)
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user":   user,
		"tokens": pair,
	})
}

// Refresh rotates a bearer token pair. Expired refresh credentials yield 403
// with the REFRESH_TOKEN_EXPIRED code.
func (c *UserAuthController) Refresh(ctx router.Context) error {
	payload := new(RefreshPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "refresh_token is required"})
	}

	pair, err := c.Resolver.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"tokens": pair,
	})
}

// Logout acknowledges the client discarding its tokens. The server keeps no
// session state for users.
func (c *UserAuthController) Logout(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out",
	})
}

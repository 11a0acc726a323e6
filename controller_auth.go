package sightings

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAdminAuthRoutes mounts the admin authentication surface.
func RegisterAdminAuthRoutes[T any](app router.Router[T], controller *AdminAuthController, guard router.MiddlewareFunc) {
	app.Get("/auth/login", controller.LoginShow).SetName("admin-sign-in.get")
	app.Post("/auth/login", controller.LoginPost).SetName("admin-sign-in.post")
	app.Post("/auth/register", controller.RegisterPost).SetName("admin-register.post")
	app.Post("/auth/refresh", controller.Refresh).SetName("admin-refresh.post")
	app.Post("/auth/logout", controller.Logout).SetName("admin-sign-out.post")
	app.Get("/auth/me", controller.Me, guard).SetName("admin-me.get")
	app.Delete("/auth/admins/:id", controller.DeleteAdmin, guard).SetName("admin-delete.delete")
}

// AdminAuthController drives the back office credential flow: classic email
// and password login with the session living in a cookie pair.
type AdminAuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Resolver *AuthResolver
	Session  *AdminSession
	// LoginView is the template rendered by LoginShow, empty disables it.
	LoginView string
}

type AdminAuthControllerOption func(*AdminAuthController) *AdminAuthController

func NewAdminAuthController(opts ...AdminAuthControllerOption) *AdminAuthController {
	c := &AdminAuthController{
		Logger:    defLogger{},
		LoginView: "login",
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithAdminAuthLogger(logger Logger) AdminAuthControllerOption {
	return func(c *AdminAuthController) *AdminAuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAdminAuthRepo(repo RepositoryManager) AdminAuthControllerOption {
	return func(c *AdminAuthController) *AdminAuthController {
		c.Repo = repo
		return c
	}
}

func WithAdminAuthResolver(resolver *AuthResolver) AdminAuthControllerOption {
	return func(c *AdminAuthController) *AdminAuthController {
		c.Resolver = resolver
		return c
	}
}

func WithAdminAuthSession(session *AdminSession) AdminAuthControllerOption {
	return func(c *AdminAuthController) *AdminAuthController {
		c.Session = session
		return c
	}
}

func WithAdminAuthDebug(debug bool) AdminAuthControllerOption {
	return func(c *AdminAuthController) *AdminAuthController {
		c.Debug = debug
		return c
	}
}

type AdminLoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (r AdminLoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

type AdminRegisterPayload struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate will validate the payload
func (r AdminRegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber("MX"))),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// LoginShow renders the back office login form.
func (a *AdminAuthController) LoginShow(ctx router.Context) error {
	if a.LoginView == "" {
		return ctx.Status(router.StatusNotFound).SendString("not found")
	}
	return ctx.Render(a.LoginView, router.ViewContext{})
}

// LoginPost verifies credentials and installs the cookie session.
func (a *AdminAuthController) LoginPost(ctx router.Context) error {
	payload := new(AdminLoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("admin login parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid credentials payload"})
	}

	admin, pair, err := a.Resolver.AdminLogin(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrMismatchedHashAndPassword) {
			return ctx.JSON(router.StatusUnauthorized, ErrorBody{Message: "invalid email or password"})
		}
		return RespondError(ctx, err)
	}

	a.Session.Set(ctx, pair)

	if a.Debug {
		a.Logger.Debug("admin login ok: %s", print.MaybePrettyJSON(map[string]any{
			"admin_id": admin.ID,
			"expires":  pair.AccessExpiry,
		}))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"admin": admin,
	})
}

// RegisterPost creates a new admin account.
func (a *AdminAuthController) RegisterPost(ctx router.Context) error {
	payload := new(AdminRegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("admin register parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid registration payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password"))
	}

	record := &Admin{
		Name:         payload.Name,
		Email:        payload.Email,
		Phone:        payload.Phone,
		PasswordHash: hash,
	}

	if _, err := a.Repo.Admins().GetByIdentifier(ctx.Context(), payload.Email); err == nil {
		return ctx.JSON(router.StatusConflict, ErrorBody{Message: "an account with that email already exists"})
	}

	admin, err := a.Repo.Admins().Create(ctx.Context(), record)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create admin"))
	}

	pair, err := a.Resolver.TokenService().IssuePair(KindAdmin, admin.ID)
	if err != nil {
		return RespondError(ctx, err)
	}

	a.Session.Set(ctx, pair)

	return ctx.JSON(router.StatusCreated, map[string]any{
		"admin": admin,
	})
}

// Refresh rotates the cookie session from the refresh cookie. An expired
// refresh credential yields 403 with the REFRESH_TOKEN_EXPIRED code so the
// console knows to send the admin back to the login form.
func (a *AdminAuthController) Refresh(ctx router.Context) error {
	refreshToken := a.Session.RefreshToken(ctx)
	if refreshToken == "" {
		return RespondError(ctx, ErrInvalidRefreshToken)
	}

	pair, err := a.Resolver.Refresh(ctx.Context(), refreshToken)
	if err != nil {
		a.Session.Clear(ctx)
		return RespondError(ctx, err)
	}

	a.Session.Set(ctx, pair)

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "refreshed",
	})
}

// Logout clears the cookie session.
func (a *AdminAuthController) Logout(ctx router.Context) error {
	a.Session.Clear(ctx)
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out",
	})
}

// Me returns the authenticated admin.
func (a *AdminAuthController) Me(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsAdmin() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"admin": principal.Admin,
	})
}

// DeleteAdmin removes an admin account, refusing to delete the last one.
func (a *AdminAuthController) DeleteAdmin(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsAdmin() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	id := ctx.Param("id")

	admin, err := a.Repo.Admins().GetByID(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err)
	}

	count, err := a.Repo.Admins().CountActive(ctx.Context())
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count admins"))
	}

	if count <= 1 {
		return ctx.JSON(router.StatusConflict, ErrorBody{Message: "cannot delete the last admin account"})
	}

	if err := a.Repo.Admins().SoftDelete(ctx.Context(), admin.ID); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete admin"))
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

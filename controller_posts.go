package sightings

import (
	"context"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Points granted to the owner when a sighting clears review.
const pointsPerApprovedSighting = 10

const defaultFeedPageSize = 20

// RegisterPostRoutes mounts the sighting surface. The feed and single-post
// reads are public, everything that mutates goes through a principal guard.
func RegisterPostRoutes[T any](app router.Router[T], controller *PostsController, requireAny, requireUser, requireAdmin router.MiddlewareFunc) {
	app.Get("/api/posts", controller.Feed).SetName("posts-feed.get")
	app.Post("/api/posts", controller.Create, requireAny).SetName("posts-create.post")
	app.Get("/api/posts/mine", controller.Mine, requireUser).SetName("posts-mine.get")
	app.Get("/api/posts/:id", controller.GetOne).SetName("posts-one.get")
	app.Get("/api/users/:id/posts", controller.ByUser).SetName("posts-by-user.get")
	app.Patch("/api/posts/:id", controller.UpdateContent, requireAny).SetName("posts-edit.patch")
	app.Patch("/api/posts/:id/status", controller.UpdateStatus, requireAny).SetName("posts-status.patch")
	app.Delete("/api/posts/:id", controller.Delete, requireAny).SetName("posts-delete.delete")
	app.Post("/api/posts/:id/approve", controller.Approve, requireAdmin).SetName("posts-approve.post")
	app.Post("/api/posts/:id/reject", controller.Reject, requireAdmin).SetName("posts-reject.post")
}

// PostsController drives the sighting lifecycle. Every status change funnels
// through the state machine, content edits through its edit gate.
type PostsController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Machine  PostStateMachine
	Statuses *StatusSet
}

type PostsControllerOption func(*PostsController) *PostsController

func NewPostsController(opts ...PostsControllerOption) *PostsController {
	c := &PostsController{
		Logger:   defLogger{},
		Statuses: DefaultStatusSet(),
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithPostsLogger(logger Logger) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithPostsRepo(repo RepositoryManager) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		c.Repo = repo
		return c
	}
}

func WithPostsStateMachine(machine PostStateMachine) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		c.Machine = machine
		return c
	}
}

func WithPostsStatusSet(statuses *StatusSet) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		if statuses != nil {
			c.Statuses = statuses
		}
		return c
	}
}

type PostImagePayload struct {
	URL       string   `json:"url" form:"url"`
	Latitude  *float64 `json:"latitude" form:"latitude"`
	Longitude *float64 `json:"longitude" form:"longitude"`
}

// Validate will validate the payload
func (r PostImagePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, validation.Length(1, 2048)),
		validation.Field(&r.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}

type CreatePostPayload struct {
	Title       string             `json:"title" form:"title"`
	Description string             `json:"description" form:"description"`
	SpeciesID   string             `json:"species_id" form:"species_id"`
	SightedAt   *time.Time         `json:"sighted_at" form:"sighted_at"`
	Images      []PostImagePayload `json:"images" form:"images"`
}

// Validate will validate the payload
func (r CreatePostPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
		validation.Field(&r.SpeciesID, validation.By(validateOptionalUUID)),
		validation.Field(&r.Images),
	)
}

type UpdatePostPayload struct {
	Title       *string    `json:"title" form:"title"`
	Description *string    `json:"description" form:"description"`
	SpeciesID   *string    `json:"species_id" form:"species_id"`
	SightedAt   *time.Time `json:"sighted_at" form:"sighted_at"`
}

// Validate will validate the payload
func (r UpdatePostPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
	)
}

type UpdateStatusPayload struct {
	Status string `json:"status" form:"status"`
}

// Validate will validate the payload
func (r UpdateStatusPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
	)
}

// Create registers a new sighting. Posts always start in BORRADOR no matter
// what the caller sends; only users own posts, so admins are refused.
func (c *PostsController) Create(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok {
		return RespondError(ctx, ErrUnauthenticated)
	}

	if !principal.IsUser() {
		return ctx.JSON(router.StatusForbidden, ErrorBody{Message: "only users can create sightings"})
	}

	payload := new(CreatePostPayload)
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("post create parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid sighting payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	post := &Post{
		UserID:      principal.User.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      StatusBorrador,
		SightedAt:   payload.SightedAt,
	}

	if payload.SpeciesID != "" {
		speciesID, err := uuid.Parse(payload.SpeciesID)
		if err == nil {
			if _, err := c.Repo.Species().GetByID(ctx.Context(), speciesID.String()); err != nil {
				if repository.IsRecordNotFound(err) {
					return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "unknown species"})
				}
				return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load species"))
			}
			post.SpeciesID = &speciesID
		}
	}

	err := c.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		created, err := c.Repo.Posts().CreateTx(txCtx, tx, post)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create sighting")
		}
		post = created

		for _, img := range payload.Images {
			record := &PostImage{
				PostID:    post.ID,
				URL:       img.URL,
				Latitude:  img.Latitude,
				Longitude: img.Longitude,
			}
			if _, err := c.Repo.PostImages().CreateTx(txCtx, tx, record); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "could not attach sighting image")
			}
		}

		return nil
	})

	if err != nil {
		return RespondError(ctx, err)
	}

	created, err := c.Repo.Posts().GetWithRelations(ctx.Context(), post.ID)
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"post": created,
	})
}

// Feed lists ACTIVO sightings, paginated.
func (c *PostsController) Feed(ctx router.Context) error {
	limit := queryInt(ctx, "limit", defaultFeedPageSize)
	offset := queryInt(ctx, "offset", 0)

	posts, err := c.Repo.Posts().ListByStatus(ctx.Context(), StatusActivo, limit, offset)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load feed"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"posts":  posts,
		"limit":  limit,
		"offset": offset,
	})
}

// Mine lists the authenticated user's sightings in every non deleted status.
func (c *PostsController) Mine(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsUser() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	posts, err := c.Repo.Posts().ListByUser(ctx.Context(), principal.User.ID)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load sightings"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"posts": posts,
	})
}

// ByUser lists another user's visible sightings (ACTIVO only).
func (c *PostsController) ByUser(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid user id"})
	}

	posts, err := c.Repo.Posts().ListByUser(ctx.Context(), userID)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load sightings"))
	}

	visible := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if p.Status == StatusActivo {
			visible = append(visible, p)
		}
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"posts": visible,
	})
}

// GetOne returns a single sighting with owner, species and images. Deleted
// sightings are gone as far as clients are concerned.
func (c *PostsController) GetOne(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid post id"})
	}

	post, err := c.Repo.Posts().GetWithRelations(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err)
	}

	if post.Status == StatusEliminado {
		return ctx.JSON(router.StatusNotFound, ErrorBody{Message: "post not found"})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"post": post,
	})
}

// UpdateContent edits the sighting payload. The edit gate only opens while
// the post sits in BORRADOR or ACTIVO; users must own the post.
func (c *PostsController) UpdateContent(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok {
		return RespondError(ctx, ErrUnauthenticated)
	}

	post, err := c.loadPost(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if principal.IsUser() && !post.OwnedBy(principal.User.ID) {
		return RespondError(ctx, ErrNotPostOwner)
	}

	if !c.Machine.CanEditContent(post) {
		return RespondError(ctx, ErrEditNotAllowed.WithMetadata(map[string]any{
			"status": post.Status,
		}))
	}

	payload := new(UpdatePostPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid sighting payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	if payload.Title != nil {
		post.Title = *payload.Title
	}
	if payload.Description != nil {
		post.Description = *payload.Description
	}
	if payload.SightedAt != nil {
		post.SightedAt = payload.SightedAt
	}
	if payload.SpeciesID != nil {
		if *payload.SpeciesID == "" {
			post.SpeciesID = nil
		} else {
			speciesID, err := uuid.Parse(*payload.SpeciesID)
			if err != nil {
				return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid species id"})
			}
			post.SpeciesID = &speciesID
		}
	}

	updated, err := c.Repo.Posts().UpdateContent(ctx.Context(), post)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update sighting"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"post": updated,
	})
}

// UpdateStatus requests an arbitrary transition. The state machine decides
// whether this principal may move this post to the requested status.
func (c *PostsController) UpdateStatus(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok {
		return RespondError(ctx, ErrUnauthenticated)
	}

	payload := new(UpdateStatusPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "status is required"})
	}

	target, err := c.Statuses.Parse(payload.Status)
	if err != nil {
		return RespondError(ctx, err)
	}

	post, err := c.loadPost(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	updated, err := c.Machine.Transition(ctx.Context(), principal, post, target, c.awardApprovalPoints())
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"post": updated,
	})
}

// awardApprovalPoints credits the owner whenever a post lands on ACTIVO, no
// matter which endpoint drove the transition. A failed award is logged, never
// surfaced.
func (c *PostsController) awardApprovalPoints() TransitionOption {
	return WithAfterTransitionHook(func(hookCtx context.Context, tc TransitionContext) error {
		if tc.To != StatusActivo {
			return nil
		}
		if err := c.Repo.Users().AddPoints(hookCtx, tc.Post.UserID, pointsPerApprovedSighting); err != nil {
			c.Logger.Warn("could not award points for post %s: %v", tc.Post.ID, err)
		}
		return nil
	})
}

// Delete transitions the sighting into its terminal status. Deleting twice
// is a conflict, not a no-op.
func (c *PostsController) Delete(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok {
		return RespondError(ctx, ErrUnauthenticated)
	}

	post, err := c.loadPost(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	if _, err := c.Machine.Delete(ctx.Context(), principal, post); err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

// Approve is the moderation shortcut REVISION→ACTIVO. Approval awards the
// owner their sighting points and triggers the broadcast.
func (c *PostsController) Approve(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsAdmin() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	post, err := c.loadPost(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	updated, err := c.Machine.Transition(ctx.Context(), principal, post, StatusActivo,
		WithTransitionReason("approved"), c.awardApprovalPoints())
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"post": updated,
	})
}

// Reject is the moderation shortcut REVISION→RECHAZADO (also legal from ACTIVO).
func (c *PostsController) Reject(ctx router.Context) error {
	principal, ok := PrincipalFromRouter(ctx, "")
	if !ok || !principal.IsAdmin() {
		return RespondError(ctx, ErrUnauthenticated)
	}

	post, err := c.loadPost(ctx)
	if err != nil {
		return RespondError(ctx, err)
	}

	updated, err := c.Machine.Transition(ctx.Context(), principal, post, StatusRechazado,
		WithTransitionReason("rejected"))
	if err != nil {
		return RespondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"post": updated,
	})
}

func (c *PostsController) loadPost(ctx router.Context) (*Post, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return nil, goerrors.New("invalid post id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	return c.Repo.Posts().GetWithRelations(ctx.Context(), id)
}

func queryInt(ctx router.Context, name string, def int) int {
	raw := ctx.Query(name, "")
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}

	return v
}

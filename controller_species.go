package sightings

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterSpeciesRoutes mounts the species catalog: public reads, admin writes.
func RegisterSpeciesRoutes[T any](app router.Router[T], controller *SpeciesController, requireAdmin router.MiddlewareFunc) {
	app.Get("/api/species", controller.List).SetName("species-list.get")
	app.Post("/api/species", controller.Create, requireAdmin).SetName("species-create.post")
	app.Patch("/api/species/:id", controller.Update, requireAdmin).SetName("species-update.patch")
	app.Delete("/api/species/:id", controller.Delete, requireAdmin).SetName("species-delete.delete")
}

type SpeciesController struct {
	Logger Logger
	Repo   RepositoryManager
}

type SpeciesControllerOption func(*SpeciesController) *SpeciesController

func NewSpeciesController(opts ...SpeciesControllerOption) *SpeciesController {
	c := &SpeciesController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithSpeciesLogger(logger Logger) SpeciesControllerOption {
	return func(c *SpeciesController) *SpeciesController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithSpeciesRepo(repo RepositoryManager) SpeciesControllerOption {
	return func(c *SpeciesController) *SpeciesController {
		c.Repo = repo
		return c
	}
}

type SpeciesPayload struct {
	CommonName          string `json:"common_name" form:"common_name"`
	ScientificName      string `json:"scientific_name" form:"scientific_name"`
	Description         string `json:"description" form:"description"`
	ImageURL            string `json:"image_url" form:"image_url"`
	SightingStartMonth  *int   `json:"sighting_start_month" form:"sighting_start_month"`
	SightingEndMonth    *int   `json:"sighting_end_month" form:"sighting_end_month"`
	HighSeasonSpecimens *int   `json:"high_season_specimens" form:"high_season_specimens"`
}

// Validate will validate the payload
func (r SpeciesPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CommonName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ScientificName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
		validation.Field(&r.ImageURL, validation.Length(0, 2048)),
		validation.Field(&r.SightingStartMonth, validation.Min(1), validation.Max(12)),
		validation.Field(&r.SightingEndMonth, validation.Min(1), validation.Max(12)),
		validation.Field(&r.HighSeasonSpecimens, validation.Min(0)),
	)
}

// List returns the catalog, public.
func (c *SpeciesController) List(ctx router.Context) error {
	species, err := c.Repo.Species().ListAll(ctx.Context())
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load species"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"species": species,
	})
}

// Create adds a catalog entry.
func (c *SpeciesController) Create(ctx router.Context) error {
	payload := new(SpeciesPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid species payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	if _, err := c.Repo.Species().GetByIdentifier(ctx.Context(), payload.ScientificName); err == nil {
		return ctx.JSON(router.StatusConflict, ErrorBody{Message: "species already exists"})
	}

	record := &Species{
		CommonName:          payload.CommonName,
		ScientificName:      payload.ScientificName,
		Description:         payload.Description,
		ImageURL:            payload.ImageURL,
		SightingStartMonth:  payload.SightingStartMonth,
		SightingEndMonth:    payload.SightingEndMonth,
		HighSeasonSpecimens: payload.HighSeasonSpecimens,
	}

	created, err := c.Repo.Species().Create(ctx.Context(), record)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create species"))
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"species": created,
	})
}

// Update edits a catalog entry.
func (c *SpeciesController) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid species id"})
	}

	payload := new(SpeciesPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"message": "invalid species payload",
			"errors":  FormatValidationErrorToMap(err),
		})
	}

	record, err := c.Repo.Species().GetByID(ctx.Context(), id.String())
	if err != nil {
		return RespondError(ctx, err)
	}

	record.CommonName = payload.CommonName
	record.ScientificName = payload.ScientificName
	record.Description = payload.Description
	record.ImageURL = payload.ImageURL
	record.SightingStartMonth = payload.SightingStartMonth
	record.SightingEndMonth = payload.SightingEndMonth
	record.HighSeasonSpecimens = payload.HighSeasonSpecimens

	updated, err := c.Repo.Species().Update(ctx.Context(), record)
	if err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update species"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"species": updated,
	})
}

// Delete removes a catalog entry.
func (c *SpeciesController) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid species id"})
	}

	record, err := c.Repo.Species().GetByID(ctx.Context(), id.String())
	if err != nil {
		return RespondError(ctx, err)
	}

	if err := c.Repo.Species().Remove(ctx.Context(), record.ID); err != nil {
		return RespondError(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete species"))
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "deleted",
	})
}

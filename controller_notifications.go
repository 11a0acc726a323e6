package sightings

import (
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterNotificationRoutes mounts the admin-only notification tools.
func RegisterNotificationRoutes[T any](app router.Router[T], controller *NotificationsController, requireAdmin router.MiddlewareFunc) {
	app.Post("/notifications/test", controller.Test, requireAdmin).SetName("notifications-test.post")
}

// NotificationsController lets admins re-dispatch the approval broadcast for
// a sighting, mostly to verify the push pipeline end to end.
type NotificationsController struct {
	Logger   Logger
	Repo     RepositoryManager
	Notifier Notifier
}

type NotificationsControllerOption func(*NotificationsController) *NotificationsController

func NewNotificationsController(opts ...NotificationsControllerOption) *NotificationsController {
	c := &NotificationsController{
		Logger:   defLogger{},
		Notifier: noopNotifier{},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithNotificationsLogger(logger Logger) NotificationsControllerOption {
	return func(c *NotificationsController) *NotificationsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithNotificationsRepo(repo RepositoryManager) NotificationsControllerOption {
	return func(c *NotificationsController) *NotificationsController {
		c.Repo = repo
		return c
	}
}

func WithNotificationsNotifier(notifier Notifier) NotificationsControllerOption {
	return func(c *NotificationsController) *NotificationsController {
		c.Notifier = normalizeNotifier(notifier)
		return c
	}
}

type TestNotificationPayload struct {
	PostID string `json:"post_id" form:"post_id"`
}

// Test re-dispatches the approval broadcast for the given post.
func (c *NotificationsController) Test(ctx router.Context) error {
	payload := new(TestNotificationPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "failed to parse request body"})
	}

	id, err := uuid.Parse(payload.PostID)
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorBody{Message: "invalid post id"})
	}

	post, err := c.Repo.Posts().GetWithRelations(ctx.Context(), id)
	if err != nil {
		return RespondError(ctx, err)
	}

	notification := NotificationFor(post)
	if err := c.Notifier.NotifySightingApproved(notification); err != nil {
		c.Logger.Warn("test notification dispatch failed for post %s: %v", notification.PostID, err)
		return ctx.JSON(router.StatusBadGateway, ErrorBody{Message: "notification dispatch failed"})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"status":       "sent",
		"notification": notification,
	})
}

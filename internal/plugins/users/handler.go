package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/flash"
	"github.com/keyxmakerx/roster/internal/middleware"
	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
)

const (
	indexPath = "/users"
	newPath   = "/users/new"
)

// Handler holds the users pipeline steps. Fetching steps leave the result
// in State.Entity; mutating steps leave a redirect and flash for
// RedirectView.
type Handler struct {
	service UserService
}

// NewHandler creates a new users handler.
func NewHandler(service UserService) *Handler {
	return &Handler{service: service}
}

// Index loads every user (GET /users).
func (h *Handler) Index(c echo.Context, st *pipeline.State) pipeline.Outcome {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return pipeline.ShortCircuit(err)
	}
	st.Entity = users
	return pipeline.Continue()
}

// IndexView answers with JSON for ?format=json and the listing page
// otherwise.
func (h *Handler) IndexView(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if middleware.IsJSON(c) {
		return h.APIIndex(c, st)
	}
	return pipeline.Commit(pipeline.Render(http.StatusOK, indexPage))
}

// APIIndex always answers with JSON (GET /api/users).
func (h *Handler) APIIndex(_ echo.Context, st *pipeline.State) pipeline.Outcome {
	users, _ := st.Entity.([]auth.User)
	if users == nil {
		users = []auth.User{}
	}
	return pipeline.Commit(pipeline.JSON(http.StatusOK, users))
}

// Create registers the submitted user (POST /users/create). A submission
// the validator rejected passes through untouched.
func (h *Handler) Create(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if st.Skip {
		return pipeline.Continue()
	}

	user, err := h.service.Create(auth.ActorContext(c), auth.RegisterInput{
		Username:  st.FormValue(c, "username"),
		FirstName: st.FormValue(c, "first"),
		LastName:  st.FormValue(c, "last"),
		Email:     st.FormValue(c, "email"),
		Password:  st.FormValue(c, "password"),
	})
	if err != nil {
		slog.Warn("user registration failed", slog.Any("error", err))
		reason := strings.TrimSuffix(apperror.SafeMessage(err), ".")
		st.AddFlash(flash.LevelError, fmt.Sprintf("Failed to create user account because: %s.", reason))
		st.Redirect = newPath
		return pipeline.Continue()
	}

	st.AddFlash(flash.LevelSuccess, fmt.Sprintf("%s's account created successfully!", user.FullName()))
	st.Redirect = indexPath
	return pipeline.Continue()
}

// Show loads the user named by :id.
func (h *Handler) Show(c echo.Context, st *pipeline.State) pipeline.Outcome {
	user, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return pipeline.ShortCircuit(err)
	}
	st.Entity = user
	return pipeline.Continue()
}

// Update writes the edit form (PUT /users/:id/update) and points the
// redirect at the user's page.
func (h *Handler) Update(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if st.Skip {
		return pipeline.Continue()
	}

	id := c.Param("id")
	user, err := h.service.Update(auth.ActorContext(c), id, auth.UpdateInput{
		Username:  st.FormValue(c, "username"),
		FirstName: st.FormValue(c, "first"),
		LastName:  st.FormValue(c, "last"),
		Email:     st.FormValue(c, "email"),
		Password:  st.FormValue(c, "password"),
	})
	if err != nil {
		slog.Error("user update failed", slog.String("user_id", id), slog.Any("error", err))
		return pipeline.ShortCircuit(err)
	}

	st.Entity = user
	st.AddFlash(flash.LevelSuccess, "Account updated.")
	st.Redirect = userPath(id)
	return pipeline.Continue()
}

// Delete removes the user (DELETE /users/:id/delete). Failures are logged
// and the run still redirects to the listing.
func (h *Handler) Delete(c echo.Context, st *pipeline.State) pipeline.Outcome {
	id := c.Param("id")
	if err := h.service.Delete(auth.ActorContext(c), id); err != nil {
		slog.Error("user delete failed", slog.String("user_id", id), slog.Any("error", err))
	}
	st.Redirect = indexPath
	return pipeline.Continue()
}

func userPath(id string) string {
	return indexPath + "/" + id
}

func editPath(c echo.Context) string {
	return userPath(c.Param("id")) + "/edit"
}

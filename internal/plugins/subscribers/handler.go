package subscribers

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
	indexPath = "/subscribers"
	newPath   = "/subscribers/new"
)

// Handler holds the subscriber pipeline steps.
type Handler struct {
	service SubscriberService
}

// NewHandler creates a new subscribers handler.
func NewHandler(service SubscriberService) *Handler {
	return &Handler{service: service}
}

// Index loads every subscriber (GET /subscribers).
func (h *Handler) Index(c echo.Context, st *pipeline.State) pipeline.Outcome {
	subs, err := h.service.List(c.Request().Context())
	if err != nil {
		return pipeline.ShortCircuit(err)
	}
	st.Entity = subs
	return pipeline.Continue()
}

// IndexView answers with JSON for ?format=json and the listing otherwise.
func (h *Handler) IndexView(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if middleware.IsJSON(c) {
		return h.APIIndex(c, st)
	}
	return pipeline.Commit(pipeline.Render(http.StatusOK, indexPage))
}

// APIIndex always answers with JSON (GET /api/subscribers).
func (h *Handler) APIIndex(_ echo.Context, st *pipeline.State) pipeline.Outcome {
	subs, _ := st.Entity.([]Subscriber)
	if subs == nil {
		subs = []Subscriber{}
	}
	return pipeline.Commit(pipeline.JSON(http.StatusOK, subs))
}

// Create stores the submitted subscriber (POST /subscribers/create).
func (h *Handler) Create(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if st.Skip {
		return pipeline.Continue()
	}

	sub, err := h.service.Create(auth.ActorContext(c), formInput(c, st))
	if err != nil {
		slog.Warn("subscriber creation failed", slog.Any("error", err))
		reason := strings.TrimSuffix(apperror.SafeMessage(err), ".")
		st.AddFlash(flash.LevelError, fmt.Sprintf("Failed to create subscriber because: %s.", reason))
		st.Redirect = newPath
		return pipeline.Continue()
	}

	st.AddFlash(flash.LevelSuccess, fmt.Sprintf("%s subscribed successfully!", sub.Name))
	st.Redirect = indexPath
	return pipeline.Continue()
}

// Show loads the subscriber named by :id.
func (h *Handler) Show(c echo.Context, st *pipeline.State) pipeline.Outcome {
	sub, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return pipeline.ShortCircuit(err)
	}
	st.Entity = sub
	return pipeline.Continue()
}

// Update writes the edit form (PUT /subscribers/:id/update).
func (h *Handler) Update(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if st.Skip {
		return pipeline.Continue()
	}

	id := c.Param("id")
	sub, err := h.service.Update(auth.ActorContext(c), id, formInput(c, st))
	if err != nil {
		slog.Error("subscriber update failed", slog.String("subscriber_id", id), slog.Any("error", err))
		return pipeline.ShortCircuit(err)
	}

	st.Entity = sub
	st.AddFlash(flash.LevelSuccess, "Subscriber updated.")
	st.Redirect = subscriberPath(id)
	return pipeline.Continue()
}

// Delete removes the subscriber (DELETE /subscribers/:id/delete). Failures
// are logged and the run still redirects to the listing.
func (h *Handler) Delete(c echo.Context, st *pipeline.State) pipeline.Outcome {
	id := c.Param("id")
	if err := h.service.Delete(auth.ActorContext(c), id); err != nil {
		slog.Error("subscriber delete failed", slog.String("subscriber_id", id), slog.Any("error", err))
	}
	st.Redirect = indexPath
	return pipeline.Continue()
}

func formInput(c echo.Context, st *pipeline.State) Input {
	return Input{
		Name:    st.FormValue(c, "name"),
		Email:   st.FormValue(c, "email"),
		ZipCode: st.FormValue(c, "zipCode"),
	}
}

func subscriberPath(id string) string {
	return indexPath + "/" + id
}

func editPath(c echo.Context) string {
	return subscriberPath(c.Param("id")) + "/edit"
}

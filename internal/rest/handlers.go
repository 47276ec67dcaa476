// Package rest exposes the operator-facing HTTP API: opening a flow,
// driving it through the state machine, and listing enabled terminals.
package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator"

	"github.com/restopay/terminalflow/internal/flow"
	"github.com/restopay/terminalflow/internal/terminal"
)

type Handlers struct {
	manager   *flow.Manager
	directory *terminal.Directory
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewHandlers(manager *flow.Manager, directory *terminal.Directory, logger *slog.Logger) *Handlers {
	return &Handlers{
		manager:   manager,
		directory: directory,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (h *Handlers) AppendRoutes(r chi.Router) {
	r.Get("/terminals", h.handleListTerminals)

	r.Route("/flows", func(r chi.Router) {
		r.Post("/", h.handleOpenFlow)

		r.Route("/{flowID}", func(r chi.Router) {
			r.Get("/", h.handleGetFlow)
			r.Post("/select", h.handleSelectTerminal)
			r.Post("/start", h.handleStart)
			r.Post("/back", h.flowAction("back", (*flow.Controller).Back))
			r.Post("/retry", h.flowAction("retry", (*flow.Controller).Retry))
			r.Post("/confirm-close", h.flowAction("confirm-close", (*flow.Controller).ConfirmClose))
			r.Post("/finalize", h.flowAction("finalize", (*flow.Controller).Finalize))
			r.Post("/cancel", h.flowAction("cancel", (*flow.Controller).Cancel))
		})
	})
}

func (h *Handlers) handleListTerminals(w http.ResponseWriter, r *http.Request) {
	terminals, err := h.directory.ListEnabled(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, terminals)
}

func (h *Handlers) handleOpenFlow(w http.ResponseWriter, r *http.Request) {
	f, err := h.manager.Open(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, f.Snapshot())
}

func (h *Handlers) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	f, err := h.manager.Get(chi.URLParam(r, "flowID"))
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, f.Snapshot())
}

type SelectTerminalRequest struct {
	TerminalID string `json:"terminal_id" validate:"required"`
}

func (h *Handlers) handleSelectTerminal(w http.ResponseWriter, r *http.Request) {
	f, err := h.manager.Get(chi.URLParam(r, "flowID"))
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req SelectTerminalRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := f.SelectTerminal(req.TerminalID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, f.Snapshot())
}

type StartPaymentRequest struct {
	AmountCents       int64  `json:"amount_cents" validate:"required,gt=0"`
	Description       string `json:"description"`
	ExternalReference string `json:"external_reference" validate:"required"`
}

func (h *Handlers) handleStart(w http.ResponseWriter, r *http.Request) {
	f, err := h.manager.Get(chi.URLParam(r, "flowID"))
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req StartPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, err)
		return
	}

	if err := f.Start(req.AmountCents, req.Description, req.ExternalReference); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, f.Snapshot())
}

// flowAction builds a handler for the body-less state transitions.
func (h *Handlers) flowAction(name string, action func(*flow.Controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.manager.Get(chi.URLParam(r, "flowID"))
		if err != nil {
			respondWithError(w, err)
			return
		}

		if err := action(f); err != nil {
			h.logger.Warn("flow action rejected",
				"flow_id", f.ID(),
				"action", name,
				"error", err)
			respondWithError(w, err)
			return
		}

		respondWithJSON(w, http.StatusOK, f.Snapshot())
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

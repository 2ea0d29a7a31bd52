package ingest

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jmelnik/ingestgate/internal/app/services"
)

const (
	// APIKeyHeader carries the caller-presented credential.
	APIKeyHeader    = "x-api-key"
	maxPayloadBytes = 1 << 20

	acceptedMessage = "Request accepted successfully"
)

// Handler is the webhook orchestrator boundary: it maps the ingest
// lifecycle's outcomes onto HTTP statuses. The 201 ack is written before the
// downstream notification starts, so a slow processor can never stall the
// caller.
type Handler struct {
	svc *services.IngestionService
}

// NewHandler constructs the webhook handler.
func NewHandler(svc *services.IngestionService) *Handler {
	return &Handler{svc: svc}
}

// Handle processes one inbound delivery. Errors returned from here mean an
// unexpected fault with no response written yet; the server's error handler
// turns them into a 500.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return nil
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return nil
	}

	munchkinID := env.MunchkinID()
	if munchkinID == "" {
		writeError(w, http.StatusForbidden, "Munchkin ID is required")
		return nil
	}

	if err := h.svc.Authorize(ctx, munchkinID, r.Header.Get(APIKeyHeader)); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredential), errors.Is(err, services.ErrInvalidCredential):
			writeError(w, http.StatusUnauthorized, err.Error())
			return nil
		default:
			return err
		}
	}

	decision := h.svc.CheckAndDebit(ctx, munchkinID, int64(len(env.ObjectData)))
	if !decision.Allowed {
		writeError(w, http.StatusForbidden, decision.Message)
		return nil
	}

	artifact, err := h.svc.Persist(ctx, munchkinID, body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(acceptedMessage))

	// Ack is on the wire; anything past this point is invisible to the
	// caller.
	h.svc.NotifyAsync(artifact)
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

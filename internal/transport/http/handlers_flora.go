package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chimera/internal/flora/models"
	"chimera/internal/platform/middleware"
)

// FloraReader is the read side of the write coordinator.
type FloraReader interface {
	Get(ctx context.Context, id string) models.Result
	List(ctx context.Context) ([]models.Record, error)
}

type floraResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	CommonName     string         `json:"common_name"`
	ScientificName string         `json:"scientific_name"`
	Type           string         `json:"type"`
	Image          []byte         `json:"image"`
	Description    string         `json:"description"`
	Origin         string         `json:"origin"`
	OtherDetails   map[string]any `json:"other_details"`
}

func toFloraResponse(r models.Record) floraResponse {
	return floraResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		Type:           string(r.Type),
		Image:          r.Image,
		Description:    r.Description,
		Origin:         r.Origin,
		OtherDetails:   r.OtherDetails,
	}
}

// FloraHandler serves complete flora records.
type FloraHandler struct {
	reader FloraReader
	logger *slog.Logger
}

func NewFloraHandler(reader FloraReader, logger *slog.Logger) *FloraHandler {
	return &FloraHandler{reader: reader, logger: logger}
}

// Register mounts the record routes on r.
func (h *FloraHandler) Register(r chi.Router) {
	r.Get("/api/flora", h.handleList)
	r.Get("/api/flora/{id}", h.handleGet)
}

func (h *FloraHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	res := h.reader.Get(ctx, id)
	switch res.Outcome {
	case models.OutcomeOK:
		writeSuccess(w, toFloraResponse(res.Record))
	case models.OutcomeNotFound:
		writeError(w, http.StatusNotFound, "flora "+id+" not found")
	default:
		h.logger.ErrorContext(ctx, "failed to load flora",
			"flora_id", id,
			"request_id", middleware.GetRequestID(ctx),
			"error", res.Err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *FloraHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.reader.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list flora",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]floraResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toFloraResponse(rec))
	}
	writeSuccess(w, out)
}

package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gatekeeper/internal/delivery/http/helpers"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/domain"
)

type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewParticipationController(logger *slog.Logger, svc domain.ParticipationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

// RSVPRequest is the request body for POST /events/{eventID}/rsvp.
type RSVPRequest struct {
	Status string `json:"status"`
}

// Validate implements helpers.Validator.
func (r *RSVPRequest) Validate() []string {
	status := strings.ToLower(strings.TrimSpace(r.Status))
	if status == "" {
		return []string{"status is required"}
	}
	if !domain.RSVPStatus(status).Valid() {
		return []string{`status must be "yes", "no", or "maybe"`}
	}
	r.Status = status
	return nil
}

// ParticipationSuccessResponse is the success response envelope for the RSVP and ticket endpoints.
type ParticipationSuccessResponse struct {
	Data  *domain.Participation `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// RSVP godoc
// @Summary RSVP to a non-ticketed event
// @Description Records the authenticated user's RSVP answer. A "yes" answer runs the full eligibility pipeline and counts toward capacity; users already holding a "yes" may change their answer freely.
// @Tags participation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.RSVPRequest true "RSVP answer"
// @Success 200 {object} controllers.ParticipationSuccessResponse "data contains the participation record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: ineligible, details contains the eligibility result"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (capacity exhausted)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvp [post]
func (c *ParticipationController) RSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	var req RSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	participation, err := c.Service.RSVP(r.Context(), userID, eventID, domain.RSVPStatus(req.Status))
	if err != nil {
		c.writeParticipationError(w, r, err)
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, participation)
}

// PurchaseTicketRequest is the request body for POST /events/{eventID}/tickets.
type PurchaseTicketRequest struct {
	TierID string `json:"tier_id"`
}

// Validate implements helpers.Validator.
func (p *PurchaseTicketRequest) Validate() []string {
	tierID := strings.TrimSpace(p.TierID)
	if tierID == "" {
		return []string{"tier_id is required"}
	}
	if !uuidRegex.MatchString(tierID) {
		return []string{"tier_id must be a UUID"}
	}
	p.TierID = tierID
	return nil
}

// PurchaseTicket godoc
// @Summary Reserve a ticket for a ticketed event
// @Description Runs the full eligibility pipeline and reserves a ticket on the given tier for the authenticated user. Idempotent: returns the existing active ticket if the user already holds one.
// @Tags participation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.PurchaseTicketRequest true "Ticket tier"
// @Success 201 {object} controllers.ParticipationSuccessResponse "data contains the participation record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (tier not on sale, event not ticketed)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: ineligible, details contains the eligibility result"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (capacity exhausted)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/tickets [post]
func (c *ParticipationController) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	var req PurchaseTicketRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	participation, err := c.Service.PurchaseTicket(r.Context(), userID, eventID, req.TierID)
	if err != nil {
		if errors.Is(err, domain.ErrTierNotOnSale) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "ticket tier is not on sale")
			return
		}
		c.writeParticipationError(w, r, err)
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusCreated, participation)
}

// ListParticipantsSuccessResponse is the success response envelope for GET /events/{eventID}/participants (200).
type ListParticipantsSuccessResponse struct {
	Data  ListParticipantsData `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListParticipantsData is the data payload for GET /events/{eventID}/participants.
type ListParticipantsData struct {
	Participants []*domain.Participation `json:"participants"`
	Pagination   helpers.PaginationMeta  `json:"pagination"`
}

// ListParticipants godoc
// @Summary List an event's participants
// @Description Returns the event's participation records, paginated. Restricted to the organization owner and staff.
// @Tags participation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListParticipantsSuccessResponse "data contains participants and pagination metadata"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [get]
func (c *ParticipationController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	params := helpers.ParsePagination(r)
	participants, total, err := c.Service.ListEventParticipants(r.Context(), eventID, userID, params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}

	if participants == nil {
		participants = []*domain.Participation{}
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, ListParticipantsData{
		Participants: participants,
		Pagination:   helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// writeParticipationError maps service errors shared by the RSVP and ticket
// endpoints to HTTP responses.
func (c *ParticipationController) writeParticipationError(w http.ResponseWriter, r *http.Request, err error) {
	var ineligible *domain.IneligibleError
	if errors.As(err, &ineligible) {
		helpers.WriteJSONErrorDetails(w, http.StatusForbidden, helpers.ErrCodeIneligible, ineligible.Error(), ineligible.Result)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
		return
	}
	if errors.Is(err, domain.ErrCapacityExceeded) {
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "event is at capacity")
		return
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}

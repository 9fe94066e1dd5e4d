package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"gatekeeper/internal/delivery/http/helpers"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type EligibilityController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewEligibilityController(logger *slog.Logger, svc domain.ParticipationService) *EligibilityController {
	return &EligibilityController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckEligibilitySuccessResponse is the success response envelope for GET /events/{eventID}/eligibility (200).
type CheckEligibilitySuccessResponse struct {
	Data  *domain.EligibilityResult `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// CheckEligibility godoc
// @Summary Check whether the current user may participate in an event
// @Description Runs the full eligibility pipeline for the authenticated user and the specified event. Always returns 200 with the result; a negative result carries a reason and, when one exists, a suggested next step.
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CheckEligibilitySuccessResponse "data contains the eligibility result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/eligibility [get]
func (c *EligibilityController) CheckEligibility(w http.ResponseWriter, r *http.Request) {
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

	result, err := c.Service.CheckEligibility(r.Context(), userID, eventID, false)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

package contact

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BorderlessBits/contact-api/internal/logger"
	"github.com/BorderlessBits/contact-api/internal/metrics"
	"github.com/BorderlessBits/contact-api/internal/ratelimit"
)

// APIResponse is the standard API response envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError is the error detail in an API response.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes returned by the contact endpoint.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeRateLimited         = "TOO_MANY_REQUESTS"
	CodeSubmissionRejected  = "SUBMISSION_REJECTED"
	CodeSubmissionInFlight  = "SUBMISSION_IN_PROGRESS"
	CodeDeliveryUnavailable = "DELIVERY_UNAVAILABLE"
)

// SubmissionRequest is the inbound payload. Struct tags bound gross
// payload size at the edge; the precise field rules live in the domain
// validator so their messages reach the form inline.
type SubmissionRequest struct {
	Name           string `json:"name" validate:"max=300"`
	Email          string `json:"email" validate:"max=300"`
	Company        string `json:"company" validate:"max=300"`
	Phone          string `json:"phone" validate:"max=50"`
	ProjectType    string `json:"project_type" validate:"max=100"`
	Timeline       string `json:"project_timeline" validate:"max=100"`
	Message        string `json:"message" validate:"max=10000"`
	BudgetRange    string `json:"budget_range" validate:"max=100"`
	ReferralSource string `json:"referral_source" validate:"max=100"`
	Website        string `json:"website" validate:"max=300"`
}

// Handler exposes the submission pipeline over HTTP. The limiter is
// shared with the service so rate-limit state can be reported in
// response headers.
type Handler struct {
	service *Service
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewHandler creates a new Handler instance. limiter may be nil when
// rate limiting is disabled.
func NewHandler(service *Service, limiter *ratelimit.Limiter, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		service: service,
		limiter: limiter,
		logger:  log,
	}
}

// Submit handles POST /api/v1/contact. It accepts a JSON or
// form-encoded body and runs it through the submission pipeline.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCorrelationID(r.Context(), h.logger)

	req, ok := h.decodeRequest(w, r)
	if !ok {
		log.Debug("submission payload rejected at decode")
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Debug("submission payload exceeds field bounds", slog.Any("error", err))
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Request payload is too large or malformed", nil)
		return
	}

	input := SubmissionInput{
		Name:           req.Name,
		Email:          req.Email,
		Company:        req.Company,
		Phone:          req.Phone,
		ProjectType:    req.ProjectType,
		Timeline:       req.Timeline,
		Message:        req.Message,
		BudgetRange:    req.BudgetRange,
		ReferralSource: req.ReferralSource,
		Website:        req.Website,
	}

	clientID := clientIdentifier(r)
	outcome := h.service.Submit(r.Context(), clientID, input)
	metrics.SubmissionsTotal.WithLabelValues(string(outcome.Code)).Inc()

	if h.limiter != nil {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.limiter.Remaining(clientID)))
	}

	switch outcome.Code {
	case OutcomeDelivered, OutcomeHoneypot:
		// Honeypot submissions get the same success shape as real ones
		// so automated senders cannot tell they were dropped.
		h.writeSuccess(w, http.StatusOK, map[string]interface{}{
			"reference_id": outcome.ReferenceID,
			"message":      outcome.Message,
		})

	case OutcomeRateLimited:
		metrics.RateLimitRejections.Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(outcome.RetryAfter.Round(time.Second).Seconds())))
		h.writeError(w, http.StatusTooManyRequests, CodeRateLimited, outcome.Message, nil)

	case OutcomeInvalid:
		h.writeError(w, http.StatusBadRequest, CodeValidationError, outcome.Message, outcome.FieldErrors)

	case OutcomeSpam:
		h.writeError(w, http.StatusBadRequest, CodeSubmissionRejected, outcome.Message, nil)

	case OutcomeInFlight:
		h.writeError(w, http.StatusConflict, CodeSubmissionInFlight, "A submission is already being processed. Please wait a moment.", nil)

	default:
		h.writeError(w, http.StatusBadGateway, CodeDeliveryUnavailable, outcome.Message, nil)
	}
}

// decodeRequest parses a JSON or form-encoded submission body.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (SubmissionRequest, bool) {
	var req SubmissionRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid form body", nil)
			return req, false
		}
		req = SubmissionRequest{
			Name:           r.PostFormValue("name"),
			Email:          r.PostFormValue("email"),
			Company:        r.PostFormValue("company"),
			Phone:          r.PostFormValue("phone"),
			ProjectType:    r.PostFormValue("project_type"),
			Timeline:       r.PostFormValue("project_timeline"),
			Message:        r.PostFormValue("message"),
			BudgetRange:    r.PostFormValue("budget_range"),
			ReferralSource: r.PostFormValue("referral_source"),
			Website:        r.PostFormValue("website"),
		}
		return req, true
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return req, false
	}
	return req, true
}

// clientIdentifier derives the rate-limit key for a request. The chi
// RealIP middleware has already resolved proxy headers into RemoteAddr.
func clientIdentifier(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().UTC(),
	})
}

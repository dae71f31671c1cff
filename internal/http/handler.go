package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dossiers-service/internal/http/middleware"
	"github.com/nurpe/dossiers-service/internal/model"
	"github.com/nurpe/dossiers-service/internal/service"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type Handler struct {
	dossiers    *service.DossierService
	diagnostics *service.DiagnosticService
	exports     *service.ExportService
	log         zerolog.Logger
}

func NewHandler(
	dossiers *service.DossierService,
	diagnostics *service.DiagnosticService,
	exports *service.ExportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{dossiers: dossiers, diagnostics: diagnostics, exports: exports, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", h.health)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/dossiers", h.listDossiers)
	protected.POST("/dossiers", h.createDossier)
	protected.GET("/dossiers/:id", h.getDossier)
	protected.PATCH("/dossiers/:id", h.updateDossier)
	protected.DELETE("/dossiers/:id", h.deleteDossier)
	protected.GET("/dossiers/:id/diagnostic", h.getDiagnostic)
	protected.PUT("/dossiers/:id/diagnostic", h.saveDiagnostic)
	protected.GET("/dossiers/:id/pdf", h.exportDossierPDF)
	protected.GET("/exports/dossiers", h.exportDossiers)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.dossiers.Health(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("storage ping failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Database connection ok"})
}

func (h *Handler) listDossiers(c *gin.Context) {
	dossiers, err := h.dossiers.List(c.Request.Context(), model.DossierFilter{
		DossierNumber: c.Query("dossierNumber"),
	})
	if err != nil {
		h.handleError(c, err, "fetch dossiers")
		return
	}

	response := make([]dossierResponse, 0, len(dossiers))
	for _, d := range dossiers {
		response = append(response, toDossierResponse(d))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) createDossier(c *gin.Context) {
	if !h.requireWriter(c) {
		return
	}

	var req createDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	draft, details := req.toDraft()
	if len(details) > 0 {
		respondValidation(c, details...)
		return
	}

	dossier, err := h.dossiers.Create(c.Request.Context(), draft)
	if err != nil {
		h.handleError(c, err, "create dossier")
		return
	}
	c.JSON(http.StatusCreated, toDossierResponse(*dossier))
}

func (h *Handler) getDossier(c *gin.Context) {
	id, ok := dossierID(c)
	if !ok {
		return
	}

	dossier, err := h.dossiers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "fetch dossier")
		return
	}
	c.JSON(http.StatusOK, toDossierResponse(*dossier))
}

func (h *Handler) updateDossier(c *gin.Context) {
	if !h.requireWriter(c) {
		return
	}
	id, ok := dossierID(c)
	if !ok {
		return
	}

	var req updateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	patch, details := req.toPatch()
	if len(details) > 0 {
		respondValidation(c, details...)
		return
	}

	dossier, err := h.dossiers.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.handleError(c, err, "update dossier")
		return
	}
	c.JSON(http.StatusOK, toDossierResponse(*dossier))
}

func (h *Handler) deleteDossier(c *gin.Context) {
	if !h.requireWriter(c) {
		return
	}
	id, ok := dossierID(c)
	if !ok {
		return
	}

	if err := h.dossiers.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "delete dossier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dossier deleted successfully"})
}

func (h *Handler) getDiagnostic(c *gin.Context) {
	id, ok := dossierID(c)
	if !ok {
		return
	}

	diagnostic, err := h.diagnostics.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "fetch diagnostic")
		return
	}
	c.JSON(http.StatusOK, toDiagnosticResponse(*diagnostic))
}

func (h *Handler) saveDiagnostic(c *gin.Context) {
	if !h.requireWriter(c) {
		return
	}
	id, ok := dossierID(c)
	if !ok {
		return
	}

	var document map[string]any
	if err := c.ShouldBindJSON(&document); err != nil || document == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	diagnostic, err := h.diagnostics.Save(c.Request.Context(), id, document)
	if err != nil {
		h.handleError(c, err, "save diagnostic")
		return
	}
	c.JSON(http.StatusOK, toDiagnosticResponse(*diagnostic))
}

func (h *Handler) exportDossierPDF(c *gin.Context) {
	id, ok := dossierID(c)
	if !ok {
		return
	}

	result, err := h.exports.DossierPDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "export dossier")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, pdfContentType, result.Content)
}

func (h *Handler) exportDossiers(c *gin.Context) {
	result, err := h.exports.Register(c.Request.Context(), model.DossierFilter{
		DossierNumber: c.Query("dossierNumber"),
	})
	if err != nil {
		h.handleError(c, err, "export dossiers")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) requireWriter(c *gin.Context) bool {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return false
	}
	if !principal.CanWrite() {
		h.handleError(c, service.ErrPermissionDenied, "")
		return false
	}
	return true
}

// dossierID answers 404 for ids that are not uuids: no such dossier can exist.
func dossierID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dossier not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
	case errors.Is(err, service.ErrInvalidInput):
		respondValidation(c, validationDetail{Rule: "invalid", Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		message := "Dossier not found"
		if strings.HasSuffix(action, "diagnostic") {
			message = "Diagnostic not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"error": message})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Dossier number already exists"})
	default:
		requestID := middleware.RequestID(c)
		h.log.Error().Err(err).Str("request_id", requestID).Str("action", action).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to " + action,
			"details": "unexpected storage error, reference " + requestID,
		})
	}
}

func (r createDossierRequest) toDraft() (model.DossierDraft, []validationDetail) {
	var details []validationDetail
	creationDate, err := parseDate(r.CreationDate)
	if err != nil {
		details = append(details, dateDetail("creationDate"))
	}
	since, err := parseDate(r.UnpaidAmount.Since)
	if err != nil {
		details = append(details, dateDetail("unpaidAmount.since"))
	}

	return model.DossierDraft{
		DossierNumber:   strings.TrimSpace(r.DossierNumber),
		CreationDate:    creationDate,
		Status:          model.DossierStatus(r.Status),
		NextDeadline:    r.NextDeadline,
		NextAction:      r.NextAction,
		AdditionalNotes: r.AdditionalNotes,
		Tenant: model.TenantDraft{
			FirstName:  r.Tenant.FirstName,
			LastName:   r.Tenant.LastName,
			Email:      r.Tenant.Email,
			Phone:      r.Tenant.Phone,
			Address:    r.Tenant.Address,
			City:       r.Tenant.City,
			PostalCode: r.Tenant.PostalCode,
		},
		Landlord: model.LandlordDraft{
			Type:  model.LandlordType(r.Landlord.Type),
			Name:  r.Landlord.Name,
			Email: r.Landlord.Email,
			Phone: r.Landlord.Phone,
		},
		UnpaidAmount: model.UnpaidAmountDraft{
			Amount:          *r.UnpaidAmount.Amount,
			Months:          r.UnpaidAmount.Months,
			Since:           since,
			Reason:          model.UnpaidReason(r.UnpaidAmount.Reason),
			PreviousActions: r.UnpaidAmount.PreviousActions,
		},
	}, details
}

func (r updateDossierRequest) toPatch() (model.DossierPatch, []validationDetail) {
	patch := model.DossierPatch{
		Status:          convert(r.Status, func(s string) model.DossierStatus { return model.DossierStatus(s) }),
		NextDeadline:    r.NextDeadline,
		NextAction:      r.NextAction,
		AdditionalNotes: r.AdditionalNotes,
	}

	if t := r.Tenant; t != nil {
		patch.Tenant = &model.TenantPatch{
			FirstName:  t.FirstName,
			LastName:   t.LastName,
			Email:      t.Email,
			Phone:      t.Phone,
			Address:    t.Address,
			City:       t.City,
			PostalCode: t.PostalCode,
		}
	}
	if l := r.Landlord; l != nil {
		patch.Landlord = &model.LandlordPatch{
			Type:  convert(l.Type, func(s string) model.LandlordType { return model.LandlordType(s) }),
			Name:  l.Name,
			Email: l.Email,
			Phone: l.Phone,
		}
	}

	var details []validationDetail
	if u := r.UnpaidAmount; u != nil {
		unpaid := &model.UnpaidAmountPatch{
			Amount:          u.Amount,
			Months:          u.Months,
			Reason:          convert(u.Reason, func(s string) model.UnpaidReason { return model.UnpaidReason(s) }),
			PreviousActions: u.PreviousActions,
		}
		if u.Amount.Null {
			details = append(details, validationDetail{
				Field:   "unpaidAmount.amount",
				Rule:    "required",
				Message: "unpaidAmount.amount is required",
			})
		}
		switch {
		case u.Since.Null:
			unpaid.Since = model.Null[time.Time]()
		case u.Since.Set:
			since, err := parseDate(u.Since.Value)
			if err != nil {
				details = append(details, dateDetail("unpaidAmount.since"))
			}
			unpaid.Since = model.Some(since)
		}
		patch.UnpaidAmount = unpaid
	}
	return patch, details
}

func convert[T, U any](o model.Optional[T], fn func(T) U) model.Optional[U] {
	switch {
	case !o.Set:
		return model.Optional[U]{}
	case o.Null:
		return model.Null[U]()
	default:
		return model.Some(fn(o.Value))
	}
}

func dateDetail(field string) validationDetail {
	return validationDetail{Field: field, Rule: "date", Message: field + " must be a valid date (YYYY-MM-DD)"}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		dateLayout,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

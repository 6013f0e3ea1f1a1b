package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-service/internal/api/dto"
	"github.com/spec-kit/repair-service/internal/auth"
	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/repository"
	"github.com/spec-kit/repair-service/internal/service"
	apperrors "github.com/spec-kit/repair-service/pkg/util"
)

// RepairsHandler manages repair endpoints.
type RepairsHandler struct {
	service *service.RepairService
}

// NewRepairsHandler constructs handler.
func NewRepairsHandler(repairService *service.RepairService) *RepairsHandler {
	return &RepairsHandler{service: repairService}
}

// CreateRepair POST /repairs.
func (h *RepairsHandler) CreateRepair(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.CreateRepairRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ShopID == "" || req.CustomerID == "" {
		return apperrors.NewValidationError("shop_id and customer_id required", nil)
	}

	repair, err := h.service.CreateRepair(c.UserContext(), principal.Staff.ID, service.RepairCreateInput{
		ShopID:        req.ShopID,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ProductType:   req.ProductType,
		ProductBrand:  req.ProductBrand,
		ProductModel:  req.ProductModel,
		SerialNumber:  req.SerialNumber,
		Description:   req.Description,
		EstimatedCost: req.EstimatedCost,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": repairSummary(repair)})
}

// ListRepairs GET /repairs.
func (h *RepairsHandler) ListRepairs(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	filter := parseRepairQuery(c)
	repairs, err := h.service.ListRepairs(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RepairSummary, 0, len(repairs))
	for i := range repairs {
		items = append(items, repairSummary(&repairs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRepair GET /repairs/:id.
func (h *RepairsHandler) GetRepair(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	repair, timeline, err := h.service.GetRepair(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": RepairDetail(repair, timeline)})
}

// Transition POST /repairs/:id/transition.
func (h *RepairsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	repair, err := h.service.Transition(c.UserContext(), c.Params("id"), req.Status, principal.Staff.ID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": repairSummary(repair)})
}

// NextStatuses GET /repairs/:id/next-statuses.
func (h *RepairsHandler) NextStatuses(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	repair, _, err := h.service.GetRepair(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": service.NextStatuses(repair.Status)})
}

// AssignTechnician POST /repairs/:id/assign.
func (h *RepairsHandler) AssignTechnician(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}
	repair, err := h.service.AssignTechnician(c.UserContext(), c.Params("id"), req.TechnicianID, principal.Staff.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": repairSummary(repair)})
}

// ListAudit GET /repairs/:id/audit.
func (h *RepairsHandler) ListAudit(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	entries, err := h.service.ListAudit(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:        entry.ID,
			RepairID:  entry.RepairID,
			Action:    domain.ActionStatusUpdated,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			UpdatedBy: entry.UpdatedBy,
			Notes:     entry.Notes,
			Timestamp: entry.Timestamp,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseRepairQuery(c *fiber.Ctx) repository.RepairFilter {
	filter := repository.RepairFilter{
		Limit:  20,
		Offset: 0,
	}
	if v := c.Query("shop_id"); v != "" {
		filter.ShopID = &v
	}
	if v := c.Query("customer_id"); v != "" {
		filter.CustomerID = &v
	}
	if v := c.Query("technician"); v != "" {
		filter.AssignedTechnician = &v
	}
	if v := c.Query("status"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			status := domain.RepairStatus(strings.TrimSpace(raw))
			if status.IsValid() {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if v := c.Query("search"); v != "" {
		filter.SearchTerm = &v
	}
	if v := c.Query("created_from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if v := c.Query("created_to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedTo = &ts
		}
	}
	if v, err := strconv.Atoi(c.Query("limit", "20")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset", "0")); err == nil {
		filter.Offset = v
	}
	return filter
}

func repairSummary(repair *domain.Repair) dto.RepairSummary {
	return dto.RepairSummary{
		ID:                 repair.ID,
		ExternalKey:        repair.ExternalKey,
		ShopID:             repair.ShopID,
		CustomerID:         repair.CustomerID,
		CustomerName:       repair.CustomerName,
		ProductType:        repair.ProductType,
		ProductBrand:       repair.ProductBrand,
		Status:             repair.Status,
		AssignedTechnician: repair.AssignedTechnician,
		CreatedAt:          repair.CreatedAt,
		UpdatedAt:          repair.UpdatedAt,
	}
}

// RepairDetail builds the full response representation for a repair.
func RepairDetail(repair *domain.Repair, timeline []domain.TimelineEvent) dto.RepairDetailResponse {
	events := make([]dto.TimelineEventResponse, 0, len(timeline))
	for _, event := range timeline {
		events = append(events, dto.TimelineEventResponse{
			Step:      event.Step,
			Date:      event.Date,
			Completed: event.Completed,
			User:      event.User,
		})
	}
	return dto.RepairDetailResponse{
		RepairSummary: repairSummary(repair),
		CustomerPhone: repair.CustomerPhone,
		ProductModel:  repair.ProductModel,
		SerialNumber:  repair.SerialNumber,
		Description:   repair.Description,
		EstimatedCost: repair.EstimatedCost,
		FinalCost:     repair.FinalCost,
		Timeline:      events,
		NextStatuses:  service.NextStatuses(repair.Status),
	}
}

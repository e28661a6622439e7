package handler

import (
	"net/http"
	"strconv"
	"time"

	"drawerledger/internal/apierror"
	"drawerledger/internal/dto"
	"drawerledger/internal/middleware"
	"drawerledger/internal/repository"
	"drawerledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DrawerHandler struct{ svc service.DrawerService }

func NewDrawerHandler(svc service.DrawerService) *DrawerHandler { return &DrawerHandler{svc: svc} }

func operatorFromClaims(c *gin.Context) service.OperatorIdentity {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.OperatorID)
	return service.OperatorIdentity{ID: id, Name: claims.Name}
}

// Open godoc
// @Summary Opens a new drawer session
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenDrawerRequest true "Opening data"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/drawer/open [post]
func (h *DrawerHandler) Open(c *gin.Context) {
	var req dto.OpenDrawerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), operatorFromClaims(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Closes a drawer session against a counted amount
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseDrawerRequest true "Counted declaration"
// @Success 200 {object} dto.CloseDrawerResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/drawer/close [post]
func (h *DrawerHandler) Close(c *gin.Context) {
	var req dto.CloseDrawerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddCash godoc
// @Summary Records a manual cash-in or cash-out
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CashMovementRequest true "Cash movement"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/drawer/cash [post]
func (h *DrawerHandler) AddCash(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddCash(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type movementFn func(*gin.Context, dto.MovementRequest) (*dto.EntryResponse, error)

func (h *DrawerHandler) movement(fn movementFn) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.MovementRequest
		if !bindAndValidate(c, &req) {
			return
		}
		resp, err := fn(c, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func (h *DrawerHandler) RecordSale() gin.HandlerFunc {
	return h.movement(func(c *gin.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
		return h.svc.RecordSale(c.Request.Context(), req)
	})
}

func (h *DrawerHandler) RecordReturn() gin.HandlerFunc {
	return h.movement(func(c *gin.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
		return h.svc.RecordReturn(c.Request.Context(), req)
	})
}

func (h *DrawerHandler) RecordExpense() gin.HandlerFunc {
	return h.movement(func(c *gin.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
		return h.svc.RecordExpense(c.Request.Context(), req)
	})
}

func (h *DrawerHandler) RecordSupplierPayment() gin.HandlerFunc {
	return h.movement(func(c *gin.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
		return h.svc.RecordSupplierPayment(c.Request.Context(), req)
	})
}

func (h *DrawerHandler) RecordDebtCollection() gin.HandlerFunc {
	return h.movement(func(c *gin.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
		return h.svc.RecordDebtCollection(c.Request.Context(), req)
	})
}

func (h *DrawerHandler) RecordSalaryWithdrawal() gin.HandlerFunc {
	return h.movement(func(c *gin.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
		return h.svc.RecordSalaryWithdrawal(c.Request.Context(), req)
	})
}

// Adjust godoc
// @Summary Overrides the balance with an adjustment entry
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AdjustBalanceRequest true "Adjustment"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/adjust [post]
func (h *DrawerHandler) Adjust(c *gin.Context) {
	var req dto.AdjustBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustBalance(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VoidEntry godoc
// @Summary Voids a ledger entry (the single permitted mutation)
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param body body dto.VoidEntryRequest true "Reason"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/entries/{id}/void [post]
func (h *DrawerHandler) VoidEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid entry ID"))
		return
	}
	var req dto.VoidEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.VoidEntry(c.Request.Context(), id, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Snapshot godoc
// @Summary Derives the balance snapshot by replaying the ledger
// @Tags drawer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param at query string false "Point in time (RFC3339)"
// @Success 200 {object} dto.SnapshotResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/{id}/snapshot [get]
func (h *DrawerHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session ID"))
		return
	}
	var at *time.Time
	if raw := c.Query("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid 'at' timestamp, expected RFC3339"))
			return
		}
		at = &t
	}
	resp, err := h.svc.Snapshot(c.Request.Context(), id, at)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary Aggregates the session ledger into financial buckets
// @Tags drawer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param daily query bool false "Restrict to the current calendar day"
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/{id}/summary [get]
func (h *DrawerHandler) Summary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session ID"))
		return
	}
	daily := c.Query("daily") == "true"
	resp, err := h.svc.Summary(c.Request.Context(), id, daily)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Entries godoc
// @Summary Lists the session's entries in replay order
// @Tags drawer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param category query string false "Filter by category"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339, exclusive)"
// @Success 200 {array} dto.EntryResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/{id}/entries [get]
func (h *DrawerHandler) Entries(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session ID"))
		return
	}
	var tr repository.TimeRange
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid 'from' timestamp, expected RFC3339"))
			return
		}
		tr.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid 'to' timestamp, expected RFC3339"))
			return
		}
		tr.To = &t
	}
	resp, err := h.svc.Entries(c.Request.Context(), id, c.Query("category"), tr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active returns the currently open session for a drawer, if any.
func (h *DrawerHandler) Active(c *gin.Context) {
	drawer, err := strconv.Atoi(c.Query("drawer"))
	if err != nil || drawer < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid drawer number"))
		return
	}
	resp, err := h.svc.Active(c.Request.Context(), drawer)
	if err != nil {
		writeError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("no active session"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated list of sessions, newest first.
func (h *DrawerHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

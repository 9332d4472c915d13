package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

// POST /api/equipment  (admin)
func (ec *EquipmentController) Create(c *gin.Context) {
	var in struct {
		Name     string `json:"name" binding:"required"`
		Serial   string `json:"serial" binding:"required"`
		Quantity int    `json:"quantity" binding:"required"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "quantity must be positive"})
		return
	}

	eq := &models.Equipment{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Serial:   in.Serial,
		Quantity: in.Quantity,
		Location: in.Location,
	}
	if err := ec.Repo.CreateEquipment(c.Request.Context(), eq); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// GET /api/equipment  (?q=&page=&size=)
func (ec *EquipmentController) List(c *gin.Context) {
	q := db.EquipmentQuery{Q: c.Query("q")}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := ec.Repo.ListEquipmentWithActiveCounts(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "items": res.Items})
}

// GET /api/equipment/:id
func (ec *EquipmentController) Get(c *gin.Context) {
	eq, err := ec.Repo.FindEquipmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "equipment not found"})
		return
	}
	c.JSON(http.StatusOK, eq)
}

// GET /api/equipment/:id/availability
//
// Snapshot only: a positive answer can be stale by the time a request is
// filed. Admission is decided inside the engine's transactions.
func (ec *EquipmentController) Availability(c *gin.Context) {
	id := c.Param("id")
	eq, err := ec.Repo.FindEquipmentByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "equipment not found"})
		return
	}
	active, err := ec.Repo.ActiveLoanCount(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	ok, err := ec.Repo.HasCapacity(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, loan.ErrEquipmentNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "equipment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"equipmentId": eq.ID,
		"quantity":    eq.Quantity,
		"activeLoans": active,
		"available":   ok,
	})
}

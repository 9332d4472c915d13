package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_loan_manager/app"
	"Gin_postgres_redis_loan_manager/db"
	"Gin_postgres_redis_loan_manager/loan"
	"Gin_postgres_redis_loan_manager/models"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

const dateLayout = "2006-01-02"

// POST /api/loans
func (lc *LoanController) Create(c *gin.Context) {
	var in struct {
		EquipmentID        string `json:"equipmentId" binding:"required"`
		ManagerEmail       string `json:"managerEmail" binding:"required,email"`
		BorrowingDate      string `json:"borrowingDate" binding:"required"`
		ExpectedReturnDate string `json:"expectedReturnDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	borrow, err := time.Parse(dateLayout, in.BorrowingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "borrowingDate must be YYYY-MM-DD"})
		return
	}
	ret, err := time.Parse(dateLayout, in.ExpectedReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "expectedReturnDate must be YYYY-MM-DD"})
		return
	}

	req, err := lc.Engine.Create(c.Request.Context(), loan.CreateParams{
		EquipmentID:        in.EquipmentID,
		Requester:          app.CurrentEmail(c),
		Manager:            in.ManagerEmail,
		BorrowingDate:      borrow,
		ExpectedReturnDate: ret,
	})
	if err != nil {
		c.JSON(loanErrStatus(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, req)
}

// POST /api/loans/:id/approve|refuse|borrow|return
//
// The handler only names the target status; who may do what is entirely the
// engine's policy table.
func (lc *LoanController) Approve(c *gin.Context) { lc.transition(c, models.StatusApproved) }
func (lc *LoanController) Refuse(c *gin.Context)  { lc.transition(c, models.StatusRefused) }
func (lc *LoanController) Borrow(c *gin.Context)  { lc.transition(c, models.StatusBorrowed) }
func (lc *LoanController) Return(c *gin.Context)  { lc.transition(c, models.StatusReturned) }

func (lc *LoanController) transition(c *gin.Context, to models.LoanStatus) {
	var in struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&in)

	actor := loan.Actor{Email: app.CurrentEmail(c), Role: app.CurrentRole(c)}
	req, err := lc.Engine.Transition(c.Request.Context(), c.Param("id"), actor, to, in.Comment)
	if err != nil {
		c.JSON(loanErrStatus(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, req)
}

// GET /api/loans/:id
func (lc *LoanController) Get(c *gin.Context) {
	req, err := lc.Engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(loanErrStatus(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, req)
}

// GET /api/loans/:id/history
func (lc *LoanController) History(c *gin.Context) {
	if _, err := lc.Engine.Get(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(loanErrStatus(err), app.H{"error": err.Error()})
		return
	}
	entries, err := lc.Engine.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": entries})
}

// GET /api/loans  (?status=&equipmentId=&view=mine|managed|all&page=&size=)
//
// Non-managers only ever see their own requests; managers may additionally
// list the requests assigned to them, admins everything.
func (lc *LoanController) List(c *gin.Context) {
	q := db.LoansQuery{
		Status:      c.Query("status"),
		EquipmentID: c.Query("equipmentId"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	if q.Status != "" && !models.LoanStatus(q.Status).Valid() {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown status"})
		return
	}

	email := app.CurrentEmail(c)
	role := app.CurrentRole(c)
	switch c.DefaultQuery("view", "mine") {
	case "managed":
		if !role.IsManager() {
			c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
			return
		}
		q.Manager = email
	case "all":
		if role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
			return
		}
	default:
		q.Requester = email
	}

	res, err := lc.Repo.ListLoans(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "items": res.Items})
}

// loanErrStatus maps engine errors onto HTTP statuses.
func loanErrStatus(err error) int {
	switch {
	case errors.Is(err, loan.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, loan.ErrEquipmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, loan.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, loan.ErrIllegalTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loan.ErrCapacityExceeded),
		errors.Is(err, loan.ErrConflict),
		errors.Is(err, loan.ErrStaleState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

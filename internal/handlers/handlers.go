package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hinlibs/internal/models"
	"hinlibs/internal/services"
)

type LibraryHandler struct {
	circ    services.CirculationService
	catalog services.CatalogService
}

func RegisterRoutes(r *gin.Engine, circ services.CirculationService, catalog services.CatalogService) {
	h := &LibraryHandler{circ: circ, catalog: catalog}

	// Librarian endpoints
	r.POST("/items", h.addItem)
	r.DELETE("/items/:id", h.removeItem)

	// Patron endpoints
	r.POST("/items/:id/borrow", h.borrow)
	r.POST("/items/:id/return", h.returnItem)
	r.POST("/items/:id/holds", h.placeHold)
	r.DELETE("/items/:id/holds", h.cancelHold)
	r.GET("/patrons/:id/loans", h.accountLoans)
	r.GET("/patrons/:id/holds", h.accountHolds)

	// General endpoints
	r.GET("/items", h.listItems)
	r.GET("/items/:id", h.getItem)
	r.GET("/users", h.findUserByName)
}

// statusFor maps a failure category to an HTTP status. Operations report only
// the category; the body carries the specific message for display.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRoleViolation):
		return http.StatusForbidden
	case errors.Is(err, services.ErrPolicyViolation):
		return http.StatusConflict
	case errors.Is(err, services.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func itemParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return uuid.Nil, false
	}
	return id, true
}

// ─── Circulation ──────────────────────────────────────────────────────────────

type patronRequest struct {
	PatronID string `json:"patron_id" binding:"required,uuid"`
}

func (r patronRequest) id() uuid.UUID {
	id, _ := uuid.Parse(r.PatronID)
	return id
}

func (h *LibraryHandler) borrow(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req patronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.circ.Borrow(req.id(), itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func (h *LibraryHandler) returnItem(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req patronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.circ.Return(req.id(), itemID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "returned"})
}

func (h *LibraryHandler) placeHold(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req patronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hold, err := h.circ.PlaceHold(req.id(), itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

func (h *LibraryHandler) cancelHold(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req patronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.circ.CancelHold(req.id(), itemID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *LibraryHandler) accountLoans(c *gin.Context) {
	patronID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patron id"})
		return
	}

	loans, err := h.circ.AccountLoans(patronID, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) accountHolds(c *gin.Context) {
	patronID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patron id"})
		return
	}

	holds, err := h.circ.AccountHolds(patronID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, holds)
}

// ─── Catalogue ────────────────────────────────────────────────────────────────

type addItemRequest struct {
	LibrarianID     string          `json:"librarian_id" binding:"required,uuid"`
	Kind            models.ItemKind `json:"kind" binding:"required"`
	Title           string          `json:"title" binding:"required"`
	Creator         string          `json:"creator" binding:"required"`
	PublicationYear int             `json:"publication_year" binding:"required,min=1"`
	Dewey           *string         `json:"dewey"`
	ISBN            *string         `json:"isbn"`
	IssueNumber     *int            `json:"issue_number"`
	PublicationDate *time.Time      `json:"publication_date"`
	Genre           *string         `json:"genre"`
	Rating          *string         `json:"rating"`
}

func (h *LibraryHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	librarianID, _ := uuid.Parse(req.LibrarianID)

	item, err := h.catalog.AddItem(librarianID, services.ItemInput{
		Kind:            req.Kind,
		Title:           req.Title,
		Creator:         req.Creator,
		PublicationYear: req.PublicationYear,
		Dewey:           req.Dewey,
		ISBN:            req.ISBN,
		IssueNumber:     req.IssueNumber,
		PublicationDate: req.PublicationDate,
		Genre:           req.Genre,
		Rating:          req.Rating,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type removeItemRequest struct {
	LibrarianID string `json:"librarian_id" binding:"required,uuid"`
}

func (h *LibraryHandler) removeItem(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	librarianID, _ := uuid.Parse(req.LibrarianID)

	if err := h.catalog.RemoveItem(librarianID, itemID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

type itemView struct {
	models.Item
	TypeName string `json:"type_name"`
	Details  string `json:"details"`
}

func (h *LibraryHandler) listItems(c *gin.Context) {
	items, err := h.catalog.ListItems()
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{
			Item:     item,
			TypeName: item.TypeName(),
			Details:  item.DetailsSummary(),
		})
	}
	c.JSON(http.StatusOK, views)
}

func (h *LibraryHandler) getItem(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}

	item, err := h.catalog.GetItem(itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, itemView{
		Item:     *item,
		TypeName: item.TypeName(),
		Details:  item.DetailsSummary(),
	})
}

func (h *LibraryHandler) findUserByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	user, err := h.catalog.FindUserByName(name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

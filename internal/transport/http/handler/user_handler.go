package handler

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-library-service/internal/domain"
	"go-library-service/internal/service"
	resp "go-library-service/internal/transport/http/response"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	users := g.Group("/users")
	users.GET("", h.list)
	users.POST("", h.create)
	users.GET("/:id", h.getByID)
	users.POST("/:userId/borrow/:bookId", h.borrow)
	users.POST("/:userId/return/:bookId", h.returnBook)
}

func (h *UserHandler) Priority() int { return 10 }

type createUserIn struct {
	Name  string `json:"name" binding:"required,max=64"`
	Email string `json:"email" binding:"required,email"`
}

func (h *UserHandler) create(c *gin.Context) {
	var in createUserIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, resp.Fail("VALIDATION_ERROR", err.Error()))
		return
	}
	if _, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		Name:  in.Name,
		Email: in.Email,
	}); err != nil {
		resp.Abort(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *UserHandler) getByID(c *gin.Context) {
	view, err := h.svc.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) list(c *gin.Context) {
	users, err := h.svc.GetUsers(c.Request.Context())
	if err != nil {
		resp.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) borrow(c *gin.Context) {
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}
	if err := h.svc.BorrowBook(c.Request.Context(), c.Param("userId"), bookID); err != nil {
		resp.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type returnIn struct {
	Score *float64 `json:"score" binding:"required"`
}

func (h *UserHandler) returnBook(c *gin.Context) {
	bookID, ok := parseBookID(c)
	if !ok {
		return
	}

	// 评分在边界层校验，非法评分不触达台账
	var in returnIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Abort(c, domain.ErrInvalidScore())
		return
	}
	score := *in.Score
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 5 {
		resp.Abort(c, domain.ErrInvalidScore())
		return
	}

	if err := h.svc.ReturnBook(c.Request.Context(), c.Param("userId"), bookID, score); err != nil {
		resp.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

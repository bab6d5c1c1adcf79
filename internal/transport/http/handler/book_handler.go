package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"go-library-service/internal/service"
	resp "go-library-service/internal/transport/http/response"
)

type BookHandler struct {
	svc *service.BookService
}

func NewBookHandler(svc *service.BookService) *BookHandler { return &BookHandler{svc: svc} }

func (h *BookHandler) MountAPI(g *gin.RouterGroup) {
	books := g.Group("/books")
	books.GET("", h.list)
	books.POST("", h.create)
	books.GET("/:id", h.getByID)
}

func (h *BookHandler) Priority() int { return 20 }

func (h *BookHandler) list(c *gin.Context) {
	books, err := h.svc.GetBooks(c.Request.Context())
	if err != nil {
		resp.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *BookHandler) getByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, resp.Fail("BOOK_NOT_FOUND",
			fmt.Sprintf("Book not found with id: %s", c.Param("id"))))
		return
	}
	detail, err := h.svc.GetBookByID(c.Request.Context(), uint(id))
	if err != nil {
		resp.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type createBookIn struct {
	Name string `json:"name" binding:"required"`
}

func (h *BookHandler) create(c *gin.Context) {
	var in createBookIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, resp.Fail("VALIDATION_ERROR", "Book name is required"))
		return
	}
	// 长度按字符数而非字节数校验，非 ASCII 书名不吃亏
	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		c.JSON(http.StatusBadRequest, resp.Fail("VALIDATION_ERROR",
			"Book name must be between 2 and 100 characters"))
		return
	}
	if _, err := h.svc.CreateBook(c.Request.Context(), name); err != nil {
		resp.Abort(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// parseBookID 路径里的 bookId 非数字时按未找到处理（与语义保持一致：不存在这样的书）
func parseBookID(c *gin.Context) (uint, bool) {
	raw := c.Param("bookId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, resp.Fail("BOOK_NOT_FOUND",
			fmt.Sprintf("Book not found with id: %s", raw)))
		return 0, false
	}
	return uint(id), true
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/services"
)

type UserController struct {
	userService services.UserService
}

func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetUsers lists accounts newest first, optionally filtered by ?search=
// against name and email (admin only).
func (uc *UserController) GetUsers(c *gin.Context) {
	page, limit := parsePaginationParams(c, 20)

	result, err := uc.userService.ListUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   result.Users,
		"total":   result.Total,
		"page":    result.Page,
		"meta":    paginationMeta(page, limit, result.Total),
	})
}

func (uc *UserController) ToggleBlock(c *gin.Context) {
	result, err := uc.userService.ToggleBlock(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isBlocked": result.IsBlocked, "message": result.Message})
}

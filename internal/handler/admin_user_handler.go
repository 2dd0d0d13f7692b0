package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/service"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// AdminUserHandler lets the admin dashboard follow SMS registrations.
type AdminUserHandler struct {
	userService *service.UserService
}

func NewAdminUserHandler(userService *service.UserService) *AdminUserHandler {
	return &AdminUserHandler{userService: userService}
}

// ListSMSUsers handles GET /v1/admin/sms-users?status=&page=&limit=
func (h *AdminUserHandler) ListSMSUsers(c *gin.Context) {
	page, limit := pagination(c)

	users, total, err := h.userService.List(c.Request.Context(), c.Query("status"), page, limit)
	if errors.Is(err, utils.ErrInvalidPayload) {
		utils.Error(c, 400, "INVALID_STATUS", "Unknown status filter")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list SMS users")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get users")
		return
	}

	page, limit = utils.NormalizePage(page, limit)
	utils.SuccessWithPagination(c, 200, "Users retrieved successfully", gin.H{
		"users": users,
	}, page, limit, total)
}

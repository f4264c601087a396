package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) RemoveOrganizationMember(c *gin.Context) {
	userID, ok := s.userIDFromRequest(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orgID := strings.TrimSpace(c.Param("id"))
	memberUserID := strings.TrimSpace(c.Param("userId"))
	if orgID == "" || memberUserID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	removed, err := s.organizationSvc.RemoveMember(c.Request.Context(), userID, orgID, memberUserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

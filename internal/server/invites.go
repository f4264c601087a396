package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type sendInvitesRequest struct {
	Emails     []string `json:"emails"`
	InviteLink string   `json:"invite_link"`
}

type redeemInviteRequest struct {
	Token string `json:"token"`
}

func (s *Server) GenerateInviteToken(c *gin.Context) {
	if _, ok := s.userIDFromRequest(c); !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orgID := strings.TrimSpace(c.Param("id"))
	if orgID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	resp, err := s.inviteSvc.GenerateToken(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":       resp.Token,
		"expires_at":  resp.ExpiresAt,
		"invite_link": s.cfg.BaseURL + "/invite?token=" + resp.Token,
	})
}

func (s *Server) SendInvites(c *gin.Context) {
	if _, ok := s.userIDFromRequest(c); !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orgID := strings.TrimSpace(c.Param("id"))
	if orgID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req sendInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.inviteSvc.SendInvites(c.Request.Context(), orgID, req.Emails, req.InviteLink); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RedeemInvite(c *gin.Context) {
	userID, ok := s.userIDFromRequest(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req redeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	if err := s.inviteSvc.Redeem(c.Request.Context(), req.Token, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"shareit/internal/dto"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) listUsers(c *gin.Context) {
	users, err := s.svc.Users.GetAllUsers(c.Request.Context())
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponses(users))
}

func (s *HTTPServer) getUser(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	user, err := s.svc.Users.GetUser(c.Request.Context(), id)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (s *HTTPServer) createUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	user, err := s.svc.Users.CreateUser(c.Request.Context(), req.Model())
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (s *HTTPServer) updateUser(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	var req dto.UpdateUserRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	user, err := s.svc.Users.UpdateUser(c.Request.Context(), id, req.Patch())
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (s *HTTPServer) deleteUser(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	if err := s.svc.Users.DeleteUser(c.Request.Context(), id); err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.Status(http.StatusOK)
}

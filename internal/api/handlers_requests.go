package api

import (
	"net/http"

	"shareit/internal/dto"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) createRequest(c *gin.Context) {
	var req dto.CreateItemRequestRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	request, err := s.svc.Requests.AddRequest(c.Request.Context(), sharerID(c), req.Description)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemRequestResponse(request))
}

func (s *HTTPServer) ownRequests(c *gin.Context) {
	requests, err := s.svc.Requests.GetOwnRequests(c.Request.Context(), sharerID(c))
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemRequestResponses(requests))
}

func (s *HTTPServer) otherRequests(c *gin.Context) {
	from, size, err := PageParams(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	requests, err := s.svc.Requests.GetOtherRequests(c.Request.Context(), sharerID(c), from, size)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemRequestResponses(requests))
}

func (s *HTTPServer) getRequest(c *gin.Context) {
	requestID, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	request, err := s.svc.Requests.GetRequest(c.Request.Context(), sharerID(c), requestID)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemRequestResponse(request))
}

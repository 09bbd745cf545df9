package api

import (
	"net/http"

	"shareit/internal/dto"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) createItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	item, err := s.svc.Items.AddItem(c.Request.Context(), sharerID(c), req.Model())
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemResponse(item))
}

func (s *HTTPServer) updateItem(c *gin.Context) {
	itemID, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	var req dto.UpdateItemRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	item, err := s.svc.Items.UpdateItem(c.Request.Context(), sharerID(c), itemID, req.Patch())
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemResponse(item))
}

func (s *HTTPServer) getItem(c *gin.Context) {
	itemID, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	details, err := s.svc.Items.GetItem(c.Request.Context(), sharerID(c), itemID)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemDetailsResponse(details))
}

func (s *HTTPServer) ownerItems(c *gin.Context) {
	from, size, err := PageParams(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	details, err := s.svc.Items.GetOwnerItems(c.Request.Context(), sharerID(c), from, size)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemDetailsResponses(details))
}

func (s *HTTPServer) searchItems(c *gin.Context) {
	from, size, err := PageParams(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	items, err := s.svc.Items.Search(c.Request.Context(), c.Query("text"), from, size)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToItemResponses(items))
}

func (s *HTTPServer) addComment(c *gin.Context) {
	itemID, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	var req dto.CreateCommentRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	comment, err := s.svc.Items.AddComment(c.Request.Context(), sharerID(c), itemID, req.Text)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentResponse(comment))
}

package controllers

import (
	"net/http"

	util "github.com/KanapuramVaishnavi/Core/util"

	"github.com/gin-gonic/gin"
)

func Chat(router gin.IRouter, h *Handler) {
	chat := router.Group("/chat")
	{
		chat.GET("/fetch/:tenantId", h.authorize("chat", "view"), h.FetchChat)
		chat.POST("/session/:tenantId", h.authorize("chat", "create"), h.StartChatSession)
		chat.POST("/message/:tenantId/:sessionCode", h.authorize("chat", "create"), h.AddChatMessage)
	}
}

func (h *Handler) FetchChat(c *gin.Context) {
	chat, err := h.Chat.FetchChat(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, chat)
}

type sessionRequest struct {
	Title string `json:"title"`
}

func (h *Handler) StartChatSession(c *gin.Context) {
	var req sessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, util.FailedResponse(err))
			return
		}
	}
	session, err := h.Chat.StartSession(c.Request.Context(), c.Param("tenantId"), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, util.SuccessResponse(session))
}

type messageRequest struct {
	Sender string `json:"sender" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

func (h *Handler) AddChatMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	msg, err := h.Chat.AddMessage(c.Request.Context(), c.Param("tenantId"), c.Param("sessionCode"), req.Sender, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, util.SuccessResponse(msg))
}

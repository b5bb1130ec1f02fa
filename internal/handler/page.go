package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/pages"
)

// PageHandler serves the browser pages. Each page is rendered as HTML, or as
// JSON when the client asks for it.
type PageHandler struct {
	services *pages.Services
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(services *pages.Services) *PageHandler {
	return &PageHandler{services: services}
}

// Serve returns the gin handler for one page, used for both GET and POST.
func (h *PageHandler) Serve(route pages.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid form"})
			return
		}

		view := route.Handler(c.Request.Context(), h.services, pages.Request{
			Form:      c.Request.PostForm,
			Submitted: c.Request.Method == http.MethodPost,
			UserID:    middleware.UserID(c),
		})
		view.Nav = pages.Nav(route.Name)

		if view.Session != nil {
			setSessionCookie(c, view.Session.Token, view.Session.ExpiresAt)
		}

		c.Negotiate(http.StatusOK, gin.Negotiate{
			Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
			HTMLName: pages.TemplateName,
			Data:     view,
		})
	}
}

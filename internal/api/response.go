package api

import "github.com/gin-gonic/gin"

// Envelope is the common response shape of the archive API.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Total   *int64      `json:"total,omitempty"`
	Page    *int        `json:"page,omitempty"`
	Pages   *int        `json:"pages,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, data interface{}, count int, total int64, page, pages int) {
	c.JSON(200, Envelope{
		Success: true,
		Count:   &count,
		Total:   &total,
		Page:    &page,
		Pages:   &pages,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: message})
}

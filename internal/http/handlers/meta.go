package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MetaHandler struct {
	env         string
	version     string
	storeDriver string
}

func NewMetaHandler(env, version, storeDriver string) *MetaHandler {
	return &MetaHandler{env: env, version: version, storeDriver: storeDriver}
}

func (h *MetaHandler) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Washa Loan Management API",
		"version": h.version,
		"env":     h.env,
		"store":   h.storeDriver,
	})
}

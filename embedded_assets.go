package main

import (
	"embed"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

//go:embed dist/*
var webappContent embed.FS

// serveEmbeddedFile serves a file of the embedded dashboard
func serveEmbeddedFile(c *gin.Context, prefix string, filepath string) {
	// If the path is empty or ends with "/", serve index.html
	if filepath == "" || strings.HasSuffix(filepath, "/") {
		filepath = path.Join(filepath, "index.html")
	}

	fullPath := path.Join("dist", prefix, filepath)
	data, err := webappContent.ReadFile(fullPath)
	if err != nil {
		log.Warnf("File not found: %s", fullPath)
		c.String(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	contentType := mime.TypeByExtension(path.Ext(fullPath))
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, contentType, data)
}

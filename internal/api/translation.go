package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"artisanhub/internal/translate" // Translation service

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// TranslateRequest is the body of POST /api/translate
type TranslateRequest struct {
	Lang string         `json:"lang"`
	Keys map[string]any `json:"keys"`
}

// LanguagesHandler lists the supported languages
func LanguagesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, translate.Languages())
	}
}

// TranslateHandler translates UI strings; the language comes from the path or the body
func TranslateHandler(svc *translate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TranslateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		if lang := c.Param("lang"); lang != "" {
			req.Lang = lang
		}
		result, err := svc.Translate(c.Request.Context(), req.Lang, req.Keys)
		switch {
		case errors.Is(err, translate.ErrUnsupportedLanguage):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported language"})
			return
		case errors.Is(err, translate.ErrNoKeys):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Keys are required"})
			return
		case err != nil:
			logrus.WithFields(logrus.Fields{"lang": req.Lang, "error": err.Error()}).Error("Translation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch translations", "details": err.Error()})
			return
		}
		if result.Cached {
			c.Header("X-Cache", "HIT")
		} else {
			c.Header("X-Cache", "MISS")
		}
		c.JSON(http.StatusOK, result.Translations)
	}
}

// ClearTranslationCacheHandler drops every cached translation
func ClearTranslationCacheHandler(svc *translate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Clear(c.Request.Context()); err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to clear translation cache")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to clear cache"})
			return
		}
		logrus.Info("Translation cache cleared")
		c.JSON(http.StatusOK, gin.H{"message": "Translation cache cleared"})
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yourusername/tubegrab-go/internal/domain"
)

// RegisterValidators installs the custom binding rules on gin's validator engine
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("video_url", func(fl validator.FieldLevel) bool {
		return domain.IsSupportedURL(fl.Field().String())
	})
}

// bindError turns a binding failure into the client-facing message
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "video_url":
			writeError(c, http.StatusBadRequest, "invalid YouTube URL")
		case "required":
			writeError(c, http.StatusBadRequest, fe.Field()+" is required")
		default:
			writeError(c, http.StatusBadRequest, "invalid "+fe.Field())
		}
		return
	}
	writeError(c, http.StatusBadRequest, "invalid request body")
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

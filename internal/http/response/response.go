package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguaflow/linguaflow-backend/internal/platform/apierr"
)

// RespondOK writes the success envelope. Extra payload keys sit next to
// the success flag, per the client contract.
func RespondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondError writes {success:false, message, code}. An *apierr.Error
// anywhere in the chain supplies the status and code; everything else is a
// plain 500.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status != 0 {
			status = apiErr.Status
		}
		if apiErr.Code != "" {
			code = apiErr.Code
		}
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": msg,
		"code":    code,
	})
}

// RespondErrorStatus is for handler-local validation errors where no
// apierr has been constructed yet.
func RespondErrorStatus(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": msg,
		"code":    code,
	})
}

package handlers

import (
	"net/http"
	"strconv"

	"clinicdesk/services/schedule"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RegisterValidators adds the hhmm and ymd binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.Newf("unexpected binding validator %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseTimeOfDay(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		return schedule.ValidateDate(fl.Field().String()) == nil
	})
}

// bindJSON answers 400 and returns false when the body does not bind.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return false
	}
	return true
}

// withWarning adds a warning field when the projection could not be updated.
// The primary write already succeeded, so the status is unchanged.
func withWarning(c *gin.Context, status int, body gin.H, sync *utils.SyncFailure) {
	if sync != nil {
		getLogger(c).Warn("Appointment sync failed", zap.String("op", sync.Op), zap.String("id", sync.ID), zap.Error(sync.Err))
		body["warning"] = sync.Error()
	}
	c.JSON(status, body)
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", key+" must be a number")
		return 0, false
	}
	return n, true
}

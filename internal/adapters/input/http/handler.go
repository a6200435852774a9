package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HTTPHandler struct - Primary/Driving adapter for the operational HTTP
// surface (keep-alive and health).
type HTTPHandler struct {
	db *gorm.DB // nil when the transcript database is not configured
}

// New func - Creates new HTTP handler
func New(db *gorm.DB) *HTTPHandler {
	return &HTTPHandler{
		db: db,
	}
}

// KeepAlive func - Plain liveness text so hosting platforms keep the
// process warm
// @Summary Keep alive
// @Description Returns a liveness message
// @Tags Operational
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (hdl *HTTPHandler) KeepAlive(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("KeepAlive: bot running")
}

// HealthCheck func
// @Summary Health check
// @Description Returns 200 when the process (and database, if configured) is healthy
// @Tags Operational
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	if hdl.db != nil {
		sqlDB, err := hdl.db.DB()
		if err != nil {
			logrus.Errorln(err)
			return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
		}
		if err := sqlDB.Ping(); err != nil {
			logrus.Errorln(err)
			return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
		}
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: ""})
}

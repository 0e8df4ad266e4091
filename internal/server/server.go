// Package server assembles the fiber application: error handling, common
// middleware and every route.
package server

import (
	"context"
	"strings"
	"time"

	"realty_backend/internal/controller"
	"realty_backend/internal/middleware"
	"realty_backend/internal/service"
	"realty_backend/internal/store"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/cache"
	"realty_backend/pkg/config"
	"realty_backend/pkg/email"
	"realty_backend/pkg/utils/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps is everything the handlers need. Cache and Notifier may be nil.
type Deps struct {
	Config   *config.Config
	Log      *logrus.Logger
	DB       *gorm.DB
	Stores   *store.Stores
	Auth     *service.AdminAuth
	Files    storage.FileStore
	Cache    *cache.Cache
	Notifier *email.Notifier
}

// ErrorHandler renders handler errors as {"error": ..., "field": ...}.
// Internal messages are replaced by a generic one in production.
func ErrorHandler(log *logrus.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := apperror.As(err); ok {
			body := fiber.Map{"error": appErr.Message}
			if appErr.Field != "" {
				body["field"] = appErr.Field
			}
			if appErr.Kind == apperror.KindInternal {
				log.WithError(err).WithFields(logrus.Fields{
					"method": c.Method(),
					"path":   c.Path(),
				}).Error("Request failed")
				if production {
					body["error"] = "Internal server error"
				} else {
					body["error"] = appErr.Error()
				}
			}
			return c.Status(appErr.Status()).JSON(body)
		}

		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Unhandled error")
		msg := "Internal server error"
		if !production {
			msg = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
	}
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	bodyLimit := 4 * 1024 * 1024
	if max := int(cfg.Upload.MaxBytes) * 5; max > bodyLimit {
		bodyLimit = max
	}

	app := fiber.New(fiber.Config{
		AppName:      "realty-backend",
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler(d.Log, cfg.IsProduction()),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: d.Log.Out}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.HTTP.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	if local, ok := d.Files.(*storage.LocalStore); ok {
		app.Static(local.PublicPath(), local.Root())
	}

	setupRoutes(app, d)
	return app
}

func setupRoutes(app *fiber.App, d Deps) {
	cfg := d.Config
	limit := middleware.RateLimit(cfg.HTTP.RateLimitMax, cfg.HTTP.RateLimitWindow)
	adminOnly := middleware.RequireAdmin(d.Auth)

	properties := controller.NewPropertyController(d.Stores.Properties, d.Cache, d.Files, d.Stores.Analytics, d.Log)
	contacts := controller.NewContactController(d.Stores.Contacts, d.Stores.Properties, d.Stores.Analytics, d.Notifier, cfg.SiteURL, d.Log)
	analytics := controller.NewAnalyticsController(d.Stores.Analytics, cfg.Analytics.RetentionDays)
	uploads := controller.NewUploadController(d.Files, d.Stores.Properties, d.Cache, cfg.Upload.MaxBytes, d.Log)
	auth := controller.NewAuthController(d.Auth)
	dashboard := controller.NewDashboardController(service.NewDashboard(d.Stores))
	locations := controller.NewLocationController(d.Stores.Properties)

	api := app.Group("/api")
	api.Get("/health", health(d.DB))

	// Public property routes; fixed paths come before /:identifier
	api.Get("/properties", properties.ListProperties)
	api.Get("/properties/search/:term", properties.SearchProperties)
	api.Get("/properties/featured/list", properties.FeaturedProperties)
	api.Get("/properties/type/:type", properties.PropertiesByType)
	api.Get("/properties/stats/summary", properties.PropertySummary)
	api.Get("/properties/geojson", properties.PropertiesGeoJSON)
	api.Get("/properties/:identifier", properties.GetProperty)
	api.Post("/properties", adminOnly, properties.CreateProperty)

	api.Get("/locations", locations.GetLocationTree)
	api.Get("/locations/countries", locations.GetCountries)
	api.Get("/locations/countries/:country/cities", locations.GetCitiesByCountry)
	api.Get("/locations/cities/:city/areas", locations.GetAreasByCity)

	// Contacts
	api.Post("/contacts", limit, contacts.CreateContact)
	api.Get("/contacts", adminOnly, contacts.ListContacts)
	api.Get("/contacts/:id", adminOnly, contacts.GetContact)
	api.Put("/contacts/:id/status", adminOnly, contacts.UpdateContactStatus)
	api.Delete("/contacts/:id", adminOnly, contacts.DeleteContact)

	// Analytics
	api.Post("/analytics/track", limit, analytics.Track)
	reports := api.Group("/analytics", adminOnly)
	reports.Get("/overview", analytics.Overview)
	reports.Get("/devices", analytics.Devices)
	reports.Get("/searches", analytics.Searches)
	reports.Get("/traffic-sources", analytics.TrafficSources)
	reports.Get("/report.pdf", analytics.ReportPDF)
	reports.Delete("/cleanup", analytics.Cleanup)

	// Admin; login must be registered before the guarded group
	api.Post("/admin/login", limit, auth.Login)
	admin := api.Group("/admin", adminOnly)
	admin.Post("/logout", auth.Logout)
	admin.Get("/verify", auth.Verify)
	admin.Get("/dashboard/stats", dashboard.GetDashboardStats)

	admin.Get("/properties", properties.AdminListProperties)
	admin.Post("/properties", properties.CreateProperty)
	admin.Get("/properties/:id", properties.AdminGetProperty)
	admin.Put("/properties/:id", properties.UpdateProperty)
	admin.Delete("/properties/:id", properties.DeleteProperty)

	admin.Post("/upload", uploads.UploadImage)
	admin.Post("/upload/multiple", uploads.UploadImages)
	admin.Post("/upload/property/:id", uploads.UploadPropertyImages)
	admin.Delete("/upload", uploads.DeleteImage)
}

func health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		dbStatus := "ok"
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				status, dbStatus = "degraded", "unreachable"
			}
		}
		code := fiber.StatusOK
		if status != "ok" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"database": dbStatus,
			"time":     time.Now().UTC(),
		})
	}
}

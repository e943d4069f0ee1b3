package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/i474232898/rainlog/internal/rainfall"
)

var validate = validator.New()

// Options configures NewApp.
type Options struct {
	Service *rainfall.Service
	Logger  *zap.Logger

	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer

	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// NewApp builds the fiber app with middleware, health, metrics and API routes.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "rainlog",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "rainlog",
		})
	})

	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	RegisterRoutes(app, opts.Service, opts.Logger)
	return app
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

type handler struct {
	service *rainfall.Service
	logger  *zap.Logger
}

// RegisterRoutes wires the rainfall handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *rainfall.Service, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{service: service, logger: log.Named("http")}

	api := app.Group("/api/rainfall")
	api.Get("/", h.listRecords)
	api.Post("/", h.createRecord)
	api.Get("/monthly", h.monthlyTotals)
	api.Get("/yearly", h.yearlyTotals)
	api.Get("/yearly/:year", h.yearSeries)
}

func (h *handler) listRecords(c *fiber.Ctx) error {
	records, err := h.service.ListRecords(c.UserContext())
	if err != nil {
		return h.internal(c, err, "Failed to fetch rainfall records")
	}
	return c.JSON(records)
}

func (h *handler) createRecord(c *fiber.Ctx) error {
	var req createRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, bodyErrorMessage(err))
	}

	in, err := req.toNewRecord()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.AddRecord(c.UserContext(), in)
	if err != nil {
		var ve *rainfall.ValidationError
		switch {
		case errors.As(err, &ve):
			return fiber.NewError(fiber.StatusBadRequest, ve.Message)
		case errors.Is(err, rainfall.ErrDuplicateDate):
			return fiber.NewError(fiber.StatusConflict, "A rainfall record already exists for this date")
		}
		return h.internal(c, err, "Failed to save rainfall record")
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *handler) monthlyTotals(c *fiber.Ctx) error {
	totals, err := h.service.MonthlyTotals(c.UserContext())
	if err != nil {
		return h.internal(c, err, "Failed to calculate monthly totals")
	}
	return c.JSON(totals)
}

func (h *handler) yearlyTotals(c *fiber.Ctx) error {
	totals, err := h.service.YearlyTotals(c.UserContext())
	if err != nil {
		return h.internal(c, err, "Failed to calculate yearly totals")
	}
	return c.JSON(totals)
}

func (h *handler) yearSeries(c *fiber.Ctx) error {
	var q yearParam
	if err := q.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	series, err := h.service.YearSeries(c.UserContext(), q.Year)
	if err != nil {
		return h.internal(c, err, "Failed to calculate monthly totals")
	}
	return c.JSON(series)
}

// internal logs the cause and hides it from the client.
func (h *handler) internal(c *fiber.Ctx, err error, msg string) error {
	h.logger.Error(msg,
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// bodyErrorMessage turns a body decoding error into a client-facing message.
func bodyErrorMessage(err error) string {
	if errors.Is(err, fiber.ErrUnprocessableEntity) {
		return "request body must be JSON"
	}
	if errors.Is(err, rainfall.ErrInvalidDate) || errors.Is(err, rainfall.ErrInvalidAmount) {
		return err.Error()
	}
	msg := err.Error()
	if i := strings.Index(msg, "json: "); i >= 0 {
		msg = msg[i+len("json: "):]
	}
	return "invalid request body: " + msg
}

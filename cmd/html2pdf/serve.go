package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 30 * time.Second

// serveFlags holds flags for the serve command.
type serveFlags struct {
	addr      string
	bodyLimit int
}

// pdfRequest is the body of POST /v1/pdf. Exactly one of Input, HTML and URL
// must be set; Input is auto-detected like html2pdf.ToPDF.
type pdfRequest struct {
	Input   string           `json:"input"`
	HTML    string           `json:"html"`
	URL     string           `json:"url"`
	Options html2pdf.Options `json:"options"`
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// server exposes the converter over HTTP.
type server struct {
	conv     Converter
	defaults html2pdf.Options
	logger   *slog.Logger
}

func (c *cli) serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Long: `Serve an HTTP API in front of the engine.

  POST /v1/pdf      {"input"|"html"|"url": "...", "options": {...}} -> application/pdf
  GET  /v1/options  recognized option keys
  GET  /healthz     engine status

Requests are queued and converted one at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd, &f)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().IntVar(&f.bodyLimit, "body-limit", 0, "max request body in bytes (default 10MB)")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, f *serveFlags) error {
	if err := c.setup(cmd); err != nil {
		return err
	}
	defer c.teardown()

	addr := c.cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = f.addr
	}
	bodyLimit := c.cfg.Server.BodyLimit
	if cmd.Flags().Changed("body-limit") {
		bodyLimit = f.bodyLimit
	}

	// Start the engine now so a broken install shows at startup; requests
	// still get 503 from the cached failure.
	if err := c.env.Converter.Init(); err != nil {
		c.logger.Error("engine unavailable", "error", err)
		fmt.Fprintf(c.env.Stderr, "warning: %v%s\n", err, hintFor(err, c.env.Converter.Status().Backend, ""))
	}

	srv := &server{conv: c.env.Converter, defaults: c.cfg.Options, logger: c.logger}
	app := srv.app(bodyLimit)

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(addr) }()

	if !c.common.quiet {
		fmt.Fprintf(c.env.Stdout, "Listening on %s\n", addr)
	}

	select {
	case err := <-errc:
		return fmt.Errorf("listening on %s: %w", addr, err)
	case <-cmd.Context().Done():
	}

	c.logger.Debug("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// app builds the fiber application. bodyLimit <= 0 keeps fiber's default.
func (s *server) app(bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "html2pdf",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(s.requestLogger)

	app.Get("/healthz", s.handleHealth)
	app.Get("/v1/options", s.handleOptions)
	app.Post("/v1/pdf", s.handlePDF)
	return app
}

// requestLogger logs each request after the error handler has set the
// final status.
func (s *server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info("request",
		"id", c.Locals("requestid"),
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"elapsed", time.Since(start),
	)
	return nil
}

func (s *server) handleHealth(c *fiber.Ctx) error {
	st := s.conv.Status()
	if st.InitError != "" {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(st)
}

func (s *server) handleOptions(c *fiber.Ctx) error {
	keys := html2pdf.KnownOptions()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = html2pdf.OptionHelp(k)
	}
	return c.JSON(out)
}

func (s *server) handlePDF(c *fiber.Ctx) error {
	var req pdfRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	in, err := req.input()
	if err != nil {
		return err
	}

	opts := make(html2pdf.Options, len(s.defaults)+len(req.Options))
	for k, v := range s.defaults {
		opts[k] = v
	}
	for k, v := range req.Options {
		opts[k] = v
	}

	job := html2pdf.Job{Inputs: []html2pdf.Input{in}, Options: opts, DenyLocalFiles: true}
	data, err := s.conv.Convert(c.UserContext(), job, "")
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="document.pdf"`)
	return c.Send(data)
}

// input validates the request shape. file:// URLs are refused here with a
// clear message; the job also denies local file reads from inline HTML.
func (r pdfRequest) input() (html2pdf.Input, error) {
	set := 0
	for _, v := range []string{r.Input, r.HTML, r.URL} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return html2pdf.Input{}, fiber.NewError(fiber.StatusBadRequest, "exactly one of input, html or url is required")
	}

	in := html2pdf.Input{HTML: r.HTML, URL: r.URL}
	if r.Input != "" {
		if fileutil.IsURL(r.Input) {
			in.URL = strings.TrimSpace(r.Input)
		} else {
			in.HTML = r.Input
		}
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.URL)), "file:") {
		return html2pdf.Input{}, fiber.NewError(fiber.StatusBadRequest, "file URLs are not accepted")
	}
	return in, nil
}

// statusFor maps conversion errors to HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, html2pdf.ErrInvalidOption), errors.Is(err, html2pdf.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, html2pdf.ErrEngineUnavailable), errors.Is(err, html2pdf.ErrEngineBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, html2pdf.ErrConversionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler writes every error as JSON with the mapped status.
func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}

package webserver

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/warelay/warelay/internal/app"
	"go.uber.org/zap"
)

const appContextKey = "warelay_app"

// WebServer wraps the echo instance plus the admin route group.
type WebServer struct {
	root  *echo.Echo
	admin *echo.Group
	app   *app.Application
}

var server *WebServer

// CustomValidator adapts go-playground/validator to echo's Validator interface.
type CustomValidator struct {
	validate *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// Init builds the shared web server instance. Route registration helpers
// (PubGET, ApiGET, ...) only work after Init has been called.
func Init(application *app.Application) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(AppContextMiddleware(application))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	admin := e.Group("/admin", BasicAuthMiddleware(application))

	server = &WebServer{root: e, admin: admin, app: application}
	return server
}

// AppContextMiddleware stores the application on every request context so
// handlers can reach the database and configuration.
func AppContextMiddleware(application *app.Application) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, application)
			return next(c)
		}
	}
}

// BasicAuthMiddleware gates a route group with the configured admin
// credentials. Comparison is constant-time.
func BasicAuthMiddleware(application *app.Application) echo.MiddlewareFunc {
	return middleware.BasicAuth(func(username, password string, c echo.Context) (bool, error) {
		cfg := application.Config()
		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Admin.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Admin.Password)) == 1
		return userOK && passOK, nil
	})
}

// GetApp returns the application stored on the request context.
func GetApp(c echo.Context) *app.Application {
	a, _ := c.Get(appContextKey).(*app.Application)
	return a
}

// Listen starts serving on the configured address and blocks.
func (s *WebServer) Listen() error {
	return s.root.Start(s.app.Config().System.Listen)
}

// Shutdown stops the server gracefully.
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// Echo exposes the underlying echo instance (used in tests).
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Public route registration helpers.

func PubGET(path string, h echo.HandlerFunc) {
	server.root.GET(path, h)
}

func PubPOST(path string, h echo.HandlerFunc) {
	server.root.POST(path, h)
}

// Admin (Basic-Auth-gated) route registration helpers. Paths are relative
// to the /admin group.

func ApiGET(path string, h echo.HandlerFunc) {
	server.admin.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.admin.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.admin.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.admin.DELETE(path, h)
}

// ServeHTTP allows using the server as a plain http.Handler.
func (s *WebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.root.ServeHTTP(w, r)
}

package posteditor

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/markdown"
)

const (
	sessionName     = "editor_session"
	sessionImagesID = "images"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, markdown.DefaultUploadPathPrefix)
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(cacheControlMiddleware)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case path == "/"+rateLimitPage:
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(path, markdown.DefaultUploadPathPrefix):
			c.Response().Header().Set("Cache-Control", "private, max-age=3600")
		default:
			c.Response().Header().Set("Cache-Control", "no-store")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(a.Config.SessionTTL.Seconds()),
		SameSite: http.SameSiteStrictMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// limitPublish rejects publish requests once the client has used up its
// allowance for the current window.
func (a *App) limitPublish(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.publishLimiter.Allow(c.RealIP()) {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(a.Config.PublishWindow.Seconds())))
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many publish requests")
		}
		return next(c)
	}
}

func (a *App) limitUploadBody() echo.MiddlewareFunc {
	// Leave room for the multipart envelope around the file itself.
	return middleware.BodyLimit(fmt.Sprintf("%dK", a.Config.MaxUploadSize/1024+64))
}

// sessionImages returns the image manager of the caller's session, starting
// a session when the request carries none.
func (a *App) sessionImages(c echo.Context) (*images.Memory, error) {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return nil, fmt.Errorf("posteditor: session: %w", err)
	}
	id, _ := sess.Values[sessionImagesID].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[sessionImagesID] = id
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return nil, fmt.Errorf("posteditor: save session: %w", err)
		}
	}
	return a.Managers.Get(id), nil
}

// existingSessionImages is sessionImages without starting a session.
func existingSessionImages(c echo.Context, cache *ManagerCache) (*images.Memory, bool) {
	sess, _ := session.Get(sessionName, c)
	if sess == nil {
		return nil, false
	}
	id, _ := sess.Values[sessionImagesID].(string)
	if id == "" {
		return nil, false
	}
	return cache.Lookup(id)
}

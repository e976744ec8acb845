// Package api serves read-only mode lookups over HTTP so other processes can
// make authorization decisions from the tracked state.
package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"unicode/utf8"

	"github.com/dalnet/usermoded/internal/metrics"
	"github.com/dalnet/usermoded/internal/usermode"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Querier answers mode lookups
type Querier interface {
	HasMode(conn usermode.Connection, channel, nick string, mode rune) bool
	Modes(conn usermode.Connection, channel, nick string) []rune
	Users(conn usermode.Connection, channel string) map[string][]rune
}

// Resolver maps network names to their live connections
type Resolver interface {
	Network(name string) (usermode.Connection, bool)
	Networks() []string
}

// Server is the HTTP query surface
type Server struct {
	echo     *echo.Echo
	store    Querier
	networks Resolver
	log      logrus.FieldLogger
}

// New creates a Server and registers its routes
func New(store Querier, networks Resolver, log logrus.FieldLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		store:    store,
		networks: networks,
		log:      log,
	}

	e.Use(s.logRequests)

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/networks", s.listNetworks)
	e.GET("/networks/:network/modes", s.modes)
	e.GET("/networks/:network/hasmode", s.hasMode)
	e.GET("/networks/:network/channels/users", s.users)

	return s
}

// Handler returns the underlying HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("Starting HTTP API")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		s.log.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
			"status": c.Response().Status,
		}).Debug("HTTP request")
		return err
	}
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type networkInfo struct {
	Name string `json:"name"`
	Mask string `json:"mask"`
}

func (s *Server) listNetworks(c echo.Context) error {
	names := s.networks.Networks()
	sort.Strings(names)

	out := make([]networkInfo, 0, len(names))
	for _, name := range names {
		conn, ok := s.networks.Network(name)
		if !ok {
			continue
		}
		out = append(out, networkInfo{Name: name, Mask: usermode.Mask(conn)})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) modes(c echo.Context) error {
	conn, channel, nick, err := s.lookupArgs(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]string{
		"modes": letters(s.store.Modes(conn, channel, nick)),
	})
}

func (s *Server) hasMode(c echo.Context) error {
	conn, channel, nick, err := s.lookupArgs(c)
	if err != nil {
		return err
	}
	mode := c.QueryParam("mode")
	if utf8.RuneCountInString(mode) != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be a single character")
	}
	m, _ := utf8.DecodeRuneInString(mode)
	return c.JSON(http.StatusOK, map[string]bool{
		"has": s.store.HasMode(conn, channel, nick, m),
	})
}

func (s *Server) users(c echo.Context) error {
	conn, err := s.connection(c)
	if err != nil {
		return err
	}
	channel := c.QueryParam("channel")
	if channel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel is required")
	}

	out := make(map[string][]string)
	for nick, modes := range s.store.Users(conn, channel) {
		out[nick] = letters(modes)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) connection(c echo.Context) (usermode.Connection, error) {
	conn, ok := s.networks.Network(c.Param("network"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown network")
	}
	return conn, nil
}

func (s *Server) lookupArgs(c echo.Context) (conn usermode.Connection, channel, nick string, err error) {
	conn, err = s.connection(c)
	if err != nil {
		return nil, "", "", err
	}
	channel = c.QueryParam("channel")
	nick = c.QueryParam("nick")
	if channel == "" || nick == "" {
		return nil, "", "", echo.NewHTTPError(http.StatusBadRequest, "channel and nick are required")
	}
	return conn, channel, nick, nil
}

func letters(modes []rune) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

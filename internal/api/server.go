package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/audit"
	"github.com/nerrad567/gray-logic-shades/internal/auth"
	"github.com/nerrad567/gray-logic-shades/internal/bridges/hub"
	"github.com/nerrad567/gray-logic-shades/internal/diagnostics"
	"github.com/nerrad567/gray-logic-shades/internal/history"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// WebSocket keepalive defaults in seconds.
const (
	defaultPingInterval = 30
	defaultPongTimeout  = 10
)

// ShadeService is the bridge surface the API needs. Satisfied by *hub.Bridge.
type ShadeService interface {
	ShadeIDs() []string
	Actuator(shadeID string) (shade.Actuator, bool)
	CurrentState(shadeID string) (hub.StateMessage, bool)
	HandleCommand(ctx context.Context, shadeID string, msg hub.CommandMessage) hub.AckMessage
	Stats() hub.BridgeStatistics
}

// StateSubscriber delivers MQTT state messages for the WebSocket relay.
type StateSubscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	Shades      ShadeService
	History     history.Repository     // optional
	Diagnostics diagnostics.Repository // optional
	Audit       audit.Repository       // optional
	MQTT        StateSubscriber        // optional
	Version     string
}

// Server is the HTTP API server for Gray Logic Shades.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	clients     *auth.ClientStore // nil when authentication is disabled
	tokenTTL    time.Duration
	logger      *logging.Logger
	shades      ShadeService
	history     history.Repository
	diagnostics diagnostics.Repository
	audit       audit.Repository
	mqtt        StateSubscriber
	version     string
	server      *http.Server
	hub         *Hub
	cancel      context.CancelFunc
}

// New creates a new API server. It is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Shades == nil {
		return nil, fmt.Errorf("shade service is required")
	}

	if deps.WS.PingInterval <= 0 {
		deps.WS.PingInterval = defaultPingInterval
	}
	if deps.WS.PongTimeout <= 0 {
		deps.WS.PongTimeout = defaultPongTimeout
	}

	var clients *auth.ClientStore
	if deps.Security.Enabled {
		if deps.Security.JWT.Secret == "" {
			return nil, fmt.Errorf("jwt secret is required when security is enabled")
		}
		var err error
		if clients, err = auth.NewClientStore(authClients(deps.Security.Clients)); err != nil {
			return nil, fmt.Errorf("building client store: %w", err)
		}
	}

	srv := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		clients:     clients,
		tokenTTL:    time.Duration(deps.Security.JWT.AccessTokenTTL) * time.Minute,
		logger:      deps.Logger,
		shades:      deps.Shades,
		history:     deps.History,
		diagnostics: deps.Diagnostics,
		audit:       deps.Audit,
		mqtt:        deps.MQTT,
		version:     deps.Version,
		hub:         NewHub(deps.WS, deps.Logger),
	}
	srv.hub.authRequired = clients != nil
	return srv, nil
}

// Start subscribes the WebSocket relay to shade state and begins listening
// in a background goroutine. Stop it with Close.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	if err := s.subscribeStateUpdates(); err != nil {
		s.logger.Warn("failed to subscribe to state updates for WebSocket", "error", err)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close stops the state relay and shuts the server down, waiting up to
// gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.mqtt != nil {
		if err := s.mqtt.Unsubscribe(mqtt.Topics{}.AllShadeStates()); err != nil {
			s.logger.Warn("failed to unsubscribe state relay", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

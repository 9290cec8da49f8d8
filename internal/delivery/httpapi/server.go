package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handlers *Handlers, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           newRouter(handlers, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func newRouter(handlers *Handlers, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger(logger))

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/alerts", handlers.ListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/unread", handlers.ListUnreadAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/unread/count", handlers.CountUnreadAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/recent", handlers.ListRecentAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/high-priority", handlers.ListHighPriorityAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/stats", handlers.AlertStats).Methods(http.MethodGet)
	api.HandleFunc("/alerts/read-all", handlers.MarkAllAlertsRead).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id:[0-9]+}", handlers.GetAlert).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id:[0-9]+}/read", handlers.MarkAlertRead).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id:[0-9]+}/unread", handlers.MarkAlertUnread).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id:[0-9]+}/dismiss", handlers.DismissAlert).Methods(http.MethodPost)

	api.HandleFunc("/conditions", handlers.CreateCondition).Methods(http.MethodPost)
	api.HandleFunc("/conditions", handlers.ListConditions).Methods(http.MethodGet)
	api.HandleFunc("/conditions/stats", handlers.ConditionStats).Methods(http.MethodGet)
	api.HandleFunc("/conditions/{id:[0-9]+}", handlers.GetCondition).Methods(http.MethodGet)
	api.HandleFunc("/conditions/{id:[0-9]+}", handlers.UpdateCondition).Methods(http.MethodPut)
	api.HandleFunc("/conditions/{id:[0-9]+}", handlers.DeleteCondition).Methods(http.MethodDelete)
	api.HandleFunc("/conditions/{id:[0-9]+}/toggle", handlers.ToggleCondition).Methods(http.MethodPost)

	api.HandleFunc("/watch-entries/{symbol}/notifications", handlers.SetWatchEntryNotifications).Methods(http.MethodPut)
	api.HandleFunc("/watch-entries/{symbol}/conditions", handlers.ListWatchEntryConditions).Methods(http.MethodGet)

	api.HandleFunc("/monitoring/run", handlers.RunMonitoring).Methods(http.MethodPost)
	api.HandleFunc("/monitoring/run/{symbol}", handlers.RunMonitoringForSymbol).Methods(http.MethodPost)
	api.HandleFunc("/monitoring/stats", handlers.MonitoringStats).Methods(http.MethodGet)

	return router
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

package server

import "github.com/prometheus/client_golang/prometheus/promhttp"

const (
	RouteConnect = "/connect"
	RouteQR      = "/qr/{sessionId}"
	RouteStatus  = "/status"
	RouteMetrics = "/metrics"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteConnect, ChainMiddleware(s.ConnectHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteQR, ChainMiddleware(s.QRHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}

package app

import (
	"net/http/httptest"
	"testing"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
	"tush00nka/coachly_messaging/internal/handler"
)

func newTestServer() *Server {
	// Handlers with nil services are enough for routing-level tests
	userHandler := handler.NewUserHandler(nil)
	messageHandler := handler.NewMessageHandler(nil, nil, nil, nil, 0)
	gatewayHandler := handler.NewGatewayHandler(nil, zap.NewNop())
	return NewServer(userHandler, messageHandler, gatewayHandler, zap.NewNop())
}

func TestCORSPreflightRequest(t *testing.T) {
	server := newTestServer()

	// Create a test OPTIONS preflight request
	req := httptest.NewRequest("OPTIONS", "/api/messages", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rr := httptest.NewRecorder()

	// Apply CORS middleware to the router (same as in Run method)
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)
	corsHandler := cors(server.router)

	corsHandler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}

	// For OPTIONS requests, gorilla/handlers sets the Allow-Headers based on request
	allowHeaders := rr.Header().Get("Access-Control-Allow-Headers")
	if allowHeaders == "" {
		t.Error("Access-Control-Allow-Headers should not be empty for OPTIONS request")
	}
}

func TestCORSWithActualRequest(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "http://example.com")

	rr := httptest.NewRecorder()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)
	corsHandler := cors(server.router)

	corsHandler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}
	if rr.Code != 200 {
		t.Errorf("ping status = %d, want 200", rr.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest("GET", "/api/conversations", nil)
	rr := httptest.NewRecorder()

	server.router.ServeHTTP(rr, req)

	if rr.Code != 401 {
		t.Errorf("status = %d, want 401 for unauthenticated request", rr.Code)
	}
}

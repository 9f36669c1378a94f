package handler

import (
	"net/http"
	"tush00nka/coachly_messaging/internal/pkg/auth"
	"tush00nka/coachly_messaging/internal/pkg/httputils"
	"tush00nka/coachly_messaging/internal/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// GatewayHandler точка входа постоянного канала доставки
type GatewayHandler struct {
	gateway *ws.Gateway
	log     *zap.Logger
}

func NewGatewayHandler(gateway *ws.Gateway, log *zap.Logger) *GatewayHandler {
	return &GatewayHandler{gateway: gateway, log: log}
}

func (h *GatewayHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.serveWS).Methods("GET")
}

// serveWS аутентифицирует рукопожатие и поднимает соединение.
// Плохой credential — отказ до апгрейда: такое соединение не получает
// ни одного события.
func (h *GatewayHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.StripBearer(r.Header.Get("Authorization"))
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		httputils.ResponseError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(r.Context(), conn, claims.UserID, claims.Role, h.log)

	h.log.Debug("gateway connection opened",
		zap.Uint("user_id", claims.UserID),
		zap.String("role", claims.Role))

	// Блокируется до отключения клиента
	h.gateway.Attach(client)

	h.log.Debug("gateway connection closed", zap.Uint("user_id", claims.UserID))
}

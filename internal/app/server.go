package app

import (
	"net/http"
	"time"
	"tush00nka/coachly_messaging/internal/handler"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Server struct {
	router *mux.Router
}

func NewServer(
	userHandler *handler.UserHandler,
	messageHandler *handler.MessageHandler,
	gatewayHandler *handler.GatewayHandler,
	log *zap.Logger,
) *Server {
	router := mux.NewRouter()

	router.Use(handler.LoggingMiddleware(log))

	// Публичные маршруты: логин, регистрация, ping и рукопожатие
	// шлюза (оно проверяет токен само, до апгрейда)
	userHandler.RegisterRoutes(router)
	gatewayHandler.RegisterRoutes(router)
	router.HandleFunc("/ping", handler.Ping).Methods("GET")

	// Всё под /api требует токен
	api := router.PathPrefix("/api").Subrouter()
	api.Use(handler.AuthMiddleware)
	userHandler.RegisterAuthedRoutes(api)
	messageHandler.RegisterRoutes(api)

	// Настройка Swagger
	swaggerHandler := httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Важно: относительный путь
	)

	router.PathPrefix("/swagger/").Handler(swaggerHandler)

	// Явно обслуживаем doc.json
	router.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	return &Server{router: router}
}

func (s *Server) Run(port string, log *zap.Logger) {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)

	srv := &http.Server{
		Handler:      cors(s.router),
		Addr:         ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Info("server starting", zap.String("port", port))
	log.Fatal("server stopped", zap.Error(srv.ListenAndServe()))
}

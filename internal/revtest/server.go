// Package revtest содержит in-memory реализацию REST API Rev для тестов.
package revtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/transcribe-tool/internal/model"
)

const apiPrefix = "/api/v1"

// Input описывает зарегистрированный на сервере входной файл.
type Input struct {
	URI         string
	Filename    string
	URL         string
	ContentType string
	Size        int64
}

// Server эмулирует API Rev: входные файлы, заказы и ключ авторизации.
type Server struct {
	srv    *httptest.Server
	logger *zap.Logger
	auth   *AuthMiddleware

	mu       sync.Mutex
	inputs   map[string]Input
	orders   []model.OrderDetail
	sequence int
}

// NewServer запускает HTTP-сервер, принимающий только указанные ключи.
func NewServer(clientKey, userKey string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger: logger,
		auth:   NewAuthMiddleware(clientKey, userKey),
		inputs: make(map[string]Input),
	}
	s.srv = httptest.NewServer(s.SetupRouter())
	return s
}

// URL возвращает корневой адрес API, аналогичный BaseURL окружения.
func (s *Server) URL() string {
	return s.srv.URL + apiPrefix
}

// Close останавливает сервер.
func (s *Server) Close() {
	s.srv.Close()
}

// SetupRouter настраивает HTTP-маршруты и middleware фейкового API.
func (s *Server) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(Logger(s.logger))

	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Post("/inputs", s.CreateInput)
		r.Post("/orders", s.CreateOrder)
		r.Get("/orders", s.ListOrders)
		r.Get("/orders/{orderNumber}", s.GetOrder)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// Inputs возвращает зарегистрированные входные файлы.
func (s *Server) Inputs() []Input {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Input, 0, len(s.inputs))
	for _, in := range s.inputs {
		out = append(out, in)
	}
	return out
}

// SetStatus меняет статус заказа, например чтобы завершить его.
func (s *Server) SetStatus(orderNumber string, status model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].OrderNumber == orderNumber {
			s.orders[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("order %s not found", orderNumber)
}

func (s *Server) nextOrderNumber() string {
	s.sequence++
	return fmt.Sprintf("TC%07d", s.sequence)
}

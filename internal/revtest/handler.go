package revtest

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/transcribe-tool/internal/model"
)

const (
	codeInvalidInput = 10001
	codeInvalidOrder = 20001
	codeUnknownInput = 20002
	resultsPerPage   = 25
	pricePerInput    = "1.25"
	inputURNPrefix   = "urn:rev:inputmedia:"
	mediaAttachment  = "media"
	orderPlacedText  = "Order placed"
	revCommentAuthor = "Rev"
)

type inputRequest struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// CreateInput регистрирует входной файл по URL (JSON-тело) или из потока байт.
func (s *Server) CreateInput(w http.ResponseWriter, r *http.Request) {
	in := Input{URI: inputURNPrefix + uuid.NewString()}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req inputRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, codeInvalidInput, "Request body is not valid JSON")
			return
		}
		if req.URL == "" {
			writeAPIError(w, codeInvalidInput, "Input URL is required")
			return
		}
		in.Filename = req.Filename
		in.URL = req.URL
		in.ContentType = req.ContentType
	} else {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Disposition"))
		if err != nil || params["filename"] == "" {
			writeAPIError(w, codeInvalidInput, "Content-Disposition with filename is required")
			return
		}

		size, err := io.Copy(io.Discard, r.Body)
		if err != nil {
			s.logger.Error("read upload body", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		in.Filename = params["filename"]
		in.ContentType = r.Header.Get("Content-Type")
		in.Size = size
	}

	s.mu.Lock()
	s.inputs[in.URI] = in
	s.mu.Unlock()

	w.Header().Set("Location", in.URI)
	w.WriteHeader(http.StatusCreated)
}

// CreateOrder создаёт заказ на субтитры из ранее зарегистрированных входных файлов.
func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var params model.CaptionOrderParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeAPIError(w, codeInvalidOrder, "Request body is not valid JSON")
		return
	}
	if err := params.Validate(); err != nil {
		writeAPIError(w, codeInvalidOrder, "At least one input is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	detail := model.OrderDetail{
		Order: model.Order{
			Status:   model.OrderStatusInProgress,
			Priority: "Normal",
		},
	}
	if params.ClientRef != "" {
		ref := params.ClientRef
		detail.ClientRef = &ref
	}

	unit := decimal.RequireFromString(pricePerInput)
	for _, ref := range params.CaptionOptions.Inputs {
		in, ok := s.inputs[ref.URI]
		if !ok {
			writeAPIError(w, codeUnknownInput, "Unknown input "+ref.URI)
			return
		}
		id := uuid.NewString()
		detail.Price = detail.Price.Add(unit)
		detail.Attachments = append(detail.Attachments, model.Attachment{
			Kind:  mediaAttachment,
			Name:  in.Filename,
			ID:    id,
			Links: []model.Link{{Rel: "content", Href: s.URL() + "/attachments/" + id + "/content"}},
		})
	}

	by, text := revCommentAuthor, orderPlacedText
	detail.Comments = []model.Comment{{
		Timestamp: model.Timestamp{Time: time.Now().UTC().Truncate(time.Millisecond)},
		By:        &by,
		Text:      &text,
	}}
	detail.OrderNumber = s.nextOrderNumber()
	s.orders = append(s.orders, detail)

	w.Header().Set("Location", s.URL()+"/orders/"+detail.OrderNumber)
	w.WriteHeader(http.StatusCreated)
}

// ListOrders возвращает первую страницу заказов.
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	page := model.PagedOrders{
		TotalCount:     len(s.orders),
		ResultsPerPage: resultsPerPage,
		Orders:         make([]model.Order, 0, len(s.orders)),
	}
	for i := len(s.orders) - 1; i >= 0 && len(page.Orders) < resultsPerPage; i-- {
		page.Orders = append(page.Orders, s.orders[i].Order)
	}
	s.mu.Unlock()

	writeJSON(w, page)
}

// GetOrder возвращает заказ с вложениями и комментариями.
func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "orderNumber")

	s.mu.Lock()
	var found *model.OrderDetail
	for i := range s.orders {
		if s.orders[i].OrderNumber == number {
			d := s.orders[i]
			found = &d
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	writeJSON(w, found)
}

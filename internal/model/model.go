// Package model содержит доменные сущности клиента сервиса транскрипции.
package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/transcribe-tool/internal/validation"
)

var (
	// ErrEmptyOrderNumber возвращается, если у заказа отсутствует номер.
	ErrEmptyOrderNumber = errors.New("order number is empty")
	// ErrNegativePrice возвращается при отрицательной стоимости заказа.
	ErrNegativePrice = errors.New("order price is negative")
	// ErrRelativeLink возвращается, если ссылка вложения не является абсолютным URI.
	ErrRelativeLink = errors.New("link href is not an absolute uri")
	// ErrDuplicateAttachment возвращается при повторе идентификатора вложения в одном заказе.
	ErrDuplicateAttachment = errors.New("duplicate attachment id")
	// ErrPageOverflow возвращается, если страница содержит больше заказов, чем results_per_page.
	ErrPageOverflow = errors.New("page holds more orders than results per page")
)

// OrderStatus описывает статус обработки заказа на стороне сервиса.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusComplete   OrderStatus = "Complete"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// IsFinal сообщает, что заказ больше не изменит статус.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusComplete || s == OrderStatusCancelled
}

// Order описывает заказ в списке заказов.
type Order struct {
	OrderNumber string          `json:"order_number"`
	ClientRef   *string         `json:"client_ref,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Status      OrderStatus     `json:"status"`
	Priority    string          `json:"priority"`
}

// Validate проверяет инварианты заказа.
func (o Order) Validate() error {
	if o.OrderNumber == "" {
		return ErrEmptyOrderNumber
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("order %s: %w", o.OrderNumber, ErrNegativePrice)
	}
	return nil
}

// Link описывает ссылку на представление вложения.
type Link struct {
	Rel         string  `json:"rel"`
	Href        string  `json:"href"`
	ContentType *string `json:"content_type,omitempty"`
}

// Attachment описывает файл, прикреплённый к заказу: исходное медиа или готовый результат.
type Attachment struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	ID    string `json:"id"`
	Links []Link `json:"links"`
}

// OrderDetail описывает заказ вместе с вложениями и комментариями.
// Отсутствующие attachments и comments декодируются в nil и трактуются как пустые списки.
type OrderDetail struct {
	Order
	Attachments []Attachment `json:"attachments,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
}

// Validate проверяет инварианты заказа, уникальность вложений и абсолютность ссылок.
func (d OrderDetail) Validate() error {
	if err := d.Order.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(d.Attachments))
	for _, a := range d.Attachments {
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("attachment %q: %w", a.ID, ErrDuplicateAttachment)
		}
		seen[a.ID] = struct{}{}

		for _, l := range a.Links {
			if !validation.IsAbsoluteURL(l.Href) {
				return fmt.Errorf("attachment %q link %q: %w", a.ID, l.Href, ErrRelativeLink)
			}
		}
	}
	return nil
}

// Comment описывает комментарий к заказу.
type Comment struct {
	Timestamp Timestamp `json:"timestamp"`
	By        *string   `json:"by,omitempty"`
	Text      *string   `json:"text,omitempty"`
}

// PagedOrders описывает одну страницу списка заказов.
type PagedOrders struct {
	TotalCount     int     `json:"total_count"`
	ResultsPerPage int     `json:"results_per_page"`
	Page           int     `json:"page"`
	Orders         []Order `json:"orders"`
}

// Validate проверяет размер страницы и каждый заказ в ней.
func (p PagedOrders) Validate() error {
	if len(p.Orders) > p.ResultsPerPage {
		return fmt.Errorf("%d orders, %d per page: %w", len(p.Orders), p.ResultsPerPage, ErrPageOverflow)
	}
	for _, o := range p.Orders {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

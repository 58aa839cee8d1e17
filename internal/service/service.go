// Package service реализует сценарии работы с заказами поверх асинхронного клиента Rev.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/transcribe-tool/internal/model"
	"github.com/mmeshcher/transcribe-tool/internal/rev"
)

const maxParallelUploads = 3

// ClientFactory создаёт новый экземпляр клиента. Каждая параллельная загрузка файла
// получает собственный клиент.
type ClientFactory func() (*rev.Client, error)

// UploadedInput описывает загруженный файл и URI, присвоенный ему сервисом.
type UploadedInput struct {
	Path string
	URI  string
}

// Service содержит сценарии работы с заказами.
type Service struct {
	client    *rev.Client
	newClient ClientFactory
	logger    *zap.Logger
}

// NewService создаёт сервис и общий клиент для обычных запросов.
func NewService(newClient ClientFactory, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := newClient()
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Service{
		client:    client,
		newClient: newClient,
		logger:    logger,
	}, nil
}

// AddURLInput регистрирует входной файл по внешнему URL и возвращает его URI.
func (s *Service) AddURLInput(ctx context.Context, remoteURL, filename, contentType string) (string, error) {
	uri, err := await(ctx, func(done func(rev.Result[string])) {
		s.client.UploadInputURL(ctx, remoteURL, filename, contentType, done)
	})
	if err != nil {
		return "", fmt.Errorf("add input %s: %w", remoteURL, err)
	}
	s.logger.Info("input added", zap.String("url", remoteURL), zap.String("uri", uri))
	return uri, nil
}

// UploadFiles загружает файлы параллельно, по одному клиенту на файл. Результаты идут
// в порядке paths. Первая ошибка отменяет остальные загрузки.
func (s *Service) UploadFiles(ctx context.Context, paths []string, contentType string, onProgress func(path string, sent, total int64)) ([]UploadedInput, error) {
	uploaded := make([]UploadedInput, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			uri, err := s.uploadFile(ctx, path, contentType, onProgress)
			if err != nil {
				return err
			}
			uploaded[i] = UploadedInput{Path: path, URI: uri}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uploaded, nil
}

func (s *Service) uploadFile(ctx context.Context, path, contentType string, onProgress func(path string, sent, total int64)) (string, error) {
	client, err := s.newClient()
	if err != nil {
		return "", fmt.Errorf("create upload client: %w", err)
	}

	var observer func(sent, total int64)
	if onProgress != nil {
		observer = func(sent, total int64) { onProgress(path, sent, total) }
	}

	result := make(chan rev.Result[string], 1)
	client.UploadInputFile(ctx, path, contentType, rev.NewProgress(observer), func(r rev.Result[string]) {
		result <- r
	})

	// Отмена ctx прерывает передачу, поэтому результат приходит в любом случае.
	uri, err := (<-result).Get()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}

	s.logger.Info("file uploaded", zap.String("path", path), zap.String("uri", uri))
	return uri, nil
}

// SubmitCaptionOrder создаёт заказ на субтитры и возвращает URI заказа.
func (s *Service) SubmitCaptionOrder(ctx context.Context, params model.CaptionOrderParams) (string, error) {
	location, err := await(ctx, func(done func(rev.Result[string])) {
		s.client.SubmitOrder(ctx, params, done)
	})
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	s.logger.Info("order submitted", zap.String("location", location), zap.Int("inputs", len(params.CaptionOptions.Inputs)))
	return location, nil
}

// ListOrders возвращает первую страницу заказов.
func (s *Service) ListOrders(ctx context.Context) (model.PagedOrders, error) {
	page, err := await(ctx, func(done func(rev.Result[model.PagedOrders])) {
		s.client.ListOrders(ctx, done)
	})
	if err != nil {
		return model.PagedOrders{}, fmt.Errorf("list orders: %w", err)
	}
	return page, nil
}

// GetOrder возвращает заказ с вложениями и комментариями.
func (s *Service) GetOrder(ctx context.Context, orderNumber string) (model.OrderDetail, error) {
	detail, err := await(ctx, func(done func(rev.Result[model.OrderDetail])) {
		s.client.GetOrder(ctx, orderNumber, done)
	})
	if err != nil {
		return model.OrderDetail{}, fmt.Errorf("get order %s: %w", orderNumber, err)
	}
	return detail, nil
}

// WatchOrder опрашивает заказ с интервалом every, пока он не перейдёт в конечный статус.
// onChange вызывается при первом чтении и при каждой смене статуса.
func (s *Service) WatchOrder(ctx context.Context, orderNumber string, every time.Duration, onChange func(model.OrderDetail)) (model.OrderDetail, error) {
	if every <= 0 {
		return model.OrderDetail{}, errors.New("watch interval must be positive")
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var last model.OrderStatus
	for {
		detail, err := s.GetOrder(ctx, orderNumber)
		if err != nil {
			return model.OrderDetail{}, err
		}

		if detail.Status != last {
			last = detail.Status
			if onChange != nil {
				onChange(detail)
			}
		}
		if detail.Status.IsFinal() {
			return detail, nil
		}

		select {
		case <-ctx.Done():
			return detail, ctx.Err()
		case <-ticker.C:
		}
	}
}

// await запускает асинхронную операцию и ждёт её результат или отмену ctx.
func await[T any](ctx context.Context, start func(done func(rev.Result[T]))) (T, error) {
	result := make(chan rev.Result[T], 1)
	start(func(r rev.Result[T]) {
		result <- r
	})

	select {
	case r := <-result:
		return r.Get()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

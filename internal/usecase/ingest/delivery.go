package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/resilience/circuitbreaker"
	"github.com/MJ-API-Development/NewsAPI/internal/resilience/retry"
)

// deliveryPath is appended to the configured endpoint base.
const deliveryPath = "/api/v1/news/article"

// DeliveryCredentials carries the headers the delivery endpoint expects.
type DeliveryCredentials struct {
	APIKey      string
	SecretToken string
	ProxySecret string
}

// CronDestination posts each article of a batch to the legacy delivery
// endpoint. Articles the endpoint refuses come back as Rejected so the
// sink re-queues them at its buffer tail.
type CronDestination struct {
	client         *http.Client
	endpoint       string
	creds          DeliveryCredentials
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewCronDestination creates a CronDestination posting to
// endpoint + /api/v1/news/article.
func NewCronDestination(client *http.Client, endpoint string, creds DeliveryCredentials) *CronDestination {
	return &CronDestination{
		client:         client,
		endpoint:       strings.TrimRight(endpoint, "/") + deliveryPath,
		creds:          creds,
		circuitBreaker: circuitbreaker.New(circuitbreaker.DeliveryConfig()),
		retryConfig:    retry.DeliveryConfig(),
	}
}

// Deliver posts the batch article by article. Per-article failures are
// collected as rejections; only a failed request construction is an
// error.
func (d *CronDestination) Deliver(ctx context.Context, batch []*entity.Article) (DeliveryResult, error) {
	var result DeliveryResult
	for _, article := range batch {
		if err := d.postArticle(ctx, article); err != nil {
			slog.Warn("article delivery rejected",
				slog.String("uuid", article.UUID), slog.Any("error", err))
			result.Failed++
			result.Rejected = append(result.Rejected, article)
			continue
		}
		result.Saved++
	}
	return result, nil
}

// postArticle sends one article with retry and circuit breaker
// protection.
func (d *CronDestination) postArticle(ctx context.Context, article *entity.Article) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("encode article: %w", err)
	}

	return retry.WithBackoff(ctx, d.retryConfig, func() error {
		_, err := d.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, d.doPost(ctx, payload)
		})
		return err
	})
}

func (d *CronDestination) doPost(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", d.creds.APIKey)
	req.Header.Set("X-SECRET-TOKEN", d.creds.SecretToken)
	req.Header.Set("X-RapidAPI-Proxy-Secret", d.creds.ProxySecret)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &retry.HTTPError{StatusCode: resp.StatusCode, Message: "article delivery"}
	}
	return nil
}

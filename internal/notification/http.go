// Package notification implementa el sink de notificaciones salientes
// (fire-and-forget hacia el notification service).
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"go.uber.org/zap"
)

// HTTPSink postea cada notificación al endpoint de dispatch. Es
// best-effort: despacha en una goroutine propia y los errores solo se
// loguean.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logger.Named("notification"),
	}
}

type dispatchPayload struct {
	RoutingKey struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"routingKey"`
	EventType string         `json:"eventType"`
	Payload   map[string]any `json:"payload"`
}

func (s *HTTPSink) Dispatch(routingKey domain.RoutingKey, eventType string, payload map[string]any) {
	body := dispatchPayload{EventType: eventType, Payload: payload}
	body.RoutingKey.Type = string(routingKey.Type)
	body.RoutingKey.Value = routingKey.Value

	raw, err := json.Marshal(body)
	if err != nil {
		s.log.Warn("could not marshal notification", logger.Err(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
		if err != nil {
			s.log.Warn("could not build notification request", logger.Err(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Warn("notification dispatch failed",
				zap.String("event_type", eventType), logger.Err(err))
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			s.log.Warn("notification dispatch rejected",
				zap.String("event_type", eventType), zap.Int("status", resp.StatusCode))
		}
	}()
}

// NopSink descarta todas las notificaciones (dev, tests).
type NopSink struct{}

func (NopSink) Dispatch(domain.RoutingKey, string, map[string]any) {}

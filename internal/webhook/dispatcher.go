package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quizzy-ai/quizzy/pkg/log"
	"github.com/quizzy-ai/quizzy/pkg/metrics"
)

const (
	TargetUploadProcessed = "upload-processed"
	TargetQuizGenerated   = "quiz-generated"

	deliveryTimeout = 30 * time.Second
)

// Dispatcher posts job outcomes back to the API's webhook receivers. Each
// delivery is a single attempt. A failed delivery is logged and counted but
// never fails the job that produced the outcome.
type Dispatcher struct {
	baseURL string
	client  *http.Client
	logger  *log.StructuredLogger
}

func NewDispatcher(baseURL string) *Dispatcher {
	return &Dispatcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: deliveryTimeout},
		logger:  log.NewDebugLogger("webhook_dispatcher"),
	}
}

func (d *Dispatcher) UploadProcessed(ctx context.Context, uploadID uint, result UploadResult) {
	url := fmt.Sprintf("%s/webhook/upload-processed/%d", d.baseURL, uploadID)
	d.deliver(ctx, TargetUploadProcessed, url, result)
}

func (d *Dispatcher) QuizGenerated(ctx context.Context, examID uint, result QuizResult) {
	url := fmt.Sprintf("%s/webhook/quiz-generated/%d", d.baseURL, examID)
	d.deliver(ctx, TargetQuizGenerated, url, result)
}

func (d *Dispatcher) deliver(ctx context.Context, target, url string, payload any) {
	tracer := d.logger.WithContext(ctx).Operation("deliver").
		WithString("target", target).
		WithString("url", url).
		Build()

	body, err := json.Marshal(payload)
	if err != nil {
		tracer.Error(err).Log()
		metrics.IncreaseWebhookDeliveries(target, "error")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		tracer.Error(err).Log()
		metrics.IncreaseWebhookDeliveries(target, "error")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		tracer.Error(err).Log()
		metrics.IncreaseWebhookDeliveries(target, "error")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		tracer.Error(fmt.Errorf("receiver returned status %d", resp.StatusCode)).Log()
		metrics.IncreaseWebhookDeliveries(target, "rejected")
		return
	}

	tracer.Success().WithInt("status_code", resp.StatusCode).Log()
	metrics.IncreaseWebhookDeliveries(target, "delivered")
}

package eventsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

// ErrDegraded means the API answered with a fallback list instead of the stored events.
var ErrDegraded = errors.New("event list degraded")

// DegradedHeader is set by the API when the public list is a storage-failure fallback.
const DegradedHeader = "X-Events-Degraded"

type Loader interface {
	Load(ctx context.Context) ([]model.Event, error)
}

type LoaderFunc func(ctx context.Context) ([]model.Event, error)

func (f LoaderFunc) Load(ctx context.Context) ([]model.Event, error) {
	return f(ctx)
}

// HTTPLoader fetches GET /api/events.
type HTTPLoader struct {
	client  *http.Client
	baseURL string
}

func NewHTTPLoader(baseURL string, client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPLoader{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *HTTPLoader) Load(ctx context.Context) ([]model.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/events", nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load events: unexpected status %d", resp.StatusCode)
	}
	if resp.Header.Get(DegradedHeader) == "true" {
		return nil, ErrDegraded
	}
	var payload struct {
		Data []model.Event `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return payload.Data, nil
}

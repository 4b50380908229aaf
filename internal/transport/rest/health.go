package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/payment-ledger/internal"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// Checker probes one backing component of the ledger.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type postgresChecker struct {
	db *sqlx.DB
}

func PostgresChecker(db *sqlx.DB) Checker {
	return postgresChecker{db: db}
}

func (postgresChecker) Name() string { return "postgres" }

func (c postgresChecker) Check(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

type dynamoChecker struct {
	client *dynamodb.Client
	table  string
}

// DynamoChecker reports healthy when the payments table can be described.
func DynamoChecker(client *dynamodb.Client, table string) Checker {
	return dynamoChecker{client: client, table: table}
}

func (dynamoChecker) Name() string { return "dynamodb" }

func (c dynamoChecker) Check(ctx context.Context) error {
	_, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.table)})
	return err
}

type HealthHandler struct {
	checkers []Checker
	timeout  time.Duration
}

func NewHealthHandler(checkers ...Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, timeout: 2 * time.Second}
}

// pingHandler only reports that the process is up.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "OK"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// healthCheckHandler probes every registered component in parallel.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := internal.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	resp := HealthResponse{
		Status:     HealthHealthy,
		Components: make(map[string]CheckEntry, len(h.checkers)),
	}

	for _, c := range h.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			entry := CheckEntry{
				Status:     HealthHealthy,
				CheckedAt:  time.Now(),
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				entry.Status = HealthUnhealthy
				entry.Message = err.Error()
			}

			mu.Lock()
			resp.Components[c.Name()] = entry
			if entry.Status == HealthUnhealthy {
				resp.Status = HealthUnhealthy
			}
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	resp.CheckedAt = time.Now()

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL é a raiz da API v2 do ClickUp
	DefaultBaseURL = "https://api.clickup.com/api/v2"

	// RequestsPerMinute limite conservador (ClickUp permite 10k/min)
	RequestsPerMinute = 2000

	// DefaultTimeout timeout padrão para requisições
	DefaultTimeout = 30 * time.Second

	// PageSize tamanho padrão da página do ClickUp
	PageSize = 100

	// RetryMaxAttempts número máximo de tentativas por página
	RetryMaxAttempts = 3

	// RetryBackoff tempo de espera entre retries
	RetryBackoff = 5 * time.Second
)

// TaskFilter restringe a busca de tarefas a janelas de datas. Campos zero
// não são enviados.
type TaskFilter struct {
	DueAfter      time.Time
	DueBefore     time.Time
	StartAfter    time.Time
	StartBefore   time.Time
	Subtasks      bool
	IncludeClosed bool
}

// DayWindow returns a filter matching tasks due within [start, end).
func DayWindow(start, end time.Time) TaskFilter {
	return TaskFilter{
		DueAfter:  start.Add(-time.Millisecond),
		DueBefore: end,
		Subtasks:  true,
	}
}

// StartWindow returns a filter matching tasks starting within [start, end).
func StartWindow(start, end time.Time) TaskFilter {
	return TaskFilter{
		StartAfter:  start.Add(-time.Millisecond),
		StartBefore: end,
		Subtasks:    true,
	}
}

func (f TaskFilter) apply(q url.Values) {
	setMs := func(key string, t time.Time) {
		if !t.IsZero() {
			q.Set(key, strconv.FormatInt(t.UnixMilli(), 10))
		}
	}
	setMs("due_date_gt", f.DueAfter)
	setMs("due_date_lt", f.DueBefore)
	setMs("start_date_gt", f.StartAfter)
	setMs("start_date_lt", f.StartBefore)
	q.Set("subtasks", strconv.FormatBool(f.Subtasks))
	q.Set("include_closed", strconv.FormatBool(f.IncludeClosed))
}

// Client é o cliente HTTP para a API do ClickUp
type Client struct {
	token      string
	baseURL    string
	backoff    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient cria um novo cliente ClickUp
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		backoff: RetryBackoff,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/RequestsPerMinute), 50),
	}
}

// WithBaseURL aponta o cliente para outro host (testes, proxies)
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithBackoff altera a espera entre tentativas
func (c *Client) WithBackoff(d time.Duration) *Client {
	c.backoff = d
	return c
}

// buildTaskURL constrói a URL para buscar tarefas de uma lista
func (c *Client) buildTaskURL(listID string, page int, filter TaskFilter) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	filter.apply(q)
	return fmt.Sprintf("%s/list/%s/task?%s", c.baseURL, url.PathEscape(listID), q.Encode())
}

// GetTasks busca todas as tarefas de uma lista com paginação automática e retry
func (c *Client) GetTasks(ctx context.Context, listID string, filter TaskFilter) ([]model.Task, error) {
	var allTasks []model.Task
	page := 0

	for {
		// Aguarda rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.doRequestWithRetry(ctx, c.buildTaskURL(listID, page, filter), listID, page)
		if err != nil {
			logger.Get(ctx).Error().
				Str("list_id", listID).
				Int("page", page).
				Int("collected", len(allTasks)).
				Err(err).
				Msg("Falha definitiva na coleta")
			return allTasks, fmt.Errorf("lista %s página %d: %w", listID, page, err)
		}

		allTasks = append(allTasks, resp.Tasks...)

		logger.Get(ctx).Debug().
			Str("list_id", listID).
			Int("page", page).
			Int("tasks", len(resp.Tasks)).
			Int("total", len(allTasks)).
			Bool("last_page", resp.LastPage).
			Msg("Tasks coletadas")

		// Condição de parada: última página ou menos que PageSize
		if resp.LastPage || len(resp.Tasks) < PageSize {
			break
		}
		page++
	}

	return allTasks, nil
}

// doRequestWithRetry executa request com retry e backoff
func (c *Client) doRequestWithRetry(ctx context.Context, url, listID string, page int) (*model.TaskResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= RetryMaxAttempts; attempt++ {
		var resp model.TaskResponse
		err := c.doGenericRequest(ctx, url, &resp)
		if err == nil {
			return &resp, nil
		}
		lastErr = err

		// Se é erro de contexto cancelado, não faz retry
		if ctx.Err() != nil {
			return nil, err
		}

		// Erros definitivos não fazem retry
		if errors.Is(err, model.ErrRateLimited) || errors.Is(err, model.ErrUnauthorized) || errors.Is(err, model.ErrNotFound) {
			return nil, err
		}

		if attempt < RetryMaxAttempts {
			logger.Get(ctx).Warn().
				Str("list_id", listID).
				Int("page", page).
				Int("attempt", attempt).
				Err(err).
				Dur("backoff", c.backoff).
				Msg("Tentativa falhou, aguardando retry")

			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

// doGenericRequest executa uma requisição GET para a API do ClickUp
func (c *Client) doGenericRequest(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("criar request: %w", err)
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return model.ErrTimeout
		}
		return fmt.Errorf("executar request: %w", err)
	}
	defer resp.Body.Close()

	// Tratamento de erros HTTP
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return model.ErrRateLimited
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusNotFound:
		return model.ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}

	return nil
}

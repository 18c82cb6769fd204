package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/cache"
	"github.com/cleberrangel/clickup-timeline-api/internal/client"
	"github.com/cleberrangel/clickup-timeline-api/internal/ics"
	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

// DateLayout é o formato aceito para dias na API
const DateLayout = "2006-01-02"

// TaskSource busca tarefas de uma lista do ClickUp
type TaskSource interface {
	GetTasks(ctx context.Context, listID string, filter client.TaskFilter) ([]model.Task, error)
}

// FeedSource baixa um feed ICS
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DayServiceConfig configura o DayService
type DayServiceConfig struct {
	Tasks    TaskSource
	Feeds    FeedSource
	ListIDs  []string
	ICSURLs  []string
	Location *time.Location
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

// DayService resolve os itens de um dia a partir das listas do ClickUp e dos
// feeds ICS configurados.
type DayService struct {
	tasks     TaskSource
	feeds     FeedSource
	listIDs   []string
	icsURLs   []string
	extractor *Extractor
	cache     *cache.Cache
	metrics   *metrics.Metrics

	mu          sync.Mutex
	lastSuccess time.Time
	lastErr     error
}

// NewDayService cria o serviço. Stop libera o cache.
func NewDayService(cfg DayServiceConfig) *DayService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Get()
	}
	return &DayService{
		tasks:     cfg.Tasks,
		feeds:     cfg.Feeds,
		listIDs:   cfg.ListIDs,
		icsURLs:   cfg.ICSURLs,
		extractor: NewExtractor(cfg.Location),
		cache:     cache.NewCacheWithGrace(ttl, 24*time.Hour),
		metrics:   m,
	}
}

// Stop encerra a limpeza do cache
func (s *DayService) Stop() {
	s.cache.Stop()
}

// Location retorna o fuso usado para decidir o dia de cada item
func (s *DayService) Location() *time.Location {
	return s.extractor.Location()
}

// Extractor expõe o extrator de datas
func (s *DayService) Extractor() *Extractor {
	return s.extractor
}

// ParseDate lê um dia YYYY-MM-DD no fuso configurado
func (s *DayService) ParseDate(value string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, value, s.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", model.ErrInvalidDate, value)
	}
	return day, nil
}

// Today retorna o início do dia atual no fuso configurado
func (s *DayService) Today(now time.Time) time.Time {
	y, m, d := now.In(s.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.Location())
}

func cacheKey(day time.Time) string {
	return "day:" + day.Format(DateLayout)
}

// Invalidate descarta o cache de um dia
func (s *DayService) Invalidate(day time.Time) {
	s.cache.Delete(cacheKey(s.Today(day)))
}

// InvalidateAll descarta o cache de todos os dias
func (s *DayService) InvalidateAll() {
	s.cache.InvalidatePrefix("day:")
}

// ItemsForDay retorna os itens do dia divididos em agendados e não agendados.
// Resultados são cacheados; se a atualização falhar, o último resultado
// conhecido é servido com Stale marcado.
func (s *DayService) ItemsForDay(ctx context.Context, day time.Time) (*model.DayItems, error) {
	day = s.Today(day)
	key := cacheKey(day)
	log := logger.Get(ctx).With().Str("date", day.Format(DateLayout)).Logger()

	if v, ok := s.cache.Get(key); ok {
		return v.(*model.DayItems), nil
	}

	items, partial, err := s.collect(ctx, day)
	s.metrics.IncrementDayFetch(err == nil && !partial)
	s.recordOutcome(err, partial)

	if err != nil || partial {
		if v, storedAt, ok := s.cache.GetStale(key); ok {
			stale := *v.(*model.DayItems)
			stale.Stale = true
			s.metrics.IncrementStaleServed()
			log.Warn().Err(err).Time("stored_at", storedAt).Msg("Fontes indisponíveis, servindo dia em cache")
			return &stale, nil
		}
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("Algumas fontes falharam, servindo resultado parcial")
		return s.partition(day, items), nil
	}

	result := s.partition(day, items)
	s.cache.Set(key, result)
	log.Debug().
		Int("items", len(result.Items)).
		Int("unscheduled", len(result.Unscheduled)).
		Msg("Dia resolvido")
	return result, nil
}

// collect junta os itens brutos de todas as fontes. err só é preenchido
// quando todas as fontes falharam; partial indica que alguma falhou.
func (s *DayService) collect(ctx context.Context, day time.Time) (items []model.DayItem, partial bool, err error) {
	dayEnd := day.AddDate(0, 0, 1)
	var errs []error
	sources := 0
	log := logger.Get(ctx)

	if s.tasks != nil {
		for _, listID := range s.listIDs {
			sources++
			tasks, err := s.tasksForDay(ctx, listID, day, dayEnd)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, task := range tasks {
				item, err := s.extractor.DayItem(task)
				if err != nil {
					log.Warn().Err(err).Str("task_id", task.ID).Msg("Data inválida na tarefa")
				}
				if anchor, ok := item.Anchor(); ok && !timeline.SameDay(anchor, day, s.Location()) {
					continue
				}
				items = append(items, item)
			}
		}
	}

	if s.feeds != nil {
		for _, url := range s.icsURLs {
			sources++
			body, err := s.feeds.Fetch(ctx, url)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			events, err := ics.Parse(body)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			items = append(items, ics.ExpandDay(events, day, s.Location())...)
		}
	}

	if len(errs) == 0 {
		return items, false, nil
	}
	for _, e := range errs {
		log.Warn().Err(e).Msg("Fonte falhou")
	}
	if len(errs) == sources {
		return nil, false, errors.Join(errs...)
	}
	return items, true, nil
}

// tasksForDay busca as tarefas que vencem e as que começam no dia,
// unindo pelo id.
func (s *DayService) tasksForDay(ctx context.Context, listID string, day, dayEnd time.Time) ([]model.Task, error) {
	due, err := s.tasks.GetTasks(ctx, listID, client.DayWindow(day, dayEnd))
	if err != nil {
		return nil, err
	}
	started, err := s.tasks.GetTasks(ctx, listID, client.StartWindow(day, dayEnd))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(due)+len(started))
	out := make([]model.Task, 0, len(due)+len(started))
	for _, t := range append(due, started...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, nil
}

func (s *DayService) partition(day time.Time, items []model.DayItem) *model.DayItems {
	result := &model.DayItems{
		Date:      day,
		Items:     make([]timeline.Item, 0, len(items)),
		FetchedAt: time.Now(),
	}
	for _, it := range items {
		projected, ok := timeline.Project(it.TimelineSource(), s.Location())
		if !ok {
			result.Unscheduled = append(result.Unscheduled, it)
			continue
		}
		result.Items = append(result.Items, projected)
	}
	// Mantém a ordem das fontes: itens da mesma hora são empilhados nessa ordem.
	return result
}

func (s *DayService) recordOutcome(err error, partial bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && !partial {
		s.lastSuccess = time.Now()
		s.lastErr = nil
		return
	}
	if err == nil {
		err = errors.New("fontes parcialmente indisponíveis")
	}
	s.lastErr = err
}

// Health reporta o estado das fontes com base na última atualização
func (s *DayService) Health() metrics.HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return metrics.CheckSourceHealth(s.lastSuccess, s.lastErr, time.Hour)
}

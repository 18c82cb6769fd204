package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena as configurações da aplicação
type Config struct {
	TokenClickUp string
	TokenAPI     string
	Port         string
	GinMode      string
	LogLevel     string
	LogJSON      bool

	// Location é o fuso usado para decidir a que dia cada item pertence
	Location     *time.Location
	ListIDs      []string
	ICSURLs      []string
	TimelinePath string
	Timeline     *TimelineConfig
}

// ErrMissingToken indica que um token obrigatório não foi configurado
var ErrMissingToken = errors.New("token obrigatório não configurado")

// Load carrega as configurações do ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	return FromEnv(os.Getenv)
}

// FromEnv monta a configuração a partir de uma função de lookup
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TokenClickUp: getenv("TOKEN_CLICKUP"),
		TokenAPI:     getenv("TOKEN_API"),
		Port:         getenv("PORT"),
		GinMode:      getenv("GIN_MODE"),
		LogLevel:     getenv("LOG_LEVEL"),
		LogJSON:      parseBool(getenv("LOG_JSON")),
		ListIDs:      splitList(getenv("CLICKUP_LIST_IDS")),
		ICSURLs:      splitList(getenv("ICS_URLS")),
		TimelinePath: getenv("TIMELINE_CONFIG"),
	}

	// Validações obrigatórias
	if cfg.TokenAPI == "" {
		return nil, fmt.Errorf("TOKEN_API: %w", ErrMissingToken)
	}
	if len(cfg.ListIDs) > 0 && cfg.TokenClickUp == "" {
		return nil, fmt.Errorf("TOKEN_CLICKUP: %w", ErrMissingToken)
	}

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "debug"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	loc, err := LoadLocation(getenv("TIMEZONE"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	tl, err := LoadTimeline(cfg.TimelinePath)
	if err != nil {
		return nil, fmt.Errorf("carregar %s: %w", cfg.TimelinePath, err)
	}
	cfg.Timeline = tl

	return cfg, nil
}

// LoadLocation resolve um nome IANA; vazio significa o fuso local
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

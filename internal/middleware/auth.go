package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// QueryTokenParam é o parâmetro aceito quando o cliente não pode enviar
// headers (websocket no navegador)
const QueryTokenParam = "access_token"

var (
	errMissingHeader = errors.New("header Authorization ausente")
	errBadFormat     = errors.New("formato inválido, esperado: Bearer {token}")
	errBadToken      = errors.New("token inválido")
)

// AuthConfig contém a configuração do middleware de autenticação
type AuthConfig struct {
	TokenAPI string
	// AllowQueryToken aceita o token em ?access_token= quando o header falta
	AllowQueryToken bool
}

// BearerAuth retorna um middleware que valida o token Bearer
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c, cfg.AllowQueryToken)
		if err == nil && !TokenMatches(token, cfg.TokenAPI) {
			err = errBadToken
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context, allowQuery bool) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := c.Query(QueryTokenParam); token != "" {
				return token, nil
			}
		}
		return "", errMissingHeader
	}

	// Extrai o token do formato "Bearer {token}"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errBadFormat
	}
	return parts[1], nil
}

// TokenMatches compara tokens em tempo constante
func TokenMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

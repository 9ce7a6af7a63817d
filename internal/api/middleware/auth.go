package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

// AuthTokenHeader заголовок с токеном администратора
const AuthTokenHeader = "Auth-Token"

const msgForbidden = "доступ запрещён"

// AdminAuth пропускает запрос только с верным Auth-Token.
// Пустой настроенный токен закрывает административные маршруты полностью.
func AdminAuth(token string, log Logger) mux.MiddlewareFunc {
	expected := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(AuthTokenHeader))
			if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
				log.Warn("%s %s - Forbidden: invalid or missing %s", r.Method, r.URL.Path, AuthTokenHeader)
				handlers.RespondForbidden(w, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

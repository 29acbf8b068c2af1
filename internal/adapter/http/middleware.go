package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("lostfound-service/http")

type contextKey string

const identityCtxKey = contextKey("identity")

// Claims are the token fields the identity provider signs.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(domain.Identity)
	return id, ok && id.UserID != ""
}

// JWTAuth rejects requests without a valid HS256 bearer token and stores the identity on the context.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authorization token is not provided"})
				return
			}

			claims := &Claims{}
			_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				log.Debug("JWTAuth: token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				msg := "token is invalid"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token has expired"
				}
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msg})
				return
			}
			if strings.TrimSpace(claims.UserID) == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "user_id not found in token claims"})
				return
			}

			id := domain.Identity{UserID: claims.UserID, Username: claims.Username, Email: claims.Email}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("enduser.id", id.UserID))
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Instrument opens a server span per request and records latency by route pattern.
func Instrument(m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := routePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", ww.Status()),
			)
			if ww.Status() >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(ww.Status()))
			}
			if m != nil {
				m.APIRequestLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			}
		})
	}
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routePattern(r)),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
			}
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				log.Error("HTTP request", fields...)
			case ww.Status() >= http.StatusBadRequest:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

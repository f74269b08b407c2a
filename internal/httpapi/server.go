package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"phishguard/internal/logger"
	api "phishguard/pkg/api"
	"phishguard/pkg/domain"
	"phishguard/pkg/errx"

	"github.com/go-chi/chi/v5"
)

// 消息类型
const (
	MessageSecurityStatus = "GET_SECURITY_STATUS"
	MessageCheckURL       = "checkUrl"
)

// Server 提供给弹窗、安全中心与拦截页的 HTTP 接口
type Server struct {
	svc    api.Service
	log    logger.Logger
	router chi.Router
}

// NewServer 创建 HTTP 接口服务
func NewServer(svc api.Service, l logger.Logger) *Server {
	if l == nil {
		l = logger.NewNop()
	}
	s := &Server{svc: svc, log: l.With("component", "http")}
	s.router = s.routes()
	return s
}

// ServeHTTP 实现 http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { writeText(w, http.StatusOK, "ok\n") })
	r.Get("/blocked", s.blockPage)

	r.Route("/api", func(r chi.Router) {
		r.Post("/message", s.message)

		r.Get("/history", s.listHistory)
		r.Delete("/history", s.clearHistory)
		r.Get("/history/{id}", s.getHistory)

		r.Get("/blacklist", s.listBlacklist)
		r.Post("/blacklist", s.addBlacklist)
		r.Delete("/blacklist/{domain}", s.removeBlacklist)

		r.Get("/badge/{tabId}", s.getBadge)
		r.Get("/theme", s.getTheme)
		r.Put("/theme", s.putTheme)

		r.Get("/intercept", s.getIntercept)
		r.Get("/stats", s.getStats)
	})
	return r
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("请求处理异常", "path", r.URL.Path, "panic", fmt.Sprint(rec))
				writeError(w, errx.New(errx.CodeUnknown, "internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Message 弹窗与页面脚本发送的消息
type Message struct {
	Type  string        `json:"type"`
	TabID *domain.TabID `json:"tabId,omitempty"`
	URL   string        `json:"url,omitempty"`
}

// message 按 type 分发，状态查询直接返回原始结构
func (s *Server) message(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, errx.Wrap(errx.CodeInvalidRequest, err, "invalid message"))
		return
	}
	result, err := s.dispatch(r.Context(), &msg)
	if err != nil {
		writeError(w, err)
		return
	}
	if st, ok := result.(domain.StatusResponse); ok && st.Loading {
		w.Header().Set("Retry-After", retryAfter(s.svc.PollInterval()))
	}
	writeJSON(w, http.StatusOK, result)
}

// retryAfter 将轮询间隔换算为整秒，至少 1 秒
func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func (s *Server) dispatch(ctx context.Context, msg *Message) (any, error) {
	switch msg.Type {
	case MessageSecurityStatus:
		return s.svc.SecurityStatus(ctx), nil
	case MessageCheckURL:
		if msg.TabID == nil {
			return nil, errx.New(errx.CodeInvalidRequest, "tabId is required")
		}
		if strings.TrimSpace(msg.URL) == "" {
			return nil, errx.New(errx.CodeInvalidRequest, "url is required")
		}
		return s.svc.CheckURL(ctx, *msg.TabID, msg.URL), nil
	default:
		return nil, errx.New(errx.CodeInvalidRequest, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// writeJSON 写出 JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(s))
}

// writeOK 写出成功的统一响应
func writeOK[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, api.OK(data))
}

// writeError 写出失败的统一响应，状态码由错误码决定
func writeError(w http.ResponseWriter, err error) {
	code := errx.CodeOf(err)
	msg := err.Error()
	var e *errx.Error
	if errors.As(err, &e) && e.Err == nil {
		msg = e.Msg
	}
	writeJSON(w, statusOf(code), api.Fail[api.EmptyData](string(code), msg))
}

func statusOf(code errx.Code) int {
	switch code {
	case errx.CodeInvalidRequest, errx.CodeInvalidDomain, errx.CodeIncompletePayload, errx.CodeInvalidTheme:
		return http.StatusBadRequest
	case errx.CodeNotFound, errx.CodeTabNotFound, errx.CodeNotBlacklisted, errx.CodeNoActiveTab:
		return http.StatusNotFound
	case errx.CodeAlreadyBlacklisted:
		return http.StatusConflict
	case errx.CodeDetectorError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

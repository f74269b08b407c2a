package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"phishguard/internal/blacklist"
	"phishguard/internal/classifier"
	"phishguard/internal/explainer"
	"phishguard/internal/intercept"
	"phishguard/internal/service"
	api "phishguard/pkg/api"
	"phishguard/pkg/domain"
	"phishguard/pkg/errx"

	"github.com/go-chi/chi/v5"
)

// Report 安全中心的单条拦截报告
type Report struct {
	domain.HistoryItem
	DOMRisks   []string `json:"domRisks"`
	OtherRisks []string `json:"otherRisks"`
}

func newReport(item domain.HistoryItem) Report {
	dom, other := classifier.Split(item.Risks)
	for i := range dom {
		dom[i] = classifier.StripMarkers(dom[i])
	}
	for i := range other {
		other[i] = classifier.StripMarkers(other[i])
	}
	return Report{HistoryItem: item, DOMRisks: dom, OtherRisks: other}
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.svc.History(r.Context()))
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.FindHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, newReport(item))
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearHistory(r.Context()); err != nil {
		writeError(w, errx.Wrap(errx.CodeStorage, err, "clear history"))
		return
	}
	writeOK(w, api.EmptyData{})
}

func (s *Server) listBlacklist(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Blacklist(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, list)
}

type blacklistRequest struct {
	Domain string `json:"domain"`
}

func (s *Server) addBlacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.Wrap(errx.CodeInvalidRequest, err, "invalid body"))
		return
	}
	list, err := s.svc.AddBlacklist(r.Context(), req.Domain)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, blacklist.Listing{Domains: list})
}

func (s *Server) removeBlacklist(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.RemoveBlacklist(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, blacklist.Listing{Domains: list})
}

func (s *Server) getBadge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "tabId"))
	if err != nil {
		writeError(w, errx.Wrap(errx.CodeInvalidRequest, err, "invalid tabId"))
		return
	}
	b, ok := s.svc.Badge(domain.TabID(id))
	if !ok {
		writeError(w, errx.New(errx.CodeTabNotFound, "no badge for tab"))
		return
	}
	writeOK(w, b)
}

type themeBody struct {
	Theme domain.Theme `json:"theme"`
}

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	writeOK(w, themeBody{Theme: s.svc.Theme(r.Context())})
}

func (s *Server) putTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.Wrap(errx.CodeInvalidRequest, err, "invalid body"))
		return
	}
	th, err := s.svc.SetTheme(r.Context(), req.Theme)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, themeBody{Theme: th})
}

// interceptView 拦截页数据
type interceptView struct {
	Intercept   domain.Intercept      `json:"intercept"`
	Explanation explainer.Explanation `json:"explanation"`
}

func (s *Server) getIntercept(w http.ResponseWriter, r *http.Request) {
	in, err := intercept.Decode(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, interceptView{Intercept: in, Explanation: s.svc.Explain(in)})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	writeOK[service.Stats](w, s.svc.Stats())
}

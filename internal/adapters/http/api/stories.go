package api

import (
	"fmt"
	"html"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/storyloom/internal/domain/render"
	"github.com/okian/storyloom/internal/domain/types"
	"github.com/okian/storyloom/pkg/metrics"
)

// IdempotencyHeader names the optional submit deduplication key.
const IdempotencyHeader = "Idempotency-Key"

// handleHealth serves the Prometheus registry.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Stats(r.Context()))
}

// handleSubmit handles POST /stories.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_story"
	var req types.SubmitRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := s.deps.Submit(r.Context(), req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/stories/"+resp.ID)
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.get_story", err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewJobView(job))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.cancel_story", err))
		return
	}
	writeJSON(w, http.StatusAccepted, types.NewJobView(job))
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.story_markdown", err))
		return
	}
	writeText(w, "text/markdown; charset=utf-8", render.ResultMarkdown(res))
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	const op = "api.story_html"
	res, err := s.deps.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	body, err := render.HTML(render.ResultMarkdown(res))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeText(w, "text/html; charset=utf-8", fmt.Sprintf(pageHTML, html.EscapeString(res.Story.Title), body))
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.story_text", err))
		return
	}
	writeText(w, "text/plain; charset=utf-8", render.PlainText(res.Story))
}

const pageHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>body{font-family:Georgia,serif;max-width:42rem;margin:2rem auto;line-height:1.6}</style>
  </head>
  <body>
%s
  </body>
</html>`

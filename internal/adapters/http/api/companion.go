package api

import (
	"net/http"
	"strconv"

	"github.com/okian/storyloom/internal/domain/grade"
	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/phonics"
	"github.com/okian/storyloom/internal/domain/types"
)

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	const op = "api.questions"
	var req types.QuestionsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	qs, err := s.deps.Questions(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.QuestionsResponse{Questions: qs})
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	const op = "api.prompts"
	var req types.PromptsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	ps, err := s.deps.Prompts(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.PromptsResponse{Prompts: ps})
}

func (s *Server) handleIllustrate(w http.ResponseWriter, r *http.Request) {
	ill, err := s.deps.Illustrate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap("api.illustrate", err))
		return
	}
	w.Header().Set("Location", "/illustrations/"+ill.Key)
	writeJSON(w, http.StatusCreated, ill)
}

// handleIllustration streams stored picture bytes.
func (s *Server) handleIllustration(w http.ResponseWriter, r *http.Request) {
	obj, err := s.deps.Illustration(r.Context(), r.PathValue("key"))
	if err != nil {
		s.fail(w, r, Wrap("api.illustration", err))
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

func (s *Server) handleRandomInputs(w http.ResponseWriter, r *http.Request) {
	const op = "api.random_inputs"
	var req types.RandomInputRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	ideas, err := s.deps.RandomInputs(r.Context(), req)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.RandomInputResponse{Options: ideas})
}

// handleGrade describes one grade's constraints.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	const op = "api.grade"
	g := model.GradeLevel(r.PathValue("grade"))
	if !g.Valid() {
		s.fail(w, r, WrapKind(op, ErrBadRequest, &gradeError{grade: g}))
		return
	}
	writeJSON(w, http.StatusOK, grade.Describe(g))
}

// handlePhonics analyses caller supplied text without any model calls.
func (s *Server) handlePhonics(w http.ResponseWriter, r *http.Request) {
	const op = "api.phonics"
	var req types.PhonicsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := s.deps.Validate(req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	story := model.StoryFromText("", req.Text)
	analysis := phonics.AnalyzeStory(story, req.Skill)
	writeJSON(w, http.StatusOK, types.PhonicsResponse{
		Analysis:       analysis,
		Validation:     phonics.ValidateIntegration(analysis, req.GradeLevel),
		Grade:          grade.ValidateStory(story, req.GradeLevel),
		WordBank:       phonics.WordBankFor(req.Skill, req.GradeLevel),
		WritingPrompts: phonics.WritingPrompts(req.Skill, req.GradeLevel, req.Theme),
	})
}

type gradeError struct {
	grade model.GradeLevel
}

func (e *gradeError) Error() string {
	return "grade " + strconv.Quote(string(e.grade)) + " is not one of K, 1-6"
}

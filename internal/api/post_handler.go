package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shaiso/postflow/internal/domain"
	"github.com/shaiso/postflow/internal/orchestrator"
)

// GetPost возвращает пост и состояние его выполнения.
// GET /api/v1/posts/{id}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), r.PathValue("id"))
	if HandleRepoError(w, h.logger, err, "post not found") {
		return
	}

	resp := PostFromDomain(*post)

	progress, err := h.starter.Progress(r.Context(), post.ID)
	switch {
	case err == nil:
		resp.Workflow = &progress
	case errors.Is(err, orchestrator.ErrExecutionNotFound):
		// выполнения ещё нет или оно удалено retention
	default:
		h.logger.Warn("workflow progress unavailable", "post_id", post.ID, "error", err)
	}

	Success(w, resp)
}

// PublishPost запускает выполнение для поста.
// POST /api/v1/posts/{id}/publish
func (h *Handler) PublishPost(w http.ResponseWriter, r *http.Request) {
	var req PublishPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	post, err := h.posts.GetByID(r.Context(), r.PathValue("id"))
	if HandleRepoError(w, h.logger, err, "post not found") {
		return
	}

	if post.IsComment() {
		InvalidState(w, "comments are published with their main post")
		return
	}

	immediate := req.IsImmediate()
	exec, err := h.starter.Start(r.Context(), domain.PublicationRequest{
		TaskRoute:          post.Integration.ProviderIdentifier,
		PostID:             post.ID,
		OrganizationID:     post.OrganizationID,
		PublishImmediately: immediate,
	}, orchestrator.SourceAPI)
	if HandleStarterError(w, h.logger, err) {
		return
	}

	Accepted(w, ExecutionFromStarter(exec, immediate))
}

// PokePost отправляет сигнал poke выполнению поста.
// POST /api/v1/posts/{id}/poke
func (h *Handler) PokePost(w http.ResponseWriter, r *http.Request) {
	if HandleStarterError(w, h.logger, h.starter.Poke(r.Context(), r.PathValue("id"))) {
		return
	}
	NoContent(w)
}

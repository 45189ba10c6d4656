package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/filesnap/internal/apperr"
	"github.com/starford/filesnap/internal/snapshot"
	"github.com/starford/filesnap/internal/taskfiles"
	"github.com/starford/filesnap/internal/taskservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *taskservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	var pe *taskfiles.PropertyError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &pe), errors.Is(err, snapshot.ErrOverlap), errors.Is(err, snapshot.ErrInvariant):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		List declared tasks
//	@Tags			tasks
//	@Produce		json
//	@Success		200		{object}	TaskListResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Tasks(r.Context())
	if err != nil {
		writeError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: items})
}

// GetTask handles GET /api/tasks/{task}.
//
//	@Summary		Get a task declaration
//	@Tags			tasks
//	@Produce		json
//	@Param			task	path		string	true	"Task name"
//	@Success		200		{object}	models.Task
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task} [get]
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Task(r.Context(), chi.URLParam(r, "task"))
	if err != nil {
		writeError(w, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Snapshot handles GET /api/tasks/{task}/snapshot.
//
//	@Summary		Snapshot every file property of a task
//	@Tags			tasks
//	@Produce		json
//	@Param			task	path		string	true	"Task name"
//	@Success		200		{object}	TaskSnapshot
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/snapshot [get]
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "task"))
	if err != nil {
		writeError(w, "snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Status handles GET /api/tasks/{task}/status.
//
//	@Summary		Compare a task with its recorded baseline
//	@Tags			tasks
//	@Produce		json
//	@Param			task	path		string	true	"Task name"
//	@Success		200		{object}	TaskStatus
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), chi.URLParam(r, "task"))
	if err != nil {
		writeError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Record handles POST /api/tasks/{task}/record.
//
//	@Summary		Record the current snapshot as the task baseline
//	@Tags			tasks
//	@Produce		json
//	@Param			task	path		string	true	"Task name"
//	@Success		200		{object}	TaskSnapshot
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/record [post]
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Record(r.Context(), chi.URLParam(r, "task"))
	if err != nil {
		writeError(w, "record", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Forget handles DELETE /api/tasks/{task}/record.
//
//	@Summary		Drop the recorded baseline of a task
//	@Tags			tasks
//	@Param			task	path		string	true	"Task name"
//	@Success		204
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/record [delete]
func (h *Handler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Forget(r.Context(), chi.URLParam(r, "task")); err != nil {
		writeError(w, "forget", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PropertyFiles handles GET /api/tasks/{task}/properties/{property}/files.
//
//	@Summary		List the files a property observes
//	@Tags			properties
//	@Produce		json
//	@Param			task		path		string	true	"Task name"
//	@Param			property	path		string	true	"Property name"
//	@Success		200			{object}	FilesResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/properties/{property}/files [get]
func (h *Handler) PropertyFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.Files(r.Context(), chi.URLParam(r, "task"), chi.URLParam(r, "property"))
	if err != nil {
		writeError(w, "property files", err)
		return
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

// PropertyTree handles GET /api/tasks/{task}/properties/{property}/tree.
//
//	@Summary		Show the snapshot forest of a property
//	@Tags			properties
//	@Produce		json
//	@Param			task		path		string	true	"Task name"
//	@Param			property	path		string	true	"Property name"
//	@Success		200			{object}	TreeResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/properties/{property}/tree [get]
func (h *Handler) PropertyTree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.svc.Tree(r.Context(), chi.URLParam(r, "task"), chi.URLParam(r, "property"))
	if err != nil {
		writeError(w, "property tree", err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Roots: roots})
}

// PropertyInspect handles GET /api/tasks/{task}/properties/{property}/inspect.
//
//	@Summary		Compare a property snapshot with the disk
//	@Tags			properties
//	@Produce		json
//	@Param			task		path		string	true	"Task name"
//	@Param			property	path		string	true	"Property name"
//	@Param			dir			query		string	false	"Directory to compare (defaults to every directory root)"
//	@Success		200			{object}	InspectResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{task}/properties/{property}/inspect [get]
func (h *Handler) PropertyInspect(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.Inspect(r.Context(), chi.URLParam(r, "task"), chi.URLParam(r, "property"), r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, "property inspect", err)
		return
	}
	writeJSON(w, http.StatusOK, InspectResponse{Reports: reports})
}

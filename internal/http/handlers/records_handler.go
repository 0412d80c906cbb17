package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/http/response"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/service"

	"github.com/go-chi/chi/v5"
)

// RecordsHandler serves project CRUD and the project-scoped record
// collections: tasks, backlog items, sprints and resources.
type RecordsHandler struct {
	records *service.RecordService
}

func NewRecordsHandler(records *service.RecordService) *RecordsHandler {
	return &RecordsHandler{records: records}
}

func (h *RecordsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.records.ListProjects()
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, projects)
}

func (h *RecordsHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if !decode(w, r, &p) {
		return
	}
	p.ID = 0
	if err := h.records.CreateProject(&p); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, p)
}

func (h *RecordsHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	project, err := h.records.GetProject(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, project)
}

func (h *RecordsHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	tasks, err := h.records.ListTasks(id)
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tasks)
}

func (h *RecordsHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	var t domain.Task
	if !decode(w, r, &t) {
		return
	}
	t.ID = 0
	t.ProjectID = projectID
	if err := h.records.CreateTask(&t); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, t)
}

func (h *RecordsHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r, "title", "description", "status", "due_date", "resource_id", "parent_id")
	if !ok {
		return
	}
	if err := h.records.UpdateTask(id, fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	if err := h.records.DeleteTask(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) ListBacklogItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	items, err := h.records.ListBacklogItems(id)
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, items)
}

func (h *RecordsHandler) CreateBacklogItem(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	var b domain.BacklogItem
	if !decode(w, r, &b) {
		return
	}
	b.ID = 0
	b.ProjectID = projectID
	if err := h.records.CreateBacklogItem(&b); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, b)
}

func (h *RecordsHandler) UpdateBacklogItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r, "title", "priority", "status", "tags", "resource_id", "parent_id")
	if !ok {
		return
	}
	if err := h.records.UpdateBacklogItem(id, fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) DeleteBacklogItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.records.DeleteBacklogItem(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) ListSprints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	sprints, err := h.records.ListSprints(id)
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, sprints)
}

func (h *RecordsHandler) CreateSprint(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	var s domain.Sprint
	if !decode(w, r, &s) {
		return
	}
	s.ID = 0
	s.ProjectID = projectID
	if err := h.records.CreateSprint(&s); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, s)
}

func (h *RecordsHandler) UpdateSprint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sprintID")
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r, "name", "status", "start_date", "end_date", "velocity", "scope_points", "done_points", "notes")
	if !ok {
		return
	}
	if err := h.records.UpdateSprint(id, fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) DeleteSprint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sprintID")
	if !ok {
		return
	}
	if err := h.records.DeleteSprint(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	resources, err := h.records.ListResources(id)
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, resources)
}

func (h *RecordsHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectID")
	if !ok {
		return
	}
	var res domain.Resource
	if !decode(w, r, &res) {
		return
	}
	res.ID = 0
	res.ProjectID = projectID
	if err := h.records.CreateResource(&res); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, res)
}

func (h *RecordsHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "resourceID")
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r, "name", "status", "notes")
	if !ok {
		return
	}
	if err := h.records.UpdateResource(id, fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "resourceID")
	if !ok {
		return
	}
	if err := h.records.DeleteResource(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
	case errors.Is(err, service.ErrMissingFields):
		response.Error(w, r, http.StatusBadRequest, "MISSING_FIELDS", "required fields missing", nil)
	default:
		response.InternalError(w, r, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_ID", "identifier must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}

// decodeFields reads a partial-update body and keeps only the allowed keys,
// so clients cannot reach columns like project_id through an update.
func decodeFields(w http.ResponseWriter, r *http.Request, allowed ...string) (map[string]any, bool) {
	var raw map[string]any
	if !decode(w, r, &raw) {
		return nil, false
	}
	fields := make(map[string]any, len(raw))
	for _, key := range allowed {
		if v, ok := raw[key]; ok {
			fields[key] = v
		}
	}
	if len(fields) == 0 {
		response.Error(w, r, http.StatusBadRequest, "EMPTY_UPDATE", "no updatable fields supplied", nil)
		return nil, false
	}
	return fields, true
}

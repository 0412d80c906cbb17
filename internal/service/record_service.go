package service

import (
	"strings"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/repository"
)

// Allowed enumeration values for record fields. Unknown values fall back to
// the zero-state default rather than erroring, so clients can omit them.
var (
	taskStatuses      = enum("todo", "in-progress", "done", "later")
	backlogPriorities = enum("high", "medium", "low")
	sprintStatuses    = enum("planned", "active", "done")
	resourceStatuses  = enum("free", "overloaded", "holiday")
)

func enum(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalize(value, fallback string, allowed map[string]struct{}) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if _, ok := allowed[v]; ok {
		return v
	}
	return fallback
}

// RecordService normalizes record payloads and delegates persistence. All
// record types are plain project-scoped rows with no cross-record rules.
type RecordService struct {
	records repository.RecordRepository
}

func NewRecordService(records repository.RecordRepository) *RecordService {
	return &RecordService{records: records}
}

func (s *RecordService) CreateProject(p *domain.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingFields
	}
	return s.records.CreateProject(p)
}

func (s *RecordService) GetProject(id uint) (*domain.Project, error) {
	return s.records.FindProject(id)
}

func (s *RecordService) ListProjects() ([]domain.Project, error) {
	return s.records.ListProjects()
}

func (s *RecordService) CreateTask(t *domain.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrMissingFields
	}
	t.Status = normalize(t.Status, "todo", taskStatuses)
	return s.records.CreateTask(t)
}

func (s *RecordService) ListTasks(projectID uint) ([]domain.Task, error) {
	return s.records.ListTasks(projectID)
}

func (s *RecordService) UpdateTask(id uint, fields map[string]any) error {
	if v, ok := fields["status"].(string); ok {
		fields["status"] = normalize(v, "todo", taskStatuses)
	}
	return s.records.UpdateTask(id, fields)
}

func (s *RecordService) DeleteTask(id uint) error {
	return s.records.DeleteTask(id)
}

func (s *RecordService) CreateBacklogItem(b *domain.BacklogItem) error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrMissingFields
	}
	b.Priority = normalize(b.Priority, "medium", backlogPriorities)
	b.Status = normalize(b.Status, "todo", taskStatuses)
	return s.records.CreateBacklogItem(b)
}

func (s *RecordService) ListBacklogItems(projectID uint) ([]domain.BacklogItem, error) {
	return s.records.ListBacklogItems(projectID)
}

func (s *RecordService) UpdateBacklogItem(id uint, fields map[string]any) error {
	if v, ok := fields["priority"].(string); ok {
		fields["priority"] = normalize(v, "medium", backlogPriorities)
	}
	if v, ok := fields["status"].(string); ok {
		fields["status"] = normalize(v, "todo", taskStatuses)
	}
	return s.records.UpdateBacklogItem(id, fields)
}

func (s *RecordService) DeleteBacklogItem(id uint) error {
	return s.records.DeleteBacklogItem(id)
}

func (s *RecordService) CreateSprint(sp *domain.Sprint) error {
	if strings.TrimSpace(sp.Name) == "" {
		return ErrMissingFields
	}
	sp.Status = normalize(sp.Status, "planned", sprintStatuses)
	return s.records.CreateSprint(sp)
}

func (s *RecordService) ListSprints(projectID uint) ([]domain.Sprint, error) {
	return s.records.ListSprints(projectID)
}

func (s *RecordService) UpdateSprint(id uint, fields map[string]any) error {
	if v, ok := fields["status"].(string); ok {
		fields["status"] = normalize(v, "planned", sprintStatuses)
	}
	return s.records.UpdateSprint(id, fields)
}

func (s *RecordService) DeleteSprint(id uint) error {
	return s.records.DeleteSprint(id)
}

func (s *RecordService) CreateResource(r *domain.Resource) error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingFields
	}
	r.Status = normalize(r.Status, "free", resourceStatuses)
	return s.records.CreateResource(r)
}

func (s *RecordService) ListResources(projectID uint) ([]domain.Resource, error) {
	return s.records.ListResources(projectID)
}

func (s *RecordService) UpdateResource(id uint, fields map[string]any) error {
	if v, ok := fields["status"].(string); ok {
		fields["status"] = normalize(v, "free", resourceStatuses)
	}
	return s.records.UpdateResource(id, fields)
}

func (s *RecordService) DeleteResource(id uint) error {
	return s.records.DeleteResource(id)
}

package repository

import (
	"errors"

	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/domain"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

// RecordRepository is the plain row store behind the work-tracking CRUD
// surface. Every child row carries a project foreign key.
type RecordRepository interface {
	CreateProject(p *domain.Project) error
	FindProject(id uint) (*domain.Project, error)
	ListProjects() ([]domain.Project, error)

	CreateTask(t *domain.Task) error
	FindTask(id uint) (*domain.Task, error)
	ListTasks(projectID uint) ([]domain.Task, error)
	UpdateTask(id uint, fields map[string]any) error
	DeleteTask(id uint) error

	CreateBacklogItem(b *domain.BacklogItem) error
	FindBacklogItem(id uint) (*domain.BacklogItem, error)
	ListBacklogItems(projectID uint) ([]domain.BacklogItem, error)
	UpdateBacklogItem(id uint, fields map[string]any) error
	DeleteBacklogItem(id uint) error

	CreateSprint(s *domain.Sprint) error
	FindSprint(id uint) (*domain.Sprint, error)
	ListSprints(projectID uint) ([]domain.Sprint, error)
	UpdateSprint(id uint, fields map[string]any) error
	DeleteSprint(id uint) error

	CreateResource(res *domain.Resource) error
	FindResource(id uint) (*domain.Resource, error)
	ListResources(projectID uint) ([]domain.Resource, error)
	UpdateResource(id uint, fields map[string]any) error
	DeleteResource(id uint) error
}

type GormRecordRepository struct{ store *database.Store }

func NewRecordRepository(store *database.Store) RecordRepository {
	return &GormRecordRepository{store: store}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func (r *GormRecordRepository) updateByID(model any, id uint, fields map[string]any) error {
	res := r.store.DB().Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *GormRecordRepository) deleteByID(model any, id uint) error {
	res := r.store.DB().Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *GormRecordRepository) CreateProject(p *domain.Project) error {
	return r.store.DB().Create(p).Error
}

func (r *GormRecordRepository) FindProject(id uint) (*domain.Project, error) {
	var p domain.Project
	if err := r.store.DB().First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRecordRepository) ListProjects() ([]domain.Project, error) {
	var out []domain.Project
	err := r.store.DB().Order("id desc").Find(&out).Error
	return out, err
}

func (r *GormRecordRepository) CreateTask(t *domain.Task) error {
	return r.store.DB().Create(t).Error
}

func (r *GormRecordRepository) FindTask(id uint) (*domain.Task, error) {
	var t domain.Task
	if err := r.store.DB().First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *GormRecordRepository) ListTasks(projectID uint) ([]domain.Task, error) {
	var out []domain.Task
	err := r.store.DB().Where("project_id = ?", projectID).Order("id").Find(&out).Error
	return out, err
}

func (r *GormRecordRepository) UpdateTask(id uint, fields map[string]any) error {
	return r.updateByID(&domain.Task{}, id, fields)
}

func (r *GormRecordRepository) DeleteTask(id uint) error {
	return r.deleteByID(&domain.Task{}, id)
}

func (r *GormRecordRepository) CreateBacklogItem(b *domain.BacklogItem) error {
	return r.store.DB().Create(b).Error
}

func (r *GormRecordRepository) FindBacklogItem(id uint) (*domain.BacklogItem, error) {
	var b domain.BacklogItem
	if err := r.store.DB().First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *GormRecordRepository) ListBacklogItems(projectID uint) ([]domain.BacklogItem, error) {
	var out []domain.BacklogItem
	err := r.store.DB().Where("project_id = ?", projectID).Order("id desc").Find(&out).Error
	return out, err
}

func (r *GormRecordRepository) UpdateBacklogItem(id uint, fields map[string]any) error {
	return r.updateByID(&domain.BacklogItem{}, id, fields)
}

func (r *GormRecordRepository) DeleteBacklogItem(id uint) error {
	return r.deleteByID(&domain.BacklogItem{}, id)
}

func (r *GormRecordRepository) CreateSprint(s *domain.Sprint) error {
	return r.store.DB().Create(s).Error
}

func (r *GormRecordRepository) FindSprint(id uint) (*domain.Sprint, error) {
	var s domain.Sprint
	if err := r.store.DB().First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRecordRepository) ListSprints(projectID uint) ([]domain.Sprint, error) {
	var out []domain.Sprint
	err := r.store.DB().Where("project_id = ?", projectID).Order("id desc").Find(&out).Error
	return out, err
}

func (r *GormRecordRepository) UpdateSprint(id uint, fields map[string]any) error {
	return r.updateByID(&domain.Sprint{}, id, fields)
}

func (r *GormRecordRepository) DeleteSprint(id uint) error {
	return r.deleteByID(&domain.Sprint{}, id)
}

func (r *GormRecordRepository) CreateResource(res *domain.Resource) error {
	return r.store.DB().Create(res).Error
}

func (r *GormRecordRepository) FindResource(id uint) (*domain.Resource, error) {
	var res domain.Resource
	if err := r.store.DB().First(&res, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

func (r *GormRecordRepository) ListResources(projectID uint) ([]domain.Resource, error) {
	var out []domain.Resource
	err := r.store.DB().Where("project_id = ?", projectID).Order("id desc").Find(&out).Error
	return out, err
}

func (r *GormRecordRepository) UpdateResource(id uint, fields map[string]any) error {
	return r.updateByID(&domain.Resource{}, id, fields)
}

func (r *GormRecordRepository) DeleteResource(id uint) error {
	return r.deleteByID(&domain.Resource{}, id)
}

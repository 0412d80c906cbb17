package domain

type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:2048" json:"description"`
}

type Task struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ProjectID   uint   `gorm:"not null;index" json:"project_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"size:2048" json:"description"`
	Status      string `gorm:"size:32;not null;default:todo" json:"status"`
	DueDate     string `gorm:"size:32" json:"due_date"`
	ResourceID  *uint  `json:"resource_id,omitempty"`
	ParentID    *uint  `json:"parent_id,omitempty"`
}

type BacklogItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ProjectID  uint   `gorm:"not null;index" json:"project_id"`
	Title      string `gorm:"size:255;not null" json:"title"`
	Priority   string `gorm:"size:16;not null;default:medium" json:"priority"`
	Status     string `gorm:"size:32;not null;default:todo" json:"status"`
	Tags       string `gorm:"size:512" json:"tags"`
	ResourceID *uint  `json:"resource_id,omitempty"`
	ParentID   *uint  `json:"parent_id,omitempty"`
}

type Sprint struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ProjectID   uint   `gorm:"not null;index" json:"project_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Status      string `gorm:"size:16;not null;default:planned" json:"status"`
	StartDate   string `gorm:"size:32" json:"start_date"`
	EndDate     string `gorm:"size:32" json:"end_date"`
	Velocity    int    `gorm:"default:0" json:"velocity"`
	ScopePoints int    `gorm:"default:0" json:"scope_points"`
	DonePoints  int    `gorm:"default:0" json:"done_points"`
	Notes       string `gorm:"size:2048" json:"notes"`
}

type Resource struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Status    string `gorm:"size:16;not null;default:free" json:"status"`
	Notes     string `gorm:"size:2048" json:"notes"`
}

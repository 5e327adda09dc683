package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/eduattend-api/internal/models"
)

type classRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	TeacherID  string         `db:"teacher_id"`
	StudentIDs pq.StringArray `db:"student_ids"`
}

func (r classRow) model() models.SchoolClass {
	ids := []string(r.StudentIDs)
	if ids == nil {
		ids = []string{}
	}
	return models.SchoolClass{ID: r.ID, Name: r.Name, TeacherID: r.TeacherID, StudentIDs: ids}
}

const classSelect = `SELECT c.id, c.name, c.teacher_id,
COALESCE(ARRAY(SELECT cs.child_id FROM class_students cs WHERE cs.class_id = c.id ORDER BY cs.position), '{}') AS student_ids
FROM classes c`

type PGClassRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) *PGClassRepository {
	return &PGClassRepository{db: db}
}

func (r *PGClassRepository) GetByID(ctx context.Context, id string) (*models.SchoolClass, error) {
	var row classRow
	if err := r.db.GetContext(ctx, &row, classSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, translate(err, "get class")
	}
	class := row.model()
	return &class, nil
}

func (r *PGClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.SchoolClass, error) {
	return r.list(ctx, classSelect+` WHERE c.teacher_id = $1 ORDER BY c.name`, teacherID)
}

func (r *PGClassRepository) List(ctx context.Context) ([]models.SchoolClass, error) {
	return r.list(ctx, classSelect+` ORDER BY c.name`)
}

func (r *PGClassRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.SchoolClass, error) {
	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err, "list classes")
	}
	out := make([]models.SchoolClass, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

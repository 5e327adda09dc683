package memory

import (
	"context"
	"strings"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
)

type userRepo struct{ db *DB }

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.ID == id {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ListByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.User, 0)
	for _, u := range r.db.users {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

type childRepo struct{ db *DB }

func (r *childRepo) GetByID(_ context.Context, id string) (*models.Child, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.childIndex(id); i >= 0 {
		out := cloneChild(r.db.children[i])
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (r *childRepo) ListByParent(_ context.Context, parentID string) ([]models.Child, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Child, 0)
	for _, c := range r.db.children {
		if c.ParentID == parentID {
			out = append(out, cloneChild(c))
		}
	}
	return out, nil
}

// ListByClass follows the class roster order. An unknown class is ErrNotFound.
func (r *childRepo) ListByClass(_ context.Context, classID string) ([]models.Child, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ci := r.db.classIndex(classID)
	if ci < 0 {
		return nil, repository.ErrNotFound
	}
	out := make([]models.Child, 0, len(r.db.classes[ci].StudentIDs))
	for _, id := range r.db.classes[ci].StudentIDs {
		if i := r.db.childIndex(id); i >= 0 {
			out = append(out, cloneChild(r.db.children[i]))
		}
	}
	return out, nil
}

// ListByIDs skips unknown ids and keeps the order of ids.
func (r *childRepo) ListByIDs(_ context.Context, ids []string) ([]models.Child, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Child, 0, len(ids))
	for _, id := range ids {
		if i := r.db.childIndex(id); i >= 0 {
			out = append(out, cloneChild(r.db.children[i]))
		}
	}
	return out, nil
}

type classRepo struct{ db *DB }

func (r *classRepo) GetByID(_ context.Context, id string) (*models.SchoolClass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.classIndex(id); i >= 0 {
		out := r.db.classes[i].Clone()
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (r *classRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.SchoolClass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.SchoolClass, 0)
	for _, c := range r.db.classes {
		if c.TeacherID == teacherID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *classRepo) List(_ context.Context) ([]models.SchoolClass, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.SchoolClass, 0, len(r.db.classes))
	for _, c := range r.db.classes {
		out = append(out, c.Clone())
	}
	return out, nil
}

type subjectRepo struct{ db *DB }

func (r *subjectRepo) GetByID(_ context.Context, id string) (*models.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.subjectIndex(id); i >= 0 {
		out := cloneSubject(r.db.subjects[i])
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (r *subjectRepo) ListByClass(_ context.Context, classID string) ([]models.Subject, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Subject, 0)
	for _, s := range r.db.subjects {
		if s.ClassID == classID {
			out = append(out, cloneSubject(s))
		}
	}
	return out, nil
}

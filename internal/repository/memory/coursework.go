package memory

import (
	"context"
	"fmt"

	"github.com/noah-isme/eduattend-api/internal/models"
	"github.com/noah-isme/eduattend-api/internal/repository"
)

type assignmentRepo struct{ db *DB }

func (r *assignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if i := r.db.assignmentIndex(id); i >= 0 {
		out := r.db.assignments[i]
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (r *assignmentRepo) ListByClass(_ context.Context, classID string) ([]models.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Assignment, 0)
	for _, a := range r.db.assignments {
		if a.ClassID == classID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *assignmentRepo) Upsert(_ context.Context, classID string, a models.Assignment, teacherID string) (*models.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.classIndex(classID) < 0 {
		return nil, fmt.Errorf("%w: class %s", repository.ErrInvalidReference, classID)
	}
	si := r.db.subjectIndex(a.SubjectID)
	if si < 0 || r.db.subjects[si].ClassID != classID {
		return nil, fmt.Errorf("%w: subject %s is not taught in class %s", repository.ErrInvalidReference, a.SubjectID, classID)
	}

	a.ClassID = classID
	a.CreatedBy = teacherID
	if a.ID == "" {
		a.ID = r.db.newID()
	}
	if i := r.db.assignmentIndex(a.ID); i >= 0 {
		r.db.assignments[i] = a
	} else {
		r.db.assignments = append(r.db.assignments, a)
	}
	return &a, nil
}

func (r *assignmentRepo) Delete(_ context.Context, id string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.assignmentIndex(id)
	if i < 0 {
		return false, nil
	}
	r.db.assignments = append(r.db.assignments[:i], r.db.assignments[i+1:]...)

	kept := r.db.submissions[:0]
	for _, s := range r.db.submissions {
		if s.AssignmentID != id {
			kept = append(kept, s)
		}
	}
	r.db.submissions = kept
	return true, nil
}

type submissionRepo struct{ db *DB }

func (r *submissionRepo) Get(_ context.Context, assignmentID, studentID string) (*models.AssignmentSubmission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, s := range r.db.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			out := cloneSubmission(s)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *submissionRepo) ListByAssignment(_ context.Context, assignmentID string) ([]models.AssignmentSubmission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.AssignmentSubmission, 0)
	for _, s := range r.db.submissions {
		if s.AssignmentID == assignmentID {
			out = append(out, cloneSubmission(s))
		}
	}
	return out, nil
}

func (r *submissionRepo) ListByStudent(_ context.Context, studentID string) ([]models.AssignmentSubmission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.AssignmentSubmission, 0)
	for _, s := range r.db.submissions {
		if s.StudentID == studentID {
			out = append(out, cloneSubmission(s))
		}
	}
	return out, nil
}

// Upsert matches on (AssignmentID, StudentID), never on the submission id.
func (r *submissionRepo) Upsert(_ context.Context, patch models.SubmissionPatch) (*models.AssignmentSubmission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.assignmentIndex(patch.AssignmentID) < 0 {
		return nil, fmt.Errorf("%w: assignment %s", repository.ErrInvalidReference, patch.AssignmentID)
	}
	if r.db.childIndex(patch.StudentID) < 0 {
		return nil, fmt.Errorf("%w: student %s", repository.ErrInvalidReference, patch.StudentID)
	}

	for i := range r.db.submissions {
		s := &r.db.submissions[i]
		if s.AssignmentID == patch.AssignmentID && s.StudentID == patch.StudentID {
			patch.Apply(s)
			out := cloneSubmission(*s)
			return &out, nil
		}
	}

	s := models.AssignmentSubmission{ID: r.db.newID(), AssignmentID: patch.AssignmentID, StudentID: patch.StudentID}
	patch.Apply(&s)
	r.db.submissions = append(r.db.submissions, s)
	out := cloneSubmission(s)
	return &out, nil
}

type gradeRepo struct{ db *DB }

func (r *gradeRepo) GetByID(_ context.Context, id string) (*models.GradeReportEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, g := range r.db.grades {
		if g.ID == id {
			out := g
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *gradeRepo) ListByStudent(_ context.Context, studentID string) ([]models.GradeReportEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.GradeReportEntry, 0)
	for _, g := range r.db.grades {
		if g.StudentID == studentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *gradeRepo) Upsert(_ context.Context, studentID string, entry models.GradeReportEntry, teacherID string) (*models.GradeReportEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.childIndex(studentID) < 0 {
		return nil, fmt.Errorf("%w: student %s", repository.ErrInvalidReference, studentID)
	}
	if r.db.subjectIndex(entry.SubjectID) < 0 {
		return nil, fmt.Errorf("%w: subject %s", repository.ErrInvalidReference, entry.SubjectID)
	}

	entry.StudentID = studentID
	entry.IssuedBy = teacherID
	if entry.ID == "" {
		entry.ID = r.db.newID()
	}
	for i := range r.db.grades {
		if r.db.grades[i].ID == entry.ID {
			if r.db.grades[i].StudentID != studentID {
				return nil, fmt.Errorf("%w: grade %s", repository.ErrOwnerMismatch, entry.ID)
			}
			r.db.grades[i] = entry
			return &entry, nil
		}
	}
	r.db.grades = append(r.db.grades, entry)
	return &entry, nil
}

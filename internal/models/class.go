package models

// SchoolClass is a class section owned by one teacher.
type SchoolClass struct {
	ID         string   `db:"id" json:"id"`
	Name       string   `db:"name" json:"name"`
	TeacherID  string   `db:"teacher_id" json:"teacherId"`
	StudentIDs []string `db:"-" json:"studentIds"`
}

// Clone returns a copy that shares no slices with c.
func (c SchoolClass) Clone() SchoolClass {
	c.StudentIDs = append([]string(nil), c.StudentIDs...)
	return c
}

// HasStudent reports whether childID is enrolled.
func (c SchoolClass) HasStudent(childID string) bool {
	for _, id := range c.StudentIDs {
		if id == childID {
			return true
		}
	}
	return false
}

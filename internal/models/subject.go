package models

import "time"

type Subject struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	ClassID      string     `db:"class_id" json:"classId"`
	TeacherID    string     `db:"teacher_id" json:"teacherId"`
	Progress     int        `db:"progress" json:"progress"`
	CurrentTopic string     `db:"current_topic" json:"currentTopic"`
	NextDeadline *time.Time `db:"next_deadline" json:"nextDeadline,omitempty"`
}

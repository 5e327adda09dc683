package models

// ParentDashboard is the landing view for a parent.
type ParentDashboard struct {
	Children            []ChildView      `json:"children"`
	UpcomingAssignments []AssignmentView `json:"upcomingAssignments"`
	UnreadNotifications int              `json:"unreadNotifications"`
	UnreadMessages      int              `json:"unreadMessages"`
}

// ClassOverview summarises one class for its teacher on the current day.
type ClassOverview struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentCount int    `json:"studentCount"`
	PresentToday int    `json:"presentToday"`
	AbsentToday  int    `json:"absentToday"`
	LateToday    int    `json:"lateToday"`
	ExcusedToday int    `json:"excusedToday"`
	Unmarked     int    `json:"unmarked"`
}

// TeacherDashboard is the landing view for a teacher.
type TeacherDashboard struct {
	Date                string          `json:"date"`
	Classes             []ClassOverview `json:"classes"`
	UnreadNotifications int             `json:"unreadNotifications"`
	UnreadMessages      int             `json:"unreadMessages"`
}

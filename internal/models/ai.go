package models

// AbsenceReportRequest is the parent's absence form.
type AbsenceReportRequest struct {
	ChildID           string `json:"childId" validate:"required"`
	ChildName         string `json:"childName" validate:"required,max=100"`
	Date              string `json:"date" validate:"required,isodate"`
	Reason            string `json:"reason" validate:"required,min=1,max=100"`
	AdditionalDetails string `json:"additionalDetails" validate:"max=500"`
}

// AbsenceReportInput is what the drafting flow sends to the model.
type AbsenceReportInput struct {
	ChildName         string   `json:"childName"`
	Date              string   `json:"date"`
	Reason            string   `json:"reason"`
	AdditionalDetails string   `json:"additionalDetails,omitempty"`
	PastReasons       []string `json:"pastReasons,omitempty"`
}

// AbsenceReportOutput is the drafted notification.
type AbsenceReportOutput struct {
	NotificationText string `json:"notificationText" validate:"required"`
}

// SubmitAbsenceReportRequest files a reviewed draft with the class teacher.
type SubmitAbsenceReportRequest struct {
	ChildID          string `json:"childId" validate:"required"`
	Date             string `json:"date" validate:"required,isodate"`
	NotificationText string `json:"notificationText" validate:"required,max=2000"`
}

// AcademicAdviceRequest asks for a progress summary of one child.
type AcademicAdviceRequest struct {
	ChildID   string `json:"childId" validate:"required"`
	ChildName string `json:"childName" validate:"required,max=100"`
}

// AcademicAdviceInput is the context handed to the advisor model.
type AcademicAdviceInput struct {
	ChildName    string            `json:"childName"`
	GradeReports []GradeReportView `json:"gradeReports"`
	Assignments  []AssignmentView  `json:"assignments"`
	Subjects     []Subject         `json:"subjects"`
}

// AcademicAdviceOutput is the advisor's structured reply.
type AcademicAdviceOutput struct {
	OverallSummary      string   `json:"overallSummary" validate:"required"`
	Strengths           []string `json:"strengths" validate:"required"`
	AreasForImprovement []string `json:"areasForImprovement" validate:"required"`
	SuggestedActivities []string `json:"suggestedActivities" validate:"required"`
}

package service

import (
	"bytes"
	"text/template"

	"github.com/noah-isme/eduattend-api/internal/models"
)

var absenceReportPrompt = template.Must(template.New("absence").Parse(`You are an assistant helping parents draft absence notifications for their child's school. The parent provides information about the absence and you write the complete notification text. Consider any past reasons for absence when wording the reason.

Child's Name: {{.ChildName}}
Date of Absence: {{.Date}}
Reason: {{.Reason}}
Additional Details: {{.AdditionalDetails}}
{{if .PastReasons}}
Past Reasons for Absence:
{{range .PastReasons}}- {{.}}
{{end}}{{end}}
Compose a concise and informative absence notification including the child's name, the date of absence and the reason. It should sound professional and considerate.

Respond with a JSON object: {"notificationText": string}.
`))

var academicAdvicePrompt = template.Must(template.New("advice").Parse(`You are an academic advisor for parents. Give supportive and constructive feedback based on the following data for {{.ChildName}}.

Grade Reports:
{{range .GradeReports}}- Subject: {{.SubjectName}}, Grade: {{.Grade}}, Feedback: "{{.TeacherFeedback}}", Term: {{.Term}}
{{else}}No grade reports available.
{{end}}
Recent Assignments:
{{range .Assignments}}- Subject: {{.SubjectName}}, Title: "{{.Title}}", Due: {{.DueDate.Format "2006-01-02"}}, Submitted: {{.Submitted}}{{if .Grade}}, Grade: {{.Grade}}{{else if not .Submitted}} (Pending Submission){{end}}
{{else}}No recent assignments available.
{{end}}
Syllabus Progress:
{{range .Subjects}}- Subject: {{.Name}}, Progress: {{.Progress}}%, Current Topic: "{{.CurrentTopic}}"
{{else}}No syllabus progress available.
{{end}}
Provide:
1. A concise overall summary of {{.ChildName}}'s academic standing.
2. A list of key strengths observed from the data.
3. A list of areas that could be targeted for improvement.
4. A list of actionable suggested activities for {{.ChildName}} and their parent.

Be positive and encouraging. Where data is sparse, say so and keep recommendations conservative. List items should be short and distinct.

Respond with a JSON object: {"overallSummary": string, "strengths": [string], "areasForImprovement": [string], "suggestedActivities": [string]}.
`))

func renderAbsencePrompt(in models.AbsenceReportInput) (string, error) {
	var buf bytes.Buffer
	if err := absenceReportPrompt.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderAdvicePrompt(in models.AcademicAdviceInput) (string, error) {
	var buf bytes.Buffer
	if err := academicAdvicePrompt.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

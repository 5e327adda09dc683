// Package seed holds the demo school loaded into the memory store at start.
package seed

import (
	"fmt"
	"time"

	"github.com/noah-isme/eduattend-api/internal/models"
)

// Dataset is a full set of store collections.
type Dataset struct {
	Users         []models.User
	Children      []models.Child
	Classes       []models.SchoolClass
	Subjects      []models.Subject
	Assignments   []models.Assignment
	Submissions   []models.AssignmentSubmission
	Attendance    []models.AttendanceRecord
	Grades        []models.GradeReportEntry
	Notifications []models.SchoolNotification
	Conversations []models.Conversation
}

// Well-known ids of the demo school.
const (
	ParentID      = "parent1"
	OtherParentID = "parent2"
	TeacherID     = "teacher1"
	OtherTeacher  = "teacher2"

	ClassGrade5A = "classGrade5A"
	ClassGrade3B = "classGrade3B"

	Child1 = "child1"
	Child2 = "child2"
	Child3 = "child3"

	SubjectMath5A    = "subjMath5A"
	SubjectScience5A = "subjScience5A"
	SubjectEnglish3B = "subjEnglish3B"

	AssignClass1 = "assignClass1"
	AssignClass2 = "assignClass2"
	AssignClass3 = "assignClass3"
)

func ptr[T any](v T) *T { return &v }

// Build returns the demo dataset with dates relative to now in loc. Every user
// gets passwordHash.
func Build(now time.Time, loc *time.Location, passwordHash string) Dataset {
	today := models.DayOf(now, loc)
	daysAgo := func(n int) time.Time { return today.AddDate(0, 0, -n) }
	monthDay := func(d int) time.Time { return time.Date(today.Year(), today.Month(), d, 0, 0, 0, 0, time.UTC) }

	ds := Dataset{
		Users: []models.User{
			{ID: ParentID, Name: "Jane Doe", Email: "jane.doe@example.com", Role: models.RoleParent, PasswordHash: passwordHash, AvatarURL: ptr("https://picsum.photos/100/100?random=user")},
			{ID: OtherParentID, Name: "Robert Brown", Email: "robert.brown@example.com", Role: models.RoleParent, PasswordHash: passwordHash},
			{ID: TeacherID, Name: "Ms. Davis", Email: "davis@school.example.com", Role: models.RoleTeacher, PasswordHash: passwordHash, AvatarURL: ptr("https://picsum.photos/100/100?random=teacher1")},
			{ID: OtherTeacher, Name: "Mr. Green", Email: "green@school.example.com", Role: models.RoleTeacher, PasswordHash: passwordHash, AvatarURL: ptr("https://picsum.photos/100/100?random=teacher2")},
		},
		Children: []models.Child{
			{ID: Child1, Name: "Alex Johnson", GradeLevel: "Grade 5", ClassID: ptr(ClassGrade5A), ParentID: ParentID, AvatarURL: ptr("https://picsum.photos/100/100?random=1")},
			{ID: Child2, Name: "Mia Williams", GradeLevel: "Grade 3", ClassID: ptr(ClassGrade3B), ParentID: ParentID, AvatarURL: ptr("https://picsum.photos/100/100?random=2")},
			{ID: Child3, Name: "Ethan Brown", GradeLevel: "Grade 5", ClassID: ptr(ClassGrade5A), ParentID: OtherParentID, AvatarURL: ptr("https://picsum.photos/100/100?random=3")},
		},
		Classes: []models.SchoolClass{
			{ID: ClassGrade5A, Name: "Grade 5A", TeacherID: TeacherID, StudentIDs: []string{Child1, Child3}},
			{ID: ClassGrade3B, Name: "Grade 3B", TeacherID: OtherTeacher, StudentIDs: []string{Child2}},
		},
		Subjects: []models.Subject{
			{ID: SubjectMath5A, Name: "Mathematics", ClassID: ClassGrade5A, TeacherID: TeacherID, Progress: 75, CurrentTopic: "Algebra Basics", NextDeadline: ptr(today.AddDate(0, 0, 7))},
			{ID: SubjectScience5A, Name: "Science", ClassID: ClassGrade5A, TeacherID: TeacherID, Progress: 60, CurrentTopic: "Photosynthesis", NextDeadline: ptr(today.AddDate(0, 0, 10))},
			{ID: SubjectEnglish3B, Name: "English", ClassID: ClassGrade3B, TeacherID: OtherTeacher, Progress: 85, CurrentTopic: "Reading Comprehension"},
		},
		Assignments: []models.Assignment{
			{ID: AssignClass1, SubjectID: SubjectMath5A, ClassID: ClassGrade5A, Title: "Algebra Worksheet 5", DueDate: today.AddDate(0, 0, 3), Description: "Complete all exercises on page 45.", CreatedBy: TeacherID},
			{ID: AssignClass2, SubjectID: SubjectScience5A, ClassID: ClassGrade5A, Title: "Plant Cell Diagram", DueDate: today.AddDate(0, 0, 5), Description: "Draw and label a plant cell.", CreatedBy: TeacherID},
			{ID: AssignClass3, SubjectID: SubjectEnglish3B, ClassID: ClassGrade3B, Title: "Book Report", DueDate: today.AddDate(0, 0, 12), Description: "One page on a book of your choice.", CreatedBy: OtherTeacher},
		},
		Submissions: []models.AssignmentSubmission{
			{ID: "sub1", AssignmentID: AssignClass1, StudentID: Child1, IsSubmitted: true, SubmittedDate: ptr(daysAgo(1)), Grade: ptr("A-"), Feedback: ptr("Neat work.")},
		},
		Grades: []models.GradeReportEntry{
			{ID: "gr1", StudentID: Child1, SubjectID: SubjectMath5A, Grade: "A", TeacherFeedback: "Excellent understanding of concepts. Keep up the great work!", Term: "Term 1", IssuedBy: TeacherID},
			{ID: "gr2", StudentID: Child1, SubjectID: SubjectScience5A, Grade: "B+", TeacherFeedback: "Good effort, needs to focus more on practical applications.", Term: "Term 1", IssuedBy: TeacherID},
			{ID: "gr3", StudentID: Child2, SubjectID: SubjectEnglish3B, Grade: "A-", TeacherFeedback: "Strong writing skills, participates well in discussions.", Term: "Term 1", IssuedBy: OtherTeacher},
			{ID: "gr4", StudentID: Child3, SubjectID: SubjectMath5A, Grade: "B", TeacherFeedback: "Shows interest, but needs to improve on test scores.", Term: "Term 1", IssuedBy: TeacherID},
		},
		Notifications: []models.SchoolNotification{
			{ID: "notif1", Title: "Emergency Drill Today", Date: now.UTC(), Content: "A fire drill will be conducted at 2 PM today.", Type: models.NotificationAlert, TargetAudience: models.AudienceAll},
			{ID: "notif2", Title: "Mia Williams marked absent", Date: now.UTC(), Content: "Mia Williams was marked absent on " + today.Format("January 02, 2006") + ".", Type: models.NotificationAbsence, TargetAudience: models.UserAudience(ParentID)},
			{ID: "notif3", Title: "Parent-Teacher Meeting Schedule", Date: now.UTC().AddDate(0, 0, -1), Content: "The schedule for upcoming parent-teacher meetings has been released.", Type: models.NotificationAnnouncement, TargetAudience: models.AudienceParents + "," + models.AudienceTeachers},
			{ID: "notif4", Title: "Grade 5A Field Trip", Date: now.UTC().AddDate(0, 0, -3), Content: "Permission slips for the museum trip are due Friday.", Type: models.NotificationAnnouncement, TargetAudience: models.ClassAudience(ClassGrade5A), Read: true},
		},
	}

	ds.Attendance = attendance(today, daysAgo, monthDay)
	ds.Conversations = conversations(now.UTC())
	return ds
}

type mark struct {
	child  string
	day    time.Time
	status models.AttendanceStatus
	notes  string
}

func attendance(today time.Time, daysAgo func(int) time.Time, monthDay func(int) time.Time) []models.AttendanceRecord {
	marks := []mark{
		{Child1, today, models.AttendancePresent, ""},
		{Child1, daysAgo(1), models.AttendancePresent, ""},
		{Child1, daysAgo(2), models.AttendanceLate, "Arrived 10 mins late."},
		{Child1, daysAgo(5), models.AttendanceExcused, "Doctor's appointment."},
		{Child1, monthDay(1), models.AttendanceAbsent, "Sick leave"},
		{Child2, today, models.AttendanceAbsent, "Fever"},
		{Child2, daysAgo(1), models.AttendancePresent, ""},
		{Child2, monthDay(5), models.AttendanceAbsent, "Family event"},
		{Child3, today, models.AttendancePresent, ""},
		{Child3, daysAgo(1), models.AttendancePresent, ""},
	}

	// Relative days can land on the same date early in a month; first mark wins.
	type key struct {
		child string
		day   time.Time
	}
	seen := make(map[key]bool, len(marks))
	out := make([]models.AttendanceRecord, 0, len(marks))
	for i, m := range marks {
		k := key{m.child, m.day}
		if seen[k] || m.day.After(today) {
			continue
		}
		seen[k] = true
		rec := models.AttendanceRecord{
			ID:       fmt.Sprintf("att%d", i+1),
			ChildID:  m.child,
			Date:     m.day,
			Status:   m.status,
			MarkedBy: ptr(teacherOf(m.child)),
		}
		if m.notes != "" {
			rec.Notes = ptr(m.notes)
		}
		out = append(out, rec)
	}
	return out
}

func teacherOf(childID string) string {
	if childID == Child2 {
		return OtherTeacher
	}
	return TeacherID
}

func conversations(now time.Time) []models.Conversation {
	parent := models.Participant{ID: ParentID, Name: "Jane Doe", Role: models.RoleParent}
	davis := models.Participant{ID: TeacherID, Name: "Ms. Davis", Role: models.RoleTeacher}
	green := models.Participant{ID: OtherTeacher, Name: "Mr. Green", Role: models.RoleTeacher}

	conv1 := models.Conversation{
		ID:                 "conv1",
		ParticipantIDs:     []string{ParentID, TeacherID},
		ParticipantDetails: []models.Participant{parent, davis},
		UnreadCounts:       map[string]int{},
	}
	conv1.Record(models.Message{ID: "msg1", ConversationID: "conv1", SenderID: TeacherID, Timestamp: now.Add(-60 * time.Minute), Text: "Hello, I wanted to discuss Alex's progress."})
	conv1.Record(models.Message{ID: "msg2", ConversationID: "conv1", SenderID: ParentID, Timestamp: now.Add(-45 * time.Minute), Text: "Hi Ms. Davis, sure. Also, could Alex get an extension for the math homework due tomorrow?"})
	conv1.Record(models.Message{ID: "msg3", ConversationID: "conv1", SenderID: TeacherID, Timestamp: now.Add(-30 * time.Minute), Text: "Yes, Alex can get an extension on the homework. Please submit it by Friday."})

	conv2 := models.Conversation{
		ID:                 "conv2",
		ParticipantIDs:     []string{ParentID, OtherTeacher},
		ParticipantDetails: []models.Participant{parent, green},
		UnreadCounts:       map[string]int{},
	}
	conv2.Record(models.Message{ID: "msg4", ConversationID: "conv2", SenderID: ParentID, Timestamp: now.Add(-25 * time.Hour), Text: "Hi Mr. Green, Mia was sick yesterday, just wanted to let you know."})
	conv2.Record(models.Message{ID: "msg5", ConversationID: "conv2", SenderID: OtherTeacher, Timestamp: now.Add(-24 * time.Hour), Text: "Thanks for the update on Mia. Hope she feels better soon!"})
	conv2.UnreadCounts[ParentID] = 0

	return []models.Conversation{conv1, conv2}
}

package httpapi

import (
	"time"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

type userView struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	IsAdmin    bool   `json:"is_admin"`
}

func viewUser(u *models.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, IsVerified: u.IsVerified, IsAdmin: u.IsAdmin}
}

type messageView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	AuthorID    int64     `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func viewMessage(m *models.Message) messageView {
	return messageView{m.ID, m.Title, m.Content, m.MessageType, m.AuthorID, m.AuthorName, m.CreatedAt}
}

func viewMessages(in []*models.Message) []messageView {
	out := make([]messageView, 0, len(in))
	for _, m := range in {
		out = append(out, viewMessage(m))
	}
	return out
}

type eventView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	CreatedBy   int64     `json:"created_by"`
	CreatorName string    `json:"creator_name"`
}

func viewEvent(e *models.Event) eventView {
	return eventView{e.ID, e.Title, e.Description, e.Date, e.Location, e.CreatedBy, e.CreatorName}
}

func viewEvents(in []*models.Event) []eventView {
	out := make([]eventView, 0, len(in))
	for _, e := range in {
		out = append(out, viewEvent(e))
	}
	return out
}

type faqView struct {
	ID          int64     `json:"id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	CreatedBy   int64     `json:"created_by"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func viewFAQ(f *models.FAQ) faqView {
	return faqView{f.ID, f.Question, f.Answer, f.CreatedBy, f.CreatorName, f.CreatedAt}
}

func viewFAQs(in []*models.FAQ) []faqView {
	out := make([]faqView, 0, len(in))
	for _, f := range in {
		out = append(out, viewFAQ(f))
	}
	return out
}

// resourceView omits the storage key.
type resourceView struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `json:"file_type"`
	UploadedBy   int64     `json:"uploaded_by"`
	UploaderName string    `json:"uploader_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func viewResource(r *models.Resource) resourceView {
	return resourceView{r.ID, r.Title, r.Description, r.FileName, r.FileSize, r.FileType, r.UploadedBy, r.UploaderName, r.CreatedAt}
}

func viewResources(in []*models.Resource) []resourceView {
	out := make([]resourceView, 0, len(in))
	for _, r := range in {
		out = append(out, viewResource(r))
	}
	return out
}

type alumniView struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	GraduationYear *int   `json:"graduation_year,omitempty"`
	Company        string `json:"company,omitempty"`
	Position       string `json:"position,omitempty"`
	IsActive       bool   `json:"is_active"`
}

func viewAlumnus(a *models.Alumni) alumniView {
	return alumniView{a.ID, a.FirstName, a.LastName, a.Email, a.GraduationYear, a.Company, a.Position, a.IsActive}
}

func viewAlumni(in []*models.Alumni) []alumniView {
	out := make([]alumniView, 0, len(in))
	for _, a := range in {
		out = append(out, viewAlumnus(a))
	}
	return out
}

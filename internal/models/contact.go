package models

import "time"

// Inquiry type choices for contact submissions
const (
	InquiryLecture       = "lecture"
	InquiryConsulting    = "consulting"
	InquiryCollaboration = "collaboration"
	InquiryMedia         = "media"
	InquiryGeneral       = "general"
	InquiryOther         = "other"
)

// InquiryTypeLabels maps inquiry type codes to their Korean display labels
var InquiryTypeLabels = map[string]string{
	InquiryLecture:       "강의 문의",
	InquiryConsulting:    "컨설팅 문의",
	InquiryCollaboration: "협업 제안",
	InquiryMedia:         "미디어/인터뷰 문의",
	InquiryGeneral:       "일반 문의",
	InquiryOther:         "기타",
}

// Contact represents a validated contact-form submission.
// IPAddress and UserAgent are always set server-side, never from the payload.
type Contact struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Email       string     `db:"email"`
	Company     string     `db:"company"`
	Phone       string     `db:"phone"`
	InquiryType string     `db:"inquiry_type"`
	Subject     string     `db:"subject"`
	Message     string     `db:"message"`
	IPAddress   string     `db:"ip_address"`
	UserAgent   string     `db:"user_agent"`
	CreatedAt   time.Time  `db:"created_at"`
	Processed   bool       `db:"processed"`
	ProcessedAt *time.Time `db:"processed_at"`
	ProcessedBy *string    `db:"processed_by"`
	Notes       string     `db:"notes"`
}

// InquiryTypeLabel returns the display label for the submission's inquiry type
func (c *Contact) InquiryTypeLabel() string {
	if label, ok := InquiryTypeLabels[c.InquiryType]; ok {
		return label
	}
	return InquiryTypeLabels[InquiryOther]
}

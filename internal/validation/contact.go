package validation

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/researcherhojin/emelmujiro/internal/models"
	"github.com/researcherhojin/emelmujiro/internal/security"
)

// Field limits for contact submissions
const (
	minNameLength    = 2
	maxNameLength    = 100
	maxEmailLength   = 254
	maxCompanyLength = 100
	minSubjectLength = 5
	maxSubjectLength = 200
	minMessageLength = 10
	maxMessageLength = 2000

	// Distinct promotional keywords needed to reject a message as spam
	spamKeywordThreshold = 2
)

var (
	// Letters, Korean syllables and spaces only
	nameRe = regexp.MustCompile(`^[a-zA-Z가-힣\s]+$`)

	// Korean mobile and landline numbers, hyphens optional
	phoneRe = regexp.MustCompile(`^(01[016789]|02|0[3-9][0-9]?)[-]?[0-9]{3,4}[-]?[0-9]{4}$`)

	// Address shapes that correlate strongly with throwaway or abusive
	// senders, matched against the whole lowercased address. The
	// repeated-character rule lives in hasRepeatedRun; RE2 has no
	// backreferences.
	suspiciousEmailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[0-9]{10,}`),
		regexp.MustCompile(`test.*test`),
		regexp.MustCompile(`spam|phishing|scam`),
	}
)

// Disposable email providers rejected outright
var disposableDomains = map[string]struct{}{
	"tempmail.org":      {},
	"10minutemail.com":  {},
	"guerrillamail.com": {},
}

// Promotional keywords; two or more distinct hits reject the message
var spamKeywords = []string{"대출", "투자", "수익", "홍보", "광고", "마케팅"}

// ContactInput carries the submitted fields through validation. Phone and
// company are optional; everything else is required.
type ContactInput struct {
	Name        string
	Email       string
	Company     string
	Phone       string
	InquiryType string
	Subject     string
	Message     string
}

// Result maps field names to every rule the field failed. Submitters get the
// complete list in one response instead of fixing errors one at a time.
type Result map[string][]string

func (r Result) add(field, message string) {
	r[field] = append(r[field], message)
}

func (r Result) Valid() bool {
	return len(r) == 0
}

// ValidateNewsletterEmail applies the same email rules the contact form
// uses. Newsletter signups share the disposable-domain and suspicious
// local-part screens.
func ValidateNewsletterEmail(email string) Result {
	result := Result{}
	validateEmail(result, email)
	return result
}

// ValidateContact runs every field rule and collects all failures.
func ValidateContact(input ContactInput) Result {
	result := Result{}

	validateName(result, input.Name)
	validateEmail(result, input.Email)
	validatePhone(result, input.Phone)
	validateInquiryType(result, input.InquiryType)
	validateSubject(result, input.Subject)
	validateCompany(result, input.Company)
	validateMessage(result, input.Message)

	return result
}

func validateName(result Result, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		result.add("name", "이름을 입력해주세요.")
		return
	}
	if len([]rune(name)) < minNameLength {
		result.add("name", "이름은 2자 이상 입력해주세요.")
	}
	if len(name) > maxNameLength {
		result.add("name", "이름이 너무 깁니다.")
	}
	if !nameRe.MatchString(name) {
		result.add("name", "이름은 한글 또는 영문만 입력 가능합니다.")
	}
}

func validateEmail(result Result, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		result.add("email", "이메일을 입력해주세요.")
		return
	}
	if len(email) > maxEmailLength {
		result.add("email", "이메일이 너무 깁니다.")
		return
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		result.add("email", "올바른 이메일 형식이 아닙니다.")
		return
	}

	lowered := strings.ToLower(email)
	_, domain, _ := strings.Cut(lowered, "@")

	if _, disposable := disposableDomains[domain]; disposable {
		result.add("email", "일회용 이메일 주소는 사용할 수 없습니다.")
	}

	if hasRepeatedRun(lowered, 6) {
		result.add("email", "사용할 수 없는 이메일 주소입니다.")
		return
	}
	for _, re := range suspiciousEmailPatterns {
		if re.MatchString(lowered) {
			result.add("email", "사용할 수 없는 이메일 주소입니다.")
			break
		}
	}
}

// hasRepeatedRun reports whether s contains n or more consecutive copies of
// the same rune.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func validatePhone(result Result, phone string) {
	// Whitespace anywhere in the number is cosmetic, not a format error
	phone = strings.Join(strings.Fields(phone), "")
	if phone == "" {
		return // optional
	}
	if !phoneRe.MatchString(phone) {
		result.add("phone", "올바른 전화번호 형식이 아닙니다.")
	}
}

func validateInquiryType(result Result, inquiryType string) {
	if inquiryType == "" {
		result.add("inquiry_type", "문의 유형을 선택해주세요.")
		return
	}
	if _, ok := models.InquiryTypeLabels[inquiryType]; !ok {
		result.add("inquiry_type", "올바르지 않은 문의 유형입니다.")
	}
}

func validateSubject(result Result, subject string) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		result.add("subject", "제목을 입력해주세요.")
		return
	}
	length := len([]rune(subject))
	if length < minSubjectLength {
		result.add("subject", "제목은 5자 이상 입력해주세요.")
	}
	if length > maxSubjectLength {
		result.add("subject", "제목이 너무 깁니다.")
	}
}

func validateCompany(result Result, company string) {
	if len([]rune(strings.TrimSpace(company))) > maxCompanyLength {
		result.add("company", "회사명이 너무 깁니다.")
	}
}

func validateMessage(result Result, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		result.add("message", "문의 내용을 입력해주세요.")
		return
	}

	length := len([]rune(message))
	if length < minMessageLength {
		result.add("message", "문의 내용은 10자 이상 입력해주세요.")
	}
	if length > maxMessageLength {
		result.add("message", "문의 내용은 2000자 이내로 입력해주세요.")
	}

	if security.ContainsSpamKeywords(message, spamKeywords, spamKeywordThreshold) {
		result.add("message", "광고성 문의는 접수할 수 없습니다.")
	}
}

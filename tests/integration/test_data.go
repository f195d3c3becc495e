package integration

import (
	"fmt"
	"sync/atomic"
	"time"
)

var emailSeq int64

// TestEmail generates a unique email address so per-email ceilings and
// unique constraints never collide across tests. The local part stays
// short on digits; long digit runs look like throwaway senders to the
// contact validator.
func TestEmail(suffix string) string {
	n := atomic.AddInt64(&emailSeq, 1)
	return fmt.Sprintf("visitor-%d-%d-%s@example.com", time.Now().Unix()%100000, n, suffix)
}

// TestAdmin returns credentials for a seeded admin account
func TestAdmin(suffix string) (email, password string) {
	return TestEmail("admin-" + suffix), "AdminPassword123!"
}

// ContactBody builds a valid contact submission payload
func ContactBody(email string) map[string]string {
	return map[string]string{
		"name":         "김철수",
		"email":        email,
		"company":      "테스트 주식회사",
		"inquiry_type": "lecture",
		"subject":      "기업 AI 교육 문의",
		"message":      "AI 교육 과정 관련 문의드립니다. 기업 대상 맞춤형 교육이 가능한지 궁금합니다.",
	}
}

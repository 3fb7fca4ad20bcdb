package orchestration

import (
	"fmt"
	"strings"

	"github.com/cardiacare/server/internal/domain"
)

// BuildPrompt wraps the patient's message with identity and medical history
// so specialists can tailor their answers. Without patient context the
// message is forwarded as-is.
func BuildPrompt(message string, pc *domain.PatientContext) string {
	if pc == nil {
		return message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s", pc.DisplayName())
	if len(pc.MedicalHistory) > 0 {
		fmt.Fprintf(&b, " (Medical History: %s)", strings.Join(pc.MedicalHistory, ", "))
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s", message)
	return b.String()
}

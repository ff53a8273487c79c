package tickets

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateTicketNumber returns TKT- followed by 12 hex digits of a fresh
// random UUID, e.g. TKT-9F2C41D07A3B.
func GenerateTicketNumber() string {
	id := uuid.New()
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}

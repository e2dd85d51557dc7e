package xid

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProductPrefix = "PRD"
	InvoicePrefix = "INV"
	ReportPrefix  = "RPT"
	UserPrefix    = "USR"
)

// New returns an identifier like INV-lq3k9x2a-4f1c9e02: the prefix, the
// current time in base36 milliseconds and eight random hex characters.
func New(prefix string) string {
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "-" + stamp + "-" + random
}

// Backup returns a random identifier for a stored backup.
func Backup() string {
	return uuid.NewString()
}

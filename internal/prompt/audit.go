package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/internal/models"
)

// AuditKind names which rhyme audit a review embeds
type AuditKind string

const (
	AuditMonorhyme AuditKind = "monorhyme"
	AuditCouplet   AuditKind = "couplet"
	AuditGeneric   AuditKind = "generic-flow"
)

const (
	monorhymeMarker = "AAAA"
	coupletMarker   = "AABB"
)

var auditTexts = map[AuditKind]string{
	AuditMonorhyme: "MONORHYME AUDIT (AAAA): every line of a stanza must end on the same sound. " +
		"List each stanza's end sounds and rewrite any line that breaks the chain.",
	AuditCouplet: "COUPLET AUDIT (AABB): lines rhyme in consecutive pairs. Check lines 1-2, 3-4 and so on, " +
		"and rewrite the weaker line of any pair that does not rhyme.",
	AuditGeneric: "FLOW AUDIT: no fixed scheme is enforced, so check that end sounds recur often enough " +
		"to feel musical and that no line stalls the flow or breaks the meter.",
}

// SelectRhymeAudit picks exactly one audit from the effective rhyme scheme.
// The monorhyme marker is checked before the couplet marker.
func SelectRhymeAudit(settings models.GenerationSettings) AuditKind {
	scheme := strings.ToUpper(settings.Effective(models.FieldRhymeScheme))
	switch {
	case strings.Contains(scheme, monorhymeMarker):
		return AuditMonorhyme
	case strings.Contains(scheme, coupletMarker):
		return AuditCouplet
	default:
		return AuditGeneric
	}
}

// Text returns the audit instruction
func (k AuditKind) Text() string {
	return auditTexts[k]
}

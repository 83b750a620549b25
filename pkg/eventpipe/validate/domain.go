package validate

import (
	"fmt"
	"regexp"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// knownDocStatuses is the document-status allow-list used by the ERP's
// merchandise flow (CD = distribution center, LOJA = store). Values
// outside the list downgrade to warnings: an unknown but well-formed
// status must not block processing.
var knownDocStatuses = map[string]bool{
	"PENDENTE":                    true,
	"PRE_BAIXA":                   true,
	"AGUARDANDO_CONFERENCIA_CD":   true,
	"EM_CONFERENCIA_CD":           true,
	"CONFERIDO_CD":                true,
	"EFETIVADO_CD":                true,
	"AGUARDANDO_SEPARACAO_CD":     true,
	"EM_SEPARACAO_CD":             true,
	"SEPARADO_PRE_DOCA":           true,
	"EMBARCADO_CD":                true,
	"EM_TRANSITO":                 true,
	"AGUARDANDO_CONFERENCIA_LOJA": true,
	"EM_CONFERENCIA_LOJA":         true,
	"CONFERIDO_LOJA":              true,
	"EFETIVADO_LOJA":              true,
	"CONCLUIDO":                   true,
	"CANCELADO":                   true,
	"DIVERGENCIA_CD":              true,
	"DIVERGENCIA_LOJA":            true,
	"DEVOLVIDO":                   true,
	"AGUARDANDO_DEVOLUCAO":        true,
	"EM_DEVOLUCAO":                true,
	"FATURADO":                    true,
	"AGUARDANDO_FATURAMENTO":      true,
	"BLOQUEADO":                   true,
}

// seasonPattern matches season codes: year plus spring/summer or
// autumn/winter, e.g. "2026-SS" or "2025-AW".
var seasonPattern = regexp.MustCompile(`^\d{4}-(SS|AW)$`)

// collectionYearSpread is how far a collection year may sit from the
// current year before it looks like a data-entry mistake.
const (
	collectionYearPast   = 2
	collectionYearFuture = 1
)

// domainFields runs stage 6: the optional banbanSpecific sub-fields.
// Everything here is a warning; the fields are advisory metadata.
func (v *Validator) domainFields(evt *event.Event, res *Result) {
	banban, ok := evt.Banban()
	if !ok {
		return
	}

	if banban.DocStatus != "" && !knownDocStatuses[banban.DocStatus] {
		res.addWarning("data.banbanSpecific.doc_status",
			fmt.Sprintf("unknown document status %q", banban.DocStatus),
			errors.CodeUnknownDocStatus)
	}

	if banban.Season != "" && !seasonPattern.MatchString(banban.Season) {
		res.addWarning("data.banbanSpecific.season",
			fmt.Sprintf("season %q does not match YYYY-SS or YYYY-AW", banban.Season),
			errors.CodeInvalidSeasonFormat)
	}

	if banban.CollectionYear != 0 {
		year := v.now().Year()
		if banban.CollectionYear < year-collectionYearPast ||
			banban.CollectionYear > year+collectionYearFuture {
			res.addWarning("data.banbanSpecific.collection_year",
				fmt.Sprintf("collection year %d is far from current year %d",
					banban.CollectionYear, year),
				errors.CodeUnusualCollectionYear)
		}
	}
}

// KnownDocStatuses returns the document-status allow-list.
func KnownDocStatuses() []string {
	out := make([]string, 0, len(knownDocStatuses))
	for s := range knownDocStatuses {
		out = append(out, s)
	}
	return out
}

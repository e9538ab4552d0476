package retrieval

import (
	"fmt"
	"strings"

	"lexrag/internal/domain"
)

// maxSynonymsPerTerm caps how many synonyms one matched domain term may
// contribute to the expanded query.
const maxSynonymsPerTerm = 3

type synonymEntry struct {
	term     string
	synonyms []string
}

// synonymTable maps legal domain terms to retrieval synonyms. Matching is a
// case-insensitive substring check against the raw question. Kept as an
// ordered slice so expansion output is deterministic.
var synonymTable = []synonymEntry{
	{"sentencia", []string{"fallo", "resolución", "decisión"}},
	{"fallo", []string{"sentencia", "resolución", "parte dispositiva"}},
	{"tribunal", []string{"juzgado", "corte", "sala"}},
	{"juez", []string{"magistrado", "juzgador", "tribunal"}},
	{"demandante", []string{"actor", "accionante", "parte actora"}},
	{"demandado", []string{"accionado", "parte demandada"}},
	{"indemnización", []string{"compensación", "resarcimiento", "reparación"}},
	{"contrato", []string{"convenio", "acuerdo", "pacto"}},
	{"recurso", []string{"apelación", "impugnación", "casación"}},
	{"prueba", []string{"evidencia", "medio probatorio"}},
	{"delito", []string{"ilícito", "infracción", "hecho punible"}},
	{"pena", []string{"sanción", "condena", "castigo"}},
	{"costas", []string{"gastos procesales", "costas judiciales"}},
	{"plazo", []string{"término", "vencimiento"}},
	{"ley", []string{"norma", "legislación", "precepto"}},
}

// intentPatterns maps each intent category to the lowercase fragments that
// trigger it. A question can match several categories at once.
var intentPatterns = map[domain.Intent][]string{
	domain.IntentDecision: {
		"decid", "resolv", "fall", "sentenc", "dictamin", "conden", "absolv", "estim",
	},
	domain.IntentParties: {
		"demandante", "demandado", "partes", "actor", "quién", "quien", "interviniente",
	},
	domain.IntentFacts: {
		"hecho", "ocurr", "suced", "pas", "antecedent", "relato",
	},
	domain.IntentLegalBasis: {
		"fundamento", "artículo", "articulo", "ley", "norma", "jurisprud", "base legal", "precepto",
	},
	domain.IntentAmount: {
		"monto", "cuantía", "cuantia", "importe", "indemniza", "suma", "cantidad", "pagar", "euros",
	},
}

// ExpandQuery enriches a raw question with domain synonyms and classifies its
// intent. Pure function: same question, same expansion.
func ExpandQuery(question string) (domain.Query, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return domain.Query{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	lower := strings.ToLower(trimmed)

	var additions []string
	seen := make(map[string]bool)
	for _, entry := range synonymTable {
		if !strings.Contains(lower, entry.term) {
			continue
		}
		added := 0
		for _, syn := range entry.synonyms {
			if added >= maxSynonymsPerTerm {
				break
			}
			if seen[syn] || strings.Contains(lower, strings.ToLower(syn)) {
				continue
			}
			seen[syn] = true
			additions = append(additions, syn)
			added++
		}
	}

	expanded := trimmed
	if len(additions) > 0 {
		expanded = trimmed + " " + strings.Join(additions, " ")
	}

	intents := make(map[domain.Intent]bool)
	for intent, patterns := range intentPatterns {
		for _, pattern := range patterns {
			if strings.Contains(lower, pattern) {
				intents[intent] = true
				break
			}
		}
	}
	if len(intents) == 0 {
		intents[domain.IntentGeneral] = true
	}

	return domain.Query{
		RawText:      trimmed,
		ExpandedText: expanded,
		Intents:      intents,
	}, nil
}

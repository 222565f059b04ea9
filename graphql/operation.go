package graphql

import (
	"strings"
)

// Kind of a GraphQL operation.
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
	KindSubscription
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindMutation:
		return "mutation"
	case KindSubscription:
		return "subscription"
	default:
		return "query"
	}
}

// DetectKind inspects the main operation definition of a GraphQL document and
// reports its kind. Comments are skipped; a shorthand document ("{ ... }") is a
// query per the GraphQL spec.
func DetectKind(document string) Kind {
	for _, line := range strings.Split(document, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		token := line
		if i := strings.IndexAny(line, " \t({"); i >= 0 {
			token = line[:i]
		}
		switch token {
		case "subscription":
			return KindSubscription
		case "mutation":
			return KindMutation
		default:
			return KindQuery
		}
	}
	return KindQuery
}

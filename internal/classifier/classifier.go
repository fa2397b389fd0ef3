package classifier

import (
	"fmt"

	"github.com/jmehdipour/agent-bridge/internal/model"
)

// Result is the classification of one envelope.
type Result struct {
	Kind       model.Kind
	Actionable bool
}

// Classify is pure and total: any envelope, including an empty one, yields a Result.
func Classify(env model.Envelope) Result {
	kind := model.ParseKind(env.Type)
	return Result{Kind: kind, Actionable: actionable(kind)}
}

// actionable must list every Kind; adding a Kind means deciding here. ParseKind only yields
// listed kinds, so the panic is reachable only from an unhandled new Kind.
func actionable(k model.Kind) bool {
	switch k {
	case model.KindSocialMedia:
		return true
	case model.KindPost, model.KindDirectoryItem, model.KindUnknown:
		return false
	}
	panic(fmt.Sprintf("classifier: no actionability decision for kind %d", int(k)))
}

package model

// Kind is the closed set of document discriminators the gateway knows about.
type Kind int

const (
	KindUnknown Kind = iota
	KindSocialMedia
	KindPost
	KindDirectoryItem

	numKinds
)

// Kinds returns every Kind, KindUnknown first.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := KindUnknown; k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	switch k {
	case KindSocialMedia:
		return "socialMedia"
	case KindPost:
		return "post"
	case KindDirectoryItem:
		return "directoryItem"
	default:
		return "unknown"
	}
}

// ParseKind maps a raw _type value to a Kind. Matching is exact; anything else is KindUnknown.
func ParseKind(s string) Kind {
	switch s {
	case "socialMedia":
		return KindSocialMedia
	case "post":
		return KindPost
	case "directoryItem":
		return KindDirectoryItem
	default:
		return KindUnknown
	}
}

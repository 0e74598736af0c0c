package standards

import (
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type NativeKind int

const (
	NativeString NativeKind = iota + 1
	NativeCode
	NativeFragment
)

// templatePlaceholder is replaced by the exchange symbol in templated channels.
const templatePlaceholder = "{}"

// NativeValue is an exchange-native channel or order option. Exactly one of
// Str, Code or Fragment is meaningful, selected by Kind.
type NativeValue struct {
	Kind     NativeKind
	Str      string
	Code     int64
	Fragment map[string]any
}

func StringValue(s string) NativeValue {
	return NativeValue{Kind: NativeString, Str: s}
}

func CodeValue(code int64) NativeValue {
	return NativeValue{Kind: NativeCode, Code: code}
}

func FragmentValue(fragment map[string]any) NativeValue {
	return NativeValue{Kind: NativeFragment, Fragment: fragment}
}

func (v NativeValue) IsZero() bool {
	return v.Kind == 0
}

func (v NativeValue) IsTemplate() bool {
	return v.Kind == NativeString && strings.Contains(v.Str, templatePlaceholder)
}

// Format returns the value as a subscription string, filling a template
// placeholder with symbol when present.
func (v NativeValue) Format(symbol string) string {
	if v.IsTemplate() {
		return strings.ReplaceAll(v.Str, templatePlaceholder, symbol)
	}

	return v.String()
}

func (v NativeValue) String() string {
	switch v.Kind {
	case NativeString:
		return v.Str
	case NativeCode:
		return strconv.FormatInt(v.Code, 10)
	case NativeFragment:
		keys := make([]string, 0, len(v.Fragment))
		for k := range v.Fragment {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v.Fragment[k]))
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// Any returns the bare Go value: string, int64 or map[string]any.
func (v NativeValue) Any() any {
	switch v.Kind {
	case NativeString:
		return v.Str
	case NativeCode:
		return v.Code
	case NativeFragment:
		return maps.Clone(v.Fragment)
	default:
		return nil
	}
}

func (v NativeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v NativeValue) clone() NativeValue {
	if v.Kind == NativeFragment {
		v.Fragment = maps.Clone(v.Fragment)
	}

	return v
}

type LookupState int

const (
	// LookupUnknown means the pair was never evaluated for the exchange.
	LookupUnknown LookupState = iota
	// LookupUnsupported means the exchange explicitly does not offer it.
	LookupUnsupported
	LookupFound
)

func (s LookupState) String() string {
	switch s {
	case LookupUnsupported:
		return "unsupported"
	case LookupFound:
		return "found"
	default:
		return "unknown"
	}
}

type Lookup struct {
	State LookupState
	Value NativeValue
}

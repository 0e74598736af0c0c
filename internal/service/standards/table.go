package standards

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/krobus00/feed-standards/internal/entity"
	"gopkg.in/yaml.v3"
)

const unsupportedTag = "!unsupported"

//go:embed data/*.yml
var embeddedTables embed.FS

type tableEntry struct {
	unsupported bool
	value       NativeValue
}

func (e *tableEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == unsupportedTag {
		e.unsupported = true
		return nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int":
			code, err := strconv.ParseInt(node.Value, 0, 64)
			if err != nil {
				return fmt.Errorf("line %d: invalid numeric code %q: %w", node.Line, node.Value, err)
			}
			e.value = CodeValue(code)
		case "!!str":
			if strings.TrimSpace(node.Value) == "" {
				return fmt.Errorf("line %d: empty native value", node.Line)
			}
			e.value = StringValue(node.Value)
		default:
			return fmt.Errorf("line %d: unsupported native value type %s", node.Line, node.ShortTag())
		}
	case yaml.MappingNode:
		var fragment map[string]any
		if err := node.Decode(&fragment); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		e.value = FragmentValue(fragment)
	default:
		return fmt.Errorf("line %d: native value must be a scalar or a mapping", node.Line)
	}

	return nil
}

type nativeTable[K ~string] map[K]map[entity.ExchangeName]tableEntry

func (t nativeTable[K]) lookup(key K, exchange entity.ExchangeName) Lookup {
	entry, ok := t[key][exchange]
	if !ok {
		return Lookup{State: LookupUnknown}
	}
	if entry.unsupported {
		return Lookup{State: LookupUnsupported}
	}

	return Lookup{State: LookupFound, Value: entry.value}
}

func (t nativeTable[K]) has(key K) bool {
	_, ok := t[key]
	return ok
}

func (t nativeTable[K]) keys() []K {
	keys := make([]K, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func (t nativeTable[K]) exchanges(key K) []entity.ExchangeName {
	names := make([]entity.ExchangeName, 0, len(t[key]))
	for name, entry := range t[key] {
		if entry.unsupported {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// ChannelTable maps a standard channel and exchange to the native channel.
type ChannelTable struct {
	entries nativeTable[entity.Channel]
}

func (t ChannelTable) Lookup(channel entity.Channel, exchange entity.ExchangeName) Lookup {
	return t.entries.lookup(channel, exchange)
}

func (t ChannelTable) Has(channel entity.Channel) bool {
	return t.entries.has(channel)
}

func (t ChannelTable) Channels() []entity.Channel {
	return t.entries.keys()
}

// OptionTable maps a standard order option and exchange to the native flag.
type OptionTable struct {
	entries nativeTable[entity.TradingOption]
}

func (t OptionTable) Lookup(option entity.TradingOption, exchange entity.ExchangeName) Lookup {
	return t.entries.lookup(option, exchange)
}

func (t OptionTable) Has(option entity.TradingOption) bool {
	return t.entries.has(option)
}

func (t OptionTable) Options() []entity.TradingOption {
	return t.entries.keys()
}

type TimestampClass int

const (
	// TimestampSeconds values are already epoch seconds and pass through.
	TimestampSeconds TimestampClass = iota
	TimestampGeneric
	TimestampMilliseconds
	TimestampMicroseconds
)

func (c TimestampClass) String() string {
	switch c {
	case TimestampGeneric:
		return "generic"
	case TimestampMilliseconds:
		return "milliseconds"
	case TimestampMicroseconds:
		return "microseconds"
	default:
		return "seconds"
	}
}

type TimestampClasses map[entity.ExchangeName]TimestampClass

type Quirks struct {
	Exempt          map[entity.ExchangeName]struct{}
	FundingExchange entity.ExchangeName
	FundingMarker   string
	SymbolChannels  map[entity.ExchangeName]struct{}
}

func (q Quirks) IsExempt(exchange entity.ExchangeName) bool {
	_, ok := q.Exempt[exchange]
	return ok
}

func (q Quirks) AcceptsSymbolChannel(exchange entity.ExchangeName) bool {
	_, ok := q.SymbolChannels[exchange]
	return ok
}

// fundingSymbol reports the marker-prefixed form of a single currency symbol.
func (q Quirks) fundingSymbol(symbol string, exchange entity.ExchangeName) (string, bool) {
	if q.FundingMarker == "" || exchange != q.FundingExchange {
		return "", false
	}
	if symbol == "" || strings.Contains(symbol, entity.SymbolSeparator) {
		return "", false
	}

	return q.FundingMarker + symbol, true
}

func (q Quirks) stripFunding(native string) (string, bool) {
	if q.FundingMarker == "" || len(native) <= len(q.FundingMarker) {
		return "", false
	}
	if !strings.HasPrefix(native, q.FundingMarker) {
		return "", false
	}

	return strings.TrimPrefix(native, q.FundingMarker), true
}

// Tables is the complete static configuration of the translation layer.
type Tables struct {
	Channels   ChannelTable
	Options    OptionTable
	Timestamps TimestampClasses
	Quirks     Quirks
}

// LoadTables reads channels.yml, options.yml, timestamps.yml and quirks.yml
// from dir, or from the embedded copy when dir is empty.
func LoadTables(dir string) (*Tables, error) {
	var fsys fs.FS
	if strings.TrimSpace(dir) == "" {
		sub, err := fs.Sub(embeddedTables, "data")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	return LoadTablesFS(fsys)
}

func LoadTablesFS(fsys fs.FS) (*Tables, error) {
	channels, err := loadNativeTable(fsys, "channels.yml", func(raw string) (entity.Channel, error) {
		channel := entity.Channel(raw)
		if !channel.Valid() {
			return "", fmt.Errorf("unknown channel %q", raw)
		}
		return channel, nil
	})
	if err != nil {
		return nil, err
	}

	options, err := loadNativeTable(fsys, "options.yml", func(raw string) (entity.TradingOption, error) {
		option := entity.TradingOption(raw)
		if !option.Valid() {
			return "", fmt.Errorf("unknown trading option %q", raw)
		}
		return option, nil
	})
	if err != nil {
		return nil, err
	}

	timestamps, err := loadTimestampClasses(fsys, "timestamps.yml")
	if err != nil {
		return nil, err
	}

	quirks, err := loadQuirks(fsys, "quirks.yml")
	if err != nil {
		return nil, err
	}

	return &Tables{
		Channels:   ChannelTable{entries: channels},
		Options:    OptionTable{entries: options},
		Timestamps: timestamps,
		Quirks:     quirks,
	}, nil
}

func loadNativeTable[K ~string](fsys fs.FS, name string, parseKey func(string) (K, error)) (nativeTable[K], error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var decoded map[string]map[string]tableEntry
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	table := make(nativeTable[K], len(decoded))
	for rawKey, perExchange := range decoded {
		key, err := parseKey(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		entries := make(map[entity.ExchangeName]tableEntry, len(perExchange))
		for rawExchange, entry := range perExchange {
			exchange := entity.ExchangeName(rawExchange)
			if !exchange.Valid() {
				return nil, fmt.Errorf("%s: %s: %w: %q", name, rawKey, ErrUnknownExchange, rawExchange)
			}
			entries[exchange] = entry
		}
		table[key] = entries
	}

	return table, nil
}

func loadTimestampClasses(fsys fs.FS, name string) (TimestampClasses, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var decoded struct {
		Generic      []string `yaml:"generic"`
		Milliseconds []string `yaml:"milliseconds"`
		Microseconds []string `yaml:"microseconds"`
		Seconds      []string `yaml:"seconds"`
	}
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	classes := make(TimestampClasses)
	assign := func(names []string, class TimestampClass) error {
		for _, rawExchange := range names {
			exchange := entity.ExchangeName(rawExchange)
			if !exchange.Valid() {
				return fmt.Errorf("%s: %w: %q", name, ErrUnknownExchange, rawExchange)
			}
			if existing, ok := classes[exchange]; ok {
				return fmt.Errorf("%s: %s listed as both %s and %s", name, exchange, existing, class)
			}
			classes[exchange] = class
		}
		return nil
	}

	if err := assign(decoded.Generic, TimestampGeneric); err != nil {
		return nil, err
	}
	if err := assign(decoded.Milliseconds, TimestampMilliseconds); err != nil {
		return nil, err
	}
	if err := assign(decoded.Microseconds, TimestampMicroseconds); err != nil {
		return nil, err
	}
	if err := assign(decoded.Seconds, TimestampSeconds); err != nil {
		return nil, err
	}

	return classes, nil
}

func loadQuirks(fsys fs.FS, name string) (Quirks, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Quirks{}, fmt.Errorf("read %s: %w", name, err)
	}

	var decoded struct {
		Exempt        []string `yaml:"exempt"`
		FundingPrefix struct {
			Exchange string `yaml:"exchange"`
			Marker   string `yaml:"marker"`
		} `yaml:"funding_prefix"`
		SymbolChannels []string `yaml:"symbol_channels"`
	}
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return Quirks{}, fmt.Errorf("parse %s: %w", name, err)
	}

	toSet := func(names []string) (map[entity.ExchangeName]struct{}, error) {
		set := make(map[entity.ExchangeName]struct{}, len(names))
		for _, rawExchange := range names {
			exchange := entity.ExchangeName(rawExchange)
			if !exchange.Valid() {
				return nil, fmt.Errorf("%s: %w: %q", name, ErrUnknownExchange, rawExchange)
			}
			set[exchange] = struct{}{}
		}
		return set, nil
	}

	exempt, err := toSet(decoded.Exempt)
	if err != nil {
		return Quirks{}, err
	}

	symbolChannels, err := toSet(decoded.SymbolChannels)
	if err != nil {
		return Quirks{}, err
	}

	quirks := Quirks{
		Exempt:         exempt,
		SymbolChannels: symbolChannels,
	}

	if decoded.FundingPrefix.Exchange != "" {
		exchange := entity.ExchangeName(decoded.FundingPrefix.Exchange)
		if !exchange.Valid() {
			return Quirks{}, fmt.Errorf("%s: funding_prefix: %w: %q", name, ErrUnknownExchange, decoded.FundingPrefix.Exchange)
		}
		if decoded.FundingPrefix.Marker == "" {
			return Quirks{}, errors.New(name + ": funding_prefix.marker is required")
		}
		quirks.FundingExchange = exchange
		quirks.FundingMarker = decoded.FundingPrefix.Marker
	}

	return quirks, nil
}

package reactive

import (
	"fmt"
	"strconv"
)

// KeyKind tags the variant held by a Key.
type KeyKind uint8

const (
	// KeyProp is a named record field.
	KeyProp KeyKind = iota + 1
	// KeyIndex is a position in a List.
	KeyIndex
	// KeyLength is the length of a List.
	KeyLength
	// KeyIterate stands for "the set of keys (or values) changed".
	KeyIterate
	// KeyMapKeys stands for "the key set of a Map changed". Reading only the
	// keys of a Map does not depend on its values.
	KeyMapKeys
	// KeyEntry is a Map key or Set member.
	KeyEntry
	// KeyValue is the single synthetic key of Computed and Ref cells.
	KeyValue
	// KeyRaw is the escape key: reading it returns the raw target.
	KeyRaw
)

// String returns a human-readable name for the key kind.
func (k KeyKind) String() string {
	switch k {
	case KeyProp:
		return "prop"
	case KeyIndex:
		return "index"
	case KeyLength:
		return "length"
	case KeyIterate:
		return "iterate"
	case KeyMapKeys:
		return "map-keys"
	case KeyEntry:
		return "entry"
	case KeyValue:
		return "value"
	case KeyRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Key identifies one observable slot of a target. It is a tagged union:
// only the field matching Kind is meaningful.
//
// Key is used as a map key, so Entry must hold a comparable value.
type Key struct {
	Kind  KeyKind
	Name  string
	Index int
	Entry any
}

// Synthetic keys.
var (
	LengthKey  = Key{Kind: KeyLength}
	IterateKey = Key{Kind: KeyIterate}
	MapKeysKey = Key{Kind: KeyMapKeys}
	ValueKey   = Key{Kind: KeyValue}
	RawKey     = Key{Kind: KeyRaw}
)

// Prop returns the key of a record field.
func Prop(name string) Key {
	return Key{Kind: KeyProp, Name: name}
}

// Index returns the key of a list position.
func Index(i int) Key {
	return Key{Kind: KeyIndex, Index: i}
}

// Entry returns the key of a map entry or set member.
func Entry(k any) Key {
	return Key{Kind: KeyEntry, Entry: k}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k.Kind {
	case KeyProp:
		return k.Name
	case KeyIndex:
		return strconv.Itoa(k.Index)
	case KeyEntry:
		return fmt.Sprintf("entry(%v)", k.Entry)
	default:
		return "<" + k.Kind.String() + ">"
	}
}

// OpKind classifies a mutation passed to trigger.
type OpKind uint8

const (
	// OpSet overwrites an existing key.
	OpSet OpKind = iota + 1
	// OpAdd creates a key that did not exist.
	OpAdd
	// OpDelete removes an existing key.
	OpDelete
	// OpClear removes every key of a collection.
	OpClear
)

// String returns the operation name.
func (op OpKind) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

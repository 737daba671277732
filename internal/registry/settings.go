// Package registry is the controller: the in-memory graph binding
// settings, effects, LED strip segments, and device connections together,
// and the operations that keep that graph consistent as the config or
// filesystem changes underneath it.
package registry

import "encoding/json"

// SettingKind tags a Settings value's variant.
type SettingKind int

const (
	SettingKindNative SettingKind = iota
	SettingKindLua
)

// Settings is the parameters backing one effect instance: either nothing
// (a native effect manages its own state internally) or a Lua table
// handed to the scripted effect at creation time.
type Settings struct {
	Kind SettingKind
	Lua  json.RawMessage
}

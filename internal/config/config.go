// SPDX-License-Identifier: MIT
//
// Package config loads and validates the settings file that drives the
// whole pipeline: device selection, effect wiring, device output bindings.
// Parsing itself lives in load.go; this file defines the validated shape.
package config

import (
	"encoding/json"
	"fmt"
)

// Config is the validated settings-file record. Every field maps directly
// to a top-level JSON key; unknown keys are rejected by the loader.
type Config struct {
	LuaEffectsFolder  string              `json:"lua_effects_folder"`
	DeviceName        *string             `json:"device_name,omitempty"`
	SampleRate        uint                `json:"sample_rate"`
	StreamConnections []StreamConnection  `json:"stream_connections"`
	EffectSettings    []EffectSettingSpec `json:"effect_settings"`
	Effects           []EffectSpec        `json:"effects"`
	Devices           []DeviceSpec        `json:"devices"`
	LedStrips         []LedStripSpec      `json:"ledstrips"`
	GeneralPlugins    []string            `json:"general_plugins"`
}

// PortPair is one explicit (out, in) port mapping within a stream connection.
type PortPair struct {
	Out string `json:"out"`
	In  string `json:"in"`
}

// PortConnections is either the literal string "AllInOrder" or an explicit
// list of PortPair mappings. Interpretation of either form is out of core
// scope (owned by the external audio-graph router); this type only needs
// to round-trip the shape.
type PortConnections struct {
	AllInOrder bool
	Pairs      []PortPair
}

func (p *PortConnections) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		if literal != "AllInOrder" {
			return fmt.Errorf("config: unknown port_connections literal %q", literal)
		}
		p.AllInOrder = true
		return nil
	}

	var pairs []PortPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("config: port_connections must be \"AllInOrder\" or a pair list: %w", err)
	}
	p.Pairs = pairs
	return nil
}

func (p PortConnections) MarshalJSON() ([]byte, error) {
	if p.AllInOrder {
		return json.Marshal("AllInOrder")
	}
	return json.Marshal(p.Pairs)
}

// StreamConnection patches a capture stream between two producer/consumer
// applications in the external audio-graph router. Interpretation is out
// of core scope.
type StreamConnection struct {
	OutputStream    string          `json:"output_stream"`
	InputStream     string          `json:"input_stream"`
	PortConnections PortConnections `json:"port_connections"`
}

// SettingKind tags an EffectSettingSpec's payload.
type SettingKind int

const (
	SettingKindLua SettingKind = iota
	SettingKindNative
)

// EffectSettingSpec is one `{id, setting}` entry. setting is a tagged
// variant: `{"Lua": <json-blob>}` or the bare string `"Native"`.
type EffectSettingSpec struct {
	ID      int
	Kind    SettingKind
	LuaBlob json.RawMessage // present only when Kind == SettingKindLua
}

func (s *EffectSettingSpec) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID      int             `json:"id"`
		Setting json.RawMessage `json:"setting"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.ID = wire.ID

	var asString string
	if err := json.Unmarshal(wire.Setting, &asString); err == nil {
		if asString != "Native" {
			return fmt.Errorf("config: effect_settings[%d]: unknown setting %q", wire.ID, asString)
		}
		s.Kind = SettingKindNative
		return nil
	}

	var tagged struct {
		Lua json.RawMessage `json:"Lua"`
	}
	if err := json.Unmarshal(wire.Setting, &tagged); err != nil {
		return fmt.Errorf("config: effect_settings[%d]: %w", wire.ID, err)
	}
	if tagged.Lua == nil {
		return fmt.Errorf("config: effect_settings[%d]: setting must be \"Native\" or {\"Lua\": ...}", wire.ID)
	}
	s.Kind = SettingKindLua
	s.LuaBlob = tagged.Lua
	return nil
}

// EffectKind tags an EffectSpec's payload.
type EffectKind int

const (
	EffectKindLua EffectKind = iota
	EffectKindNative
)

// EffectSpec is one `{effect_id, settings_id, effect}` entry. effect is a
// tagged variant: `{"Lua": "<relative path>"}` or `{"Native": "<path>"}`.
type EffectSpec struct {
	EffectID   int
	SettingsID int
	Kind       EffectKind
	Path       string
}

func (e *EffectSpec) UnmarshalJSON(data []byte) error {
	var wire struct {
		EffectID   int             `json:"effect_id"`
		SettingsID int             `json:"settings_id"`
		Effect     json.RawMessage `json:"effect"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.EffectID = wire.EffectID
	e.SettingsID = wire.SettingsID

	var tagged struct {
		Lua    *string `json:"Lua"`
		Native *string `json:"Native"`
	}
	if err := json.Unmarshal(wire.Effect, &tagged); err != nil {
		return fmt.Errorf("config: effects[%d]: %w", wire.EffectID, err)
	}
	switch {
	case tagged.Lua != nil:
		e.Kind = EffectKindLua
		e.Path = *tagged.Lua
	case tagged.Native != nil:
		e.Kind = EffectKindNative
		e.Path = *tagged.Native
	default:
		return fmt.Errorf("config: effects[%d]: effect must be {\"Lua\": path} or {\"Native\": path}", wire.EffectID)
	}
	return nil
}

// ConnectionKind tags a DeviceSpec's payload.
type ConnectionKind int

const (
	ConnectionKindTCP ConnectionKind = iota
	ConnectionKindUSB
)

// DeviceSpec is one `{id, connection}` entry. connection is a tagged
// variant: `{"Tcp": "<addr>:<port>"}` or the bare string `"Usb"`.
type DeviceSpec struct {
	ID      int
	Kind    ConnectionKind
	TCPAddr string // present only when Kind == ConnectionKindTCP
}

func (d *DeviceSpec) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID         int             `json:"id"`
		Connection json.RawMessage `json:"connection"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	d.ID = wire.ID

	var asString string
	if err := json.Unmarshal(wire.Connection, &asString); err == nil {
		if asString != "Usb" {
			return fmt.Errorf("config: devices[%d]: unknown connection %q", wire.ID, asString)
		}
		d.Kind = ConnectionKindUSB
		return nil
	}

	var tagged struct {
		Tcp *string `json:"Tcp"`
	}
	if err := json.Unmarshal(wire.Connection, &tagged); err != nil {
		return fmt.Errorf("config: devices[%d]: %w", wire.ID, err)
	}
	if tagged.Tcp == nil {
		return fmt.Errorf("config: devices[%d]: connection must be \"Usb\" or {\"Tcp\": addr}", wire.ID)
	}
	d.Kind = ConnectionKindTCP
	d.TCPAddr = *tagged.Tcp
	return nil
}

// LedStripEffectSpec binds a contiguous run of LEDs to an effect.
type LedStripEffectSpec struct {
	EffectID   int `json:"effect_id"`
	EffectSize int `json:"effect_size"`
}

// LedStripSpec is one `{id, connection_id, size, effects}` entry.
type LedStripSpec struct {
	ID           int                  `json:"id"`
	ConnectionID int                  `json:"connection_id"`
	Size         int                  `json:"size"`
	Effects      []LedStripEffectSpec `json:"effects"`
}

// Validate checks structural invariants the JSON decoder can't express:
// every settings_id an effect references must exist, every connection_id
// a ledstrip references must exist, and ledstrip segment sizes must not
// overflow the strip. Checking this up front rejects a malformed file at
// startup rather than partway through wiring the registry.
func (c *Config) Validate() error {
	if c.LuaEffectsFolder == "" {
		return fmt.Errorf("config: lua_effects_folder is required")
	}
	if c.SampleRate == 0 {
		return fmt.Errorf("config: sample_rate must be positive")
	}

	settingIDs := make(map[int]struct{}, len(c.EffectSettings))
	for _, s := range c.EffectSettings {
		settingIDs[s.ID] = struct{}{}
	}
	for _, e := range c.Effects {
		if _, ok := settingIDs[e.SettingsID]; !ok {
			return fmt.Errorf("config: effect %d references missing settings_id %d", e.EffectID, e.SettingsID)
		}
	}

	connectionIDs := make(map[int]struct{}, len(c.Devices))
	for _, d := range c.Devices {
		connectionIDs[d.ID] = struct{}{}
	}
	for _, ls := range c.LedStrips {
		if _, ok := connectionIDs[ls.ConnectionID]; !ok {
			return fmt.Errorf("config: ledstrip %d references missing connection_id %d", ls.ID, ls.ConnectionID)
		}
		used := 0
		for _, e := range ls.Effects {
			used += e.EffectSize
			if used > ls.Size {
				return fmt.Errorf("config: ledstrip %d: effects overflow strip size %d", ls.ID, ls.Size)
			}
		}
	}

	return nil
}

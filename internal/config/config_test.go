package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const sampleSettings = `{
	"lua_effects_folder": "effects/lua",
	"device_name": "default",
	"sample_rate": 44100,
	"stream_connections": [
		{"output_stream": "system", "input_stream": "ledctl", "port_connections": "AllInOrder"},
		{"output_stream": "system", "input_stream": "ledctl2", "port_connections": [{"out": "L", "in": "R"}]}
	],
	"effect_settings": [
		{"id": 1, "setting": "Native"},
		{"id": 2, "setting": {"Lua": {"speed": 2.5}}}
	],
	"effects": [
		{"effect_id": 1, "settings_id": 1, "effect": {"Native": "effects/native/pulse.so"}},
		{"effect_id": 2, "settings_id": 2, "effect": {"Lua": "rain.lua"}}
	],
	"devices": [
		{"id": 1, "connection": {"Tcp": "127.0.0.1:9000"}},
		{"id": 2, "connection": "Usb"}
	],
	"ledstrips": [
		{"id": 1, "connection_id": 1, "size": 100, "effects": [{"effect_id": 1, "effect_size": 50}]}
	],
	"general_plugins": ["plugins/telemetry.so"]
}`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Settings.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadValidSettings(t *testing.T) {
	path := writeTemp(t, sampleSettings)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if len(cfg.StreamConnections) != 2 {
		t.Fatalf("StreamConnections len = %d, want 2", len(cfg.StreamConnections))
	}
	if !cfg.StreamConnections[0].PortConnections.AllInOrder {
		t.Error("StreamConnections[0] should be AllInOrder")
	}
	if got := cfg.StreamConnections[1].PortConnections.Pairs; len(got) != 1 || got[0].Out != "L" {
		t.Errorf("StreamConnections[1] pairs = %+v", got)
	}

	if len(cfg.EffectSettings) != 2 {
		t.Fatalf("EffectSettings len = %d", len(cfg.EffectSettings))
	}
	if cfg.EffectSettings[0].Kind != SettingKindNative {
		t.Errorf("EffectSettings[0].Kind = %v, want Native", cfg.EffectSettings[0].Kind)
	}
	if cfg.EffectSettings[1].Kind != SettingKindLua {
		t.Errorf("EffectSettings[1].Kind = %v, want Lua", cfg.EffectSettings[1].Kind)
	}
	var blob struct {
		Speed float64 `json:"speed"`
	}
	if err := json.Unmarshal(cfg.EffectSettings[1].LuaBlob, &blob); err != nil {
		t.Fatalf("unmarshal Lua blob: %v", err)
	}
	if blob.Speed != 2.5 {
		t.Errorf("blob.Speed = %v, want 2.5", blob.Speed)
	}

	if cfg.Effects[0].Kind != EffectKindNative || cfg.Effects[0].Path != "effects/native/pulse.so" {
		t.Errorf("Effects[0] = %+v", cfg.Effects[0])
	}
	if cfg.Effects[1].Kind != EffectKindLua || cfg.Effects[1].Path != "rain.lua" {
		t.Errorf("Effects[1] = %+v", cfg.Effects[1])
	}

	if cfg.Devices[0].Kind != ConnectionKindTCP || cfg.Devices[0].TCPAddr != "127.0.0.1:9000" {
		t.Errorf("Devices[0] = %+v", cfg.Devices[0])
	}
	if cfg.Devices[1].Kind != ConnectionKindUSB {
		t.Errorf("Devices[1] = %+v", cfg.Devices[1])
	}

	if len(cfg.LedStrips) != 1 || cfg.LedStrips[0].Size != 100 {
		t.Errorf("LedStrips = %+v", cfg.LedStrips)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeTemp(t, `{
		"lua_effects_folder": "effects/lua",
		"sample_rate": 44100,
		"stream_connections": [],
		"effect_settings": [],
		"effects": [],
		"devices": [],
		"ledstrips": [],
		"general_plugins": [],
		"unknown_field": true
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for unknown field, got nil")
	}
}

func TestLoadRejectsMissingSettingsID(t *testing.T) {
	path := writeTemp(t, `{
		"lua_effects_folder": "effects/lua",
		"sample_rate": 44100,
		"stream_connections": [],
		"effect_settings": [],
		"effects": [{"effect_id": 1, "settings_id": 99, "effect": {"Native": "x.so"}}],
		"devices": [],
		"ledstrips": [],
		"general_plugins": []
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for missing settings_id, got nil")
	}
}

func TestLoadRejectsOverflowingLedStrip(t *testing.T) {
	path := writeTemp(t, `{
		"lua_effects_folder": "effects/lua",
		"sample_rate": 44100,
		"stream_connections": [],
		"effect_settings": [{"id": 1, "setting": "Native"}],
		"effects": [{"effect_id": 1, "settings_id": 1, "effect": {"Native": "x.so"}}],
		"devices": [{"id": 1, "connection": "Usb"}],
		"ledstrips": [{"id": 1, "connection_id": 1, "size": 10, "effects": [{"effect_id": 1, "effect_size": 20}]}],
		"general_plugins": []
	}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for overflowing ledstrip, got nil")
	}
}

func TestPortConnectionsRoundTrip(t *testing.T) {
	var p PortConnections
	if err := json.Unmarshal([]byte(`"AllInOrder"`), &p); err != nil {
		t.Fatalf("unmarshal literal: %v", err)
	}
	if !p.AllInOrder {
		t.Error("expected AllInOrder = true")
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"AllInOrder"` {
		t.Errorf("marshal = %s, want %q", out, "AllInOrder")
	}
}

package registry

import (
	"fmt"
	"path/filepath"

	"ledctl/internal/device"
	"ledctl/internal/ledstrip"
	applog "ledctl/internal/log"
	"ledctl/internal/pluginhost"
)

// effectBinding is one live effect instance plus the bookkeeping needed
// to evict and recreate it on hot reload.
type effectBinding struct {
	effectID   int
	settingsID int
	path       string
	native     bool
	effect     pluginhost.Effect
}

// Controller is the in-memory graph binding settings, effect instances,
// LED strip segments, and device connections, kept consistent as
// AddEffect / AddLedStrip / hot reload events mutate it. It is not safe
// for concurrent use by more than one tick engine goroutine; callers
// serialize access the same way the original single-threaded tick loop
// does.
type Controller struct {
	host *pluginhost.Host

	settings    map[int]Settings
	effects     map[int]*effectBinding
	connections map[int]device.Connection
	senders     map[int]*device.Sender
	ledStrips   map[int]*ledstrip.Strip
	stripConn   map[int]int // ledstrip id -> connection id

	general []*pluginhost.GeneralPlugin

	pathIndex map[string][]int // shared object / script path -> effect ids loaded from it
}

// New creates an empty Controller bound to host for loading effects.
func New(host *pluginhost.Host) *Controller {
	return &Controller{
		host:        host,
		settings:    make(map[int]Settings),
		effects:     make(map[int]*effectBinding),
		connections: make(map[int]device.Connection),
		senders:     make(map[int]*device.Sender),
		ledStrips:   make(map[int]*ledstrip.Strip),
		stripConn:   make(map[int]int),
		pathIndex:   make(map[string][]int),
	}
}

// AddSettings registers a settings record under id.
func (c *Controller) AddSettings(id int, s Settings) {
	c.settings[id] = s
}

// AddEffect loads a native or scripted effect from path and registers it
// under effectID, bound to the previously added settingsID.
func (c *Controller) AddEffect(effectID, settingsID int, path string, native bool, interp pluginhost.Interpreter) error {
	if _, ok := c.effects[effectID]; ok {
		return fmt.Errorf("registry: effect %d already registered, refusing to overwrite", effectID)
	}
	if _, ok := c.settings[settingsID]; !ok {
		return fmt.Errorf("registry: effect %d references unknown settings %d", effectID, settingsID)
	}

	var eff pluginhost.Effect
	if native {
		ne, err := c.host.LoadNativeEffect(path)
		if err != nil {
			return fmt.Errorf("registry: loading effect %d: %w", effectID, err)
		}
		eff = ne
	} else {
		eff = c.host.LoadScriptEffect(path, interp)
	}

	c.effects[effectID] = &effectBinding{
		effectID:   effectID,
		settingsID: settingsID,
		path:       path,
		native:     native,
		effect:     eff,
	}
	c.pathIndex[watchKey(path)] = append(c.pathIndex[watchKey(path)], effectID)
	return nil
}

// watchKey canonicalizes path the same way the filesystem watcher
// reports changed paths (reload.Watcher always emits filepath.Abs'd
// names), so pathIndex lookups match regardless of whether the
// settings file named the effect with a relative or absolute path.
func watchKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// AddGeneralPlugin loads a sidecar plugin that observes the spectrum
// each tick but never touches an LED strip.
func (c *Controller) AddGeneralPlugin(path string) error {
	g, err := c.host.LoadGeneralPlugin(path)
	if err != nil {
		return fmt.Errorf("registry: loading general plugin %s: %w", path, err)
	}
	c.general = append(c.general, g)
	return nil
}

// TickGeneralPlugins runs one frame of every loaded general plugin. A
// single misbehaving plugin is logged and skipped rather than aborting
// the whole tick.
func (c *Controller) TickGeneralPlugins() []error {
	var errs []error
	for _, g := range c.general {
		if err := c.host.TickGeneral(g); err != nil {
			errs = append(errs, fmt.Errorf("registry: general plugin tick: %w", err))
		}
	}
	return errs
}

// AddConnection registers a device connection under id.
func (c *Controller) AddConnection(id int, conn device.Connection) {
	c.connections[id] = conn
	if conn.Kind == device.KindTCP {
		c.senders[id] = device.NewTCPSender(conn.Addr)
	}
}

// AddLedStrip creates a strip of the given size under id.
func (c *Controller) AddLedStrip(id, size int) {
	c.ledStrips[id] = ledstrip.New(size)
}

// LinkLedStripToConnection binds a previously added strip to a
// previously added connection.
func (c *Controller) LinkLedStripToConnection(ledStripID, connectionID int) error {
	if _, ok := c.ledStrips[ledStripID]; !ok {
		return fmt.Errorf("registry: unknown ledstrip %d", ledStripID)
	}
	if _, ok := c.connections[connectionID]; !ok {
		return fmt.Errorf("registry: unknown connection %d", connectionID)
	}
	c.stripConn[ledStripID] = connectionID
	return nil
}

// AssignEffectToLedStrip claims the next free segment of ledStripID for
// effectID, of the given LED count. It reports false, without error,
// when the strip doesn't have enough free LEDs left.
func (c *Controller) AssignEffectToLedStrip(ledStripID, effectID, ledCount int) (bool, error) {
	strip, ok := c.ledStrips[ledStripID]
	if !ok {
		return false, fmt.Errorf("registry: unknown ledstrip %d", ledStripID)
	}
	if _, ok := c.effects[effectID]; !ok {
		return false, fmt.Errorf("registry: unknown effect %d", effectID)
	}
	return strip.AddEffect(effectID, ledCount), nil
}

// UpdateLedStrips ticks every effect into its assigned strip segment.
// A single misbehaving effect is logged and skipped rather than
// aborting the whole tick.
func (c *Controller) UpdateLedStrips() []error {
	var errs []error
	for _, strip := range c.ledStrips {
		for _, binding := range c.effects {
			segment, ok := strip.SegmentFor(binding.effectID)
			if !ok {
				continue
			}
			if err := c.host.TickEffect(binding.effect, segment); err != nil {
				errs = append(errs, fmt.Errorf("registry: effect %d tick: %w", binding.effectID, err))
			}
		}
	}
	return errs
}

// SendLedStripColors packs every strip bound to a connection and sends
// it to that connection's sender. A sender that has exhausted its
// connect retry budget is evicted: its connection and strip binding are
// dropped so this and every later tick skip it silently, rather than
// queuing frames a dead sender will never deliver.
func (c *Controller) SendLedStripColors() {
	for ledStripID, strip := range c.ledStrips {
		connID, ok := c.stripConn[ledStripID]
		if !ok {
			continue
		}
		sender, ok := c.senders[connID]
		if !ok {
			continue
		}

		select {
		case <-sender.Dead():
			applog.Warnf("registry: connection %d unreachable, evicting and unbinding ledstrip %d", connID, ledStripID)
			c.evictConnection(connID)
			continue
		default:
		}

		sender.Send(strip.Bytes())
	}
}

// evictConnection drops connID's sender and connection, and unbinds
// every ledstrip currently routed to it.
func (c *Controller) evictConnection(connID int) {
	if sender, ok := c.senders[connID]; ok {
		sender.Close()
		delete(c.senders, connID)
	}
	delete(c.connections, connID)

	for ledStripID, boundConnID := range c.stripConn {
		if boundConnID == connID {
			delete(c.stripConn, ledStripID)
		}
	}
}

// CheckHotReload evicts and reloads every effect loaded from one of the
// given changed paths, in destroy -> reload -> recreate order so a
// library is never unloaded while an instance from it is still live. A
// path mixing native and scripted effects registered under it is logged
// and skipped: that shape means a misconfigured settings file, not
// something this pass can safely resolve on its own.
func (c *Controller) CheckHotReload(changedPaths []string, interp pluginhost.Interpreter) []error {
	var errs []error
	for _, path := range changedPaths {
		ids, ok := c.pathIndex[watchKey(path)]
		if !ok || len(ids) == 0 {
			continue
		}

		native := c.effects[ids[0]].native
		mixed := false
		for _, id := range ids {
			if c.effects[id].native != native {
				mixed = true
				break
			}
		}
		if mixed {
			errs = append(errs, fmt.Errorf("registry: path %s mixes native and scripted effects, skipping reload", path))
			continue
		}

		for _, id := range ids {
			binding := c.effects[id]
			if err := binding.effect.Close(); err != nil {
				errs = append(errs, fmt.Errorf("registry: closing effect %d for reload: %w", id, err))
			}
		}

		for _, id := range ids {
			binding := c.effects[id]
			var eff pluginhost.Effect
			var err error
			if native {
				eff, err = c.host.LoadNativeEffect(path)
			} else {
				eff = c.host.LoadScriptEffect(path, interp)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("registry: reloading effect %d: %w", id, err))
				continue
			}
			binding.effect = eff
		}
	}
	return errs
}

// StripCount returns the number of LED strips currently registered.
func (c *Controller) StripCount() int {
	return len(c.ledStrips)
}

// WatchedPaths returns every distinct plugin path this controller has
// loaded an effect from, for seeding a filesystem watcher.
func (c *Controller) WatchedPaths() []string {
	paths := make([]string, 0, len(c.pathIndex))
	for p := range c.pathIndex {
		paths = append(paths, p)
	}
	return paths
}

// Close tears down every live effect, general plugin, and device sender.
func (c *Controller) Close() {
	for _, binding := range c.effects {
		binding.effect.Close()
	}
	for _, g := range c.general {
		g.Close()
	}
	for _, sender := range c.senders {
		sender.Close()
	}
}

package combi

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type Config map[string]*cfgVal

// NewConfig creates a configuration primed with the default value of
// every setting engines understand.
func NewConfig() *Config {
	m := make(Config)
	// store results in the packrat cache
	m.SetBool("engine.cache", true)
	// log every matcher invocation at trace level
	m.SetBool("engine.debug", false)
	// active matchers listed by parsing errors, 0 for all
	m.SetInt("engine.trace_limit", defaultTraceLimit)
	// fail matches that leave input behind
	m.SetBool("parse.require_full", false)
	// leave transient matchers out of syntax trees
	m.SetBool("tree.elide_transient", true)
	return &m
}

// NewEngineFromConfig creates an engine set up with the values of
// `cfg`.  Options in `opts` are applied afterwards, so they win over
// the configuration.
func NewEngineFromConfig(cfg *Config, opts ...Option) *Engine {
	base := []Option{
		WithCache(cfg.GetBool("engine.cache")),
		WithDebug(cfg.GetBool("engine.debug")),
		WithTraceLimit(cfg.GetInt("engine.trace_limit")),
		WithRequireFull(cfg.GetBool("parse.require_full")),
		WithTransientElision(cfg.GetBool("tree.elide_transient")),
	}
	return NewEngine(append(base, opts...)...)
}

// Dump writes every setting and its value, sorted by key.
func (c *Config) Dump(w io.Writer) {
	keys := c.Keys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s : %s\n", k, strings.Repeat(" ", width-len(k)), (*c)[k])
	}
}

// Keys returns the sorted names of all settings.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(*c))
	for k := range *c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
	}[vt]
}

type cfgVal struct {
	typ    cfgValType
	asBool bool
	asInt  int
}

// assignType panics when a setting changes type, which can only be a
// programming error.
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	default:
		return "(undefined)"
	}
}

func (c *Config) set(path string, vt cfgValType) *cfgVal {
	v, ok := (*c)[path]
	if !ok {
		v = &cfgVal{}
		(*c)[path] = v
	}
	v.assignType(vt)
	return v
}

func (c *Config) get(path string, vt cfgValType) *cfgVal {
	v, ok := (*c)[path]
	if !ok {
		name := vt.String()
		panic(fmt.Sprintf("%s setting `%s` does not exist", strings.ToUpper(name[:1])+name[1:], path))
	}
	v.checkType(vt)
	return v
}

func (c *Config) SetBool(path string, v bool) { c.set(path, cfgValType_Bool).asBool = v }
func (c *Config) SetInt(path string, v int)   { c.set(path, cfgValType_Int).asInt = v }
func (c *Config) GetBool(path string) bool    { return c.get(path, cfgValType_Bool).asBool }
func (c *Config) GetInt(path string) int      { return c.get(path, cfgValType_Int).asInt }

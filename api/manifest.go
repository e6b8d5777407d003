package api

// Manifest is the root of a declarative view definition file (HCL).
// It declares a set of named views over files and over each other.
type Manifest struct {
	// Views in declaration order. Later views may reference earlier ones.
	Views []ViewBlock `hcl:"view,block"`
}

// ViewBlock declares a single view: its targets and strategies.
type ViewBlock struct {
	// Name of the view. The build command writes it as <name>.view.
	Name string `hcl:"name,label"`
	// Targets are file paths (relative paths resolve against the manifest's
	// directory) or "@name" references to views declared earlier in the
	// same manifest.
	Targets []string `hcl:"targets"`
	// Derive selects the derivation strategy.
	Derive StrategyBlock `hcl:"derive,block"`
	// Persist optionally selects the persistence strategy used by solidify.
	Persist *StrategyBlock `hcl:"persist,block"`
}

// StrategyBlock names a registered strategy and its parameters.
type StrategyBlock struct {
	// Name of the registered strategy (e.g. "text.concat").
	Name string `hcl:"name,label"`
	// Params passed to the strategy builder.
	Params map[string]string `hcl:"params,optional"`
}

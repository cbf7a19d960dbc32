package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/layout"
)

// settingsFlags are the layout flags shared by layout, metrics and export.
// Explicit flags override the settings file, which overrides the defaults.
type settingsFlags struct {
	file         string
	inner        string
	intermediate string
	root         string
	margin       float64
	padding      float64
	seed         uint64
	noPorts      bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "settings", "s", "", "settings file (TOML or JSON)")
	fl.StringVar(&f.inner, "inner", "", "algorithm for the innermost tier: layerTree, circular, forceBased, straightTree")
	fl.StringVar(&f.intermediate, "intermediate", "", "algorithm for intermediate tiers")
	fl.StringVar(&f.root, "root", "", "algorithm for the top level")
	fl.Float64Var(&f.margin, "margin", layout.DefaultNodeMargin, "gap between sibling nodes on every tier")
	fl.Float64Var(&f.padding, "padding", layout.DefaultNodePadding, "inset between a container border and its members")
	fl.Uint64Var(&f.seed, "seed", layout.DefaultSeed, "seed for the force simulation")
	fl.BoolVar(&f.noPorts, "no-ports", false, "attach edges to node borders without ports")
}

// resolve builds the effective settings for cmd.
func (f *settingsFlags) resolve(cmd *cobra.Command) (layout.Settings, error) {
	s := layout.DefaultSettings()
	if f.file != "" {
		var err error
		if s, err = layout.LoadSettingsFile(f.file); err != nil {
			return s, err
		}
	}

	changed := cmd.Flags().Changed
	for _, a := range []struct {
		flag  string
		value string
		tier  layout.Tier
	}{
		{"inner", f.inner, layout.TierInner},
		{"intermediate", f.intermediate, layout.TierIntermediate},
		{"root", f.root, layout.TierRoot},
	} {
		if !changed(a.flag) {
			continue
		}
		alg := layout.Algorithm(a.value)
		if !layout.IsAlgorithm(alg) {
			return s, errors.New(errors.ErrCodeInvalidSettings, "unknown algorithm %q for --%s", a.value, a.flag)
		}
		s.Layouts.Set(a.tier, alg)
	}
	if changed("margin") {
		s.NodeMargin = layout.All(f.margin)
	}
	if changed("padding") {
		s.NodePadding = f.padding
	}
	if changed("seed") {
		s.Seed = f.seed
	}
	if f.noPorts {
		s.ShowEdgePorts = false
	}
	return s, s.Validate()
}

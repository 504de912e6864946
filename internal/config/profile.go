package config

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sort"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

// Profile describes every column policy of one pipeline variant.
type Profile struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	IDColumn string `yaml:"id_column"`

	Outlier       *OutlierRule   `yaml:"outlier"`
	Impute        ImputePolicy   `yaml:"impute"`
	Polynomial    PolynomialSpec `yaml:"polynomial"`
	EqualityFlags []EqualityFlag `yaml:"equality_flags"`
	PresenceFlags []PresenceFlag `yaml:"presence_flags"`
	Remaps        []Remap        `yaml:"remaps"`
	Recodes       []Recode       `yaml:"recodes"`
	Bins          []BinRule      `yaml:"bins"`
	OneHot        []string       `yaml:"one_hot"`
	Drop          []string       `yaml:"drop"`

	SelectFeatures bool `yaml:"select_features"`
	LogTarget      bool `yaml:"log_target"`
}

// OutlierRule removes training rows whose Column value exceeds Threshold.
type OutlierRule struct {
	Column    string  `yaml:"column"`
	Threshold float64 `yaml:"threshold"`
}

// ImputePolicy lists the columns filled by each imputation strategy. The
// strategies run in field order.
type ImputePolicy struct {
	Sentinel        string            `yaml:"sentinel"`
	SentinelColumns []string          `yaml:"sentinel_columns"`
	GroupMedian     []GroupMedianRule `yaml:"group_median"`
	ZeroColumns     []string          `yaml:"zero_columns"`
	ModeColumns     []string          `yaml:"mode_columns"`
}

// GroupMedianRule fills Column with the median of rows sharing GroupBy.
type GroupMedianRule struct {
	Column  string `yaml:"column"`
	GroupBy string `yaml:"group_by"`
}

// PolynomialSpec derives powers and square roots of base columns.
type PolynomialSpec struct {
	Columns []string `yaml:"columns"`
	Powers  []int    `yaml:"powers"`
	Sqrt    bool     `yaml:"sqrt"`
}

// EqualityFlag emits WhenEqual where Left == Right and 1-WhenEqual otherwise.
type EqualityFlag struct {
	Name      string  `yaml:"name"`
	Left      string  `yaml:"left"`
	Right     string  `yaml:"right"`
	WhenEqual float64 `yaml:"when_equal"`
}

// PresenceFlag emits 1 where Column is non-zero.
type PresenceFlag struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
}

// Remap rewrites categorical labels through Mapping.
type Remap struct {
	Column  string            `yaml:"column"`
	Mapping map[string]string `yaml:"mapping"`
}

// Recode turns categorical labels into numbers. The result replaces Column
// unless Target names a new column.
type Recode struct {
	Column  string             `yaml:"column"`
	Target  string             `yaml:"target"`
	Mapping map[string]float64 `yaml:"mapping"`
}

// BinRule buckets a numeric column by fixed Breakpoints, or by Quantiles
// computed from the training rows when Quantiles is set.
type BinRule struct {
	Column      string    `yaml:"column"`
	Breakpoints []float64 `yaml:"breakpoints"`
	Quantiles   int       `yaml:"quantiles"`
}

// TargetColumn returns the column the recode writes to.
func (r Recode) TargetColumn() string {
	if r.Target != "" {
		return r.Target
	}
	return r.Column
}

// BuiltinProfiles returns the names of the embedded profiles.
func BuiltinProfiles() []string {
	entries, err := builtinProfiles.ReadDir("profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		names = append(names, name[:len(name)-len(".yaml")])
	}
	sort.Strings(names)
	return names
}

// LoadProfile resolves nameOrPath to an embedded profile, or failing that a
// profile file on disk.
func LoadProfile(nameOrPath string) (*Profile, error) {
	const op = "load profile"

	data, err := builtinProfiles.ReadFile("profiles/" + nameOrPath + ".yaml")
	if err != nil {
		if _, statErr := os.Stat(nameOrPath); statErr != nil {
			return nil, errors.NewConfigError(op,
				fmt.Sprintf("unknown profile %q (built-in profiles: %v)", nameOrPath, BuiltinProfiles()), nil)
		}
		return LoadProfileFile(nameOrPath)
	}
	return ParseProfile(data)
}

// LoadProfileFile reads and validates a profile YAML file.
func LoadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("load profile", fmt.Sprintf("reading profile %s", path), err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a profile document. Unknown keys are rejected.
func ParseProfile(data []byte) (*Profile, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var profile Profile
	if err := decoder.Decode(&profile); err != nil {
		return nil, errors.NewConfigError("parse profile", "invalid profile document", err)
	}
	if profile.Impute.Sentinel == "" {
		profile.Impute.Sentinel = "None"
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Validate checks the profile for contradictions that would otherwise
// surface halfway through a run.
func (p *Profile) Validate() error {
	const op = "validate profile"
	fail := func(format string, args ...any) error {
		return errors.NewConfigError(op, fmt.Sprintf("profile %q: ", p.Name)+fmt.Sprintf(format, args...), nil)
	}

	if p.Label == "" {
		return fail("label must not be empty")
	}
	if p.Outlier != nil && p.Outlier.Column == "" {
		return fail("outlier rule needs a column")
	}

	seen := make(map[string]string)
	claim := func(strategy string, columns ...string) error {
		for _, col := range columns {
			if prev, ok := seen[col]; ok {
				return fail("column %q is imputed by both %s and %s", col, prev, strategy)
			}
			seen[col] = strategy
		}
		return nil
	}
	if err := claim("sentinel", p.Impute.SentinelColumns...); err != nil {
		return err
	}
	for _, rule := range p.Impute.GroupMedian {
		if rule.Column == "" || rule.GroupBy == "" {
			return fail("group median rule needs column and group_by")
		}
		if err := claim("group median", rule.Column); err != nil {
			return err
		}
	}
	if err := claim("zero", p.Impute.ZeroColumns...); err != nil {
		return err
	}
	if err := claim("mode", p.Impute.ModeColumns...); err != nil {
		return err
	}

	for _, power := range p.Polynomial.Powers {
		if power < 2 {
			return fail("polynomial powers must be at least 2, got %d", power)
		}
	}

	for _, flag := range p.EqualityFlags {
		if flag.Name == "" || flag.Left == "" || flag.Right == "" {
			return fail("equality flag needs name, left and right")
		}
		if flag.WhenEqual != 0 && flag.WhenEqual != 1 {
			return fail("equality flag %q: when_equal must be 0 or 1, got %g", flag.Name, flag.WhenEqual)
		}
	}
	for _, flag := range p.PresenceFlags {
		if flag.Name == "" || flag.Column == "" {
			return fail("presence flag needs name and column")
		}
	}
	for _, remap := range p.Remaps {
		if remap.Column == "" || len(remap.Mapping) == 0 {
			return fail("remap needs a column and a non-empty mapping")
		}
	}
	for _, recode := range p.Recodes {
		if recode.Column == "" || len(recode.Mapping) == 0 {
			return fail("recode needs a column and a non-empty mapping")
		}
	}

	for _, bin := range p.Bins {
		if err := bin.validate(); err != nil {
			return fail("%v", err)
		}
	}

	oneHot := make(map[string]bool, len(p.OneHot))
	for _, col := range p.OneHot {
		if oneHot[col] {
			return fail("column %q is one-hot encoded twice", col)
		}
		oneHot[col] = true
	}
	return nil
}

func (b BinRule) validate() error {
	if b.Column == "" {
		return fmt.Errorf("bin rule needs a column")
	}
	if b.Quantiles != 0 {
		if len(b.Breakpoints) > 0 {
			return fmt.Errorf("bin rule %q sets both breakpoints and quantiles", b.Column)
		}
		if b.Quantiles < 2 {
			return fmt.Errorf("bin rule %q: quantiles must be at least 2, got %d", b.Column, b.Quantiles)
		}
		return nil
	}
	if len(b.Breakpoints) == 0 {
		return fmt.Errorf("bin rule %q needs breakpoints or quantiles", b.Column)
	}
	for i := 1; i < len(b.Breakpoints); i++ {
		if b.Breakpoints[i] <= b.Breakpoints[i-1] {
			return fmt.Errorf("bin rule %q: breakpoints must be strictly increasing", b.Column)
		}
	}
	return nil
}

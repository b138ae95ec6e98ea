// Package profile defines validation profiles. A profile switches optional
// rules on or off and provides a SystemPromptAddendum that is appended to the
// system prompt used for LLM-assisted repair.
package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Profile describes how strictly a report is checked.
type Profile struct {
	Name                 string
	Description          string
	SystemPromptAddendum string
	// RecommendedStepTypes rejects stepType values without a known icon.
	RecommendedStepTypes bool
	// RootSeqCall requires the root step to be a sequence call.
	RootSeqCall bool
	// EmptySequences allows a seqCall step with no child steps.
	EmptySequences bool
	// StepIDOrder enforces pre-order step numbering.
	StepIDOrder bool
}

// Default is the profile used when none is named.
const Default = "standard"

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"standard": {
		Name:        "standard",
		Description: "Default profile; the rules the reporting service enforces.",
		SystemPromptAddendum: "Apply the standard report rules. A sequence call step may have no " +
			"child steps. stepType may be any non-empty string.",
		EmptySequences: true,
		StepIDOrder:    true,
	},
	"strict": {
		Name:        "strict",
		Description: "Standard rules plus recommended step types, a sequence-call root and no empty sequences.",
		SystemPromptAddendum: "Apply strict report rules. stepType must be one of the recommended " +
			"step types. The root step must carry seqCall. Every step with seqCall must contain " +
			"at least one child step.",
		RecommendedStepTypes: true,
		RootSeqCall:          true,
		EmptySequences:       false,
		StepIDOrder:          true,
	},
	"lenient": {
		Name:        "lenient",
		Description: "Standard rules without step id ordering; for tools that do not number steps.",
		SystemPromptAddendum: "Step ids are not checked for ordering. Do not renumber steps unless " +
			"another rule requires it.",
		EmptySequences: true,
		StepIDOrder:    false,
	},
}

// Names returns the built-in profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Standard returns the default profile.
func Standard() Profile { return builtins[Default] }

// Load returns the named built-in profile or an error if the name is unknown.
// An empty name loads the default profile.
func Load(name string) (Profile, error) {
	if name == "" {
		name = Default
	}
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

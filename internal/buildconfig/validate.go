package buildconfig

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Violation is a single broken invariant, identified by its field path.
type Violation struct {
	Field   string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

func (v *Violation) Is(target error) bool {
	return target == ErrInvalid
}

// ValidationResult collects every violation found in a descriptor. An empty result is valid.
type ValidationResult struct {
	Violations []Violation
}

func (r ValidationResult) Valid() bool {
	return len(r.Violations) == 0
}

// Err joins the violations into one error, or returns nil when the result is valid.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, 0, len(r.Violations))
	for i := range r.Violations {
		errs = append(errs, &r.Violations[i])
	}
	return errors.Join(errs...)
}

func (r *ValidationResult) add(field, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

var hashPlaceholder = regexp.MustCompile(`\[(chunkhash|contenthash|hash)(:\d+)?\]`)

var compressFormats = []string{"gzip", "zstd", "br"}

// Validate checks the descriptor invariants and reports every violation at once rather than
// stopping at the first.
func Validate(cfg *BuildConfig) ValidationResult {
	var res ValidationResult

	validateEntryPoints(cfg, &res)
	validateTransformRules(cfg, &res)
	validatePostProcessors(cfg, &res)
	validateOptimization(cfg, &res)
	validateArtifactTemplates(cfg, &res)

	return res
}

func validateEntryPoints(cfg *BuildConfig, res *ValidationResult) {
	for _, name := range cfg.EntryPoints.Names() {
		path := fmt.Sprintf("entryPoints[%q]", name)

		if strings.TrimSpace(name) == "" {
			res.add(path, "bundle name is empty")
		}

		modules := cfg.EntryPoints[name]
		if len(modules) == 0 {
			res.add(path, "at least one module is required")
		}
		for i, m := range modules {
			if strings.TrimSpace(m) == "" {
				res.add(fmt.Sprintf("%s[%d]", path, i), "module identifier is empty")
			}
		}
	}
}

func validateTransformRules(cfg *BuildConfig, res *ValidationResult) {
	// phase + match of every rule without an exclusion, pointing at the first rule index
	unguarded := make(map[string]int)

	for i, rule := range cfg.TransformRules {
		path := fmt.Sprintf("transformRules[%d]", i)

		phase := rule.EffectivePhase()
		if phase != PhasePre && phase != PhaseNormal {
			res.add(path+".phase", "unknown phase %q (supported: pre, normal)", rule.Phase)
		}

		if rule.Match == "" {
			res.add(path+".match", "pattern is required")
		} else if _, err := regexp.Compile(rule.Match); err != nil {
			res.add(path+".match", "invalid pattern: %v", err)
		}

		if rule.Exclude != "" {
			if _, err := regexp.Compile(rule.Exclude); err != nil {
				res.add(path+".exclude", "invalid pattern: %v", err)
			}
		} else if rule.Match != "" {
			key := string(phase) + "\x00" + rule.Match
			if first, ok := unguarded[key]; ok {
				res.add(path, "ambiguous precedence: same match %q as transformRules[%d] and no exclusion", rule.Match, first)
			} else {
				unguarded[key] = i
			}
		}

		validateHandler(rule, path, res)
	}
}

func validateHandler(rule TransformRule, path string, res *ValidationResult) {
	if !slices.Contains(Handlers, rule.Handler) {
		res.add(path+".handler", "unknown handler %q", rule.Handler)
		return
	}

	if rule.Handler == HandlerLint && rule.EffectivePhase() != PhasePre {
		res.add(path+".handler", "lint rules must run in the pre phase")
	}
	if rule.Handler != HandlerLint && rule.EffectivePhase() == PhasePre {
		res.add(path+".handler", "only lint rules may run in the pre phase")
	}

	switch rule.Handler {
	case HandlerURL:
		limit, err := rule.IntOption("limit", DefaultInlineLimit)
		if err != nil {
			res.add(path+".options", "%v", err)
		} else if limit < 0 {
			res.add(path+".options", "option limit must not be negative")
		}
	case HandlerLint:
		if _, err := rule.BoolOption("failOnError", true); err != nil {
			res.add(path+".options", "%v", err)
		}
	case HandlerStyle:
		if _, err := rule.BoolOption("modules", false); err != nil {
			res.add(path+".options", "%v", err)
		}
	}
}

func validatePostProcessors(cfg *BuildConfig, res *ValidationResult) {
	for i, pp := range cfg.PostProcessors {
		path := fmt.Sprintf("postProcessors[%d]", i)

		if pp.Kind != PostProcessVendorPrefix {
			res.add(path+".kind", "unknown post processor %q", pp.Kind)
			continue
		}
		if len(pp.Browsers) == 0 {
			res.add(path+".browsers", "at least one browser query is required")
		}
		for j, q := range pp.Browsers {
			if _, err := ParseBrowserQuery(q); err != nil {
				res.add(fmt.Sprintf("%s.browsers[%d]", path, j), "%v", err)
			}
		}
	}
}

func validateOptimization(cfg *BuildConfig, res *ValidationResult) {
	opt := cfg.Optimization

	if opt.SharedBundle != "" && !cfg.EntryPoints.Has(opt.SharedBundle) {
		res.add("optimization.sharedBundle", "references unknown bundle %q", opt.SharedBundle)
	}

	for i, ex := range opt.ExcludeLocales {
		path := fmt.Sprintf("optimization.excludeLocales[%d]", i)
		if ex.Request == "" {
			res.add(path+".request", "pattern is required")
		} else if _, err := regexp.Compile(ex.Request); err != nil {
			res.add(path+".request", "invalid pattern: %v", err)
		}
		for j, c := range ex.Contexts {
			if _, err := regexp.Compile(c); err != nil {
				res.add(fmt.Sprintf("%s.contexts[%d]", path, j), "invalid pattern: %v", err)
			}
		}
	}

	for i, format := range opt.Compress {
		if !slices.Contains(compressFormats, format) {
			res.add(fmt.Sprintf("optimization.compress[%d]", i), "unknown format %q (supported: %s)", format, strings.Join(compressFormats, ", "))
		}
	}
}

func validateArtifactTemplates(cfg *BuildConfig, res *ValidationResult) {
	filenames := make(map[string]bool)
	sharingVendor := 0

	for i, tmpl := range cfg.ArtifactTemplates {
		path := fmt.Sprintf("artifactTemplates[%d]", i)

		if tmpl.Filename == "" {
			res.add(path+".filename", "filename is required")
		} else if filenames[tmpl.Filename] {
			res.add(path+".filename", "duplicate filename %q", tmpl.Filename)
		} else {
			filenames[tmpl.Filename] = true
		}

		if len(tmpl.Bundles) == 0 {
			res.add(path+".bundles", "at least one bundle is required")
		}
		for j, name := range tmpl.Bundles {
			if name != VendorBundle && !cfg.EntryPoints.Has(name) {
				res.add(fmt.Sprintf("%s.bundles[%d]", path, j), "references unknown bundle %q", name)
			}
		}

		if tmpl.IncludesBundle(VendorBundle) {
			sharingVendor++
		}
	}

	if sharingVendor > 1 && !hashPlaceholder.MatchString(cfg.Output.Filename) {
		res.add("output.filename", "pattern %q must include a content hash placeholder when %d artifact templates share the %s bundle", cfg.Output.Filename, sharingVendor, VendorBundle)
	}
}

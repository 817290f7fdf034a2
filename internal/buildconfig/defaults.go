package buildconfig

// versionQuery matches the optional "?v=1.2.3" cache suffix used by icon font stylesheets.
const versionQuery = `(\?v=[0-9]\.[0-9]\.[0-9])?`

const sourceExclude = `node_modules|vendor`

// Production returns the production build descriptor for the web client.
//
// Every call returns a freshly allocated value so callers can never observe each other's
// changes.
func Production() *BuildConfig {
	return &BuildConfig{
		Context: ".",
		EntryPoints: EntryPoints{
			"app":          {"./app/scripts/main"},
			"contrast-app": {"./app/scripts/contrast-main"},
			"terminal-app": {"./app/scripts/terminal-main"},
			// keep vendors and app bundles roughly the same size
			VendorBundle: {
				"babel-polyfill", "classnames", "d3", "immutable",
				"lodash", "react", "react-dom", "react-redux",
				"redux", "redux-thunk",
			},
		},
		Output: Output{
			Directory:     "build",
			Filename:      "[chunkhash].js",
			AssetFilename: "[name]-[hash]",
		},
		Resolve: Resolve{
			Extensions: []string{".js", ".jsx"},
		},
		TransformRules: []TransformRule{
			{
				Phase:   PhasePre,
				Match:   `\.js$`,
				Exclude: sourceExclude,
				Handler: HandlerLint,
				Options: map[string]any{"failOnError": true},
			},
			{
				Match:   `\.css$`,
				Handler: HandlerStyle,
			},
			{
				Match:   `\.woff(2)?` + versionQuery + `$`,
				Handler: HandlerURL,
				Options: map[string]any{"limit": DefaultInlineLimit},
			},
			{
				Match:   `\.(ttf|eot|svg|ico)` + versionQuery + `$`,
				Handler: HandlerFile,
			},
			{
				Match:   `\.jsx?$`,
				Exclude: sourceExclude,
				Handler: HandlerScript,
			},
		},
		PostProcessors: []PostProcessor{
			{Kind: PostProcessVendorPrefix, Browsers: []string{"last 2 versions"}},
		},
		Optimization: Optimization{
			Clean:               true,
			Bail:                true,
			DeadCodeElimination: true,
			Minify:              true,
			Define: map[string]string{
				"process.env.NODE_ENV": `"production"`,
			},
			SharedBundle: VendorBundle,
			ExcludeLocales: []LocaleExclusion{
				{Request: `^\./locale$`, Contexts: []string{`moment$`}},
			},
		},
		ArtifactTemplates: []ArtifactTemplate{
			{
				Template:  "app/html/index.html",
				Filename:  "contrast.html",
				Bundles:   []string{VendorBundle, "contrast-app"},
				CacheBust: true,
			},
			{
				Template:  "app/html/index.html",
				Filename:  "terminal.html",
				Bundles:   []string{VendorBundle, "terminal-app"},
				CacheBust: true,
			},
			{
				Template:  "app/html/index.html",
				Filename:  "index.html",
				Bundles:   []string{VendorBundle, "app"},
				CacheBust: true,
			},
		},
	}
}

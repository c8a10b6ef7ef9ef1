package registry

import "assetd/pkg/types"

// builtin returns the stock catalog: the vendor libraries the blog ships
// with, each with a jsdelivr primary, a second CDN mirror and a local
// vendor-dir file as the last resort. Order inside a family is load order.
func builtin() []types.AssetDescriptor {
	return []types.AssetDescriptor{
		{
			ID:         "highlight-core",
			Family:     "highlight",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/gh/highlightjs/cdn-release@11.9.0/build/highlight.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/highlight.min.js",
			},
			LocalFallback: "vendor/highlight.min.js",
			Attributes:    map[string]string{"group": "highlight"},
			Priority:      "high",
		},
		{
			ID:         "highlight-theme",
			Family:     "highlight",
			Kind:       types.KindStyle,
			PrimaryURL: "https://cdn.jsdelivr.net/gh/highlightjs/cdn-release@11.9.0/build/styles/github-dark.min.css",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/styles/github-dark.min.css",
			},
			LocalFallback: "vendor/github-dark.min.css",
			Attributes:    map[string]string{"group": "highlight"},
			Priority:      "high",
		},
		{
			ID:         "highlight-lang-go",
			Family:     "highlight",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/gh/highlightjs/cdn-release@11.9.0/build/languages/go.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/languages/go.min.js",
			},
			Attributes: map[string]string{"group": "highlight"},
			Priority:   "low",
			Gated:      true,
		},
		{
			ID:         "highlight-lang-yaml",
			Family:     "highlight",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/gh/highlightjs/cdn-release@11.9.0/build/languages/yaml.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/languages/yaml.min.js",
			},
			Attributes: map[string]string{"group": "highlight"},
			Priority:   "low",
			Gated:      true,
		},
		{
			ID:         "katex-core",
			Family:     "katex",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/KaTeX/0.16.9/katex.min.js",
			},
			LocalFallback: "vendor/katex.min.js",
			Attributes:    map[string]string{"group": "katex"},
			Priority:      "high",
		},
		{
			ID:         "katex-style",
			Family:     "katex",
			Kind:       types.KindStyle,
			PrimaryURL: "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.css",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/KaTeX/0.16.9/katex.min.css",
			},
			LocalFallback: "vendor/katex.min.css",
			Attributes:    map[string]string{"group": "katex"},
			Priority:      "high",
		},
		{
			ID:         "katex-auto-render",
			Family:     "katex",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/contrib/auto-render.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/KaTeX/0.16.9/contrib/auto-render.min.js",
			},
			Attributes: map[string]string{"group": "katex"},
			Priority:   "low",
			Gated:      true,
		},
		{
			ID:         "masonry",
			Family:     "masonry",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/npm/masonry-layout@4.2.2/dist/masonry.pkgd.min.js",
			FallbackURLs: []string{
				"https://unpkg.com/masonry-layout@4.2.2/dist/masonry.pkgd.min.js",
			},
			LocalFallback: "vendor/masonry.pkgd.min.js",
			Attributes:    map[string]string{"group": "masonry"},
			Priority:      "normal",
		},
		{
			ID:         "particles",
			Family:     "particles",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/npm/particles.js@2.0.0/particles.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/particles.js/2.0.0/particles.min.js",
			},
			LocalFallback: "vendor/particles.min.js",
			Attributes:    map[string]string{"group": "particles"},
			Priority:      "normal",
		},
		{
			ID:         "lazyload",
			Family:     "lazyload",
			Kind:       types.KindScript,
			PrimaryURL: "https://cdn.jsdelivr.net/npm/vanilla-lazyload@17.8.5/dist/lazyload.min.js",
			FallbackURLs: []string{
				"https://cdnjs.cloudflare.com/ajax/libs/vanilla-lazyload/17.8.5/lazyload.min.js",
			},
			LocalFallback: "vendor/lazyload.min.js",
			Attributes:    map[string]string{"group": "lazyload"},
			Priority:      "normal",
		},
	}
}

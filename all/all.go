// Package all imports all supported manifest formats.
//
// Import this package for its side effects to register every format:
//
//	import (
//		"github.com/git-pkgs/paxd"
//		_ "github.com/git-pkgs/paxd/all"
//	)
//
//	// Now all formats are available, in resolution order
//	sources := paxd.SupportedSources()
//	// ["package.yaml", "paxd.yaml", "paxd"]
package all

import (
	_ "github.com/git-pkgs/paxd/internal/jsonc"
	_ "github.com/git-pkgs/paxd/internal/yamlmanifest"
)

// Package rules finds and reads rule files in a checkout of a rules
// repository.
//
// # Layout
//
// The rules root is the first of these that exists:
//
//	.cursor/rules/   editor convention
//	rules/           plain directory
//	.cursorrules     a single rules file
//	.                the repository root
//
// Inside a directory root a logical name such as "code-style" is looked up
// as, for .mdc and then .md:
//
//	code-style.mdc
//	10-code-style.mdc        (any numeric ordering prefix)
//	code-style/README.mdc
//
// The first existing file wins. Templates and Candidates expose this order
// so it can be checked without touching a filesystem.
//
// # Usage
//
//	fsys := osfs.New(mirror.Path())
//
//	res, err := rules.NewLocator(fsys).Resolve("code-style")
//	if err != nil {
//	    return err
//	}
//	if !res.Found {
//	    fmt.Println("try one of:", res.Alternatives)
//	}
//
//	all, err := rules.NewCatalog(fsys).ReadAll()
//
// Every call reads the filesystem; nothing is cached between calls.
package rules

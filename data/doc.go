// Package data loads the data contexts that templates render against.
//
// Documents are JSON (comments and trailing commas allowed) or YAML,
// chosen by file extension. Several documents merge in order, later values
// replacing earlier ones and nested mappings merging key by key:
//
//	ctx, err := data.Load(os.Stdin, "defaults.yaml", "site.jsonc", data.Stdin)
//	err = data.Set(ctx, "site.title=Home")
//	err = data.Set(ctx, "site.pages=3")
//
// The name [Stdin] reads a document from the given reader instead of a
// file. Failures are *Error values that match the package sentinels with
// errors.Is and log their attributes through slog.
//
// Values are normalized so that integers are int and mappings are
// map[string]any at every depth.
package data

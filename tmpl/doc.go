// Package tmpl compiles text templates with embedded code into reusable
// routines.
//
// A template is literal text interleaved with tags. The default delimiters
// are "<%" and "%>"; an escape rune before a delimiter ("\<%") emits the
// delimiter literally, and a doubled escape ("\\") emits one escape rune.
//
// # Tags
//
// The first two runes of a tag select its kind. A marker rune followed by a
// space is removed; "=" makes the tag an expression whose value is written
// to the output, and any other marker, or no marker, makes it a statement.
//
//	Hello, <%= user.name %>!
//	<% if (items) { %>
//	  <% for x of items { %>- <%= x %>
//	  <% } %>
//	<% } else { %>nothing<% } %>
//
// # Expressions
//
// Expressions use the expr-lang syntax (github.com/expr-lang/expr) and see
// the data context, local variables, functions added with [WithFuncs], and
// the builtins listed by [BuiltinNames].
//
// # Statements
//
// Statements are separated by semicolons. Blocks are delimited by braces
// and may span any number of tags:
//
//	let x = 1; const y = "s"; var z
//	x = x + 1; x += 2; x++; obj.field = "v"
//	if cond { } else if other { } else { }
//	while cond { }
//	for (let i = 0; i < n; i++) { }
//	for v of coll { }    for k, v in coll { }    for k in mapping { }
//	break; continue
//
// Any other statement is an expression evaluated for its side effects.
//
// # Pipeline
//
// [Parse] splits text into [Segment] values, [Generate] compiles segments
// into a [Routine], and [Routine.Render] runs it against a data context.
// [Compile] combines the first two steps.
package tmpl

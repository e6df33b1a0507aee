// Package lint drives the analysis of SQL source files.
//
// # Pipeline
//
// An Analyzer runs one file through the core stages in order:
//
//  1. lexer.Lex scans the source into tokens and lexical diagnostics
//  2. parser.Parse builds one syntax tree per statement
//  3. lexical and syntactic diagnostics are merged, lexical first
//  4. hooks registered through a HookRunner inspect the trees
//  5. diagnostics for disabled rules are moved to Result.Ignored
//
// Diagnostics describe defects in the analysed SQL and are never returned
// as errors. Errors are reserved for failures around the analysis: reading
// a file, running a hook or a cancelled context.
//
// # Configuration
//
// Use Config to disable rules:
//
//	config := lint.NewConfig()
//	config.Disable(diag.Unimplemented)
//	if err := config.DisableNames([]string{"NoStatements"}); err != nil {
//		return err
//	}
//
// # Batch analysis
//
// AnalyzeFiles analyses many files concurrently. Files are independent, so
// no state is shared between workers:
//
//	results, err := lint.NewAnalyzer(config).AnalyzeFiles(ctx, paths, 4)
package lint

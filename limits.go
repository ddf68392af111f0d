package facet

// Fixed resource bounds for the compile pipeline (C2). Each bound that a
// stage checks is enforced before or during the operation it guards, never
// after the fact; MaxNestingDepth and RegexStepBudget are not checked by
// any stage.
const (
	// MaxDocumentBytes caps the size of a source document handed to the lexer.
	MaxDocumentBytes = 4 << 20 // 4 MiB

	// MaxIndentDepth caps how many INDENT levels the lexer's indent stack may hold.
	MaxIndentDepth = 64

	// MaxFenceBytes caps the verbatim body captured between a pair of triple
	// backticks.
	MaxFenceBytes = 1 << 20 // 1 MiB

	// MaxImportDepth caps how deep @import directives may nest.
	MaxImportDepth = 16

	// MaxImports caps the total number of documents pulled in across a single
	// canonize call, regardless of nesting shape.
	MaxImports = 256

	// MaxLensChain caps the number of lens calls in a single pipeline.
	MaxLensChain = 32

	// MaxNestingDepth is not referenced by any stage. Block nesting is bounded
	// by MaxIndentDepth in the lexer; nesting of inline collections is not
	// bounded.
	MaxNestingDepth = 128

	// RegexStepBudget is an advisory cap on regex evaluation steps used by
	// regex_replace and @var_types pattern constraints. Go's RE2-backed
	// regexp package runs in time linear in input size and cannot backtrack
	// catastrophically, so this budget is informational only.
	RegexStepBudget = 1 << 20
)

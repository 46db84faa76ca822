// Package errors provides structured error types for the unionlayout module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/schema type names, and cause chain.
//
// The layout error taxonomy maps onto Phase/Kind pairs:
//
//	compile   invalid_schema                          schema malformed
//	compile   strategy_unsupported_for_storage_class  e.g. indirected on transient storage
//	lookup    unknown_field                           no such field in the variant
//	lookup    variant_mismatch                        variant is not selected, or stale accessor
//	decode    selector_out_of_range                   selector >= number of variants
//	decode    truncated_buffer                        buffer shorter than head + tail
//	decode    malformed_tail_pointer                  tail pointer outside the buffer
//	operation not_current_variant                     clear of a variant that is not selected
//
// Each pair has a sentinel (ErrInvalidSchema, ErrVariantMismatch, ...) for use
// with errors.Is, which matches on Phase and Kind only:
//
//	if errors.Is(err, errors.ErrSelectorOutOfRange) { ... }
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("C", "xs", "0").
//		GoType("string").
//		SchemaType("int32").
//		Detail("cannot convert string to integer").
//		Build()
package errors

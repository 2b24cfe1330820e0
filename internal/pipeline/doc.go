// Package pipeline holds the transformation steps of the decade summary job:
// deriving the decade bucket from a release year, aggregating movie counts
// and mean ratings per bucket, ordering the result, and rendering a preview
// table. Everything here is pure and operates on domain values.
package pipeline

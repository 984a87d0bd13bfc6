// Package mediatypes provides shared type definitions for media handling
// across the library converter.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # Media Kinds
//
// Kind is the closed variant every component dispatches on:
//
//	mediatypes.KindImage // converted to JPEG XL ("jxl")
//	mediatypes.KindVideo // converted to AV1 in MP4 ("mp4")
//
// Use ParseKind to map the catalog's asset type onto a Kind:
//
//	kind, ok := mediatypes.ParseKind("VIDEO")
//
// # Format Labels
//
// The Format* constants are the labels returned by the sniff package. They are
// compared against Kind.Target when validating output.
package mediatypes

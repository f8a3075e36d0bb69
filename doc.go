package protoform

// Package protoform provides:
//
// - A serialization-neutral document tree (Value/Sequence/Mapping) fed by
//   pluggable sources (source/yaml, source/json)
// - Schema discovery over struct tags with per-type cached field descriptors
// - Four marshaling operations per type (Deserialize, Populate, Serialize, Copy)
//   with presence-aware round-tripping: absence is distinguishable from a default
// - A validation engine producing a verdict tree isomorphic to the input mapping
// - Template inheritance across a forest of named prototypes (prototype/) with
//   per-field inheritance behavior and atomic publication of resolved objects
//
// Design policy:
// - Keep only public APIs in the root package; place sources under source/,
//   field codecs under codec/, the inheritance resolver under prototype/, and
//   the CLI under cmd/protoform.
// - Recoverable faults (validation findings, duplicate tags) are surfaced as
//   data via Issues; structural faults (schema misconfiguration, inheritance
//   cycles) abort only the affected type or subtree, never the whole load.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  reg := protoform.New()
//  doc, err := yamlsrc.DecodeMapping(data)
//  fields, err := protoform.Deserialize[Monster](ctx, reg, doc, protoform.Options{})
//  m := new(Monster)
//  err = reg.Populate(ctx, m, fields, protoform.Options{})
//

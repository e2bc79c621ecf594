/*
Package document decodes machine index and machine graph documents.

Documents are accepted as JSON or YAML. Both are first parsed into a generic tree
and then decoded into domain types with mapstructure, which lets every graph source
(local files, HTTP, loam repositories, in-memory fixtures) share one decoding path.

Two legacy spellings written by earlier releases are accepted:

  - "config" as an alias for "configRef" in machine descriptors.
  - a bare string confidence ("confidence": "high") instead of an object.
*/
package document

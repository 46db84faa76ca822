// Package schema models tagged-union schemas: a Union is an ordered list of
// named Variants, each an ordered list of named, typed Fields.
//
// Types follow Solidity ABI naming: uintN and intN (N = 8..256), bool, bytesN
// (N = 1..32), address, function, bytes, string, fixed arrays T[k], dynamic
// arrays T[] and tuples. Every type knows whether it is dynamic and how many
// head words it occupies; a dynamic type always occupies one pointer word.
//
// Schemas are built in Go with the type constructors or read from YAML:
//
//	name: E
//	variants:
//	  - name: A
//	    fields:
//	      - {name: sel, type: bytes4}
//	      - {name: owner, type: address}
//	  - name: C
//	    fields:
//	      - {name: xs, type: "int32[]"}
//	  - name: B
//	    fields:
//	      - name: s
//	        type: tuple
//	        components:
//	          - {name: f, type: function}
//	          - {name: x, type: uint256}
package schema

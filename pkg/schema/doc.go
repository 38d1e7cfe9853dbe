// Package schema checks process variables against declared types.
//
// A Schema maps variable names to types. Types are written as strings in
// process documents:
//
//	string, int, float, bool, map, any
//	[string]      a list of strings
//	string?       optional, may be absent
//
// The "require" listener of the default registry uses it to guard activities:
//
//	listeners:
//	  - event: start
//	    type: require
//	    params:
//	      variables:
//	        amount: float
//	        tags: "[string]?"
package schema

// Package phone normalizes and validates raw phone input into a canonical
// international form.
//
// Normalize is a pure function: the canonical output is used as the store
// key everywhere downstream, so it must be deterministic and idempotent.
package phone

// Package language provides the static registry of supported translation
// languages. It maps locale-style tags to human-readable display names used
// in the interpreter instruction sent upstream; unknown tags resolve to
// themselves rather than being rejected.
package language

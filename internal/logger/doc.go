// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - leveled key-value helpers (DebugKV, InfoKV, WarnKV, ErrorKV).
//
// All services accept a context and extract the logger from it, enabling
// scoped, structured logging throughout the codebase.
package logger

// Package logging builds the application's slog loggers.
//
// Two output formats are supported: a compact console format
// ("TIME LEVEL component: message key=value ...") and standard slog JSON.
// Attr helpers and field-name constants keep structured keys consistent
// across components.
package logging

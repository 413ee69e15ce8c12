// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// wcagscan handles login credentials for the pages it audits. The
// SecureHandler masks them in log output:
//   - attributes keyed as credentials (username, password, cookie, token)
//   - values that look like bearer, basic or JWT tokens
//   - any literal registered through WithSecrets, wherever it appears in a
//     message, a string attribute or an error text
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, log.WithSecrets(password))
//	slog.SetDefault(logger)
package log

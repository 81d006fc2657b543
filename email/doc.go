// Package email delivers verification emails through SendGrid, Mailgun or the
// application log, optionally behind a circuit breaker.
//
// Every sender implements authcore.EmailSender. Provider failures are returned
// as-is; the engine reports them as ErrDependencyUnavailable.
package email

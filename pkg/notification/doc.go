// Package notification provides the outbound notification boundary: channel
// senders with a per-request receiver bound, a dispatcher that batches and
// delivers asynchronously, and the localized message catalog.
//
// Delivery is fire-and-forget from the caller's perspective; every attempt
// is mirrored into a send-log entry through a logging.Writer.
package notification

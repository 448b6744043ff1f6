// File: utils/constants.go
package utils

import "time"

// AuthSessionPrefix is the prefix used for Redis admin session keys.
const AuthSessionPrefix = "authSession:"

// WebhookEventPrefix namespaces processed payment webhook events.
const WebhookEventPrefix = "webhook:stripe:"

// WebhookEventTTL bounds how long a processed webhook event id is remembered.
const WebhookEventTTL = 72 * time.Hour

// DateLayout is the calendar date format used by bookable intervals.
const DateLayout = "2006-01-02"

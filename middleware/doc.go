// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP plumbing shared by all handlers: request
logging, CORS, JSON request/response helpers, client IP extraction, and
caller identity resolution from the X-Account-ID / X-Session-Handle headers.
*/
package middleware

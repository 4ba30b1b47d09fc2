/*
Package otsemsdk is a client for the Otsem Pay banking API.

# Overview

A Client talks JSON over HTTP to the banking API and reads its bearer
credential from a tokenstore.Store. The store is the only place tokens live:
the client never looks at the access_token cookie, that one exists for the
edge route gate.

	tokens := tokenstore.New(tokenstore.NewMemoryBackend(), nil)
	client := otsemsdk.New("https://api.otsem.example", tokens)

	user, err := client.Login(ctx, otsemsdk.LoginRequest{
		Email:    "ana@example.com",
		Password: "secret",
	})

# Request pipeline

Every request goes through the same steps:

  - Authorization: Bearer <access token> from the store, unless the call was
    made with the Anonymous option
  - X-XSRF-TOKEN copied from the XSRF-TOKEN cookie in the HTTP client's jar on
    POST, PUT, PATCH and DELETE
  - X-Request-ID, taken from the context when the caller has one, otherwise a
    fresh ULID

# Unauthorized responses

A 401 from any endpoint clears the token store and calls OnUnauthorized with
the login path, unless CurrentPath reports that the caller already sits on a
public auth page (/login, /admin-login, /register). The request still fails
with an *APIError so callers can stop what they were doing.

# Errors

Transport failures wrap ErrNetwork. Non-2xx responses become *APIError with
the status code and the message the API returned:

	_, err := client.AdjustBalance(ctx, accountID, adj)
	var apiErr *otsemsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
		// not an admin
	}

Input that fails validation (balance adjustments, receipt ids) returns a
ValidationError before anything is sent.

# Background polling

HealthMonitor and QuoteWatcher poll the API on a fixed interval. Start them
once and Stop them on shutdown:

	hm := otsemsdk.NewHealthMonitor(client, logger, 0)
	hm.Start()
	defer hm.Stop()
*/
package otsemsdk

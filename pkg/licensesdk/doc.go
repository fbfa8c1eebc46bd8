/*
Package licensesdk provides a client SDK for the AlekosTrader license administration API.

# Overview

The licensesdk package wraps the admin endpoints of the license service: password login
and the five license-management operations (create, list, activate, deactivate, reset
hardware binding). It provides unauthenticated operations (via SDKClient) and
authenticated operations (via Session).

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: Performs the login call and binds Sessions to a TokenStore
  - Session: Performs authenticated operations using the token held in its TokenStore

Log in to obtain a Session. The bearer token is written to the store you pass in:

	client := licensesdk.NewSDKClient("https://api.alekostrader.com")
	store := licensesdk.NewMemoryTokenStore()

	session, err := client.Login(ctx, store, "admin", "secret")

Resume a session from a store that already holds a token (for example a token persisted
by a previous process):

	session := client.Session(store)
	loggedIn, err := session.IsLoggedIn(ctx)

# Token Handling

A Session never caches the token in memory. Every authenticated call reads the token from
its TokenStore at call time and sends it as "Authorization: Bearer <token>". If the store
is empty the header is omitted, so a Logout between two calls is always honored by the
next call. No expiry check is performed client-side; the server is the only authority on
whether a token is still valid.

# License Operations

	license, err := session.CreateLicense(ctx, licensesdk.TierPro, "owner@example.com", 6)
	licenses, err := session.GetAllLicenses(ctx)
	license, err = session.DeactivateLicense(ctx, license.LicenseKey)
	license, err = session.ResetHardwareBinding(ctx, license.LicenseKey)

CreateLicense computes the expiry by adding whole calendar months to the current UTC time
using time.AddDate. Month overflow is normalized the same way as time.Date, so adding one
month to January 31st lands on March 2nd or 3rd. See ExpiryAfter.

GetAllLicenses accepts both a bare JSON array and an object wrapping the array under a
"licenses" key. Any other body shape yields an empty slice.

# Error Handling

The SDK returns two typed errors:

  - AuthError: the login call was rejected
  - RequestError: an authenticated call was rejected; Op identifies the operation

Both carry the server-supplied "message" (or "error") field of the response body, or an
operation-specific fallback such as "Failed to create license" when the body is absent
or unparsable. Failures to reach the server at all are returned as wrapped transport
errors and are neither AuthError nor RequestError.

	_, err := session.ActivateLicense(ctx, key)
	var reqErr *licensesdk.RequestError
	if errors.As(err, &reqErr) {
		fmt.Println(reqErr.StatusCode, reqErr.Message)
	}

Nothing is retried, queued or swallowed.
*/
package licensesdk

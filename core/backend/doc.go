// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package backend implements the BistroBoss REST api

The backend adds all routes to a mux router. Every route is a chain of interceptors
followed by a handler. Interceptors verify the bearer token, match the caller's identity
against the owner of the addressed records and check for the admin role. The first
failing interceptor answers the request, the handler never runs.

Routes:

	GET /                              health text
	POST /userToken                    issue token for {email}
	GET /user/admin/{email}            token, self
	GET /menu
	GET /menu/{id}
	GET /menu/category/{category}      optional ?limit=N
	GET /menu/length/{category}
	POST /menu                         token, admin
	PATCH /menu/{id}                   token, admin
	DELETE /menu/{id}                  token, admin
	GET /reviews
	POST /reviews                      token, self (body userEmail)
	GET /orders?email=                 token, self
	POST /orders                       token, self (body email)
	DELETE /order/{id}                 public unless ProtectDeletes
	GET /bookings?email=               token, self
	POST /bookings                     token, self (body userEmail)
	DELETE /bookings/{id}              public unless ProtectDeletes
	GET /allBookings                   token, admin
	GET /user
	POST /user
	PATCH /users/admin/{id}            token, admin
	DELETE /users/{id}                 token, admin
	POST /contactus                    reCAPTCHA
	POST /create-payment-intent        token
	POST /payments                     token, self (body email)
	GET /payments?email=               token, self
	GET /admin-stats                   token, admin
	GET /order-stats                   token, admin

All successful responses have status 200 and a JSON body. Failures have a JSON body
{"message": "..."}. Authentication failures and identity mismatches are 401, a missing
admin role is 403, malformed ids and bodies are 400. Unexpected failures are logged
with a numbered message and answered with 500 and the same number.
*/
package backend

/*
Package fiscalsdk is a typed client for the fiscal data API that backs the portal.

# SDKClient vs Session

Public endpoints hang off SDKClient; bearer endpoints hang off Session:

	client := fiscalsdk.NewSDKClient("http://localhost:3001")

	usos, err := client.ListUsosCFDI(ctx)
	data, err := client.GetClientData(ctx, "acme")

	session, err := client.AuthenticateWithPassword(ctx, "admin", "secret")
	links, err := session.ListClients(ctx)

A Session only carries the bearer token. The API issues no refresh token, so
when a token stops working every Session method returns an *APIError for
which IsUnauthorized reports true, and the caller must log in again. Tokens
kept elsewhere are turned back into a Session with NewSessionFromToken.

# Errors

Any 2xx response is success. Everything else becomes *APIError carrying the
status code and whatever message the body had. Transport and decode failures
are returned wrapped and never as *APIError.

# Loose JSON

The API is not strict about types: ids arrive as numbers or strings (ID) and
flags as booleans, numbers or strings (Flag).
*/
package fiscalsdk
